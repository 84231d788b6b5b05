// Package datetime parses Internet Message Format date-times (RFC 5322
// section 3.3) from a raw byte slice, slightly more permissively than the
// RFC: single-digit hour/minute/second/day are accepted, parenthesized
// comments are tolerated around the numeric fields and after the zone, and
// a bare "-0000" offset is treated the same as "+0000".
//
// The grammar is expressed as a flat set of small parsing functions, each
// taking the remaining input and returning the parsed value, the
// unconsumed remainder, and whether it matched — the same shape as the
// original implementation's combinator parser, translated into plain
// recursive-descent Go rather than a generic combinator library (none of
// the retrieval pack's Go repositories reach for one; Go's own standard
// library parses structured text this way, e.g. the recursive-descent
// parsers under go/parser).
package datetime

import (
	"time"

	"github.com/eslider/maildirpack/internal/model"
)

var monthNames = [...]string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

var dayNames = [...]string{
	"sun", "mon", "tue", "wed", "thu", "fri", "sat",
}

var obsZones = map[string]int{
	"ut":  0,
	"gmt": 0,
	"est": -5,
	"edt": -4,
	"cst": -6,
	"cdt": -5,
	"mst": -7,
	"mdt": -6,
	"pst": -8,
	"pdt": -7,
}

// Parse parses the full byte slice s as an Internet Message Format
// date-time. It requires the entire input to be consumed (save for an
// optional trailing comment/whitespace) and returns ok=false for any
// unrecognized token, calendar impossibility, or weekday mismatch.
func Parse(s []byte) (model.ParsedInstant, bool) {
	rest := s

	var wantDow int
	haveDow := false
	if dow, r, ok := dayOfWeek(rest); ok {
		// A leading day name always requires its comma; this is not a
		// speculative branch that falls back to parsing date-only.
		if len(r) == 0 || r[0] != ',' {
			return model.ParsedInstant{}, false
		}
		wantDow = dow
		haveDow = true
		rest = r[1:]
	}

	year, month, day, r, ok := date(rest)
	if !ok {
		return model.ParsedInstant{}, false
	}
	rest = r

	// time.Date silently normalizes an out-of-range day (e.g. Feb 30 rolls
	// into March); reject calendar-impossible dates instead.
	check := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if check.Year() != year || check.Month() != time.Month(month) || check.Day() != day {
		return model.ParsedInstant{}, false
	}

	hour, minute, sec, leap, r, ok := timeOfDay(rest)
	if !ok {
		return model.ParsedInstant{}, false
	}
	rest = r

	offsetSeconds, r, ok := zone(rest)
	if !ok {
		return model.ParsedInstant{}, false
	}
	rest = r

	rest, _ = cfws(rest)
	if len(rest) != 0 {
		return model.ParsedInstant{}, false
	}

	loc := time.FixedZone("", offsetSeconds)
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)

	if haveDow && int(t.Weekday()) != wantDow {
		return model.ParsedInstant{}, false
	}

	if leap {
		t = t.Add(time.Second)
	}

	return model.ParsedInstant{Time: t}, true
}

// dayOfWeek parses an optional cfws, a three-letter weekday name, and a
// trailing optional cfws, returning time.Weekday's int encoding (Sun=0).
func dayOfWeek(b []byte) (int, []byte, bool) {
	rest := b
	if r, ok := cfws(rest); ok {
		rest = r
	}
	idx, rest, ok := matchOneOfFold(rest, dayNames[:])
	if !ok {
		return 0, b, false
	}
	if r, ok := cfws(rest); ok {
		rest = r
	}
	return idx, rest, true
}

// date parses day month year and returns calendar components.
func date(b []byte) (year, month, day int, rest []byte, ok bool) {
	day, rest, ok = digitsWithCFWS(b, 1, 2)
	if !ok {
		return 0, 0, 0, b, false
	}
	idx, r, ok := matchOneOfFold(rest, monthNames[:])
	if !ok {
		return 0, 0, 0, b, false
	}
	month = idx + 1
	rest = r

	year, rest, ok = yearWithCFWS(rest)
	if !ok {
		return 0, 0, 0, b, false
	}
	return year, month, day, rest, true
}

// yearWithCFWS parses an optional cfws, two-or-more decimal digits, and a
// trailing optional cfws, applying the two-digit pivot rule.
func yearWithCFWS(b []byte) (int, []byte, bool) {
	rest := b
	if r, ok := cfws(rest); ok {
		rest = r
	}
	start := rest
	n := 0
	for n < len(rest) && isDigit(rest[n]) {
		n++
	}
	if n < 2 {
		return 0, b, false
	}
	digits := start[:n]
	rest = rest[n:]

	year := 0
	for _, d := range digits {
		year = year*10 + int(d-'0')
	}
	if len(digits) == 2 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}

	if r, ok := cfws(rest); ok {
		rest = r
	}
	return year, rest, true
}

// timeOfDay parses hour ":" minute [ ":" second ] and reports whether the
// parsed second value was a leap second (60).
func timeOfDay(b []byte) (hour, minute, sec int, leap bool, rest []byte, ok bool) {
	hour, rest, ok = digitsWithCFWS(b, 1, 2)
	if !ok {
		return 0, 0, 0, false, b, false
	}
	if len(rest) == 0 || rest[0] != ':' {
		return 0, 0, 0, false, b, false
	}
	rest = rest[1:]

	minute, rest, ok = digitsWithCFWS(rest, 1, 2)
	if !ok {
		return 0, 0, 0, false, b, false
	}

	secRaw := 0
	haveSec := false
	if len(rest) > 0 && rest[0] == ':' {
		after := rest[1:]
		if v, r, ok := digitsWithCFWS(after, 1, 2); ok {
			secRaw = v
			rest = r
			haveSec = true
		}
	}
	if !haveSec {
		secRaw = 0
	}
	if secRaw > 60 {
		return 0, 0, 0, false, b, false
	}
	if secRaw == 60 {
		return hour, minute, 59, true, rest, true
	}
	return hour, minute, secRaw, false, rest, true
}

// zone parses the numeric "+hhmm"/"-hhmm" form or one of the obsolete
// named zones, returning the offset in seconds east of UTC.
func zone(b []byte) (int, []byte, bool) {
	rest, _ := cfws(b)

	if len(rest) >= 5 && (rest[0] == '+' || rest[0] == '-') {
		sign := rest[0]
		digits := rest[1:5]
		allDigit := true
		for _, d := range digits {
			if !isDigit(d) {
				allDigit = false
				break
			}
		}
		if allDigit {
			hh := int(digits[0]-'0')*10 + int(digits[1]-'0')
			mm := int(digits[2]-'0')*10 + int(digits[3]-'0')
			secs := hh*3600 + mm*60
			if sign == '-' {
				// -0000 is treated identically to +0000.
				secs = -secs
			}
			return secs, rest[5:], true
		}
	}

	name, r, ok := matchNamedZone(rest)
	if !ok {
		return 0, b, false
	}
	return name, r, true
}

func matchNamedZone(b []byte) (int, []byte, bool) {
	for _, name := range []string{"ut", "gmt", "est", "edt", "cst", "cdt", "mst", "mdt", "pst", "pdt"} {
		if hasPrefixFold(b, name) {
			return obsZones[name] * 3600, b[len(name):], true
		}
	}
	return 0, b, false
}

// digitsWithCFWS parses an optional cfws, between min and max decimal
// digits (greedy), and a trailing optional cfws.
func digitsWithCFWS(b []byte, min, max int) (int, []byte, bool) {
	rest := b
	if r, ok := cfws(rest); ok {
		rest = r
	}
	n := 0
	for n < max && n < len(rest) && isDigit(rest[n]) {
		n++
	}
	if n < min {
		return 0, b, false
	}
	value := 0
	for _, d := range rest[:n] {
		value = value*10 + int(d-'0')
	}
	rest = rest[n:]
	if r, ok := cfws(rest); ok {
		rest = r
	}
	return value, rest, true
}

// cfws consumes "comment folding white space": zero or more spaces,
// followed by zero or more (comment, spaces) groups. It always succeeds
// (cfws may be empty), so ok is always true; a malformed comment is left
// unconsumed at the start of rest.
func cfws(b []byte) ([]byte, bool) {
	rest := skipSpaces(b)
	for len(rest) > 0 && rest[0] == '(' {
		r, ok := comment(rest)
		if !ok {
			break
		}
		rest = skipSpaces(r)
	}
	return rest, true
}

// comment consumes a single parenthesized, non-nested comment: "(" any
// byte except "(", ")", "\" ")".
func comment(b []byte) ([]byte, bool) {
	if len(b) == 0 || b[0] != '(' {
		return b, false
	}
	i := 1
	for i < len(b) && b[i] != '(' && b[i] != ')' && b[i] != '\\' {
		i++
	}
	if i >= len(b) || b[i] != ')' {
		return b, false
	}
	return b[i+1:], true
}

func skipSpaces(b []byte) []byte {
	i := 0
	for i < len(b) && isWSP(b[i]) {
		i++
	}
	return b[i:]
}

func isWSP(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func hasPrefixFold(b []byte, lit string) bool {
	if len(b) < len(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		if foldByte(b[i]) != foldByte(lit[i]) {
			return false
		}
	}
	return true
}

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// matchOneOfFold returns the index of the first name in names that is a
// case-insensitive prefix of b, and the remainder of b after it.
func matchOneOfFold(b []byte, names []string) (int, []byte, bool) {
	for i, name := range names {
		if hasPrefixFold(b, name) {
			return i, b[len(name):], true
		}
	}
	return 0, b, false
}
