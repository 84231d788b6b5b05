package datetime_test

import (
	"testing"
	"time"

	"github.com/eslider/maildirpack/internal/datetime"
)

func fixedOffset(hours int) *time.Location {
	return time.FixedZone("", hours*3600)
}

func TestParse_Accepted(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "leap second",
			in:   "Wed, 18 Feb 2015 23:59:60 -0400",
			want: time.Date(2015, time.February, 18, 23, 59, 59, 0, fixedOffset(-4)).Add(time.Second),
		},
		{
			name: "trailing UTC comment",
			in:   "Tue, 11 Jul 2017 18:30:33 +0000 (UTC)",
			want: time.Date(2017, time.July, 11, 18, 30, 33, 0, time.UTC),
		},
		{
			name: "extra space and MST comment",
			in:   "Fri, 9 Nov 2007  1:10:02 -0700 (MST)",
			want: time.Date(2007, time.November, 9, 1, 10, 2, 0, fixedOffset(-7)),
		},
		{
			name: "negative zero zone",
			in:   "Sat, 01 Oct 2016 14:47:20 -0000",
			want: time.Date(2016, time.October, 1, 14, 47, 20, 0, time.UTC),
		},
		{
			name: "obs-zone EDT no comment",
			in:   "Wed, 18 Feb 2015 23:59:59 EDT",
			want: time.Date(2015, time.February, 18, 23, 59, 59, 0, fixedOffset(-4)),
		},
		{
			name: "no day name",
			in:   "18 Feb 2015 23:16:09 +0000",
			want: time.Date(2015, time.February, 18, 23, 16, 9, 0, time.UTC),
		},
		{
			name: "two digit year pivot low",
			in:   "Wed, 18 Feb 15 23:16:09 +0000",
			want: time.Date(2015, time.February, 18, 23, 16, 9, 0, time.UTC),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := datetime.Parse([]byte(c.in))
			if !ok {
				t.Fatalf("Parse(%q) failed, want success", c.in)
			}
			if !got.Time.Equal(c.want) {
				t.Errorf("Parse(%q) = %v, want %v", c.in, got.Time, c.want)
			}
		})
	}
}

func TestParse_Rejected(t *testing.T) {
	cases := []string{
		"Tue, 18 Feb 2015 23:16:09 +0000",    // 2015-02-18 is a Wednesday
		"Wed, 30 Feb 2015 23:16:09 +0000",    // no such calendar date
		"Wed, 18 Feb 2015 23:59:61 +0000",    // seconds above the leap bound
		"Wed, 18 Feb 2015 23:16:09 +0000x",   // trailing garbage
		"not a date at all",
		"Wed, 18 Foo 2015 23:16:09 +0000",    // unknown month
		"Wed 18 Feb 2015 23:16:09 +0000",     // day name without comma
		"Wed, 18 Feb 2015 23:16:09 (nested (comment)) +0000", // nested parens
	}
	for _, in := range cases {
		if _, ok := datetime.Parse([]byte(in)); ok {
			t.Errorf("Parse(%q) succeeded, want rejection", in)
		}
	}
}

func TestParse_CommentsAroundFields(t *testing.T) {
	in := "Wed, (comment) 18 Feb 2015 23:16:09 +0000"
	got, ok := datetime.Parse([]byte(in))
	if !ok {
		t.Fatalf("Parse(%q) failed, want success", in)
	}
	want := time.Date(2015, time.February, 18, 23, 16, 9, 0, time.UTC)
	if !got.Time.Equal(want) {
		t.Errorf("Parse(%q) = %v, want %v", in, got.Time, want)
	}
}
