// Package model defines the core data types shared across the packer:
// the shape of a maildir message on disk, the instant parsed from its
// Date header, and the bucket it is filed under.
package model

import "time"

// ParsedInstant is a wall-clock date-time with a fixed offset from UTC, as
// produced by the date-time parser. The zero value does not occur in
// practice; absence of a date is represented by the bool return of whatever
// produced the instant (see datetime.Parse), not by a zero ParsedInstant.
type ParsedInstant struct {
	// Time holds the parsed wall-clock moment in its original offset.
	// UTC() should be used to obtain the projection used for classification.
	Time time.Time
}

// UnknownBucket is the sentinel bucket name used when a message has no
// parseable Date header.
const UnknownBucket = "unknown"

// MessagePath is an absolute path to a maildir message file under new/.
type MessagePath = string

// CollectedMessage pairs a message's path with its parsed instant, if any.
type CollectedMessage struct {
	Path    MessagePath
	Instant *ParsedInstant // nil when the Date header was missing or unparseable
}

// BucketName is a string of the form "YYYY-MM", or the literal "unknown".
type BucketName = string

// Bucket is the set of message paths classified under one BucketName.
type Bucket struct {
	Name     BucketName
	Messages []MessagePath
}

// ContentHash is a SHA-512 digest of an archive entry's raw payload.
const ContentHashLen = 64

type ContentHash [ContentHashLen]byte
