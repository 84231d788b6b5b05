// Package classify buckets collected messages by the UTC year-month of
// their parsed Date header, or "unknown" when none was parseable.
package classify

import (
	"github.com/eslider/maildirpack/internal/model"
)

// BucketName returns the archive bucket for a single parsed instant: the
// UTC projection formatted "YYYY-MM", or model.UnknownBucket when dt is
// nil.
func BucketName(dt *model.ParsedInstant) model.BucketName {
	if dt == nil {
		return model.UnknownBucket
	}
	return dt.Time.UTC().Format("2006-01")
}

// Classify groups collected messages into buckets keyed by BucketName.
// Every message appears in exactly one bucket's path slice; order
// within a bucket is unspecified.
func Classify(messages []model.CollectedMessage) map[model.BucketName][]model.MessagePath {
	buckets := make(map[model.BucketName][]model.MessagePath)
	for _, m := range messages {
		name := BucketName(m.Instant)
		buckets[name] = append(buckets[name], m.Path)
	}
	return buckets
}
