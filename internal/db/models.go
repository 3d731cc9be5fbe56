// Package db stores analysis history in SQLite. The same table backs the
// transcription result cache.
package db

import (
	"time"

	"github.com/jwulff/cadence/internal/timeline"
)

// Record is one stored analysis.
type Record struct {
	ID string
	// CacheKey is the content hash the result was cached under, if any.
	CacheKey string
	FileName string
	// Source is "upload" or "recording".
	Source string
	// Duration is the capture length for recordings, or the derived
	// timeline duration otherwise.
	Duration  float64
	Analysis  timeline.Analysis
	CreatedAt time.Time
}

// Counts summarises a record for listings.
type Counts struct {
	Segments int
	Pitch    int
	Stutter  int
}

// Counts returns the item counts of the stored analysis.
func (r Record) Counts() Counts {
	return Counts{
		Segments: len(r.Analysis.Segments),
		Pitch:    len(r.Analysis.Pitch.Items),
		Stutter:  len(r.Analysis.Stutter.Items),
	}
}
