// Package timeline reconciles a time-segmented transcript with the pitch and
// stutter feedback streams produced for it.
//
// Everything here is a pure function of its inputs. Times are seconds from the
// start of the recording; a missing or non-numeric time is carried as NaN so
// the entry can still be displayed while interval and duration math skip it.
package timeline

import "math"

// Kind identifies which analysis produced a feedback item.
type Kind int

const (
	KindPitch Kind = iota
	KindStutter
)

func (k Kind) String() string {
	switch k {
	case KindPitch:
		return "pitch"
	case KindStutter:
		return "stutter"
	}
	return "unknown"
}

// Severity is only reported by the pitch analysis.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

// ParseSeverity maps a backend severity label onto a Severity.
// Unknown labels yield SeverityNone.
func ParseSeverity(s string) Severity {
	switch s {
	case "high", "High", "HIGH":
		return SeverityHigh
	case "medium", "Medium", "MEDIUM":
		return SeverityMedium
	case "low", "Low", "LOW":
		return SeverityLow
	}
	return SeverityNone
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	}
	return ""
}

// Segment is one transcribed span of speech.
type Segment struct {
	Index     int
	Text      string
	StartTime float64
	EndTime   float64
}

// Span returns the segment's time range.
func (s Segment) Span() Span { return Span{Start: s.StartTime, End: s.EndTime} }

// Feedback is a single flagged interval from one of the analysis streams.
type Feedback struct {
	Kind         Kind
	StartTime    float64
	EndTime      float64
	Text         string
	Message      string
	Severity     Severity
	SegmentIndex int
	// Streak marks backend items that describe a run of segments rather than
	// one interval. They usually carry no times.
	Streak bool
}

// Span returns the item's time range.
func (f Feedback) Span() Span { return Span{Start: f.StartTime, End: f.EndTime} }

// HasFiniteEnd reports whether the item may take part in duration math.
func (f Feedback) HasFiniteEnd() bool { return isFinite(f.EndTime) }

// Timed reports whether the item has a usable interval.
func (f Feedback) Timed() bool { return f.Span().Valid() }

// Metrics are aggregate prosody figures attached to a summary.
type Metrics struct {
	AvgPitchVariance *float64
	AvgSpeechRate    *float64
	AvgEnergyMean    *float64
}

// Summary is the aggregate entry of a feedback stream. It is never part of
// overlap, ordering or position math.
type Summary struct {
	Kind               Kind
	Message            string
	Metrics            *Metrics
	StutterIssues      *int
	TotalSegments      *int
	SegmentsWithIssues *int
}

// Stream is everything one analysis reported.
type Stream struct {
	Items   []Feedback
	Summary *Summary
}

// Analysis is the canonical result of ingesting one recording.
type Analysis struct {
	Segments []Segment
	Pitch    Stream
	Stutter  Stream
}

// Empty reports whether the analysis carries nothing to display.
func (a Analysis) Empty() bool {
	return len(a.Segments) == 0 && len(a.Pitch.Items) == 0 && len(a.Stutter.Items) == 0 &&
		a.Pitch.Summary == nil && a.Stutter.Summary == nil
}

// NaN is the sentinel for a missing time.
func NaN() float64 { return math.NaN() }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
