package timeline

import "math"

// Position maps t onto the track as a percentage of total. A zero total maps
// everything to 0. The result is not clamped: callers clamp t first so that
// bad data shows up as an out-of-range marker instead of being hidden.
func Position(t, total float64) float64 {
	if total == 0 {
		return 0
	}
	return t / total * 100
}

// Clamp limits t to [0, total]. Non-finite t maps to 0.
func Clamp(t, total float64) float64 {
	if !isFinite(t) || t < 0 {
		return 0
	}
	if t > total {
		return total
	}
	return t
}

// Track is the interactive region of a rendered timeline bar, in cells,
// excluding fixed-width chrome on either side.
type Track struct {
	Offset int
	Width  int
}

// NewTrack measures the track inside a bar of the given total width.
// It must be rebuilt whenever the bar is resized.
func NewTrack(total, leading, trailing int) Track {
	w := total - leading - trailing
	if w < 1 {
		w = 1
	}
	return Track{Offset: leading, Width: w}
}

// Column converts a percentage into an absolute column. Percentages outside
// [0, 100] land outside the track so the caller can see them.
func (t Track) Column(pct float64) int {
	if t.Width <= 1 {
		return t.Offset
	}
	return t.Offset + int(math.Round(pct/100*float64(t.Width-1)))
}

// Contains reports whether col is inside the track.
func (t Track) Contains(col int) bool {
	return col >= t.Offset && col < t.Offset+t.Width
}

// Percent is the inverse of Column: it maps a column inside the track back to
// a percentage in [0, 100]. Columns outside the track are clamped.
func (t Track) Percent(col int) float64 {
	if t.Width <= 1 {
		return 0
	}
	rel := col - t.Offset
	if rel < 0 {
		rel = 0
	}
	if rel > t.Width-1 {
		rel = t.Width - 1
	}
	return float64(rel) / float64(t.Width-1) * 100
}
