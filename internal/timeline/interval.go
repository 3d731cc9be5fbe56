package timeline

// Span is a closed time interval [Start, End].
type Span struct {
	Start float64
	End   float64
}

// Valid reports whether both bounds are finite and ordered.
func (s Span) Valid() bool {
	return isFinite(s.Start) && isFinite(s.End) && s.Start <= s.End
}

// Overlaps reports whether a and b share at least one instant. Touching
// endpoints count. Comparisons against NaN are false, so malformed spans never
// overlap anything.
func Overlaps(a, b Span) bool {
	return a.Start <= b.End && a.End >= b.Start
}

// Contains reports whether t lies within s, bounds included.
func Contains(t float64, s Span) bool {
	return s.Start <= t && t <= s.End
}
