package timeline

// Class describes which feedback kinds overlap a segment.
type Class int

const (
	ClassNone Class = iota
	ClassPitch
	ClassStutter
	ClassBoth
)

func (c Class) String() string {
	switch c {
	case ClassPitch:
		return "pitch"
	case ClassStutter:
		return "stutter"
	case ClassBoth:
		return "both"
	}
	return "none"
}

// Classify tests the segment against every item of both streams by time.
// SegmentIndex is deliberately ignored: backends do not keep it consistent
// with the item's time range.
func Classify(seg Segment, pitch, stutter []Feedback) Class {
	span := seg.Span()
	hasPitch := anyOverlap(span, pitch)
	hasStutter := anyOverlap(span, stutter)
	switch {
	case hasPitch && hasStutter:
		return ClassBoth
	case hasStutter:
		return ClassStutter
	case hasPitch:
		return ClassPitch
	}
	return ClassNone
}

// ClassifyAll classifies each segment, preserving order.
func ClassifyAll(segments []Segment, pitch, stutter []Feedback) []Class {
	out := make([]Class, len(segments))
	for i, s := range segments {
		out[i] = Classify(s, pitch, stutter)
	}
	return out
}

func anyOverlap(span Span, items []Feedback) bool {
	for _, f := range items {
		if Overlaps(span, f.Span()) {
			return true
		}
	}
	return false
}
