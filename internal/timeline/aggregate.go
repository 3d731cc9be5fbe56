package timeline

import "sort"

// TotalDuration derives the playback length from source data: the largest
// finite feedback end time, else the largest finite segment end time, else 0.
// The result is never negative.
func TotalDuration(segments []Segment, pitch, stutter []Feedback) float64 {
	if d, ok := maxFeedbackEnd(pitch, stutter); ok {
		return floor(d)
	}
	if d, ok := maxSegmentEnd(segments); ok {
		return floor(d)
	}
	return 0
}

func maxFeedbackEnd(streams ...[]Feedback) (float64, bool) {
	var best float64
	found := false
	for _, items := range streams {
		for _, f := range items {
			if !f.HasFiniteEnd() {
				continue
			}
			if !found || f.EndTime > best {
				best = f.EndTime
				found = true
			}
		}
	}
	return best, found
}

func maxSegmentEnd(segments []Segment) (float64, bool) {
	var best float64
	found := false
	for _, s := range segments {
		if !isFinite(s.EndTime) {
			continue
		}
		if !found || s.EndTime > best {
			best = s.EndTime
			found = true
		}
	}
	return best, found
}

func floor(d float64) float64 {
	if d < 0 {
		return 0
	}
	return d
}

// SortSegments returns a copy of segments ordered by Index. Equal indexes keep
// their input order.
func SortSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// TimedItems returns the items with a usable interval, in input order.
func TimedItems(items []Feedback) []Feedback {
	out := make([]Feedback, 0, len(items))
	for _, f := range items {
		if f.Timed() {
			out = append(out, f)
		}
	}
	return out
}
