package timeline

// State is the loaded timeline for one recording. It is replaced wholesale on
// every new upload or recording; nothing carries over between cycles.
type State struct {
	analysis Analysis
	feed     []Feedback
	classes  []Class
	duration float64
	fixed    bool
}

// Reset clears everything, including the duration, before new data arrives.
func (s *State) Reset() {
	*s = State{}
}

// Load replaces the state with a, deriving the duration from its data.
func (s *State) Load(a Analysis) {
	s.Reset()
	a.Segments = SortSegments(a.Segments)
	s.analysis = a
	s.feed = Merge(a.Pitch.Items, a.Stutter.Items)
	s.classes = ClassifyAll(a.Segments, a.Pitch.Items, a.Stutter.Items)
	s.duration = TotalDuration(a.Segments, a.Pitch.Items, a.Stutter.Items)
}

// LoadRecording replaces the state with a and takes the capture length as the
// duration. A recording may legitimately have no feedback at all.
func (s *State) LoadRecording(a Analysis, elapsed float64) {
	s.Load(a)
	s.duration = floor(elapsed)
	s.fixed = true
}

// Duration is the total playback length in seconds.
func (s State) Duration() float64 { return s.duration }

// DurationFromCapture reports whether the duration came from a recording.
func (s State) DurationFromCapture() bool { return s.fixed }

// Segments returns the transcript in index order.
func (s State) Segments() []Segment { return s.analysis.Segments }

// Feed returns the merged suggestions feed.
func (s State) Feed() []Feedback { return s.feed }

// Classes returns one class per segment, aligned with Segments.
func (s State) Classes() []Class { return s.classes }

// ClassOf returns the class of the i'th segment.
func (s State) ClassOf(i int) Class {
	if i < 0 || i >= len(s.classes) {
		return ClassNone
	}
	return s.classes[i]
}

// Summaries returns the pitch and stutter summaries, either may be nil.
func (s State) Summaries() (pitch, stutter *Summary) {
	return s.analysis.Pitch.Summary, s.analysis.Stutter.Summary
}

// Analysis returns the source data.
func (s State) Analysis() Analysis { return s.analysis }

// Loaded reports whether any data is present.
func (s State) Loaded() bool { return !s.analysis.Empty() }
