package playback

import (
	"errors"

	"github.com/jwulff/cadence/internal/timeline"
)

// Lookback is how far before a target a jump lands, so the listener hears
// what leads into the flagged moment.
const Lookback = 1.0

// Tracker follows the player's position and resolves what is active at it.
// It never runs a clock of its own.
type Tracker struct {
	open    Opener
	player  Player
	source  Source
	current float64
}

// NewTracker returns a tracker that opens players with open.
func NewTracker(open Opener) *Tracker {
	return &Tracker{open: open}
}

// Open swaps in a new source. The previous player and source are released
// first; if the new player fails to open, the new source is released too.
// A failure releasing the previous source does not block the new one.
func (t *Tracker) Open(src Source) error {
	closeErr := t.Close()
	p, err := t.open(src.Path)
	if err != nil {
		return errors.Join(err, src.Release(), closeErr)
	}
	t.player = p
	t.source = src
	return nil
}

// OpenPlayer starts a player for src without attaching it, so slow players
// can be opened off the event loop. src is released if the player fails.
func (t *Tracker) OpenPlayer(src Source) (Player, error) {
	p, err := t.open(src.Path)
	if err != nil {
		return nil, errors.Join(err, src.Release())
	}
	return p, nil
}

// Attach swaps in a player opened by OpenPlayer. The previous player and
// source are released first.
func (t *Tracker) Attach(p Player, src Source) error {
	err := t.Close()
	t.player = p
	t.source = src
	return err
}

// Close releases the player and its source. Safe to call repeatedly.
func (t *Tracker) Close() error {
	var errs []error
	if t.player != nil {
		errs = append(errs, t.player.Close())
		t.player = nil
	}
	errs = append(errs, t.source.Release())
	t.source = Source{}
	t.current = 0
	return errors.Join(errs...)
}

// Loaded reports whether a player is open.
func (t *Tracker) Loaded() bool { return t.player != nil }

// Source returns the source being played.
func (t *Tracker) Source() Source { return t.source }

// Updates returns the open player's position stream, or nil.
func (t *Tracker) Updates() <-chan float64 {
	if t.player == nil {
		return nil
	}
	return t.player.Updates()
}

// Update records a time update from the player.
func (t *Tracker) Update(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	t.current = seconds
}

// Current is the last known playback position.
func (t *Tracker) Current() float64 { return t.current }

// Playing reports whether audio is running.
func (t *Tracker) Playing() bool {
	return t.player != nil && !t.player.Paused()
}

// Toggle pauses or resumes playback.
func (t *Tracker) Toggle() error {
	if t.player == nil {
		return ErrNoPlayer
	}
	if t.player.Paused() {
		return t.player.Play()
	}
	return t.player.Pause()
}

// SeekTo jumps to Lookback seconds before target and resumes playback.
func (t *Tracker) SeekTo(target float64) error {
	pos := target - Lookback
	if pos < 0 {
		pos = 0
	}
	if err := t.Seek(pos); err != nil {
		return err
	}
	return t.player.Play()
}

// Seek moves the player to seconds, clamped at zero, without changing the
// play state.
func (t *Tracker) Seek(seconds float64) error {
	if t.player == nil {
		return ErrNoPlayer
	}
	if seconds < 0 {
		seconds = 0
	}
	if err := t.player.Seek(seconds); err != nil {
		return err
	}
	t.current = seconds
	return nil
}

// ActiveSegment returns the segment under the cursor.
func (t *Tracker) ActiveSegment(segments []timeline.Segment) (int, bool) {
	return ActiveSegment(t.current, segments)
}

// ActiveFeedback returns the feed item under the cursor.
func (t *Tracker) ActiveFeedback(feed []timeline.Feedback) (int, bool) {
	return ActiveFeedback(t.current, feed)
}

// ActiveSegment returns the position in segments of the segment that contains
// t. Overlapping segments resolve to the lowest Index, whatever order the
// slice is in.
func ActiveSegment(t float64, segments []timeline.Segment) (int, bool) {
	found := -1
	for i, s := range segments {
		if !timeline.Contains(t, s.Span()) {
			continue
		}
		if found < 0 || s.Index < segments[found].Index {
			found = i
		}
	}
	return found, found >= 0
}

// ActiveFeedback returns the index into feed of the first item that contains
// t. Items without a usable interval never match.
func ActiveFeedback(t float64, feed []timeline.Feedback) (int, bool) {
	for i, f := range feed {
		if f.Timed() && timeline.Contains(t, f.Span()) {
			return i, true
		}
	}
	return -1, false
}
