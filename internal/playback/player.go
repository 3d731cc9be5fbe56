// Package playback tracks the playback cursor against a loaded timeline and
// owns the audio player and the media it plays.
package playback

import (
	"errors"
	"fmt"
	"os"
)

// Player is an audio output whose position is the only clock the tracker
// trusts.
type Player interface {
	Play() error
	Pause() error
	// Seek moves playback to seconds from the start.
	Seek(seconds float64) error
	Position() (float64, error)
	Paused() bool
	// Updates delivers position changes. It is closed when the player stops.
	Updates() <-chan float64
	Close() error
}

// Opener starts a player for a media file.
type Opener func(path string) (Player, error)

// Source is a media file handed to a player. Owned sources are temporary
// files (recordings) that are deleted on release.
type Source struct {
	Path  string
	Owned bool
}

// Release frees the source. Unowned files are left alone.
func (s Source) Release() error {
	if !s.Owned || s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release source: %w", err)
	}
	return nil
}

// sendLatest offers v on ch without blocking. When the receiver is behind, the
// queued position is dropped in favour of v, so a reader never sees a position
// older than one it could have had. ch must be buffered with a single sender.
func sendLatest(ch chan float64, v float64) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// ErrNoPlayer is returned when a control is used before a source is opened.
var ErrNoPlayer = errors.New("no audio loaded")
