// Package recording captures a live recording before it is submitted for
// analysis. A Session walks Idle -> Recording <-> Paused -> Stopped and then
// either Submitted or back to Idle.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is a recording phase.
type State int

const (
	Idle State = iota
	Recording
	Paused
	// Stopped holds a finalized recording waiting to be confirmed or cancelled.
	Stopped
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Capture is a confirmed recording ready for upload. The receiver owns Blob.
type Capture struct {
	Blob    Blob
	Elapsed int
}

// Session is the recording state machine. Calls outside a transition's valid
// source states are ignored. All methods are safe for concurrent use.
type Session struct {
	recorder Recorder

	mu      sync.Mutex
	state   State
	device  Device
	blob    *Blob
	elapsed int
	timer   int
}

// NewSession returns an idle session that records through r.
func NewSession(r Recorder) *Session {
	return &Session{recorder: r}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns whole seconds recorded so far.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Timer identifies the live elapsed timer. Ticks carrying any other value are
// stale.
func (s *Session) Timer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer
}

// Pending reports whether a finalized recording awaits confirmation.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Stopped && s.blob != nil
}

// Start opens the microphone and begins recording. If the microphone cannot
// be acquired the session stays where it was and the error is returned.
// Returns the id of the newly started timer.
func (s *Session) Start(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle && s.state != Submitted {
		return s.timer, nil
	}
	dev, err := s.recorder.Acquire(ctx)
	if err != nil {
		return s.timer, err
	}
	s.device = dev
	s.blob = nil
	s.elapsed = 0
	s.state = Recording
	s.timer++
	return s.timer, nil
}

// Pause stops the timer and holds the device open. Captured audio is kept.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording {
		return nil
	}
	if err := s.device.Pause(); err != nil {
		return err
	}
	s.timer++
	s.state = Paused
	return nil
}

// Resume restarts capture and the timer. Returns the new timer id.
func (s *Session) Resume() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Paused {
		return s.timer, nil
	}
	if err := s.device.Resume(); err != nil {
		return s.timer, err
	}
	s.state = Recording
	s.timer++
	return s.timer, nil
}

// Stop finalizes the capture into a single blob and releases the microphone.
// The device is released and the timer invalidated even when finalizing
// fails, in which case the session returns to Idle. A release failure is
// reported alongside any finalize error.
func (s *Session) Stop(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recording && s.state != Paused {
		return nil
	}
	s.timer++
	dev := s.device
	s.device = nil
	defer func() {
		if rerr := dev.Release(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("release microphone: %w", rerr))
		}
	}()

	blob, err := dev.Finalize(ctx)
	if err != nil {
		s.state = Idle
		s.elapsed = 0
		return err
	}
	s.blob = &blob
	s.state = Stopped
	return nil
}

// Confirm hands the finalized recording to the caller for submission.
func (s *Session) Confirm() (Capture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped || s.blob == nil {
		return Capture{}, false
	}
	c := Capture{Blob: *s.blob, Elapsed: s.elapsed}
	s.blob = nil
	s.elapsed = 0
	s.state = Submitted
	return c, true
}

// Cancel discards the finalized recording and returns to Idle.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Stopped {
		return nil
	}
	var err error
	if s.blob != nil {
		err = s.blob.Discard()
	}
	s.blob = nil
	s.elapsed = 0
	s.state = Idle
	return err
}

// Tick counts one second for timer id. It reports whether the timer is still
// live and should be scheduled again.
func (s *Session) Tick(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.timer || s.state != Recording {
		return false
	}
	s.elapsed++
	return true
}

// Close tears the session down from any state: the device is released and any
// unconfirmed recording is discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer++
	var err error
	if s.device != nil {
		err = s.device.Release()
		s.device = nil
	}
	if s.blob != nil {
		if derr := s.blob.Discard(); err == nil {
			err = derr
		}
		s.blob = nil
	}
	s.elapsed = 0
	s.state = Idle
	return err
}
