package app

import (
	"context"
	"time"

	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/recording"

	tea "github.com/charmbracelet/bubbletea"
)

// transcribeCmd uploads the audio and reports the analysis.
func transcribeCmd(ctx context.Context, t ingest.Transcriber, req int, up ingest.Upload, opts ingest.Options, src playback.Source) tea.Cmd {
	return func() tea.Msg {
		a, err := t.Transcribe(ctx, up, opts)
		return TranscribeDoneMsg{Request: req, Upload: up, Source: src, Analysis: a, Err: err}
	}
}

// openPlayerCmd starts a player for src off the event loop.
func openPlayerCmd(tr *playback.Tracker, req int, src playback.Source) tea.Cmd {
	return func() tea.Msg {
		p, err := tr.OpenPlayer(src)
		return PlayerOpenedMsg{Request: req, Player: p, Source: src, Err: err}
	}
}

// readTimeCmd reads the next position update from the player.
func readTimeCmd(ch <-chan float64) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return PlayerClosedMsg{ch: ch}
		}
		return TimeUpdateMsg{Seconds: t, ch: ch}
	}
}

// recordStartCmd acquires the microphone and starts capturing.
func recordStartCmd(ctx context.Context, s *recording.Session) tea.Cmd {
	return func() tea.Msg {
		timer, err := s.Start(ctx)
		return RecordStartedMsg{Timer: timer, Err: err}
	}
}

func recordPauseCmd(s *recording.Session) tea.Cmd {
	return func() tea.Msg {
		return RecordPausedMsg{Err: s.Pause()}
	}
}

func recordResumeCmd(s *recording.Session) tea.Cmd {
	return func() tea.Msg {
		timer, err := s.Resume()
		return RecordResumedMsg{Timer: timer, Err: err}
	}
}

func recordStopCmd(ctx context.Context, s *recording.Session) tea.Cmd {
	return func() tea.Msg {
		return RecordStoppedMsg{Err: s.Stop(ctx)}
	}
}

// recordTickCmd fires one second later for timer.
func recordTickCmd(timer int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return RecordTickMsg{Timer: timer}
	})
}

// clearTransientErrorCmd fires after a delay to clear the transient error
// numbered seq.
func clearTransientErrorCmd(seq int) tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{Seq: seq}
	})
}
