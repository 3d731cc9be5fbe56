package app

import (
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/timeline"
)

// TranscribeDoneMsg carries the result of an upload. Analysis may be partly
// filled even when Err is set.
type TranscribeDoneMsg struct {
	Request  int
	Upload   ingest.Upload
	Source   playback.Source
	Analysis timeline.Analysis
	Err      error
}

// PlayerOpenedMsg is sent when the audio player for a loaded analysis is up.
type PlayerOpenedMsg struct {
	Request int
	Player  playback.Player
	Source  playback.Source
	Err     error
}

// TimeUpdateMsg is a position report from the player.
type TimeUpdateMsg struct {
	Seconds float64
	ch      <-chan float64
}

// PlayerClosedMsg is sent when the player's update stream ends.
type PlayerClosedMsg struct {
	ch <-chan float64
}

// RecordStartedMsg is sent once the microphone is acquired, or not.
type RecordStartedMsg struct {
	Timer int
	Err   error
}

// RecordTickMsg is one second of the elapsed timer.
type RecordTickMsg struct {
	Timer int
}

// RecordPausedMsg is sent after capture pauses.
type RecordPausedMsg struct {
	Err error
}

// RecordResumedMsg is sent after capture resumes.
type RecordResumedMsg struct {
	Timer int
	Err   error
}

// RecordStoppedMsg is sent after the capture is finalized.
type RecordStoppedMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout. A clear
// for an error that has since been replaced is ignored.
type ClearTransientErrorMsg struct {
	Seq int
}
