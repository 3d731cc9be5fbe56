package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/recording"
	"github.com/jwulff/cadence/internal/timeline"
	"github.com/jwulff/cadence/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// ScrubStep is how far left/right moves the playhead, in seconds.
const ScrubStep = 5.0

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusFeed PanelFocus = iota
	FocusTranscript
)

// Deps are the collaborators the model drives.
type Deps struct {
	Transcriber ingest.Transcriber
	Tracker     *playback.Tracker
	Session     *recording.Session
	Options     ingest.Options
	Log         logger.Logger
}

// Model is the root bubbletea model for the cadence TUI.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc
	keys   keyMap

	// Loaded timeline
	state    timeline.State
	fileName string

	// Upload state
	request  int
	inFlight bool
	pending  *ingest.Upload
	spinner  spinner.Model

	// Recording state
	recBusy bool

	// Path prompt
	prompting bool
	input     textinput.Model

	// UI state
	focusedPanel  PanelFocus
	width         int
	height        int
	selectedFeed  int
	feedTop       int
	selectedSeg   int
	transcriptTop int
	follow        bool

	// Errors
	errorMessage   string
	errorTransient bool
	errorSeq       int

	// Status
	statusText string
}

// New creates a new Model. If path is not empty it is submitted on Init.
func New(deps Deps, path string) Model {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(ui.SpinnerStyle))
	in := textinput.New()
	in.Placeholder = "path/to/audio.wav"
	in.Prompt = "Open: "
	in.PromptStyle = ui.PromptStyle

	m := Model{
		deps:         deps,
		ctx:          ctx,
		cancel:       cancel,
		keys:         defaultKeyMap(),
		spinner:      sp,
		input:        in,
		focusedPanel: FocusFeed,
		follow:       true,
		statusText:   "Press o to open a file or r to record",
	}
	if path != "" {
		up, err := ingest.NewFileUpload(path)
		if err != nil {
			m.setError(err.Error(), false)
		} else {
			m.pending = &up
		}
	}
	return m
}

// Init submits the file given on the command line, if any.
func (m Model) Init() tea.Cmd {
	if m.pending == nil {
		return nil
	}
	return func() tea.Msg { return submitPendingMsg{} }
}

type submitPendingMsg struct{}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.prompting {
			return m.handlePrompt(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.width-10)
		return m, nil

	case submitPendingMsg:
		if m.pending == nil {
			return m, nil
		}
		up := *m.pending
		m.pending = nil
		return m, m.submit(up, playback.Source{Path: up.Path})

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TranscribeDoneMsg:
		return m.handleTranscribed(msg)

	case PlayerOpenedMsg:
		if msg.Request != m.request {
			if msg.Player != nil {
				msg.Player.Close()
			}
			msg.Source.Release()
			return m, nil
		}
		if msg.Err != nil {
			m.deps.Log.Warnf("open player: %v", msg.Err)
			return m, m.fail(fmt.Errorf("playback unavailable: %w", msg.Err), true)
		}
		if err := m.deps.Tracker.Attach(msg.Player, msg.Source); err != nil {
			m.deps.Log.Warnf("release previous source: %v", err)
		}
		return m, readTimeCmd(m.deps.Tracker.Updates())

	case TimeUpdateMsg:
		if msg.ch != m.deps.Tracker.Updates() {
			return m, nil
		}
		m.deps.Tracker.Update(msg.Seconds)
		if m.follow {
			m.followActive()
		}
		return m, readTimeCmd(msg.ch)

	case PlayerClosedMsg:
		if msg.ch == m.deps.Tracker.Updates() {
			m.statusText = "Player stopped"
		}
		return m, nil

	case RecordStartedMsg:
		m.recBusy = false
		if msg.Err != nil {
			m.deps.Log.Warnf("start recording: %v", msg.Err)
			return m, m.fail(msg.Err, false)
		}
		m.clearError()
		m.statusText = "Recording"
		return m, recordTickCmd(msg.Timer)

	case RecordTickMsg:
		if m.deps.Session.Tick(msg.Timer) {
			return m, recordTickCmd(msg.Timer)
		}
		return m, nil

	case RecordPausedMsg:
		m.recBusy = false
		if msg.Err != nil {
			return m, m.fail(msg.Err, true)
		}
		m.statusText = "Recording paused"
		return m, nil

	case RecordResumedMsg:
		m.recBusy = false
		if msg.Err != nil {
			return m, m.fail(msg.Err, true)
		}
		m.statusText = "Recording"
		return m, recordTickCmd(msg.Timer)

	case RecordStoppedMsg:
		m.recBusy = false
		if msg.Err != nil {
			m.deps.Log.Warnf("stop recording: %v", msg.Err)
			return m, m.fail(msg.Err, false)
		}
		m.statusText = "Recording stopped"
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient && msg.Seq == m.errorSeq {
			m.clearError()
		}
		return m, nil
	}

	return m, nil
}

// submit starts an upload. Everything from the previous cycle is dropped
// first. Calls while a request is in flight are ignored.
func (m *Model) submit(up ingest.Upload, src playback.Source) tea.Cmd {
	if m.inFlight {
		m.deps.Log.Infof("ignoring %s: a request is already in flight", up.Name)
		return nil
	}
	m.request++
	m.inFlight = true
	m.state.Reset()
	if err := m.deps.Tracker.Close(); err != nil {
		m.deps.Log.Warnf("release previous source: %v", err)
	}
	m.fileName = up.Name
	m.selectedFeed, m.feedTop = 0, 0
	m.selectedSeg, m.transcriptTop = 0, 0
	m.follow = true
	m.clearError()
	m.statusText = "Analyzing " + up.Name
	m.deps.Log.Infof("submit %s (%s)", up.Name, up.Source)

	return tea.Batch(
		m.spinner.Tick,
		transcribeCmd(m.ctx, m.deps.Transcriber, m.request, up, m.deps.Options, src),
	)
}

func (m Model) handleTranscribed(msg TranscribeDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Request != m.request {
		msg.Source.Release()
		return m, nil
	}
	m.inFlight = false
	if msg.Upload.Name != "" {
		m.fileName = msg.Upload.Name
	}

	var cmds []tea.Cmd
	if msg.Err != nil {
		m.deps.Log.Errorf("transcribe %s: %v", msg.Upload.Name, msg.Err)
		cmds = append(cmds, m.fail(msg.Err, false))
		if msg.Analysis.Empty() {
			msg.Source.Release()
			m.statusText = "Nothing loaded"
			return m, tea.Batch(cmds...)
		}
	}

	if msg.Upload.Source == ingest.SourceRecording {
		m.state.LoadRecording(msg.Analysis, msg.Upload.Duration)
	} else {
		m.state.Load(msg.Analysis)
	}
	pitch, stutter := timeline.Counts(m.state.Feed())
	m.statusText = fmt.Sprintf("%s: %d segments, %d pitch, %d stutter",
		msg.Upload.Name, len(m.state.Segments()), pitch, stutter)

	cmds = append(cmds, openPlayerCmd(m.deps.Tracker, m.request, msg.Source))
	return m, tea.Batch(cmds...)
}

// handlePrompt routes keys to the path prompt.
func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyPromptCancel:
		m.prompting = false
		m.input.Blur()
		return m, nil
	case KeyPromptSubmit:
		m.prompting = false
		m.input.Blur()
		path := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		up, err := ingest.NewFileUpload(path)
		if err != nil {
			return m, m.fail(err, true)
		}
		return m, m.submit(up, playback.Source{Path: up.Path})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tr := m.deps.Tracker
	sess := m.deps.Session

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.teardown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Open):
		if m.inFlight {
			return m, nil
		}
		m.prompting = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Play):
		if err := tr.Toggle(); err != nil {
			return m, m.fail(err, true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Seek):
		return m, m.seekSelected()

	case key.Matches(msg, m.keys.Back):
		return m, m.scrub(-ScrubStep)

	case key.Matches(msg, m.keys.Forward):
		return m, m.scrub(ScrubStep)

	case key.Matches(msg, m.keys.Focus):
		if m.focusedPanel == FocusFeed {
			m.focusedPanel = FocusTranscript
		} else {
			m.focusedPanel = FocusFeed
		}
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.follow = false
		if m.transcriptTop > 0 {
			m.transcriptTop--
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.follow = false
		if m.transcriptTop < len(m.state.Segments())-1 {
			m.transcriptTop++
		}
		return m, nil

	case key.Matches(msg, m.keys.Record):
		if m.recBusy || m.inFlight {
			return m, nil
		}
		if st := sess.State(); st != recording.Idle && st != recording.Submitted {
			return m, nil
		}
		m.recBusy = true
		m.statusText = "Opening microphone..."
		return m, recordStartCmd(m.ctx, sess)

	case key.Matches(msg, m.keys.PauseRecord):
		if m.recBusy {
			return m, nil
		}
		switch sess.State() {
		case recording.Recording:
			m.recBusy = true
			return m, recordPauseCmd(sess)
		case recording.Paused:
			m.recBusy = true
			return m, recordResumeCmd(sess)
		}
		return m, nil

	case key.Matches(msg, m.keys.StopRecord):
		if m.recBusy {
			return m, nil
		}
		if st := sess.State(); st != recording.Recording && st != recording.Paused {
			return m, nil
		}
		m.recBusy = true
		m.statusText = "Finishing recording..."
		return m, recordStopCmd(m.ctx, sess)

	case key.Matches(msg, m.keys.Confirm):
		if m.inFlight || !sess.Pending() {
			return m, nil
		}
		capture, ok := sess.Confirm()
		if !ok {
			return m, nil
		}
		b := capture.Blob
		up := ingest.NewRecordingUpload(b.Path, b.MIMEType, b.Size, float64(capture.Elapsed))
		return m, m.submit(up, playback.Source{Path: b.Path, Owned: true})

	case key.Matches(msg, m.keys.Cancel):
		if sess.State() != recording.Stopped {
			return m, nil
		}
		if err := sess.Cancel(); err != nil {
			m.deps.Log.Warnf("discard recording: %v", err)
		}
		m.statusText = "Recording discarded"
		return m, nil
	}

	return m, nil
}

// handleMouse seeks when the track bar is clicked.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	track := m.trackBounds()
	if msg.Y != trackRow || !track.Contains(msg.X) {
		return m, nil
	}
	dur := m.state.Duration()
	if dur <= 0 {
		return m, nil
	}
	t := track.Percent(msg.X) / 100 * dur
	m.follow = true
	if err := m.deps.Tracker.Seek(t); err != nil {
		return m, m.fail(err, true)
	}
	m.followActive()
	return m, nil
}

// seekSelected jumps to the selected feed item or segment with lookback.
func (m *Model) seekSelected() tea.Cmd {
	var target float64
	switch m.focusedPanel {
	case FocusFeed:
		feed := m.state.Feed()
		if m.selectedFeed >= len(feed) || !feed[m.selectedFeed].Timed() {
			return nil
		}
		target = feed[m.selectedFeed].StartTime
	case FocusTranscript:
		segs := m.state.Segments()
		if m.selectedSeg >= len(segs) || math.IsNaN(segs[m.selectedSeg].StartTime) {
			return nil
		}
		target = segs[m.selectedSeg].StartTime
	}
	if err := m.deps.Tracker.SeekTo(target); err != nil {
		return m.fail(err, true)
	}
	m.follow = true
	m.followActive()
	return nil
}

// scrub moves the playhead by delta seconds within the loaded duration.
func (m *Model) scrub(delta float64) tea.Cmd {
	tr := m.deps.Tracker
	if !tr.Loaded() {
		return m.fail(playback.ErrNoPlayer, true)
	}
	t := tr.Current() + delta
	if dur := m.state.Duration(); dur > 0 {
		t = timeline.Clamp(t, dur)
	}
	if err := tr.Seek(t); err != nil {
		return m.fail(err, true)
	}
	if m.follow {
		m.followActive()
	}
	return nil
}

func (m *Model) moveSelection(delta int) {
	switch m.focusedPanel {
	case FocusFeed:
		n := len(m.state.Feed())
		if n == 0 {
			return
		}
		m.selectedFeed = clampIndex(m.selectedFeed+delta, n)
		rows := m.contentHeight() - 1
		if m.selectedFeed < m.feedTop {
			m.feedTop = m.selectedFeed
		} else if m.selectedFeed >= m.feedTop+rows {
			m.feedTop = m.selectedFeed - rows + 1
		}
	case FocusTranscript:
		n := len(m.state.Segments())
		if n == 0 {
			return
		}
		m.follow = false
		m.selectedSeg = clampIndex(m.selectedSeg+delta, n)
		m.revealSegment(m.selectedSeg)
	}
}

// followActive scrolls the transcript to the segment under the playhead.
func (m *Model) followActive() {
	if i, ok := m.deps.Tracker.ActiveSegment(m.state.Segments()); ok {
		m.revealSegment(i)
	}
}

func (m *Model) revealSegment(i int) {
	if i < m.transcriptTop || i >= m.transcriptTop+m.visibleSegments() {
		m.transcriptTop = i
	}
}

// teardown releases the player, its source and the recording device.
func (m *Model) teardown() {
	m.cancel()
	if err := m.deps.Tracker.Close(); err != nil {
		m.deps.Log.Warnf("close player: %v", err)
	}
	if err := m.deps.Session.Close(); err != nil {
		m.deps.Log.Warnf("close recording: %v", err)
	}
}

// fail shows err in the error bar. Transient errors clear themselves.
func (m *Model) fail(err error, transient bool) tea.Cmd {
	m.setError(describe(err), transient)
	if transient {
		return clearTransientErrorCmd(m.errorSeq)
	}
	return nil
}

func (m *Model) setError(msg string, transient bool) {
	m.errorSeq++
	m.errorMessage = msg
	m.errorTransient = transient
}

func (m *Model) clearError() {
	m.errorMessage = ""
	m.errorTransient = false
}

// describe turns an error into the text shown to the user.
func describe(err error) string {
	var be *ingest.BackendError
	switch {
	case errors.Is(err, ingest.ErrNoFileSelected):
		return "No file selected"
	case errors.Is(err, recording.ErrPermissionDenied):
		return "Microphone access denied"
	case errors.Is(err, recording.ErrDeviceUnavailable):
		return "No microphone available"
	case errors.Is(err, ingest.ErrFileTooLarge):
		return "File is larger than 200 MB"
	case errors.As(err, &be):
		return be.Message
	}
	return err.Error()
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
