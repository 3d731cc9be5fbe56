package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/recording"
	"github.com/jwulff/cadence/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	a     timeline.Analysis
	err   error
	calls []ingest.Upload
}

func (f *fakeTranscriber) Transcribe(_ context.Context, up ingest.Upload, _ ingest.Options) (timeline.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, up)
	return f.a, f.err
}

type fakePlayer struct {
	paused  bool
	seeks   []float64
	closed  bool
	updates chan float64
}

func (p *fakePlayer) Play() error  { p.paused = false; return nil }
func (p *fakePlayer) Pause() error { p.paused = true; return nil }
func (p *fakePlayer) Seek(s float64) error {
	p.seeks = append(p.seeks, s)
	return nil
}
func (p *fakePlayer) Position() (float64, error) { return 0, nil }
func (p *fakePlayer) Paused() bool               { return p.paused }
func (p *fakePlayer) Updates() <-chan float64    { return p.updates }
func (p *fakePlayer) Close() error               { p.closed = true; return nil }

func newFakePlayer() *fakePlayer {
	return &fakePlayer{paused: true, updates: make(chan float64, 1)}
}

type fakeRecorder struct {
	dir string
	err error
	dev *fakeDevice
}

func (r *fakeRecorder) Acquire(context.Context) (recording.Device, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.dev = &fakeDevice{dir: r.dir}
	return r.dev, nil
}

type fakeDevice struct {
	dir      string
	released bool
}

func (d *fakeDevice) Pause() error  { return nil }
func (d *fakeDevice) Resume() error { return nil }
func (d *fakeDevice) Finalize(context.Context) (recording.Blob, error) {
	path := filepath.Join(d.dir, "capture.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		return recording.Blob{}, err
	}
	return recording.Blob{Path: path, MIMEType: "audio/wav", Size: 4}, nil
}
func (d *fakeDevice) Release() error { d.released = true; return nil }

type harness struct {
	transcriber *fakeTranscriber
	recorder    *fakeRecorder
	opened      []*fakePlayer
	deps        Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transcriber: &fakeTranscriber{},
		recorder:    &fakeRecorder{dir: t.TempDir()},
	}
	open := func(string) (playback.Player, error) {
		p := newFakePlayer()
		h.opened = append(h.opened, p)
		return p, nil
	}
	h.deps = Deps{
		Transcriber: h.transcriber,
		Tracker:     playback.NewTracker(open),
		Session:     recording.NewSession(h.recorder),
		Log:         logger.Nop(),
	}
	return h
}

func sampleAnalysis() timeline.Analysis {
	return timeline.Analysis{
		Segments: []timeline.Segment{
			{Index: 0, Text: "hi", StartTime: 0, EndTime: 2},
			{Index: 1, Text: "world", StartTime: 2, EndTime: 5},
		},
		Pitch: timeline.Stream{Items: []timeline.Feedback{
			{Kind: timeline.KindPitch, StartTime: 1, EndTime: 1.5, Message: "monotone"},
		}},
		Stutter: timeline.Stream{Items: []timeline.Feedback{
			{Kind: timeline.KindStutter, StartTime: 3, EndTime: 4, Message: "block"},
		}},
	}
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// loaded returns a model with sampleAnalysis loaded and a player attached.
func loaded(t *testing.T, h *harness) (Model, *fakePlayer) {
	t.Helper()
	m := New(h.deps, "")
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m.request = 1
	m.inFlight = true
	m, _ = applyUpdate(m, TranscribeDoneMsg{
		Request:  1,
		Upload:   ingest.Upload{Name: "talk.wav", Source: ingest.SourceFile},
		Source:   playback.Source{Path: "talk.wav"},
		Analysis: sampleAnalysis(),
	})
	p := newFakePlayer()
	m, _ = applyUpdate(m, PlayerOpenedMsg{Request: 1, Player: p, Source: playback.Source{Path: "talk.wav"}})
	return m, p
}

func TestNewModel(t *testing.T) {
	m := New(newHarness(t).deps, "")
	if m.inFlight {
		t.Error("new model should not be in flight")
	}
	if m.state.Loaded() {
		t.Error("new model should have nothing loaded")
	}
	if m.focusedPanel != FocusFeed {
		t.Error("new model should focus the suggestions feed")
	}
	if m.Init() != nil {
		t.Error("Init without a path should do nothing")
	}
}

func TestInitSubmitsPath(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "talk.wav")
	os.WriteFile(path, []byte("RIFF"), 0o600)

	m := New(h.deps, path)
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should submit the path")
	}
	m, cmd = applyUpdate(m, cmd())
	if !m.inFlight {
		t.Error("should be in flight after submit")
	}
	if m.request != 1 {
		t.Errorf("request = %d, want 1", m.request)
	}
	if m.fileName != "talk.wav" {
		t.Errorf("fileName = %q", m.fileName)
	}
	if cmd == nil {
		t.Error("submit should return a command")
	}
}

func TestNewWithMissingPathShowsError(t *testing.T) {
	m := New(newHarness(t).deps, filepath.Join(t.TempDir(), "missing.wav"))
	if m.errorMessage == "" {
		t.Error("missing file should be reported")
	}
	if m.Init() != nil {
		t.Error("nothing should be submitted")
	}
}

func TestTranscribeDoneLoadsTimeline(t *testing.T) {
	m, _ := loaded(t, newHarness(t))

	if m.inFlight {
		t.Error("request should be finished")
	}
	if got := len(m.state.Feed()); got != 2 {
		t.Fatalf("feed = %d, want 2", got)
	}
	if m.state.Feed()[0].Kind != timeline.KindPitch {
		t.Error("feed should be ordered by start time")
	}
	if m.state.Duration() != 4 {
		t.Errorf("duration = %v, want 4", m.state.Duration())
	}
	if m.state.ClassOf(0) != timeline.ClassPitch || m.state.ClassOf(1) != timeline.ClassStutter {
		t.Errorf("classes = %v", m.state.Classes())
	}
	if !m.deps.Tracker.Loaded() {
		t.Error("player should be attached")
	}
}

func TestStaleTranscribeDoneIgnored(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.request = 2
	m.inFlight = true

	owned := filepath.Join(t.TempDir(), "old.wav")
	os.WriteFile(owned, []byte("RIFF"), 0o600)

	m, _ = applyUpdate(m, TranscribeDoneMsg{Request: 1, Analysis: sampleAnalysis(), Source: playback.Source{Path: owned, Owned: true}})
	if m.state.Loaded() {
		t.Error("stale result should not load")
	}
	if !m.inFlight {
		t.Error("current request should still be in flight")
	}
	if _, err := os.Stat(owned); !os.IsNotExist(err) {
		t.Error("stale owned source should be released")
	}
}

func TestTranscribeErrorShown(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.request = 1
	m.inFlight = true

	owned := filepath.Join(t.TempDir(), "rec.wav")
	os.WriteFile(owned, []byte("RIFF"), 0o600)

	err := &ingest.BackendError{Kind: ingest.ErrTranscriptionFailed, Status: 500, Message: "Transcription failed: boom"}
	m, _ = applyUpdate(m, TranscribeDoneMsg{Request: 1, Err: err, Source: playback.Source{Path: owned, Owned: true}})

	if m.errorMessage != "Transcription failed: boom" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if m.errorTransient {
		t.Error("transcription errors should stay visible")
	}
	if m.state.Loaded() {
		t.Error("nothing should be loaded")
	}
	if _, err := os.Stat(owned); !os.IsNotExist(err) {
		t.Error("owned source should be released on failure")
	}
}

func TestPartialResultIsLoaded(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.request = 1
	m.inFlight = true

	a := timeline.Analysis{Segments: []timeline.Segment{{Text: "one", StartTime: 0, EndTime: 2}}}
	err := &ingest.BackendError{Kind: ingest.ErrAnalysisFailed, Message: "Analysis failed"}
	m, cmd := applyUpdate(m, TranscribeDoneMsg{Request: 1, Analysis: a, Err: err, Upload: ingest.Upload{Name: "a.wav"}})

	if !m.state.Loaded() {
		t.Error("transcript should be kept")
	}
	if m.errorMessage != "Analysis failed" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if cmd == nil {
		t.Error("player should still be opened")
	}
}

func TestRecordingDurationIsAuthoritative(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.request = 1
	m.inFlight = true

	up := ingest.NewRecordingUpload("rec.wav", "audio/wav", 4, 42)
	m, _ = applyUpdate(m, TranscribeDoneMsg{Request: 1, Upload: up, Analysis: sampleAnalysis()})
	if m.state.Duration() != 42 {
		t.Errorf("duration = %v, want 42", m.state.Duration())
	}
}

func TestSubmitIgnoredWhileInFlight(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.inFlight = true
	m.request = 3

	if cmd := m.submit(ingest.Upload{Path: "a.wav", Name: "a.wav"}, playback.Source{}); cmd != nil {
		t.Error("second submission should be ignored")
	}
	if m.request != 3 {
		t.Errorf("request = %d, want 3", m.request)
	}
}

func TestSubmitResetsPreviousCycle(t *testing.T) {
	h := newHarness(t)
	m, p := loaded(t, h)
	m.inFlight = false

	cmd := m.submit(ingest.Upload{Path: "next.wav", Name: "next.wav"}, playback.Source{Path: "next.wav"})
	if cmd == nil {
		t.Fatal("submit should return a command")
	}
	if m.state.Loaded() || m.state.Duration() != 0 {
		t.Error("state should be reset before new data arrives")
	}
	if !p.closed {
		t.Error("previous player should be closed")
	}
}

func TestTimeUpdates(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	m, cmd := applyUpdate(m, TimeUpdateMsg{Seconds: 3.5, ch: p.updates})
	if m.deps.Tracker.Current() != 3.5 {
		t.Errorf("current = %v, want 3.5", m.deps.Tracker.Current())
	}
	if cmd == nil {
		t.Error("should keep reading updates")
	}
	if i, ok := m.deps.Tracker.ActiveSegment(m.state.Segments()); !ok || i != 1 {
		t.Errorf("active segment = %d, %v; want 1", i, ok)
	}

	other := make(chan float64)
	m, cmd = applyUpdate(m, TimeUpdateMsg{Seconds: 1, ch: other})
	if m.deps.Tracker.Current() != 3.5 {
		t.Error("updates from an old player must be ignored")
	}
	if cmd != nil {
		t.Error("old player stream should not be read again")
	}
}

func TestStalePlayerClosed(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m.request = 2

	p := newFakePlayer()
	m, _ = applyUpdate(m, PlayerOpenedMsg{Request: 1, Player: p})
	if !p.closed {
		t.Error("player for a stale request should be closed")
	}
	if m.deps.Tracker.Loaded() {
		t.Error("stale player must not be attached")
	}
}

func TestEnterSeeksWithLookback(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	// Select the stutter item at 3s.
	m, _ = applyUpdate(m, keyMsg("j"))
	m, _ = applyUpdate(m, keyMsg("enter"))

	if len(p.seeks) != 1 || p.seeks[0] != 2 {
		t.Errorf("seeks = %v, want [2]", p.seeks)
	}
	if p.paused {
		t.Error("seeking to a suggestion should resume playback")
	}
}

func TestEnterOnTranscriptSeeksToSegment(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	m, _ = applyUpdate(m, keyMsg("tab"))
	m, _ = applyUpdate(m, keyMsg("j"))
	m, _ = applyUpdate(m, keyMsg("enter"))

	if len(p.seeks) != 1 || p.seeks[0] != 1 {
		t.Errorf("seeks = %v, want [1]", p.seeks)
	}
}

func TestSpaceToggles(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	m, _ = applyUpdate(m, keyMsg(" "))
	if p.paused {
		t.Error("space should start playback")
	}
	m, _ = applyUpdate(m, keyMsg(" "))
	if !p.paused {
		t.Error("space should pause playback")
	}
}

func TestSpaceWithoutAudio(t *testing.T) {
	m := New(newHarness(t).deps, "")
	m, cmd := applyUpdate(m, keyMsg(" "))
	if m.errorMessage == "" || !m.errorTransient {
		t.Errorf("expected transient error, got %q", m.errorMessage)
	}
	if cmd == nil {
		t.Error("transient error should schedule a clear")
	}
}

func TestScrubClampsToDuration(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	m, _ = applyUpdate(m, keyMsg("right"))
	if got := p.seeks[len(p.seeks)-1]; got != 4 {
		t.Errorf("scrub right = %v, want 4 (duration)", got)
	}
	m, _ = applyUpdate(m, keyMsg("left"))
	if got := p.seeks[len(p.seeks)-1]; got != 0 {
		t.Errorf("scrub left = %v, want 0", got)
	}
}

func TestMouseClickOnTrackSeeks(t *testing.T) {
	m, p := loaded(t, newHarness(t))

	track := m.trackBounds()
	end := track.Offset + track.Width - 1
	m, _ = applyUpdate(m, tea.MouseMsg{X: end, Y: trackRow, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(p.seeks) != 1 || p.seeks[0] != 4 {
		t.Errorf("seeks = %v, want [4]", p.seeks)
	}

	m, _ = applyUpdate(m, tea.MouseMsg{X: end, Y: trackRow + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(p.seeks) != 1 {
		t.Error("clicks off the track should be ignored")
	}
}

func TestRecordingFlow(t *testing.T) {
	h := newHarness(t)
	h.transcriber.a = sampleAnalysis()
	m := New(h.deps, "")
	sess := h.deps.Session

	m, cmd := applyUpdate(m, keyMsg("r"))
	if cmd == nil {
		t.Fatal("r should start recording")
	}
	started := cmd().(RecordStartedMsg)
	m, tick := applyUpdate(m, started)
	if sess.State() != recording.Recording {
		t.Fatalf("state = %v, want recording", sess.State())
	}
	if tick == nil {
		t.Fatal("timer should be scheduled")
	}

	m, _ = applyUpdate(m, RecordTickMsg{Timer: started.Timer})
	m, _ = applyUpdate(m, RecordTickMsg{Timer: started.Timer})
	if sess.Elapsed() != 2 {
		t.Errorf("elapsed = %d, want 2", sess.Elapsed())
	}

	m, cmd = applyUpdate(m, keyMsg("p"))
	m, _ = applyUpdate(m, cmd())
	if sess.State() != recording.Paused {
		t.Fatalf("state = %v, want paused", sess.State())
	}
	m, next := applyUpdate(m, RecordTickMsg{Timer: started.Timer})
	if next != nil || sess.Elapsed() != 2 {
		t.Error("ticks after pause must be ignored")
	}

	m, cmd = applyUpdate(m, keyMsg("p"))
	m, _ = applyUpdate(m, cmd())
	if sess.State() != recording.Recording {
		t.Fatalf("state = %v, want recording", sess.State())
	}

	m, cmd = applyUpdate(m, keyMsg("s"))
	m, _ = applyUpdate(m, cmd())
	if sess.State() != recording.Stopped {
		t.Fatalf("state = %v, want stopped", sess.State())
	}
	if !h.recorder.dev.released {
		t.Error("microphone should be released on stop")
	}

	m, cmd = applyUpdate(m, keyMsg("y"))
	if sess.State() != recording.Submitted {
		t.Fatalf("state = %v, want submitted", sess.State())
	}
	if !m.inFlight || cmd == nil {
		t.Fatal("confirm should submit the recording")
	}
	if m.fileName != "recording.wav" {
		t.Errorf("fileName = %q", m.fileName)
	}
}

func TestCancelRecording(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	sess := h.deps.Session

	m, cmd := applyUpdate(m, keyMsg("r"))
	m, _ = applyUpdate(m, cmd())
	m, cmd = applyUpdate(m, keyMsg("s"))
	m, _ = applyUpdate(m, cmd())

	blob := filepath.Join(h.recorder.dir, "capture.wav")
	if _, err := os.Stat(blob); err != nil {
		t.Fatalf("blob should exist before cancel: %v", err)
	}

	m, _ = applyUpdate(m, keyMsg("n"))
	if sess.State() != recording.Idle {
		t.Errorf("state = %v, want idle", sess.State())
	}
	if sess.Elapsed() != 0 {
		t.Errorf("elapsed = %d, want 0", sess.Elapsed())
	}
	if _, err := os.Stat(blob); !os.IsNotExist(err) {
		t.Error("blob should be discarded")
	}
	if len(h.transcriber.calls) != 0 {
		t.Error("nothing should be uploaded")
	}
}

func TestRecordPermissionDenied(t *testing.T) {
	h := newHarness(t)
	h.recorder.err = recording.ErrPermissionDenied
	m := New(h.deps, "")

	m, cmd := applyUpdate(m, keyMsg("r"))
	m, _ = applyUpdate(m, cmd())
	if m.errorMessage != "Microphone access denied" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if h.deps.Session.State() != recording.Idle {
		t.Errorf("state = %v, want idle", h.deps.Session.State())
	}
}

func TestOpenPromptEmptyPath(t *testing.T) {
	h := newHarness(t)
	h.deps.Transcriber = ingest.NewClient("http://127.0.0.1:1", 0, logger.Nop())
	m := New(h.deps, "")

	m, _ = applyUpdate(m, keyMsg("o"))
	if !m.prompting {
		t.Fatal("o should open the prompt")
	}
	m, cmd := applyUpdate(m, keyMsg("enter"))
	if m.prompting {
		t.Error("enter should close the prompt")
	}
	if cmd == nil {
		t.Fatal("enter should submit")
	}

	// The batch holds the spinner tick and the upload; run the upload.
	var done TranscribeDoneMsg
	for _, c := range cmd().(tea.BatchMsg) {
		if msg, ok := c().(TranscribeDoneMsg); ok {
			done = msg
		}
	}
	m, _ = applyUpdate(m, done)
	if m.errorMessage != "No file selected" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestPromptEscCancels(t *testing.T) {
	m := New(newHarness(t).deps, "")
	m, _ = applyUpdate(m, keyMsg("o"))
	m, _ = applyUpdate(m, keyMsg("esc"))
	if m.prompting {
		t.Error("esc should close the prompt")
	}
	if m.inFlight {
		t.Error("nothing should be submitted")
	}
}

func TestQuitTearsDown(t *testing.T) {
	h := newHarness(t)
	m, p := loaded(t, h)

	m, cmd := applyUpdate(m, keyMsg("r"))
	m, _ = applyUpdate(m, cmd())

	_, cmd = applyUpdate(m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
	if !p.closed {
		t.Error("player should be closed")
	}
	if !h.recorder.dev.released {
		t.Error("microphone should be released")
	}
}

func TestClearTransientError(t *testing.T) {
	m := New(newHarness(t).deps, "")
	m.setError("oops", true)
	m, _ = applyUpdate(m, ClearTransientErrorMsg{Seq: m.errorSeq})
	if m.errorMessage != "" {
		t.Error("transient error should clear")
	}

	m.setError("stays", false)
	m, _ = applyUpdate(m, ClearTransientErrorMsg{Seq: m.errorSeq})
	if m.errorMessage != "stays" {
		t.Error("persistent error should stay")
	}
}

func TestView(t *testing.T) {
	m, _ := loaded(t, newHarness(t))
	view := m.View()

	for _, want := range []string{"CADENCE", "talk.wav", "SUGGESTIONS (2)", "TRANSCRIPT", "monotone", "world"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	lines := strings.Split(view, "\n")
	if !strings.Contains(lines[trackRow], "00:04") {
		t.Errorf("track row = %q, want duration", lines[trackRow])
	}
}

func TestStaleClearKeepsNewerError(t *testing.T) {
	m := New(newHarness(t).deps, "")
	if cmd := m.fail(errors.New("first"), true); cmd == nil {
		t.Fatal("transient errors should schedule a clear")
	}
	m.fail(errors.New("second"), true)

	m, _ = applyUpdate(m, ClearTransientErrorMsg{Seq: m.errorSeq - 1})
	if m.errorMessage != "second" {
		t.Errorf("error = %q, the newer error should survive the older clear", m.errorMessage)
	}
	m, _ = applyUpdate(m, ClearTransientErrorMsg{Seq: m.errorSeq})
	if m.errorMessage != "" {
		t.Error("the newest clear should remove the error")
	}
}

func TestTrackBarFitsLongRecordings(t *testing.T) {
	h := newHarness(t)
	m := New(h.deps, "")
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = applyUpdate(m, TranscribeDoneMsg{
		Upload:   ingest.Upload{Name: "lecture.wav", Source: ingest.SourceFile},
		Analysis: timeline.Analysis{Segments: []timeline.Segment{{Index: 0, Text: "long", StartTime: 0, EndTime: 6000}}},
	})

	bar := m.renderTrack()
	if got := lipgloss.Width(bar); got != 100 {
		t.Errorf("track bar width = %d, want 100: %q", got, bar)
	}
	if !strings.Contains(bar, "000:00") || !strings.Contains(bar, "100:00") {
		t.Errorf("clocks should share the duration's width: %q", bar)
	}

	track := m.trackBounds()
	if track.Offset+track.Width+trackTrailingChrome+clockWidth(6000) != 100 {
		t.Errorf("track %+v does not end where the trailing clock begins", track)
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := New(newHarness(t).deps, "")
	if m.View() != "Initializing..." {
		t.Error("view should wait for the window size")
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ingest.ErrNoFileSelected, "No file selected"},
		{recording.ErrPermissionDenied, "Microphone access denied"},
		{&ingest.BackendError{Kind: ingest.ErrAnalysisFailed, Message: "Analysis failed"}, "Analysis failed"},
		{errors.New("plain"), "plain"},
	}
	for _, c := range cases {
		if got := describe(c.err); got != c.want {
			t.Errorf("describe(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestFmtClock(t *testing.T) {
	if got := fmtClock(125.9); got != "02:05" {
		t.Errorf("fmtClock = %q", got)
	}
	if got := fmtClock(-1); got != "00:00" {
		t.Errorf("fmtClock(-1) = %q", got)
	}
	if got := fmtClock(6000); got != "100:00" {
		t.Errorf("fmtClock(6000) = %q", got)
	}
	if got := fmtClockWidth(65, 6); got != "001:05" {
		t.Errorf("fmtClockWidth = %q", got)
	}
}
