package app

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/cadence/internal/recording"
	"github.com/jwulff/cadence/internal/timeline"
	"github.com/jwulff/cadence/internal/ui"
)

// Track bar layout: "▶ " + clock + " │" + track + "│ " + clock. Both clocks
// are as wide as the duration's, so the bar always fills the terminal.
const (
	trackRow            = 2
	trackLeadingChrome  = 4
	trackTrailingChrome = 2
)

// trackBounds measures the track for the current width and duration.
func (m Model) trackBounds() timeline.Track {
	cw := clockWidth(m.state.Duration())
	return timeline.NewTrack(m.width, trackLeadingChrome+cw, trackTrailingChrome+cw)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Status bar
	sections = append(sections, m.renderStatusBar())

	// Track bar (must stay on trackRow for mouse hits)
	sections = append(sections, m.renderTrack())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Main content: suggestions | transcript
	sections = append(sections, m.renderMainContent())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if s := m.renderSummaries(); s != "" {
		sections = append(sections, s)
	}

	// Error bar
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	if m.prompting {
		sections = append(sections, m.input.View())
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("CADENCE")
	if m.fileName != "" {
		title += ui.DimStyle.Render(" · " + m.fileName)
	}
	if opts := m.deps.Options.String(); opts != "" {
		title += ui.DimStyle.Render(" [" + opts + "]")
	}
	return title
}

func (m Model) renderStatusBar() string {
	sess := m.deps.Session
	elapsed := fmtClock(float64(sess.Elapsed()))

	var rec string
	switch sess.State() {
	case recording.Recording:
		rec = ui.RecordingDotStyle.Render("● REC " + elapsed)
	case recording.Paused:
		rec = ui.PausedDotStyle.Render("❚❚ PAUSED " + elapsed)
	case recording.Stopped:
		rec = ui.PausedDotStyle.Render("■ READY " + elapsed)
	default:
		rec = ui.IdleDotStyle.Render("○ IDLE")
	}

	var busy string
	if m.inFlight {
		busy = "  " + m.spinner.View() + ui.StatusStyle.Render(" Analyzing...")
	}

	return rec + busy + "  " + ui.StatusStyle.Render(m.statusText)
}

func (m Model) renderTrack() string {
	tr := m.deps.Tracker
	dur := m.state.Duration()
	cur := timeline.Clamp(tr.Current(), dur)
	track := m.trackBounds()
	cw := clockWidth(dur)

	glyph := ui.DimStyle.Render("■")
	if tr.Loaded() {
		glyph = ui.DimStyle.Render("❚")
		if tr.Playing() {
			glyph = ui.PlayingStyle.Render("▶")
		}
	}

	w := track.Width
	cells := make([]string, w)
	kinds := make([]timeline.Class, w)
	for i := range cells {
		cells[i] = ui.TrackStyle.Render("─")
	}

	if dur > 0 {
		for _, f := range m.state.Feed() {
			if !f.Timed() {
				continue
			}
			col := track.Column(timeline.Position(timeline.Clamp(f.StartTime, dur), dur)) - track.Offset
			if col < 0 || col >= w {
				continue
			}
			kinds[col] = mergeClass(kinds[col], f.Kind)
			cells[col] = markerGlyph(kinds[col])
		}
		if tr.Loaded() {
			col := track.Column(timeline.Position(cur, dur)) - track.Offset
			if col >= 0 && col < w {
				cells[col] = ui.CursorStyle.Render("●")
			}
		}
	}

	return glyph + " " + ui.TimestampStyle.Render(fmtClockWidth(cur, cw)) + " " +
		ui.TrackStyle.Render("│") + strings.Join(cells, "") + ui.TrackStyle.Render("│") +
		" " + ui.TimestampStyle.Render(fmtClockWidth(dur, cw))
}

func mergeClass(c timeline.Class, k timeline.Kind) timeline.Class {
	add := timeline.ClassPitch
	if k == timeline.KindStutter {
		add = timeline.ClassStutter
	}
	switch {
	case c == timeline.ClassNone:
		return add
	case c == add:
		return c
	}
	return timeline.ClassBoth
}

func markerGlyph(c timeline.Class) string {
	switch c {
	case timeline.ClassPitch:
		return ui.PitchStyle.Render("▲")
	case timeline.ClassStutter:
		return ui.StutterStyle.Render("▼")
	case timeline.ClassBoth:
		return ui.BothStyle.Render("◆")
	}
	return ui.TrackStyle.Render("─")
}

func classStyle(c timeline.Class) lipgloss.Style {
	switch c {
	case timeline.ClassPitch:
		return ui.PitchStyle
	case timeline.ClassStutter:
		return ui.StutterStyle
	case timeline.ClassBoth:
		return ui.BothStyle
	}
	return lipgloss.NewStyle()
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header, status, track, two dividers, summary, error, prompt, footer
	reserved := 9
	return max(5, m.height-reserved)
}

func (m Model) feedPanelWidth() int {
	if m.width == 0 {
		return 40
	}
	return max(24, m.width*40/100)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.feedPanelWidth()-1)
}

func (m Model) renderMainContent() string {
	feedW := m.feedPanelWidth()
	transcriptW := m.transcriptPanelWidth()
	contentH := m.contentHeight()

	feedLines := strings.Split(m.renderFeedPanel(feedW, contentH), "\n")
	transcriptLines := strings.Split(m.renderTranscriptPanel(transcriptW, contentH), "\n")

	divider := ui.DividerStyle.Render("│")
	var rows []string
	for i := 0; i < contentH; i++ {
		fl := strings.Repeat(" ", feedW)
		if i < len(feedLines) {
			fl = feedLines[i]
		}
		tl := ""
		if i < len(transcriptLines) {
			tl = transcriptLines[i]
		}
		rows = append(rows, fl+divider+tl)
	}
	return strings.Join(rows, "\n")
}

func panelTitle(title string, focused bool) string {
	if focused {
		return ui.PanelTitleActiveStyle.Render(title)
	}
	return ui.PanelTitleStyle.Render(title)
}

func (m Model) renderFeedPanel(width, height int) string {
	feed := m.state.Feed()
	pitch, stutter := timeline.Counts(feed)
	header := panelTitle(fmt.Sprintf("SUGGESTIONS (%d)", len(feed)), m.focusedPanel == FocusFeed) +
		ui.PitchStyle.Render(fmt.Sprintf(" ▲%d", pitch)) + ui.StutterStyle.Render(fmt.Sprintf(" ▼%d", stutter))

	lines := []string{padRight(header, width)}

	if len(feed) == 0 {
		if m.state.Loaded() {
			lines = append(lines, ui.DimStyle.Render("  No issues flagged"))
		} else {
			lines = append(lines, ui.DimStyle.Render("  No analysis loaded"))
		}
	} else {
		active, hasActive := m.deps.Tracker.ActiveFeedback(feed)
		for i := m.feedTop; i < len(feed) && len(lines) < height; i++ {
			lines = append(lines, m.renderFeedLine(feed[i], width,
				i == m.selectedFeed && m.focusedPanel == FocusFeed,
				hasActive && i == active))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines[:height], "\n")
}

func (m Model) renderFeedLine(f timeline.Feedback, width int, selected, active bool) string {
	ts := "[--:--]"
	if f.Timed() {
		ts = "[" + fmtClock(f.StartTime) + "]"
	}

	label, style := "PITCH  ", ui.PitchStyle
	if f.Kind == timeline.KindStutter {
		label, style = "STUTTER", ui.StutterStyle
	}

	var sev string
	switch f.Severity {
	case timeline.SeverityHigh:
		sev = ui.SeverityHighStyle.Render("! ")
	case timeline.SeverityMedium, timeline.SeverityLow:
		sev = "· "
	default:
		sev = "  "
	}

	msg := f.Message
	if msg == "" {
		msg = f.Text
	}
	if f.Streak {
		msg = "(streak) " + msg
	}
	prefix := "  "
	if selected {
		prefix = ui.SelectedStyle.Render("> ")
	}
	avail := max(5, width-lipgloss.Width("  [00:00] STUTTER ! "))
	body := truncateToWidth(msg, avail)
	if active {
		body = ui.ActiveStyle.Render(body)
	}
	return prefix + ui.TimestampStyle.Render(ts) + " " + style.Render(label) + " " + sev + body
}

func (m Model) renderTranscriptPanel(width, height int) string {
	segs := m.state.Segments()
	badge := ""
	if m.follow {
		badge = ui.PlayingStyle.Render(" FOLLOW")
	}
	lines := []string{panelTitle("TRANSCRIPT", m.focusedPanel == FocusTranscript) + badge}

	if len(segs) == 0 {
		lines = append(lines, "")
		if m.inFlight {
			lines = append(lines, ui.DimStyle.Render("  Waiting for the transcript..."))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Press o to open a file or r to record"))
		}
	} else {
		active, hasActive := m.deps.Tracker.ActiveSegment(segs)
		for i := m.transcriptTop; i < len(segs) && len(lines) < height; i++ {
			for _, l := range m.segmentLines(i, width, hasActive && i == active) {
				if len(lines) >= height {
					break
				}
				lines = append(lines, l)
			}
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:height], "\n")
}

// Prefix: " > [00:00] " = 11 cells.
const segmentPrefixWidth = 11

func (m Model) segmentLines(i, width int, active bool) []string {
	s := m.state.Segments()[i]
	style := classStyle(m.state.ClassOf(i))
	if active {
		style = style.Reverse(true)
	}

	ts := "[--:--]"
	if !math.IsNaN(s.StartTime) {
		ts = "[" + fmtClock(s.StartTime) + "]"
	}
	marker := "   "
	if i == m.selectedSeg && m.focusedPanel == FocusTranscript {
		marker = ui.SelectedStyle.Render(" > ")
	}

	wrapped := wrapText(s.Text, max(10, width-segmentPrefixWidth-1))
	out := []string{marker + ui.TimestampStyle.Render(ts) + " " + style.Render(wrapped[0])}
	indent := strings.Repeat(" ", segmentPrefixWidth)
	for _, wl := range wrapped[1:] {
		out = append(out, indent+style.Render(wl))
	}
	return out
}

// visibleSegments counts how many segments from transcriptTop fit the panel.
func (m Model) visibleSegments() int {
	segs := m.state.Segments()
	rows := m.contentHeight() - 1
	width := max(10, m.transcriptPanelWidth()-segmentPrefixWidth-1)
	n := 0
	for i := m.transcriptTop; i < len(segs); i++ {
		rows -= len(wrapText(segs[i].Text, width))
		if rows < 0 {
			break
		}
		n++
	}
	return max(1, n)
}

func (m Model) renderSummaries() string {
	pitch, stutter := m.state.Summaries()
	var parts []string
	if pitch != nil && pitch.Message != "" {
		parts = append(parts, ui.PitchStyle.Render("Pitch: ")+ui.DimStyle.Render(pitch.Message))
	}
	if stutter != nil && stutter.Message != "" {
		parts = append(parts, ui.StutterStyle.Render("Stutter: ")+ui.DimStyle.Render(stutter.Message))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	bindings := []key.Binding{m.keys.Play, m.keys.Seek, m.keys.Back, m.keys.Focus, m.keys.Next, m.keys.ScrollUp}
	if !m.inFlight {
		bindings = append(bindings, m.keys.Open)
	}
	switch m.deps.Session.State() {
	case recording.Recording, recording.Paused:
		bindings = append(bindings, m.keys.PauseRecord, m.keys.StopRecord)
	case recording.Stopped:
		bindings = append(bindings, m.keys.Confirm, m.keys.Cancel)
	default:
		bindings = append(bindings, m.keys.Record)
	}
	bindings = append(bindings, m.keys.Quit)

	var parts []string
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, ui.FooterKeyStyle.Render(h.Key)+ui.FooterDescStyle.Render(" "+h.Desc))
	}
	return strings.Join(parts, "  ")
}

// Helpers

// fmtClock renders seconds as mm:ss. Minutes grow past two digits.
func fmtClock(sec float64) string {
	return fmtClockWidth(sec, 5)
}

// fmtClockWidth renders seconds as mm:ss with the minutes zero-padded so the
// result is at least width cells.
func fmtClockWidth(sec float64, width int) string {
	if math.IsNaN(sec) || sec < 0 {
		sec = 0
	}
	s := int(sec)
	return fmt.Sprintf("%0*d:%02d", max(2, width-3), s/60, s%60)
}

// clockWidth is the width of the clock showing total.
func clockWidth(total float64) int {
	return len(fmtClock(total))
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// truncateToWidth shortens unstyled text to width cells.
func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
