// Package mcpserver exposes stored analyses to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jwulff/cadence/internal/db"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Store is the read side of the analysis history.
type Store interface {
	RecentAnalyses(ctx context.Context, limit int) ([]db.Record, error)
	AnalysisByID(ctx context.Context, id string) (*db.Record, error)
}

// Analyzer runs speech analysis on plain text.
type Analyzer interface {
	AnalyzeSpeech(ctx context.Context, ar ingest.AnalyzeRequest) (timeline.Analysis, error)
}

// Handlers implements the cadence tools.
type Handlers struct {
	store    Store
	analyzer Analyzer
	log      logger.Logger
}

// NewHandlers returns tool handlers backed by store. analyzer may be nil, in
// which case analyze_text reports that no backend is configured.
func NewHandlers(store Store, analyzer Analyzer, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{store: store, analyzer: analyzer, log: log}
}

// New builds an MCP server with every cadence tool registered.
func New(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer("cadence", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("list_analyses",
		mcp.WithDescription("List recent speech analyses, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of analyses (default 10, max 100)")),
	), h.ListAnalyses)

	s.AddTool(mcp.NewTool("feedback_feed",
		mcp.WithDescription("Pitch and stutter suggestions of one analysis, merged in playback order"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Analysis ID")),
	), h.FeedbackFeed)

	s.AddTool(mcp.NewTool("classify_segments",
		mcp.WithDescription("Transcript segments of one analysis with the kinds of feedback overlapping each"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Analysis ID")),
	), h.ClassifySegments)

	s.AddTool(mcp.NewTool("active_at",
		mcp.WithDescription("The segment and suggestion active at a playback time"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Analysis ID")),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Playback time in seconds")),
	), h.ActiveAt)

	s.AddTool(mcp.NewTool("analyze_text",
		mcp.WithDescription("Run speech analysis on plain text"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyze")),
	), h.AnalyzeText)

	return s
}

// ListAnalyses handles list_analyses.
func (h *Handlers) ListAnalyses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	records, err := h.store.RecentAnalyses(ctx, limit)
	if err != nil {
		h.log.Errorf("list analyses: %v", err)
		return mcp.NewToolResultErrorFromErr("list analyses", err), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No analyses stored."), nil
	}

	var b strings.Builder
	for _, r := range records {
		c := r.Counts()
		fmt.Fprintf(&b, "%s  %s  %s (%s, %.0fs)  segments=%d pitch=%d stutter=%d\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.FileName, r.Source, r.Duration,
			c.Segments, c.Pitch, c.Stutter)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// FeedbackFeed handles feedback_feed.
func (h *Handlers) FeedbackFeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, res := h.record(ctx, req)
	if res != nil {
		return res, nil
	}
	return jsonResult(timeline.Merge(r.Analysis.Pitch.Items, r.Analysis.Stutter.Items))
}

type classifiedSegment struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Class     string   `json:"class"`
}

// optTime maps a missing (NaN) time to null.
func optTime(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ClassifySegments handles classify_segments.
func (h *Handlers) ClassifySegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, res := h.record(ctx, req)
	if res != nil {
		return res, nil
	}
	var st timeline.State
	st.Load(r.Analysis)
	out := make([]classifiedSegment, len(st.Segments()))
	for i, seg := range st.Segments() {
		out[i] = classifiedSegment{
			Index:     seg.Index,
			Text:      seg.Text,
			StartTime: optTime(seg.StartTime),
			EndTime:   optTime(seg.EndTime),
			Class:     st.ClassOf(i).String(),
		}
	}
	return jsonResult(out)
}

type activeJSON struct {
	Seconds  float64             `json:"seconds"`
	Duration float64             `json:"duration"`
	Segment  *timeline.Segment   `json:"segment"`
	Feedback []timeline.Feedback `json:"feedback"`
}

// ActiveAt handles active_at. The time is clamped to the recording's
// duration, the same way the player clamps a seek.
func (h *Handlers) ActiveAt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds, err := req.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, res := h.record(ctx, req)
	if res != nil {
		return res, nil
	}

	var st timeline.State
	if r.Source == ingest.SourceRecording && r.Duration > 0 {
		st.LoadRecording(r.Analysis, r.Duration)
	} else {
		st.Load(r.Analysis)
	}
	t := timeline.Clamp(seconds, st.Duration())

	out := activeJSON{Seconds: t, Duration: st.Duration(), Feedback: []timeline.Feedback{}}
	if i, ok := playback.ActiveSegment(t, st.Segments()); ok {
		seg := st.Segments()[i]
		out.Segment = &seg
	}
	for _, f := range st.Feed() {
		if f.Timed() && timeline.Contains(t, f.Span()) {
			out.Feedback = append(out.Feedback, f)
		}
	}
	return jsonResult(out)
}

// AnalyzeText handles analyze_text.
func (h *Handlers) AnalyzeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is empty"), nil
	}
	if h.analyzer == nil {
		return mcp.NewToolResultError("no analysis backend configured"), nil
	}

	a, err := h.analyzer.AnalyzeSpeech(ctx, ingest.AnalyzeRequest{Text: text})
	if err != nil {
		h.log.Warnf("analyze text: %v", err)
		var be *ingest.BackendError
		if errors.As(err, &be) {
			return mcp.NewToolResultError(be.Message), nil
		}
		return mcp.NewToolResultErrorFromErr("analyze text", err), nil
	}
	return jsonResult(a)
}

// record loads the analysis named by the id argument. A non-nil result is
// the error to hand back to the client.
func (h *Handlers) record(ctx context.Context, req mcp.CallToolRequest) (*db.Record, *mcp.CallToolResult) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	r, err := h.store.AnalysisByID(ctx, id)
	if err != nil {
		h.log.Errorf("load analysis %s: %v", id, err)
		return nil, mcp.NewToolResultErrorFromErr("load analysis", err)
	}
	if r == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("analysis %q not found", id))
	}
	return r, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
