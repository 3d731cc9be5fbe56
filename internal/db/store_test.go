package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/timeline"
)

// openTestStore creates an in-memory store with the cadence schema.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleAnalysis() timeline.Analysis {
	return timeline.Analysis{
		Segments: []timeline.Segment{
			{Index: 0, Text: "hello", StartTime: 0, EndTime: 2},
			{Index: 1, Text: "world", StartTime: 2, EndTime: 5},
		},
		Pitch: timeline.Stream{
			Items:   []timeline.Feedback{{Kind: timeline.KindPitch, StartTime: 0, EndTime: 2, Message: "flat", Severity: timeline.SeverityHigh}},
			Summary: &timeline.Summary{Kind: timeline.KindPitch, Message: "1 issue"},
		},
		Stutter: timeline.Stream{
			Items: []timeline.Feedback{{Kind: timeline.KindStutter, StartTime: 3, EndTime: timeline.NaN(), Message: "block"}},
		},
	}
}

func TestSaveAndLoadAnalysis(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.SaveAnalysis(ctx, Record{FileName: "talk.wav", Duration: 5, Analysis: sampleAnalysis()})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	r, err := store.AnalysisByID(ctx, id)
	if err != nil {
		t.Fatalf("AnalysisByID: %v", err)
	}
	if r == nil {
		t.Fatal("expected record, got nil")
	}
	if r.FileName != "talk.wav" {
		t.Errorf("FileName = %q, want %q", r.FileName, "talk.wav")
	}
	if r.Source != ingest.SourceFile {
		t.Errorf("Source = %q, want %q", r.Source, ingest.SourceFile)
	}
	c := r.Counts()
	if c.Segments != 2 || c.Pitch != 1 || c.Stutter != 1 {
		t.Errorf("counts = %+v, want 2/1/1", c)
	}
	if r.Analysis.Pitch.Items[0].Severity != timeline.SeverityHigh {
		t.Errorf("severity = %v, want high", r.Analysis.Pitch.Items[0].Severity)
	}
	if r.Analysis.Stutter.Items[0].HasFiniteEnd() {
		t.Error("missing end time should survive the round trip as missing")
	}
	if r.Analysis.Pitch.Summary == nil || r.Analysis.Pitch.Summary.Message != "1 issue" {
		t.Errorf("pitch summary = %+v", r.Analysis.Pitch.Summary)
	}
}

func TestAnalysisByIDMissing(t *testing.T) {
	store := openTestStore(t)

	r, err := store.AnalysisByID(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("AnalysisByID: %v", err)
	}
	if r != nil {
		t.Errorf("expected nil, got record %q", r.ID)
	}
}

func TestSaveSameKeyReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.SaveAnalysis(ctx, Record{CacheKey: "k1", FileName: "a.wav", Analysis: sampleAnalysis()})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	second, err := store.SaveAnalysis(ctx, Record{CacheKey: "k1", FileName: "b.wav", Analysis: timeline.Analysis{}})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if first != second {
		t.Errorf("id changed on replace: %q -> %q", first, second)
	}

	r, err := store.AnalysisByKey(ctx, "k1")
	if err != nil {
		t.Fatalf("AnalysisByKey: %v", err)
	}
	if r.FileName != "b.wav" {
		t.Errorf("FileName = %q, want %q", r.FileName, "b.wav")
	}
	if len(r.Analysis.Segments) != 0 {
		t.Errorf("got %d segments, want 0", len(r.Analysis.Segments))
	}
}

func TestRecentAnalyses(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.SaveAnalysis(ctx, Record{FileName: "old.wav", CreatedAt: now.Add(-time.Hour)})
	store.SaveAnalysis(ctx, Record{FileName: "new.wav", CreatedAt: now})
	store.SaveAnalysis(ctx, Record{FileName: "mid.wav", CreatedAt: now.Add(-time.Minute)})

	records, err := store.RecentAnalyses(ctx, 2)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].FileName != "new.wav" {
		t.Errorf("records[0] = %q, want %q", records[0].FileName, "new.wav")
	}
	if records[1].FileName != "mid.wav" {
		t.Errorf("records[1] = %q, want %q", records[1].FileName, "mid.wav")
	}
}

func TestRecentAnalysesEmpty(t *testing.T) {
	store := openTestStore(t)

	records, err := store.RecentAnalyses(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestStoreAsCache(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Lookup(ctx, "missing"); err != nil || ok {
		t.Fatalf("Lookup(missing) = %v, %v", ok, err)
	}

	up := ingest.NewRecordingUpload("/tmp/rec.wav", "audio/wav", 100, 7.5)
	if err := store.Save(ctx, "abc", up, sampleAnalysis()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a, ok, err := store.Lookup(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("Lookup(abc) = %v, %v", ok, err)
	}
	if len(a.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(a.Segments))
	}

	r, _ := store.AnalysisByKey(ctx, "abc")
	if r.Source != ingest.SourceRecording {
		t.Errorf("Source = %q, want %q", r.Source, ingest.SourceRecording)
	}
	if r.Duration != 7.5 {
		t.Errorf("Duration = %v, want 7.5", r.Duration)
	}
}

func TestSaveDerivesDuration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	up := ingest.Upload{Path: "/tmp/a.wav", Name: "a.wav", Source: ingest.SourceFile}
	if err := store.Save(ctx, "k", up, sampleAnalysis()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r, _ := store.AnalysisByKey(ctx, "k")
	// Pitch ends at 2; stutter item has no end. Feedback wins over segments.
	if r.Duration != 2 {
		t.Errorf("Duration = %v, want 2", r.Duration)
	}
}

func TestOpenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cadence.sqlite")
	rw, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := rw.SaveAnalysis(context.Background(), Record{FileName: "a.wav", Analysis: sampleAnalysis()})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	rw.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer ro.Close()

	r, err := ro.AnalysisByID(context.Background(), id)
	if err != nil || r == nil {
		t.Fatalf("AnalysisByID = %v, %v", r, err)
	}
	if _, err := ro.SaveAnalysis(context.Background(), Record{FileName: "b.wav"}); err == nil {
		t.Error("expected write to read-only store to fail")
	}
}

func TestOpenReadOnlyMissing(t *testing.T) {
	if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.sqlite")); err == nil {
		t.Error("expected error opening missing database")
	}
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 500000000)
	got := timeFromUnix(timeToUnix(now))
	if d := got.Sub(now); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip drift %v", d)
	}
}
