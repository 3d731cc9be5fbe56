package timeline

import (
	"encoding/json"
	"fmt"
)

// The canonical encoding mirrors the backend's current response shape. Missing
// times are written as null because JSON has no NaN.

type segmentJSON struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

type feedbackJSON struct {
	Type         string   `json:"type"`
	StartTime    *float64 `json:"start_time"`
	EndTime      *float64 `json:"end_time"`
	Text         string   `json:"text,omitempty"`
	Message      string   `json:"message"`
	Severity     string   `json:"severity,omitempty"`
	SegmentIndex int      `json:"segment_index"`
	Streak       bool     `json:"streak,omitempty"`
}

type metricsJSON struct {
	AvgPitchVariance *float64 `json:"avg_pitch_variance,omitempty"`
	AvgSpeechRate    *float64 `json:"avg_speech_rate,omitempty"`
	AvgEnergyMean    *float64 `json:"avg_energy_mean,omitempty"`
}

type summaryJSON struct {
	Type               string       `json:"type"`
	Message            string       `json:"message"`
	Metrics            *metricsJSON `json:"metrics,omitempty"`
	StutterIssues      *int         `json:"stutter_issues,omitempty"`
	TotalSegments      *int         `json:"total_segments,omitempty"`
	SegmentsWithIssues *int         `json:"segments_with_issues,omitempty"`
}

type streamJSON struct {
	Items   []Feedback `json:"items"`
	Summary *Summary   `json:"summary,omitempty"`
}

type analysisJSON struct {
	Transcriptions []Segment  `json:"transcriptions"`
	Pitch          streamJSON `json:"pitch_feedback"`
	Stutter        streamJSON `json:"stutter_feedback"`
}

func timePtr(v float64) *float64 {
	if !isFinite(v) {
		return nil
	}
	return &v
}

func timeVal(p *float64) float64 {
	if p == nil {
		return NaN()
	}
	return *p
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "pitch", "":
		return KindPitch, nil
	case "stutter":
		return KindStutter, nil
	}
	return 0, fmt.Errorf("unknown feedback kind %q", s)
}

// MarshalJSON implements json.Marshaler.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(segmentJSON{
		Index:     s.Index,
		Text:      s.Text,
		StartTime: timePtr(s.StartTime),
		EndTime:   timePtr(s.EndTime),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var raw segmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Segment{Index: raw.Index, Text: raw.Text, StartTime: timeVal(raw.StartTime), EndTime: timeVal(raw.EndTime)}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Feedback) MarshalJSON() ([]byte, error) {
	return json.Marshal(feedbackJSON{
		Type:         f.Kind.String(),
		StartTime:    timePtr(f.StartTime),
		EndTime:      timePtr(f.EndTime),
		Text:         f.Text,
		Message:      f.Message,
		Severity:     f.Severity.String(),
		SegmentIndex: f.SegmentIndex,
		Streak:       f.Streak,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Feedback) UnmarshalJSON(data []byte) error {
	var raw feedbackJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := parseKind(raw.Type)
	if err != nil {
		return err
	}
	*f = Feedback{
		Kind:         kind,
		StartTime:    timeVal(raw.StartTime),
		EndTime:      timeVal(raw.EndTime),
		Text:         raw.Text,
		Message:      raw.Message,
		Severity:     ParseSeverity(raw.Severity),
		SegmentIndex: raw.SegmentIndex,
		Streak:       raw.Streak,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	raw := summaryJSON{
		Type:               s.Kind.String(),
		Message:            s.Message,
		StutterIssues:      s.StutterIssues,
		TotalSegments:      s.TotalSegments,
		SegmentsWithIssues: s.SegmentsWithIssues,
	}
	if s.Metrics != nil {
		raw.Metrics = &metricsJSON{
			AvgPitchVariance: s.Metrics.AvgPitchVariance,
			AvgSpeechRate:    s.Metrics.AvgSpeechRate,
			AvgEnergyMean:    s.Metrics.AvgEnergyMean,
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := parseKind(raw.Type)
	if err != nil {
		return err
	}
	*s = Summary{
		Kind:               kind,
		Message:            raw.Message,
		StutterIssues:      raw.StutterIssues,
		TotalSegments:      raw.TotalSegments,
		SegmentsWithIssues: raw.SegmentsWithIssues,
	}
	if raw.Metrics != nil {
		s.Metrics = &Metrics{
			AvgPitchVariance: raw.Metrics.AvgPitchVariance,
			AvgSpeechRate:    raw.Metrics.AvgSpeechRate,
			AvgEnergyMean:    raw.Metrics.AvgEnergyMean,
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Analysis) MarshalJSON() ([]byte, error) {
	return json.Marshal(analysisJSON{
		Transcriptions: nonNil(a.Segments),
		Pitch:          streamJSON{Items: nonNil(a.Pitch.Items), Summary: a.Pitch.Summary},
		Stutter:        streamJSON{Items: nonNil(a.Stutter.Items), Summary: a.Stutter.Summary},
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var raw analysisJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Analysis{
		Segments: raw.Transcriptions,
		Pitch:    Stream{Items: raw.Pitch.Items, Summary: raw.Pitch.Summary},
		Stutter:  Stream{Items: raw.Stutter.Items, Summary: raw.Stutter.Summary},
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
