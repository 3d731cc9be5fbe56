package ingest

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/jwulff/cadence/internal/timeline"
	"github.com/spf13/cast"
)

// Shape identifies which generation of the backend produced a response.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeLegacy is {segments: {"<hash>_<start>_<end>": {results: {text}}}}.
	// It carries a transcript only; feedback comes from a second call.
	ShapeLegacy
	// ShapeFeedback is {feedback: [...]} with pitch, stutter and summary items
	// in one flat list.
	ShapeFeedback
	// ShapeCurrent is {transcriptions, pitch_feedback, stutter_feedback}.
	ShapeCurrent
)

func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeFeedback:
		return "feedback"
	case ShapeCurrent:
		return "current"
	}
	return "unknown"
}

// Response is a decoded backend reply.
type Response struct {
	Shape    Shape
	Analysis timeline.Analysis
	// CacheData is the raw legacy segments object, echoed back to
	// analyze-speech to obtain feedback for a ShapeLegacy transcript.
	CacheData []byte
	// Dropped counts items that were not objects or had an unknown type.
	Dropped int
}

func has(body []byte, keys ...string) bool {
	_, _, _, err := jsonparser.Get(body, keys...)
	return err == nil
}

// Sniff reports the shape of body without decoding it.
func Sniff(body []byte) Shape {
	switch {
	case has(body, "transcriptions"), has(body, "pitch_feedback"), has(body, "stutter_feedback"):
		return ShapeCurrent
	case has(body, "feedback"):
		return ShapeFeedback
	case has(body, "segments"):
		return ShapeLegacy
	}
	return ShapeUnknown
}

// Decode converts any supported response body into the canonical model.
// Numbers may arrive as strings; missing or unparseable times become NaN.
func Decode(body []byte) (Response, error) {
	resp := Response{Shape: Sniff(body)}
	var err error
	switch resp.Shape {
	case ShapeCurrent:
		err = resp.decodeCurrent(body)
	case ShapeFeedback:
		err = resp.decodeFeedback(body)
	case ShapeLegacy:
		err = resp.decodeLegacy(body)
	default:
		return resp, ErrUnrecognizedResponse
	}
	return resp, err
}

// ErrorMessage extracts the {error} text of a failure body.
func ErrorMessage(body []byte) string {
	msg, err := jsonparser.GetString(body, "error")
	if err != nil {
		return ""
	}
	return msg
}

func (r *Response) decodeCurrent(body []byte) error {
	var segs []timeline.Segment
	err := eachObject(body, func(item []byte) {
		idx, ok := integer(item, "index")
		if !ok {
			idx = len(segs)
		}
		start := number(item, "start_time")
		if math.IsNaN(start) {
			start = number(item, "start")
		}
		end := number(item, "end_time")
		if math.IsNaN(end) {
			end = number(item, "end")
		}
		segs = append(segs, timeline.Segment{Index: idx, Text: str(item, "text"), StartTime: start, EndTime: end})
	}, &r.Dropped, "transcriptions")
	if err != nil {
		return err
	}
	r.Analysis.Segments = timeline.SortSegments(segs)

	if r.Analysis.Pitch, err = r.decodeStream(body, timeline.KindPitch, "pitch_feedback"); err != nil {
		return err
	}
	r.Analysis.Stutter, err = r.decodeStream(body, timeline.KindStutter, "stutter_feedback")
	return err
}

func (r *Response) decodeStream(body []byte, kind timeline.Kind, key string) (timeline.Stream, error) {
	var s timeline.Stream
	err := eachObject(body, func(item []byte) {
		if isSummary(item) {
			if s.Summary == nil {
				s.Summary = summary(item, kind)
			}
			return
		}
		s.Items = append(s.Items, feedback(item, kind))
	}, &r.Dropped, key)
	return s, err
}

func (r *Response) decodeFeedback(body []byte) error {
	a := &r.Analysis
	err := eachObject(body, func(item []byte) {
		if isSummary(item) {
			kind := timeline.KindPitch
			if has(item, "stutter_issues") {
				kind = timeline.KindStutter
			}
			stream := &a.Pitch
			if kind == timeline.KindStutter {
				stream = &a.Stutter
			}
			if stream.Summary == nil {
				stream.Summary = summary(item, kind)
			}
			return
		}
		switch str(item, "type") {
		case "", "pitch":
			a.Pitch.Items = append(a.Pitch.Items, feedback(item, timeline.KindPitch))
		case "stutter":
			a.Stutter.Items = append(a.Stutter.Items, feedback(item, timeline.KindStutter))
		default:
			r.Dropped++
		}
	}, &r.Dropped, "feedback")
	if err != nil {
		return err
	}
	a.Segments = deriveSegments(a.Pitch.Items, a.Stutter.Items)
	return nil
}

// deriveSegments rebuilds a transcript from the timed items of a flat
// feedback response, one segment per distinct segment index or span.
func deriveSegments(streams ...[]timeline.Feedback) []timeline.Segment {
	type key struct {
		index      int
		start, end float64
	}
	seen := map[key]bool{}
	var segs []timeline.Segment
	for _, items := range streams {
		for _, f := range items {
			if !f.Timed() {
				continue
			}
			k := key{index: f.SegmentIndex}
			if f.SegmentIndex <= 0 {
				k = key{start: f.StartTime, end: f.EndTime}
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			segs = append(segs, timeline.Segment{Text: f.Text, StartTime: f.StartTime, EndTime: f.EndTime})
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].StartTime < segs[j].StartTime })
	for i := range segs {
		segs[i].Index = i
	}
	return segs
}

func (r *Response) decodeLegacy(body []byte) error {
	raw, typ, _, err := jsonparser.Get(body, "segments")
	if err != nil {
		return err
	}
	if typ != jsonparser.Object {
		return ErrUnrecognizedResponse
	}
	r.CacheData = append([]byte(nil), raw...)

	var segs []timeline.Segment
	err = jsonparser.ObjectEach(raw, func(k, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Object {
			r.Dropped++
			return nil
		}
		start, end := keyTimes(string(k))
		text, _ := jsonparser.GetString(value, "results", "text")
		if text == "" {
			text, _ = jsonparser.GetString(value, "text")
		}
		segs = append(segs, timeline.Segment{Index: len(segs), Text: text, StartTime: start, EndTime: end})
		return nil
	})
	r.Analysis.Segments = segs
	return err
}

// keyTimes parses "<hash>_<start>_<end>" segment keys.
func keyTimes(k string) (start, end float64) {
	parts := strings.Split(k, "_")
	if len(parts) < 3 {
		return timeline.NaN(), timeline.NaN()
	}
	return parseNumber(parts[len(parts)-2]), parseNumber(parts[len(parts)-1])
}

// eachObject calls fn for every object element of the array at keys. A
// missing key is an empty array; non-object elements are counted in dropped.
func eachObject(body []byte, fn func(item []byte), dropped *int, keys ...string) error {
	_, typ, _, err := jsonparser.Get(body, keys...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || typ == jsonparser.Null {
		return nil
	}
	if err != nil {
		return err
	}
	if typ != jsonparser.Array {
		return ErrUnrecognizedResponse
	}
	var inner error
	_, err = jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, e error) {
		if e != nil {
			inner = e
			return
		}
		if dataType != jsonparser.Object {
			*dropped++
			return
		}
		fn(value)
	}, keys...)
	if err != nil {
		return err
	}
	return inner
}

func isSummary(item []byte) bool {
	if str(item, "type") == "summary" {
		return true
	}
	if has(item, "start_time") || has(item, "end_time") {
		return false
	}
	return has(item, "metrics") || has(item, "stutter_issues") ||
		has(item, "total_segments") || has(item, "average_pitch_variance")
}

func feedback(item []byte, kind timeline.Kind) timeline.Feedback {
	idx, _ := integer(item, "segment_index")
	streak, _ := jsonparser.GetBoolean(item, "streak")
	return timeline.Feedback{
		Kind:         kind,
		StartTime:    number(item, "start_time"),
		EndTime:      number(item, "end_time"),
		Text:         str(item, "text"),
		Message:      str(item, "message"),
		Severity:     timeline.ParseSeverity(str(item, "severity")),
		SegmentIndex: idx,
		Streak:       streak,
	}
}

func summary(item []byte, kind timeline.Kind) *timeline.Summary {
	s := &timeline.Summary{Kind: kind, Message: str(item, "message")}
	s.StutterIssues = optInt(item, "stutter_issues")
	s.TotalSegments = optInt(item, "total_segments")
	s.SegmentsWithIssues = optInt(item, "segments_with_issues")

	m := timeline.Metrics{
		AvgPitchVariance: optFloat(item, "metrics", "avg_pitch_variance"),
		AvgSpeechRate:    optFloat(item, "metrics", "avg_speech_rate"),
		AvgEnergyMean:    optFloat(item, "metrics", "avg_energy_mean"),
	}
	if m.AvgPitchVariance == nil {
		m.AvgPitchVariance = optFloat(item, "average_pitch_variance")
	}
	if m.AvgPitchVariance != nil || m.AvgSpeechRate != nil || m.AvgEnergyMean != nil {
		s.Metrics = &m
	}
	return s
}

func str(item []byte, keys ...string) string {
	v, typ, _, err := jsonparser.Get(item, keys...)
	if err != nil || typ == jsonparser.Null {
		return ""
	}
	if typ == jsonparser.String {
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return string(v)
		}
		return s
	}
	return string(v)
}

func parseNumber(s string) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsInf(f, 0) {
		return timeline.NaN()
	}
	return f
}

// number reads a loose numeric field: JSON numbers and numeric strings are
// accepted, anything else is NaN.
func number(item []byte, keys ...string) float64 {
	v, typ, _, err := jsonparser.Get(item, keys...)
	if err != nil {
		return timeline.NaN()
	}
	switch typ {
	case jsonparser.Number, jsonparser.String:
		return parseNumber(string(v))
	}
	return timeline.NaN()
}

func integer(item []byte, keys ...string) (int, bool) {
	f := number(item, keys...)
	if math.IsNaN(f) {
		return 0, false
	}
	return cast.ToInt(math.Round(f)), true
}

func optInt(item []byte, keys ...string) *int {
	n, ok := integer(item, keys...)
	if !ok {
		return nil
	}
	return &n
}

func optFloat(item []byte, keys ...string) *float64 {
	f := number(item, keys...)
	if math.IsNaN(f) {
		return nil
	}
	return &f
}
