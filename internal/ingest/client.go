package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/timeline"
)

const (
	// MaxUploadBytes bounds audio uploads.
	MaxUploadBytes = 200 << 20
	// MaxJSONBytes bounds analyze-speech request bodies.
	MaxJSONBytes = 50 << 20
	// maxResponseBytes bounds how much of a reply is read.
	maxResponseBytes = 64 << 20

	genericTranscribeError = "Transcription failed"
	genericAnalyzeError    = "Analysis failed"
)

// Transcriber turns an audio upload into an analysis.
type Transcriber interface {
	Transcribe(ctx context.Context, up Upload, opts Options) (timeline.Analysis, error)
}

// Client talks to the transcription and analysis backend.
type Client struct {
	base  string
	http  *http.Client
	log   logger.Logger
	cache Cache
}

// NewClient returns a client for the backend at base, for example
// "http://localhost:4000".
func NewClient(base string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// WithCache makes Transcribe consult and fill cache. It returns c.
func (c *Client) WithCache(cache Cache) *Client {
	c.cache = cache
	return c
}

// Transcribe uploads the audio and returns the canonical analysis. For a
// legacy transcript-only response it follows up with AnalyzeSpeech; if that
// fails the transcript is returned together with the error.
func (c *Client) Transcribe(ctx context.Context, up Upload, opts Options) (timeline.Analysis, error) {
	if up.Path == "" {
		return timeline.Analysis{}, ErrNoFileSelected
	}
	if err := opts.Validate(); err != nil {
		return timeline.Analysis{}, err
	}
	fi, err := os.Stat(up.Path)
	if err != nil {
		return timeline.Analysis{}, fmt.Errorf("stat upload: %w", err)
	}
	if fi.Size() > MaxUploadBytes {
		return timeline.Analysis{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, fi.Size(), MaxUploadBytes)
	}
	up.Size = fi.Size()

	var key string
	if c.cache != nil {
		if key, err = CacheKey(up.Path, opts); err != nil {
			c.log.Warnf("cache key for %s: %v", up.Path, err)
		} else if a, ok, err := c.cache.Lookup(ctx, key); err != nil {
			c.log.Warnf("cache lookup %s: %v", key, err)
		} else if ok {
			c.log.Infof("cache hit for %s", up.Name)
			return a, nil
		}
	}

	body, err := c.postFile(ctx, up, opts)
	if err != nil {
		return timeline.Analysis{}, err
	}
	resp, err := Decode(body)
	if err != nil {
		return timeline.Analysis{}, &BackendError{Kind: ErrTranscriptionFailed, Message: err.Error()}
	}
	if resp.Dropped > 0 {
		c.log.Warnf("transcribe response (%s): dropped %d malformed items", resp.Shape, resp.Dropped)
	}
	a := resp.Analysis

	if resp.Shape == ShapeLegacy {
		fb, err := c.AnalyzeSpeech(ctx, AnalyzeRequest{CacheData: resp.CacheData})
		if err != nil {
			return a, err
		}
		a.Pitch = fb.Pitch
		a.Stutter = fb.Stutter
	}

	if c.cache != nil && key != "" {
		if err := c.cache.Save(ctx, key, up, a); err != nil {
			c.log.Warnf("cache save %s: %v", key, err)
		}
	}
	return a, nil
}

func (c *Client) postFile(ctx context.Context, up Upload, opts Options) ([]byte, error) {
	f, err := os.Open(up.Path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := up.Name
	if name == "" {
		name = "audio"
	}
	mimeType := up.MIMEType
	if mimeType == "" {
		mimeType = MIMEType(up.Path)
	}

	// Stream the multipart body so large files are not buffered in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
		h.Set("Content-Type", mimeType)
		fw, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(fw, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	url := c.base + "/api/transcribe"
	if q := opts.Query().Encode(); q != "" {
		url += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Infof("transcribe %s (%d bytes, %s)", name, up.Size, opts)
	return c.do(req, ErrTranscriptionFailed, genericTranscribeError)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// AnalyzeRequest is the body of an analyze-speech call. Exactly one field is
// normally set.
type AnalyzeRequest struct {
	CacheData json.RawMessage `json:"cache_data,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// AnalyzeSpeech requests feedback for a legacy transcript or free text.
func (c *Client) AnalyzeSpeech(ctx context.Context, ar AnalyzeRequest) (timeline.Analysis, error) {
	if len(ar.CacheData) == 0 && strings.TrimSpace(ar.Text) == "" {
		return timeline.Analysis{}, &BackendError{Kind: ErrAnalysisFailed, Message: "nothing to analyze"}
	}
	payload, err := json.Marshal(ar)
	if err != nil {
		return timeline.Analysis{}, fmt.Errorf("encode analyze request: %w", err)
	}
	if len(payload) > MaxJSONBytes {
		return timeline.Analysis{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, len(payload), MaxJSONBytes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/analyze-speech", bytes.NewReader(payload))
	if err != nil {
		return timeline.Analysis{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, ErrAnalysisFailed, genericAnalyzeError)
	if err != nil {
		return timeline.Analysis{}, err
	}
	resp, err := Decode(body)
	if err != nil {
		return timeline.Analysis{}, &BackendError{Kind: ErrAnalysisFailed, Message: err.Error()}
	}
	if resp.Shape == ShapeLegacy {
		return timeline.Analysis{}, &BackendError{Kind: ErrAnalysisFailed, Message: "response carries no feedback"}
	}
	return resp.Analysis, nil
}

func (c *Client) do(req *http.Request, kind error, generic string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &BackendError{Kind: kind, Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &BackendError{Kind: kind, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode >= 300 {
		msg := ErrorMessage(body)
		if msg == "" {
			msg = generic
		}
		c.log.Warnf("%s %s: HTTP %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg)
		return nil, &BackendError{Kind: kind, Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}
