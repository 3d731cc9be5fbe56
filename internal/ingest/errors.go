package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFileSelected is returned before any request when there is nothing to upload.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrTranscriptionFailed covers transport, status and decoding failures of a transcribe call.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrAnalysisFailed covers failures of the analyze-speech call.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrFileTooLarge is returned when an upload exceeds MaxUploadBytes.
	ErrFileTooLarge = errors.New("file too large")
	// ErrPayloadTooLarge is returned when an analyze request exceeds MaxJSONBytes.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrUnrecognizedResponse is returned by Decode for bodies matching no known shape.
	ErrUnrecognizedResponse = errors.New("unrecognized response shape")
)

// BackendError is a failed call to the analysis backend. Kind is one of the
// sentinel errors above, so callers can match with errors.Is.
type BackendError struct {
	Kind    error
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%v (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Kind }
