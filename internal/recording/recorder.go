package recording

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrPermissionDenied is returned when the microphone cannot be opened
// because access was refused.
var ErrPermissionDenied = errors.New("microphone access denied")

// ErrDeviceUnavailable covers every other failure to open the microphone.
var ErrDeviceUnavailable = errors.New("microphone unavailable")

// Recorder hands out microphone devices.
type Recorder interface {
	Acquire(ctx context.Context) (Device, error)
}

// Device is an open microphone capture.
type Device interface {
	Pause() error
	Resume() error
	// Finalize stops capturing and returns everything captured as one blob.
	Finalize(ctx context.Context) (Blob, error)
	// Release gives the microphone back. Safe to call after Finalize and more
	// than once.
	Release() error
}

// Blob is finalized audio on disk.
type Blob struct {
	Path     string
	MIMEType string
	Size     int64
}

// Discard deletes the blob.
func (b Blob) Discard() error {
	if b.Path == "" {
		return nil
	}
	if err := os.Remove(b.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard recording: %w", err)
	}
	return nil
}
