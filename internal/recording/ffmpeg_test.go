package recording

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestClassifyOpenError(t *testing.T) {
	err := classifyOpenError("[pulse] default: Permission denied\n", errors.New("exit status 1"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}

	err = classifyOpenError("default: No such device", errors.New("exit status 1"))
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("err = %v, want ErrDeviceUnavailable", err)
	}

	err = classifyOpenError("", nil)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("err = %v, want ErrDeviceUnavailable", err)
	}
}

func TestFFmpegMissingBinary(t *testing.T) {
	r := &FFmpegRecorder{Binary: "/nonexistent/ffmpeg", Dir: t.TempDir()}
	if _, err := r.Acquire(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("err = %v, want ErrDeviceUnavailable", err)
	}
}

// TestLiveFFmpegRecorder records a synthetic tone through ffmpeg's lavfi input
// in two stretches. Skipped when ffmpeg is not installed.
func TestLiveFFmpegRecorder(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	r := &FFmpegRecorder{
		Input: []string{"-re", "-f", "lavfi", "-i", "sine=frequency=300"},
		Dir:   t.TempDir(),
	}
	s := NewSession(r)
	ctx := context.Background()

	if _, err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	if err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := s.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	c, ok := s.Confirm()
	if !ok {
		t.Fatal("confirm failed")
	}
	defer c.Blob.Discard()

	fi, err := os.Stat(c.Blob.Path)
	if err != nil {
		t.Fatalf("stat blob: %v", err)
	}
	if fi.Size() <= 44 {
		t.Errorf("blob size = %d, want audio data", fi.Size())
	}
}
