package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// openGrace is how long a fresh ffmpeg gets to fail on device open before
// the capture is considered running.
const openGrace = 300 * time.Millisecond

// FFmpegRecorder captures the microphone with ffmpeg. Each Recording stretch
// is written to its own wav chunk; pausing closes the chunk and finalizing
// concatenates them.
type FFmpegRecorder struct {
	Binary string
	// Input holds the ffmpeg input arguments, e.g. -f pulse -i default.
	Input []string
	// Dir is where chunks and finalized recordings are written.
	Dir string
}

// DefaultInput returns the platform's default microphone input arguments.
func DefaultInput() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-i", ":0"}
	case "windows":
		return []string{"-f", "dshow", "-i", "audio=default"}
	}
	return []string{"-f", "pulse", "-i", "default"}
}

func (r *FFmpegRecorder) binary() string {
	if r.Binary == "" {
		return "ffmpeg"
	}
	return r.Binary
}

func (r *FFmpegRecorder) input() []string {
	if len(r.Input) == 0 {
		return DefaultInput()
	}
	return r.Input
}

func (r *FFmpegRecorder) dir() string {
	if r.Dir == "" {
		return os.TempDir()
	}
	return r.Dir
}

// Acquire opens the microphone and starts the first chunk.
func (r *FFmpegRecorder) Acquire(ctx context.Context) (Device, error) {
	id := uuid.New().String()
	dir := filepath.Join(r.dir(), "cadence-rec-"+id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	d := &ffmpegDevice{rec: r, id: id, dir: dir}
	if err := d.startChunk(ctx); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return d, nil
}

type ffmpegDevice struct {
	rec    *FFmpegRecorder
	id     string
	dir    string
	chunks []string

	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan error
}

func (d *ffmpegDevice) startChunk(ctx context.Context) error {
	path := filepath.Join(d.dir, fmt.Sprintf("chunk-%03d.wav", len(d.chunks)))
	args := []string{"-hide_banner", "-loglevel", "error", "-nostats", "-y"}
	args = append(args, d.rec.input()...)
	args = append(args, "-ac", "1", "-ar", "16000", "-f", "wav", path)

	cmd := exec.Command(d.rec.binary(), args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return classifyOpenError(stderr.String(), err)
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	case <-time.After(openGrace):
	}

	d.cmd = cmd
	d.stdin = stdin
	d.done = done
	d.chunks = append(d.chunks, path)
	return nil
}

// classifyOpenError maps an early ffmpeg exit to a device error.
func classifyOpenError(stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" && err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "capture ended immediately"
	}
	lower := strings.ToLower(msg)
	for _, marker := range []string{"permission denied", "operation not permitted", "not authorized", "access denied"} {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		}
	}
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
}

// stopChunk asks ffmpeg to finish the current chunk, killing it if it does
// not exit in time.
func (d *ffmpegDevice) stopChunk() error {
	if d.cmd == nil {
		return nil
	}
	io.WriteString(d.stdin, "q")
	d.stdin.Close()

	var err error
	select {
	case err = <-d.done:
	case <-time.After(5 * time.Second):
		d.cmd.Process.Kill()
		<-d.done
		err = errors.New("ffmpeg did not stop")
	}
	d.cmd = nil
	d.stdin = nil
	d.done = nil

	// ffmpeg exits non-zero when interrupted mid-write but the chunk is intact.
	last := d.chunks[len(d.chunks)-1]
	if fi, statErr := os.Stat(last); statErr == nil && fi.Size() > 44 {
		return nil
	}
	return fmt.Errorf("finish chunk: %w", err)
}

func (d *ffmpegDevice) Pause() error {
	return d.stopChunk()
}

func (d *ffmpegDevice) Resume() error {
	return d.startChunk(context.Background())
}

func (d *ffmpegDevice) Finalize(ctx context.Context) (Blob, error) {
	if err := d.stopChunk(); err != nil {
		return Blob{}, err
	}
	if len(d.chunks) == 0 {
		return Blob{}, errors.New("nothing was recorded")
	}

	out := filepath.Join(d.rec.dir(), "cadence-recording-"+d.id+".wav")
	if len(d.chunks) == 1 {
		if err := os.Rename(d.chunks[0], out); err != nil {
			return Blob{}, fmt.Errorf("move recording: %w", err)
		}
	} else if err := d.concat(ctx, out); err != nil {
		return Blob{}, err
	}

	fi, err := os.Stat(out)
	if err != nil {
		return Blob{}, fmt.Errorf("stat recording: %w", err)
	}
	return Blob{Path: out, MIMEType: "audio/wav", Size: fi.Size()}, nil
}

// concat joins the chunks with ffmpeg's concat demuxer.
func (d *ffmpegDevice) concat(ctx context.Context, out string) error {
	var list strings.Builder
	for _, c := range d.chunks {
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(c, "'", `'\''`))
	}
	listPath := filepath.Join(d.dir, "chunks.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o600); err != nil {
		return fmt.Errorf("write chunk list: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.rec.binary(),
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (d *ffmpegDevice) Release() error {
	if d.cmd != nil {
		d.cmd.Process.Kill()
		<-d.done
		d.cmd = nil
		d.stdin = nil
		d.done = nil
	}
	if d.dir == "" {
		return nil
	}
	err := os.RemoveAll(d.dir)
	d.dir = ""
	return err
}
