package mpv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// TimePosID is the observer id used for the time-pos property.
const TimePosID = 1

// Process is a headless mpv instance playing one file. It keeps two
// connections: one for commands and one for the event stream.
type Process struct {
	cmd      *exec.Cmd
	sockPath string
	dir      string
	client   *Client
	evClient *Client
}

// Start launches mpv paused on path and connects to its IPC socket.
func Start(ctx context.Context, binary, path string) (*Process, error) {
	if binary == "" {
		binary = "mpv"
	}
	dir, err := os.MkdirTemp("", "cadence-mpv-")
	if err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	sockPath := filepath.Join(dir, "mpv.sock")

	cmd := exec.Command(binary,
		"--no-video",
		"--no-terminal",
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--input-ipc-server="+sockPath,
		path,
	)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	p := &Process{cmd: cmd, sockPath: sockPath, dir: dir}
	if err := p.connect(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// connect waits for the socket to appear, then opens both connections.
func (p *Process) connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for {
		if _, err := os.Stat(p.sockPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for mpv socket: %w", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}

	client, err := Connect(p.sockPath)
	if err != nil {
		return err
	}
	evClient, err := Connect(p.sockPath)
	if err != nil {
		client.Close()
		return err
	}
	p.client = client
	p.evClient = evClient
	return p.evClient.Observe(TimePosID, "time-pos")
}

// Client returns the command connection.
func (p *Process) Client() *Client { return p.client }

// Events returns the event connection.
func (p *Process) Events() *Client { return p.evClient }

// Close quits mpv and removes its socket. Safe to call more than once.
func (p *Process) Close() error {
	var errs []error
	if p.client != nil {
		// mpv exits on quit and drops the connection before replying.
		p.client.SendCommand(Cmd("quit"))
		errs = append(errs, p.client.Close())
		p.client = nil
	}
	if p.evClient != nil {
		errs = append(errs, p.evClient.Close())
		p.evClient = nil
	}
	if p.cmd != nil && p.cmd.Process != nil {
		done := make(chan struct{})
		go func() {
			p.cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			p.cmd.Process.Kill()
			<-done
		}
		p.cmd = nil
	}
	if p.dir != "" {
		errs = append(errs, os.RemoveAll(p.dir))
		p.dir = ""
	}
	return errors.Join(errs...)
}
