package playback

import (
	"context"
	"sync"

	"github.com/jwulff/cadence/internal/mpv"
)

// MPVPlayer plays through an mpv process. Position updates come from mpv's
// time-pos observer on the event connection.
type MPVPlayer struct {
	proc    *mpv.Process
	updates chan float64

	mu     sync.Mutex
	paused bool
	last   float64
}

// MPVOpener returns an Opener that launches the given mpv binary.
func MPVOpener(binary string) Opener {
	return func(path string) (Player, error) {
		return OpenMPV(context.Background(), binary, path)
	}
}

// OpenMPV starts mpv paused on path.
func OpenMPV(ctx context.Context, binary, path string) (*MPVPlayer, error) {
	proc, err := mpv.Start(ctx, binary, path)
	if err != nil {
		return nil, err
	}
	p := &MPVPlayer{proc: proc, updates: make(chan float64, 1), paused: true}
	go p.readEvents()
	return p, nil
}

// readEvents forwards time-pos changes until the event connection closes.
func (p *MPVPlayer) readEvents() {
	defer close(p.updates)
	for {
		ev, err := p.proc.Events().ReadEvent()
		if err != nil {
			return
		}
		switch ev.Event {
		case "property-change":
			if ev.Name != "time-pos" {
				continue
			}
			v, ok := mpv.Float(ev.Data)
			if !ok {
				continue
			}
			p.mu.Lock()
			p.last = v
			p.mu.Unlock()
			sendLatest(p.updates, v)
		case "pause":
			p.setPaused(true)
		case "unpause":
			p.setPaused(false)
		case "end-file":
			p.setPaused(true)
		}
	}
}

func (p *MPVPlayer) setPaused(v bool) {
	p.mu.Lock()
	p.paused = v
	p.mu.Unlock()
}

// Play resumes playback.
func (p *MPVPlayer) Play() error {
	if _, err := p.proc.Client().SendCommand(mpv.Cmd("set_property", "pause", false)); err != nil {
		return err
	}
	p.setPaused(false)
	return nil
}

// Pause halts playback.
func (p *MPVPlayer) Pause() error {
	if _, err := p.proc.Client().SendCommand(mpv.Cmd("set_property", "pause", true)); err != nil {
		return err
	}
	p.setPaused(true)
	return nil
}

// Seek jumps to an absolute position.
func (p *MPVPlayer) Seek(seconds float64) error {
	_, err := p.proc.Client().SendCommand(mpv.Cmd("seek", seconds, "absolute"))
	return err
}

// Position asks mpv for time-pos, falling back to the last observed value
// while no file is loaded.
func (p *MPVPlayer) Position() (float64, error) {
	resp, err := p.proc.Client().SendCommand(mpv.Cmd("get_property", "time-pos"))
	if err == nil {
		if v, ok := mpv.Float(resp.Data); ok {
			return v, nil
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, nil
}

// Paused reports the last known pause state.
func (p *MPVPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Updates streams time-pos changes.
func (p *MPVPlayer) Updates() <-chan float64 { return p.updates }

// Close quits mpv. The update channel closes once the event reader sees the
// connection drop.
func (p *MPVPlayer) Close() error {
	return p.proc.Close()
}
