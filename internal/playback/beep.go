package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// updateInterval matches the cadence of a browser media timeupdate event.
const updateInterval = 250 * time.Millisecond

// BeepPlayer plays wav and mp3 files in-process through the system speaker.
// Position updates are polled.
type BeepPlayer struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	updates  chan float64
	stop     chan struct{}
	once     sync.Once
}

// BeepOpener opens files with OpenBeep.
func BeepOpener() Opener {
	return func(path string) (Player, error) {
		return OpenBeep(path)
	}
}

// OpenBeep decodes path and prepares it paused at the start.
func OpenBeep(path string) (*BeepPlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav", ".wave":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q (use the mpv player)", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		streamer.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	p := &BeepPlayer{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer, Paused: true},
		updates:  make(chan float64, 1),
		stop:     make(chan struct{}),
	}
	speaker.Play(p.ctrl)
	go p.poll()
	return p, nil
}

func (p *BeepPlayer) poll() {
	defer close(p.updates)
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	last := -1.0
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			pos, _ := p.Position()
			if pos == last {
				continue
			}
			last = pos
			sendLatest(p.updates, pos)
		}
	}
}

// Play resumes playback.
func (p *BeepPlayer) Play() error {
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause halts playback.
func (p *BeepPlayer) Pause() error {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Paused reports whether playback is halted.
func (p *BeepPlayer) Paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Paused
}

// Seek jumps to an absolute position, clamped to the stream.
func (p *BeepPlayer) Seek(seconds float64) error {
	n := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	speaker.Lock()
	defer speaker.Unlock()
	if end := p.streamer.Len() - 1; n > end {
		n = end
	}
	if n < 0 {
		n = 0
	}
	if err := p.streamer.Seek(n); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	return nil
}

// Position returns the current position in seconds.
func (p *BeepPlayer) Position() (float64, error) {
	speaker.Lock()
	n := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(n).Seconds(), nil
}

// Updates streams polled positions.
func (p *BeepPlayer) Updates() <-chan float64 { return p.updates }

// Close stops output and releases the decoder.
func (p *BeepPlayer) Close() error {
	var err error
	p.once.Do(func() {
		close(p.stop)
		speaker.Clear()
		err = p.streamer.Close()
	})
	return err
}
