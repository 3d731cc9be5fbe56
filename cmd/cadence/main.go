// Command cadence uploads or records speech, then plays it back alongside the
// transcript and the pitch and stutter feedback returned by the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jwulff/cadence/internal/app"
	"github.com/jwulff/cadence/internal/cache"
	"github.com/jwulff/cadence/internal/config"
	"github.com/jwulff/cadence/internal/db"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/playback"
	"github.com/jwulff/cadence/internal/recording"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cadence: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnvFiles(config.DefaultEnvFiles()...)
	cfg := config.Load()

	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend base URL (or CADENCE_BACKEND_URL)")
	flag.StringVar(&cfg.Style, "style", cfg.Style, "Speaking style to grade against")
	flag.StringVar(&cfg.Speed, "speed", cfg.Speed, "Speaking pace: standard|slow|fast")
	flag.StringVar(&cfg.Gender, "gender", cfg.Gender, "Pitch baseline: male|female")
	flag.StringVar(&cfg.Player, "player", cfg.Player, "Audio player: mpv|beep")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "History database path, empty to disable")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the shared result cache")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file path")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cadence [flags] [audio-file]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logOut, closeLog := openLog(cfg.LogFile)
	defer closeLog()
	log := logger.NewLogger(cfg.LogLevel, logOut)

	opts := ingest.Options{Style: cfg.Style, Speed: ingest.Speed(cfg.Speed), Gender: ingest.Gender(cfg.Gender)}
	if err := opts.Validate(); err != nil {
		return err
	}

	client := ingest.NewClient(cfg.BackendURL, cfg.HTTPTimeout, log)
	var caches ingest.MultiCache
	if cfg.DBPath != "" {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			defer store.Close()
			caches = append(caches, store)
		}
	}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rc, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisTTL)
		cancel()
		if err != nil {
			log.Warnf("redis cache disabled: %v", err)
		} else {
			defer rc.Close()
			caches = append(caches, rc)
		}
	}
	if len(caches) > 0 {
		client.WithCache(caches)
	}

	var opener playback.Opener
	switch cfg.Player {
	case "beep":
		opener = playback.BeepOpener()
	case "mpv":
		opener = playback.MPVOpener(cfg.MPVPath)
	default:
		return fmt.Errorf("unknown player %q", cfg.Player)
	}

	input := cfg.RecordInput
	if len(input) == 0 {
		input = recording.DefaultInput()
	}
	session := recording.NewSession(&recording.FFmpegRecorder{
		Binary: cfg.FFmpegPath,
		Input:  input,
		Dir:    cfg.RecordDir,
	})

	deps := app.Deps{
		Transcriber: client,
		Tracker:     playback.NewTracker(opener),
		Session:     session,
		Options:     opts,
		Log:         log,
	}
	log.Infof("starting: backend=%s player=%s", cfg.BackendURL, cfg.Player)

	p := tea.NewProgram(app.New(deps, flag.Arg(0)), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// openLog opens the log file, falling back to discarding output when it
// cannot be created. The TUI owns the terminal, so logs never go to stderr.
func openLog(path string) (io.Writer, func()) {
	if path == "" {
		return io.Discard, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}
