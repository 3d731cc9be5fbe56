// Package config loads runtime settings from the environment, optionally
// seeded from .env files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds the settings shared by the cadence binaries.
type Config struct {
	// BackendURL is the base URL of the transcription service or its proxy.
	BackendURL  string
	HTTPTimeout time.Duration

	// Default request options.
	Style  string
	Speed  string
	Gender string

	LogLevel string
	LogFile  string

	DBPath    string
	RedisAddr string
	RedisTTL  time.Duration

	// Player is "mpv" or "beep".
	Player      string
	MPVPath     string
	FFmpegPath  string
	RecordInput []string
	RecordDir   string
}

// DataDir returns the directory for the database and logs.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cadence")
}

// Default returns the built-in settings.
func Default() Config {
	dir := DataDir()
	return Config{
		BackendURL:  "http://localhost:4000",
		HTTPTimeout: 10 * time.Minute,
		Style:       "",
		Speed:       "",
		Gender:      "",
		LogLevel:    "info",
		LogFile:     filepath.Join(dir, "cadence.log"),
		DBPath:      filepath.Join(dir, "cadence.sqlite"),
		RedisTTL:    24 * time.Hour,
		Player:      "mpv",
		MPVPath:     "mpv",
		FFmpegPath:  "ffmpeg",
	}
}

// LoadEnvFiles seeds the environment from the given .env files. Missing
// files are skipped; variables already set are never overwritten. It returns
// the files that were loaded.
func LoadEnvFiles(paths ...string) []string {
	var loaded []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// DefaultEnvFiles are read in order: CADENCE_ENV, ~/.cadence/env, ./.env.
func DefaultEnvFiles() []string {
	return []string{
		os.Getenv("CADENCE_ENV"),
		filepath.Join(DataDir(), "env"),
		".env",
	}
}

// Load returns Default overridden by CADENCE_* environment variables.
func Load() Config {
	c := Default()
	str(&c.BackendURL, "CADENCE_BACKEND_URL")
	dur(&c.HTTPTimeout, "CADENCE_HTTP_TIMEOUT")
	str(&c.Style, "CADENCE_STYLE")
	str(&c.Speed, "CADENCE_SPEED")
	str(&c.Gender, "CADENCE_GENDER")
	str(&c.LogLevel, "CADENCE_LOG_LEVEL")
	str(&c.LogFile, "CADENCE_LOG_FILE")
	str(&c.DBPath, "CADENCE_DB_PATH")
	str(&c.RedisAddr, "CADENCE_REDIS_ADDR")
	dur(&c.RedisTTL, "CADENCE_REDIS_TTL")
	str(&c.Player, "CADENCE_PLAYER")
	str(&c.MPVPath, "CADENCE_MPV_PATH")
	str(&c.FFmpegPath, "CADENCE_FFMPEG_PATH")
	str(&c.RecordDir, "CADENCE_RECORD_DIR")
	if v := strings.TrimSpace(os.Getenv("CADENCE_RECORD_INPUT")); v != "" {
		c.RecordInput = strings.Fields(v)
	}
	return c
}

func str(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// dur accepts Go durations ("90s") or plain seconds ("90").
func dur(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if secs, err := cast.ToFloat64E(v); err == nil {
		if secs > 0 {
			*dst = time.Duration(secs * float64(time.Second))
		}
		return
	}
	if d, err := cast.ToDurationE(v); err == nil && d > 0 {
		*dst = d
	}
}
