package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"

	"github.com/jwulff/cadence/internal/timeline"
)

// Cache stores finished analyses by content key.
type Cache interface {
	Lookup(ctx context.Context, key string) (timeline.Analysis, bool, error)
	Save(ctx context.Context, key string, up Upload, a timeline.Analysis) error
}

// CacheKey hashes the audio bytes together with the request options, so the
// same file analysed with different options is cached separately.
func CacheKey(path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	io.WriteString(h, "?"+opts.String())
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MultiCache consults caches in order and saves to all of them. A hit in a
// later cache is not copied into earlier ones.
type MultiCache []Cache

// Lookup returns the first hit. Errors are returned only if no cache hit.
func (m MultiCache) Lookup(ctx context.Context, key string) (timeline.Analysis, bool, error) {
	var errs []error
	for _, c := range m {
		a, ok, err := c.Lookup(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return a, true, nil
		}
	}
	return timeline.Analysis{}, false, errors.Join(errs...)
}

// Save writes to every cache and joins their errors.
func (m MultiCache) Save(ctx context.Context, key string, up Upload, a timeline.Analysis) error {
	var errs []error
	for _, c := range m {
		if err := c.Save(ctx, key, up, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
