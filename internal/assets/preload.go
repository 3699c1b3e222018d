package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/lox/weatherwidget/internal/metrics"
)

// Report summarises a preload run.
type Report struct {
	Origin  string   `json:"origin"`
	Loaded  []string `json:"loaded"`
	Missing []string `json:"missing"`
	Failed  []string `json:"failed"`
}

// Complete reports whether every requested asset was loaded.
func (r Report) Complete() bool {
	return len(r.Missing) == 0 && len(r.Failed) == 0
}

// Preload loads every path from origin into cache once. It keeps going past
// individual failures and returns an error wrapping ErrMissing if any asset is
// absent, so callers can decide whether a partial set is acceptable.
func Preload(ctx context.Context, origin Origin, cache *Cache, paths []string) (Report, error) {
	report := Report{Origin: origin.String()}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		data, err := load(ctx, origin, p)
		switch {
		case errors.Is(err, ErrMissing):
			report.Missing = append(report.Missing, p)
			continue
		case err != nil:
			log.Printf("assets: load %s: %v", p, err)
			report.Failed = append(report.Failed, p)
			continue
		}
		cache.Set(p, data)
		report.Loaded = append(report.Loaded, p)
	}

	metrics.AssetsPreloaded.Set(float64(cache.Len()))
	metrics.AssetsMissing.Set(float64(len(report.Missing) + len(report.Failed)))

	if !report.Complete() {
		return report, fmt.Errorf("%d of %d assets unavailable: %w",
			len(report.Missing)+len(report.Failed), len(paths), ErrMissing)
	}
	return report, nil
}

func load(ctx context.Context, origin Origin, p string) ([]byte, error) {
	rc, err := origin.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
