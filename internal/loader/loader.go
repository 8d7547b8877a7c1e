// Package loader performs the dashboard's single fetch-and-normalize step.
package loader

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geo-dashboard/internal/fetcher"
	"github.com/sells-group/geo-dashboard/internal/model"
	"github.com/sells-group/geo-dashboard/internal/normalize"
)

// UserMessage is the text shown when the initial load fails.
const UserMessage = "Failed to load data. Please try again later."

// ErrLoadFailed marks every failure of the initial load: network errors,
// non-success responses, and undecodable payloads.
var ErrLoadFailed = eris.New("loader: initial load failed")

// LoadError is returned by Load. It matches ErrLoadFailed and keeps the
// underlying cause reachable through errors.Is and errors.As.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return ErrLoadFailed.Error() + ": " + e.Err.Error()
}

// Unwrap yields the sentinel and the cause.
func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

// Loader fetches the full record set from the remote API and normalizes it.
type Loader struct {
	fetcher    fetcher.Fetcher
	normalizer *normalize.Normalizer
	url        string
}

// New creates a Loader for the given endpoint.
func New(f fetcher.Fetcher, n *normalize.Normalizer, url string) *Loader {
	return &Loader{fetcher: f, normalizer: n, url: url}
}

// URL returns the endpoint the loader reads from.
func (l *Loader) URL() string {
	return l.url
}

// Load fetches and normalizes all records. Per-record problems never fail
// the load; they degrade to defaults. Any error is a *LoadError.
func (l *Loader) Load(ctx context.Context) ([]model.Record, error) {
	start := time.Now()
	log := zap.L().With(zap.String("url", l.url))
	log.Info("loader: fetching records")

	body, err := l.fetcher.Download(ctx, l.url)
	if err != nil {
		log.Error("loader: fetch failed", zap.Error(err))
		return nil, &LoadError{Err: eris.Wrap(err, "fetch")}
	}
	defer body.Close() //nolint:errcheck

	elems, err := fetcher.DecodePayload(ctx, body)
	if err != nil {
		log.Error("loader: decode failed", zap.Error(err))
		return nil, &LoadError{Err: eris.Wrap(err, "decode")}
	}

	raws := make([]model.RawRecord, 0, len(elems))
	for _, e := range elems {
		raws = append(raws, model.ParseRawRecord(e))
	}
	records := l.normalizer.NormalizeAll(raws)

	log.Info("loader: records loaded",
		zap.Int("count", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}
