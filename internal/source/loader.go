// Package source loads InSAR point collections from a list of locations.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"insarmap/internal/geom"
)

// ErrNoLocations is returned by Load for an empty location list.
var ErrNoLocations = errors.New("no source locations")

// Fetcher returns the raw body of a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Cache stores raw bodies between runs.
type Cache interface {
	Get(ctx context.Context, location string) ([]byte, bool, error)
	Put(ctx context.Context, location string, body []byte) error
}

// SourceStatus is the outcome of one location.
type SourceStatus struct {
	Location string
	Count    int
	Skipped  int
	Err      error
	Cached   bool
	Duration time.Duration
}

// Result is the settled outcome of a Load: every location has a status,
// and Features holds what the successful ones produced, in location order.
type Result struct {
	Features []*geom.PointFeature
	Sources  []SourceStatus
}

// Failed returns the number of sources that produced an error.
func (r *Result) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Loader fetches and parses every location concurrently.
type Loader struct {
	fetcher     Fetcher
	cache       Cache
	logger      zerolog.Logger
	concurrency int

	fetches metric.Int64Counter
	loaded  metric.Int64Counter
}

// Option configures a Loader.
type Option func(*Loader)

// WithCache enables the body cache.
func WithCache(c Cache) Option {
	return func(l *Loader) { l.cache = c }
}

// WithConcurrency bounds simultaneous fetches. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(l *Loader) { l.concurrency = n }
}

// NewLoader creates a loader around fetcher.
func NewLoader(fetcher Fetcher, logger zerolog.Logger, opts ...Option) (*Loader, error) {
	l := &Loader{fetcher: fetcher, logger: logger}
	for _, o := range opts {
		o(l)
	}

	m := meter()
	var err error
	l.fetches, err = m.Int64Counter(
		"source.fetch.total",
		metric.WithDescription("Source loads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fetch counter: %w", err)
	}
	l.loaded, err = m.Int64Counter(
		"source.features.loaded",
		metric.WithDescription("Point features parsed from sources"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating features counter: %w", err)
	}
	return l, nil
}

// Load fetches all locations and waits for every one of them to settle. A
// failing location is logged and reported in its status; it never aborts
// the others. The returned error is non-nil only for an empty list or a
// cancelled ctx.
func (l *Loader) Load(ctx context.Context, locations []string) (*Result, error) {
	if len(locations) == 0 {
		return nil, ErrNoLocations
	}

	parts := make([][]*geom.PointFeature, len(locations))
	statuses := make([]SourceStatus, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}
	for i, loc := range locations {
		g.Go(func() error {
			parts[i], statuses[i] = l.loadOne(gctx, loc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Sources: statuses}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	res.Features = make([]*geom.PointFeature, 0, total)
	for _, p := range parts {
		res.Features = append(res.Features, p...)
	}
	return res, nil
}

func (l *Loader) loadOne(ctx context.Context, loc string) ([]*geom.PointFeature, SourceStatus) {
	start := time.Now()
	st := SourceStatus{Location: loc}
	log := l.logger.With().Str("location", loc).Logger()

	body, cached := l.fromCache(ctx, loc, log)
	if !cached {
		var err error
		body, err = l.fetcher.Fetch(ctx, loc)
		if err != nil {
			return nil, l.fail(ctx, st, start, err, log)
		}
	}
	st.Cached = cached

	var (
		features []*geom.PointFeature
		err      error
	)
	if IsCSV(loc) {
		features, st.Skipped, err = geom.ParseCSV(bytes.NewReader(body))
	} else {
		features, st.Skipped, err = geom.ParseFeatures(body)
	}
	if err != nil {
		return nil, l.fail(ctx, st, start, fmt.Errorf("parsing %s: %w", loc, err), log)
	}

	if l.cache != nil && !cached {
		if err := l.cache.Put(ctx, loc, body); err != nil {
			log.Warn().Err(err).Msg("caching source")
		}
	}

	st.Count = len(features)
	st.Duration = time.Since(start)
	l.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "ok")))
	l.loaded.Add(ctx, int64(st.Count))
	log.Info().
		Int("features", st.Count).
		Int("skipped", st.Skipped).
		Bool("cached", st.Cached).
		Dur("took", st.Duration).
		Msg("source loaded")
	return features, st
}

func (l *Loader) fromCache(ctx context.Context, loc string, log zerolog.Logger) ([]byte, bool) {
	if l.cache == nil {
		return nil, false
	}
	body, ok, err := l.cache.Get(ctx, loc)
	if err != nil {
		log.Warn().Err(err).Msg("reading source cache")
		return nil, false
	}
	return body, ok
}

func (l *Loader) fail(ctx context.Context, st SourceStatus, start time.Time, err error, log zerolog.Logger) SourceStatus {
	st.Err = err
	st.Duration = time.Since(start)
	l.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
	log.Error().Err(err).Msg("source failed")
	return st
}
