// Package pipeline wires loader, sampler and extractor into one call that
// yields a ready-to-animate state.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"

	"insarmap/internal/anim"
	"insarmap/internal/config"
	"insarmap/internal/geom"
	"insarmap/internal/source"
)

// Loader is the dataset loader contract the pipeline needs.
type Loader interface {
	Load(ctx context.Context, locations []string) (*source.Result, error)
}

// Settings fully describe one pipeline run.
type Settings struct {
	Name         string
	Locations    []string
	SampleSize   int
	Mode         anim.Mode
	Seed         uint64
	RandomFrames int
	Jitter       int
	Exaggeration float64
	MinInterval  time.Duration
	Extract      anim.ExtractOptions
}

// FromPreset combines a preset with the animation config. A preset
// exaggeration overrides the configured one; non-empty locations replace the
// preset's own.
func FromPreset(p config.Preset, ac config.AnimationConfig, locations []string) (Settings, error) {
	mode, err := anim.ParseMode(p.Mode)
	if err != nil {
		return Settings{}, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	s := Settings{
		Name:         p.Name,
		Locations:    p.Locations,
		SampleSize:   p.SampleSize,
		Mode:         mode,
		Seed:         ac.Seed,
		RandomFrames: ac.RandomFrames,
		Jitter:       ac.Jitter,
		Exaggeration: ac.Exaggeration,
		MinInterval:  ac.MinFrameInterval,
		Extract: anim.ExtractOptions{
			Prefix:         ac.DeltaPrefix,
			VerticalOffset: ac.VerticalOffset,
		},
	}
	if p.Exaggeration != nil {
		s.Exaggeration = *p.Exaggeration
	}
	if s.Jitter < 0 {
		return Settings{}, fmt.Errorf("preset %q: negative jitter %d", p.Name, s.Jitter)
	}
	if len(locations) > 0 {
		s.Locations = locations
	}
	return s, nil
}

// Output is everything a sink needs to start animating.
type Output struct {
	State  *anim.State
	Load   *source.Result
	Report anim.ExtractReport
	// Bound is the lon/lat bound of the sampled points.
	Bound orb.Bound
	// Excursion is the largest distance from baseline any point reaches.
	Excursion float64
}

// Run loads, samples and extracts. A load where every source failed is not
// an error; the state is simply empty.
func Run(ctx context.Context, l Loader, s Settings) (*Output, error) {
	res, err := l.Load(ctx, s.Locations)
	if err != nil {
		return nil, err
	}
	sample := anim.Sample(res.Features, s.SampleSize, anim.NewRand(s.Seed))

	out := &Output{Load: res}
	switch s.Mode {
	case anim.ModeRandom:
		out.State = anim.ExtractRandom(sample, s.RandomFrames, s.Extract)
		out.Report = anim.ExtractReport{Accepted: len(out.State.Points)}
		out.Excursion = float64(s.Jitter) * math.Sqrt(float64(max(s.RandomFrames, 1)))
	default:
		out.State, out.Report = anim.Extract(sample, s.Extract)
		out.Excursion = anim.Excursion(out.State, s.Exaggeration)
	}
	feats := make([]*geom.PointFeature, len(out.State.Points))
	for i, p := range out.State.Points {
		feats[i] = p.Feature
	}
	out.Bound, _ = geom.Bound(feats)
	return out, nil
}

// NewAdvancer builds an advancer for st with the run's settings.
func (s Settings) NewAdvancer(st *anim.State) (*anim.Advancer, error) {
	ex := s.Exaggeration
	return anim.NewAdvancer(st, anim.Options{
		MinInterval:  s.MinInterval,
		Exaggeration: &ex,
		Jitter:       s.Jitter,
		Rand:         anim.NewRand(s.Seed),
	})
}
