package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insarmap/internal/anim"
	"insarmap/internal/config"
	"insarmap/internal/geom"
	"insarmap/internal/source"
)

type stubLoader struct {
	features []*geom.PointFeature
	err      error
	got      []string
}

func (s *stubLoader) Load(_ context.Context, locations []string) (*source.Result, error) {
	s.got = locations
	if s.err != nil {
		return nil, s.err
	}
	return &source.Result{Features: s.features, Sources: []source.SourceStatus{{Count: len(s.features)}}}, nil
}

func point(id string, lon, lat float64, deltas ...float64) *geom.PointFeature {
	f := &geom.PointFeature{
		ID:         id,
		Coord:      [2]float64{lon, lat},
		Height:     100,
		Keys:       []string{geom.HeightKey},
		Properties: map[string]any{geom.HeightKey: 100.0},
	}
	for i, d := range deltas {
		k := "d_" + string(rune('a'+i))
		f.Keys = append(f.Keys, k)
		f.Properties[k] = d
	}
	return f
}

func TestFromPreset(t *testing.T) {
	ac := config.AnimationConfig{
		MinFrameInterval: 100 * time.Millisecond,
		VerticalOffset:   50000,
		Exaggeration:     5,
		DeltaPrefix:      "d_",
		Seed:             3,
		Jitter:           2,
		RandomFrames:     1000,
	}
	p := config.Preset{Name: "noise", Locations: []string{"a.json"}, SampleSize: 10, Mode: "random"}

	s, err := FromPreset(p, ac, nil)
	require.NoError(t, err)
	assert.Equal(t, anim.ModeRandom, s.Mode)
	assert.Equal(t, []string{"a.json"}, s.Locations)
	assert.Equal(t, 50000.0, s.Extract.VerticalOffset)
	assert.Equal(t, 100*time.Millisecond, s.MinInterval)

	s, err = FromPreset(p, ac, []string{"override.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{"override.json"}, s.Locations)

	_, err = FromPreset(config.Preset{Name: "bad", Mode: "spiral"}, ac, nil)
	assert.Error(t, err)

	assert.Equal(t, 5.0, s.Exaggeration)
	flat := 0.0
	s, err = FromPreset(config.Preset{Name: "flat", Exaggeration: &flat}, ac, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Exaggeration)

	ac.Jitter = -1
	_, err = FromPreset(p, ac, nil)
	assert.ErrorContains(t, err, "negative jitter")
}

func TestRun_Timeline(t *testing.T) {
	l := &stubLoader{features: []*geom.PointFeature{
		point("a", 14, 50, 0, 1, 2),
		point("b", 15, 51, 0, -1, -4),
		point("c", 16, 52, 0, 1),
	}}
	s := Settings{Locations: []string{"x"}, Exaggeration: 2, Seed: 1}

	out, err := Run(context.Background(), l, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, l.got)
	assert.Equal(t, 3, out.State.FrameCount)
	assert.Equal(t, 2, out.Report.Accepted)
	assert.Equal(t, 1, out.Report.Mismatched)
	// b reaches (-1 + -4) * 2
	assert.Equal(t, 10.0, out.Excursion)
	assert.Equal(t, 14.0, out.Bound.Min[0])
	assert.Equal(t, 15.0, out.Bound.Max[0])
}

func TestRun_SampleAndRandom(t *testing.T) {
	var feats []*geom.PointFeature
	for i := 0; i < 20; i++ {
		feats = append(feats, point("p", float64(i), 0))
	}
	l := &stubLoader{features: feats}
	s := Settings{SampleSize: 5, Mode: anim.ModeRandom, RandomFrames: 100, Jitter: 3, Seed: 9}

	out, err := Run(context.Background(), l, s)
	require.NoError(t, err)
	assert.Len(t, out.State.Points, 5)
	assert.Equal(t, 100, out.State.FrameCount)
	assert.Equal(t, anim.ModeRandom, out.State.Mode)
	assert.Equal(t, 30.0, out.Excursion)

	adv, err := s.NewAdvancer(out.State)
	require.NoError(t, err)
	adv.Start()
	_, ok := adv.Tick(time.Now())
	assert.True(t, ok)
}

func TestRun_LoadError(t *testing.T) {
	l := &stubLoader{err: errors.New("boom")}
	_, err := Run(context.Background(), l, Settings{})
	assert.EqualError(t, err, "boom")
}

func TestRun_NothingLoaded(t *testing.T) {
	out, err := Run(context.Background(), &stubLoader{}, Settings{Locations: []string{"x"}})
	require.NoError(t, err)
	assert.True(t, out.State.Empty())
}
