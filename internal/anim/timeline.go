package anim

import (
	"slices"
	"strings"

	"insarmap/internal/geom"
)

// DefaultDeltaPrefix marks per-epoch displacement properties (d_20200101, ...).
const DefaultDeltaPrefix = "d_"

// ExtractOptions configures timeline extraction.
type ExtractOptions struct {
	Prefix         string
	VerticalOffset float64
	Colors         *ColorScale
}

// ExtractReport counts what happened to each input feature.
type ExtractReport struct {
	Accepted int
	// Mismatched features had a delta key sequence different from the first
	// accepted feature and were left out.
	Mismatched int
	// Malformed features had a non-numeric delta value.
	Malformed int
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Prefix == "" {
		o.Prefix = DefaultDeltaPrefix
	}
	if o.Colors == nil {
		o.Colors = DefaultColorScale()
	}
	return o
}

// Extract builds the animation state for timeline mode. The first accepted
// feature fixes the frame count and the date labels; every later feature must
// carry the same delta keys in the same order.
func Extract(features []*geom.PointFeature, opts ExtractOptions) (*State, ExtractReport) {
	opts = opts.withDefaults()
	st := &State{Mode: ModeTimeline, Points: make([]*Point, 0, len(features))}
	var (
		rep       ExtractReport
		canonical []string
	)
	for _, f := range features {
		keys, values, series, ok := deltaSeries(f, opts.Prefix)
		if !ok {
			rep.Malformed++
			continue
		}
		if canonical == nil {
			canonical = keys
			st.FrameCount = len(keys)
			st.Dates = make([]string, len(keys))
			for i, k := range keys {
				st.Dates[i] = strings.TrimPrefix(k, opts.Prefix)
			}
		} else if !slices.Equal(canonical, keys) {
			rep.Mismatched++
			continue
		}
		p := newPoint(f, values, opts)
		p.Series = series
		st.Points = append(st.Points, p)
		rep.Accepted++
	}
	return st, rep
}

// ExtractRandom builds the animation state for random mode: baselines and
// colors only, with a fixed number of frames.
func ExtractRandom(features []*geom.PointFeature, frames int, opts ExtractOptions) *State {
	opts = opts.withDefaults()
	st := &State{Mode: ModeRandom, FrameCount: frames, Points: make([]*Point, 0, len(features))}
	for _, f := range features {
		st.Points = append(st.Points, newPoint(f, nil, opts))
	}
	return st
}

func newPoint(f *geom.PointFeature, timeline []float64, opts ExtractOptions) *Point {
	base := f.Height + opts.VerticalOffset
	return &Point{
		Feature:  f,
		Timeline: timeline,
		Baseline: base,
		Height:   base,
		Color:    opts.Colors.At(f.Velocity),
	}
}

// deltaSeries walks the feature's keys in source order. values holds null as
// 0; series carries the previous epoch's value over a null and shares values
// when there is none. ok is false when a delta value is neither a number nor
// null.
func deltaSeries(f *geom.PointFeature, prefix string) (keys []string, values, series []float64, ok bool) {
	keys = []string{}
	var nulls []int
	for _, k := range f.Keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		switch v := f.Properties[k].(type) {
		case nil:
			nulls = append(nulls, len(values))
			values = append(values, 0)
		case float64:
			values = append(values, v)
		default:
			return nil, nil, nil, false
		}
		keys = append(keys, k)
	}
	if len(nulls) == 0 {
		return keys, values, values, true
	}
	series = slices.Clone(values)
	for _, i := range nulls {
		if i > 0 {
			series[i] = series[i-1]
		}
	}
	return keys, values, series, true
}

// FormatDate renders a YYYYMMDD label as YYYY-MM-DD. Other shapes are returned as is.
func FormatDate(label string) string {
	if len(label) != 8 {
		return label
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return label
		}
	}
	return label[:4] + "-" + label[4:6] + "-" + label[6:]
}
