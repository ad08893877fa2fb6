// Package anim turns loaded point features into an animated height field:
// sampling, timeline extraction and the fixed-period frame advancer.
package anim

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"insarmap/internal/geom"
)

// Mode selects how heights change between frames.
type Mode int

const (
	// ModeTimeline accumulates each point's displacement series.
	ModeTimeline Mode = iota
	// ModeRandom adds uniform integer jitter per frame (synthetic load test).
	ModeRandom
)

func (m Mode) String() string {
	switch m {
	case ModeRandom:
		return "random"
	default:
		return "timeline"
	}
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "timeline":
		return ModeTimeline, nil
	case "random":
		return ModeRandom, nil
	}
	return ModeTimeline, fmt.Errorf("unknown animation mode: %q", s)
}

// Point is a feature plus the height the advancer mutates every frame.
type Point struct {
	Feature *geom.PointFeature
	// Timeline is the per-epoch displacement with missing epochs as 0.
	Timeline []float64
	// Series is Timeline with a missing epoch holding the previous epoch's
	// value. Summaries read it.
	Series   []float64
	Baseline float64
	Height   float64
	Color    colorful.Color
}

// State is everything one animation owns. It is mutated only by its Advancer;
// sinks read it between ticks.
type State struct {
	Frame      int
	FrameCount int
	Dates      []string
	Points     []*Point
	Mode       Mode
}

// Empty reports whether ticking the state would do anything.
func (s *State) Empty() bool {
	return s == nil || len(s.Points) == 0 || s.FrameCount <= 0
}

// Date returns the label of the current frame, or "" when there is none.
func (s *State) Date() string {
	if s == nil || s.Frame < 0 || s.Frame >= len(s.Dates) {
		return ""
	}
	return s.Dates[s.Frame]
}
