package anim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMinInterval is the shortest time between two accepted frames.
const DefaultMinInterval = 100 * time.Millisecond

// Frame is handed to a Sink after every accepted tick. Points is the state's
// own slice and must be treated as read-only until the next tick.
type Frame struct {
	Index  int
	Count  int
	Date   string
	Mode   Mode
	Points []*Point
}

// Sink consumes frames.
type Sink interface {
	Render(Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Frame)

func (f SinkFunc) Render(fr Frame) { f(fr) }

// Options tunes an Advancer.
type Options struct {
	MinInterval time.Duration
	// Exaggeration scales each timeline value before it is added. nil means 1.
	Exaggeration *float64
	// Jitter is the random-mode amplitude: each frame adds an integer in
	// [-Jitter, Jitter]. Negative values are rejected.
	Jitter int
	Rand   *rand.Rand
}

// Advancer steps a State through its frames. It is Idle until Start and goes
// back to Idle on Stop; while Running the frame index cycles forever.
type Advancer struct {
	state   *State
	opts    Options
	scale   float64
	running atomic.Bool
	last    time.Time

	accepted metric.Int64Counter
	skipped  metric.Int64Counter
	modeAttr metric.MeasurementOption
}

// NewAdvancer wraps state. Zero options fall back to the defaults.
func NewAdvancer(state *State, opts Options) (*Advancer, error) {
	if state == nil {
		return nil, fmt.Errorf("advancer: nil state")
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Jitter < 0 {
		return nil, fmt.Errorf("advancer: negative jitter %d", opts.Jitter)
	}
	scale := 1.0
	if opts.Exaggeration != nil {
		scale = *opts.Exaggeration
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	a := &Advancer{
		state:    state,
		opts:     opts,
		scale:    scale,
		modeAttr: metric.WithAttributes(attribute.String("mode", state.Mode.String())),
	}

	m := meter()
	var err error
	a.accepted, err = m.Int64Counter(
		"anim.frames.accepted",
		metric.WithDescription("Ticks that advanced the frame index"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating accepted counter: %w", err)
	}
	a.skipped, err = m.Int64Counter(
		"anim.frames.skipped",
		metric.WithDescription("Ticks dropped by the minimum frame interval"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	return a, nil
}

// State returns the animated state.
func (a *Advancer) State() *State { return a.state }

// Start moves the advancer to Running. The next tick is accepted immediately.
func (a *Advancer) Start() {
	if a.running.CompareAndSwap(false, true) {
		a.last = time.Time{}
	}
}

// Stop moves the advancer to Idle. Safe to call from any goroutine; it is
// honored at the top of the next tick.
func (a *Advancer) Stop() { a.running.Store(false) }

// Running reports whether the advancer is in the Running state.
func (a *Advancer) Running() bool { return a.running.Load() }

// Tick offers a frame slot at time now. It returns false, changing nothing,
// when the advancer is stopped, the state is empty, or now is closer than
// MinInterval to the last accepted tick.
func (a *Advancer) Tick(now time.Time) (Frame, bool) {
	if !a.running.Load() || a.state.Empty() {
		return Frame{}, false
	}
	if !a.last.IsZero() && now.Sub(a.last) < a.opts.MinInterval {
		a.skipped.Add(context.Background(), 1, a.modeAttr)
		return Frame{}, false
	}
	a.last = now

	s := a.state
	s.Frame++
	if s.Frame >= s.FrameCount {
		s.Frame = 0
	}
	for _, p := range s.Points {
		if s.Frame == 0 {
			p.Height = p.Baseline
			continue
		}
		switch s.Mode {
		case ModeRandom:
			p.Height += float64(a.opts.Rand.IntN(2*a.opts.Jitter+1) - a.opts.Jitter)
		default:
			p.Height += p.Timeline[s.Frame] * a.scale
		}
	}
	a.accepted.Add(context.Background(), 1, a.modeAttr)
	return a.frame(), true
}

func (a *Advancer) frame() Frame {
	s := a.state
	return Frame{
		Index:  s.Frame,
		Count:  s.FrameCount,
		Date:   s.Date(),
		Mode:   s.Mode,
		Points: s.Points,
	}
}

// Cadence is the default tick period of Run: a quarter of the minimum frame
// interval, so ticker drift never costs a whole frame.
func (a *Advancer) Cadence() time.Duration {
	return max(a.opts.MinInterval/4, time.Millisecond)
}

// Run starts the advancer and offers it a tick every cadence, handing accepted
// frames to sink. cadence <= 0 uses Cadence. It returns nil after Stop and
// ctx.Err() on cancellation.
func (a *Advancer) Run(ctx context.Context, sink Sink, cadence time.Duration) error {
	if cadence <= 0 {
		cadence = a.Cadence()
	}
	a.Start()
	t := time.NewTicker(cadence)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			a.Stop()
			return ctx.Err()
		case now := <-t.C:
			if !a.running.Load() {
				return nil
			}
			if f, ok := a.Tick(now); ok {
				sink.Render(f)
			}
		}
	}
}
