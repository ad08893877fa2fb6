package anim

import (
	"math"

	"github.com/rs/zerolog"
)

// LogSink writes one line per frame. Used when there is no terminal to draw on.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Render(f Frame) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range f.Points {
		lo = math.Min(lo, p.Height)
		hi = math.Max(hi, p.Height)
	}
	s.Logger.Info().
		Int("frame", f.Index).
		Int("frames", f.Count).
		Str("date", FormatDate(f.Date)).
		Str("mode", f.Mode.String()).
		Int("points", len(f.Points)).
		Float64("minHeight", lo).
		Float64("maxHeight", hi).
		Msg("frame")
}
