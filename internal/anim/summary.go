package anim

import "math"

// Summary describes the displacement range of a timeline-mode state.
type Summary struct {
	// TotalChange is the sum of each point's series, in Points order.
	TotalChange []float64
	MinTotal    float64
	MaxTotal    float64
	// Min/MaxIncrement bound the change between consecutive epochs over all
	// points. The first epoch counts as an increment of 0.
	MinIncrement float64
	MaxIncrement float64
}

// Summarize scans every point's timeline once.
func Summarize(s *State) Summary {
	sum := Summary{
		MinTotal:     math.Inf(1),
		MaxTotal:     math.Inf(-1),
		MinIncrement: math.Inf(1),
		MaxIncrement: math.Inf(-1),
	}
	if s == nil || len(s.Points) == 0 {
		return Summary{}
	}
	sum.TotalChange = make([]float64, len(s.Points))
	for i, p := range s.Points {
		series := p.Series
		if series == nil {
			series = p.Timeline
		}
		var total float64
		for j, v := range series {
			total += v
			inc := 0.0
			if j > 0 {
				inc = v - series[j-1]
			}
			sum.MinIncrement = math.Min(sum.MinIncrement, inc)
			sum.MaxIncrement = math.Max(sum.MaxIncrement, inc)
		}
		sum.TotalChange[i] = total
		sum.MinTotal = math.Min(sum.MinTotal, total)
		sum.MaxTotal = math.Max(sum.MaxTotal, total)
	}
	if math.IsInf(sum.MinIncrement, 1) {
		sum.MinIncrement, sum.MaxIncrement = 0, 0
	}
	return sum
}

// Excursion returns the largest |Height - Baseline| any point reaches over a
// full cycle when timeline values are scaled by exaggeration.
func Excursion(s *State, exaggeration float64) float64 {
	if s == nil {
		return 0
	}
	var best float64
	for _, p := range s.Points {
		var acc float64
		for i := 1; i < len(p.Timeline); i++ {
			acc += p.Timeline[i] * exaggeration
			best = math.Max(best, math.Abs(acc))
		}
	}
	return best
}
