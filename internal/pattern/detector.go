package pattern

import "PatternScanner/internal/model"

// Default thresholds, as percentages of the bar range.
const (
	DefaultMarubozuPct = 80.0
	DefaultDojiPct     = 25.0
)

// Detector finds Marubozu→Doji reversal shapes in adjacent bar pairs.
// The first bar must be dominant (body at least MarubozuPct of its range),
// the second indecisive (body under DojiPct), with a breakout past the
// dominant bar's extreme that is rejected back into its body.
type Detector struct {
	MarubozuPct float64
	DojiPct     float64
}

// NewDetector creates a detector, substituting defaults for non-positive
// thresholds.
func NewDetector(marubozuPct, dojiPct float64) *Detector {
	if marubozuPct <= 0 {
		marubozuPct = DefaultMarubozuPct
	}
	if dojiPct <= 0 {
		dojiPct = DefaultDojiPct
	}
	return &Detector{MarubozuPct: marubozuPct, DojiPct: dojiPct}
}

// Match evaluates one ordered bar pair and reports whether it forms the
// pattern. minBodyMovePct filters out dominant bars whose absolute move is
// too small to matter. The inputs are never mutated and the only failure
// mode is "no match". The returned Match carries no scan timestamp; the
// caller stamps it.
func (d *Detector) Match(symbol string, tf model.Timeframe, first, second model.Bar, minBodyMovePct float64) (model.Match, bool) {
	if first.Range() == 0 || first.BodyPct() < d.MarubozuPct {
		return model.Match{}, false
	}
	if first.BodyMovePct() < minBodyMovePct {
		return model.Match{}, false
	}
	if second.Range() == 0 || second.BodyPct() >= d.DojiPct {
		return model.Match{}, false
	}

	var (
		direction model.Direction
		breakout  float64
		rejection float64
	)
	if first.IsBullish() {
		if second.High <= first.High {
			return model.Match{}, false
		}
		if second.Close <= first.Open || second.Close >= first.Close {
			return model.Match{}, false
		}
		direction = model.Bullish
		breakout = second.High - first.High
		rejection = (second.High - second.Close) / second.Range() * 100
	} else {
		if second.Low >= first.Low {
			return model.Match{}, false
		}
		if second.Close <= first.Close || second.Close >= first.Open {
			return model.Match{}, false
		}
		direction = model.Bearish
		breakout = first.Low - second.Low
		rejection = (second.Close - second.Low) / second.Range() * 100
	}

	return model.Match{
		Symbol:            symbol,
		Timeframe:         tf,
		Direction:         direction,
		Marubozu:          model.Snapshot(first),
		Doji:              model.Snapshot(second),
		BreakoutAmount:    breakout,
		RejectionStrength: rejection,
	}, true
}
