package pattern

import (
	"math"
	"testing"

	"PatternScanner/internal/model"
)

func TestMatch_BullishPositive(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 100, High: 110, Low: 99, Close: 109}   // body_pct ~81.8
	second := model.Bar{Open: 108, High: 111, Low: 107, Close: 108.5} // body_pct 12.5

	m, ok := d.Match("TEST", model.Daily, first, second, 4)
	if !ok {
		t.Fatal("expected a bullish match")
	}
	if m.Direction != model.Bullish {
		t.Errorf("direction = %s, want bullish", m.Direction)
	}
	if m.BreakoutAmount != 1.0 {
		t.Errorf("breakout = %.2f, want 1.0", m.BreakoutAmount)
	}
	// Doji range is 4, close retraced 2.5 from the high.
	if math.Abs(m.RejectionStrength-62.5) > 1e-9 {
		t.Errorf("rejection = %.2f, want 62.5", m.RejectionStrength)
	}
	if m.Marubozu.Open != 100 || m.Doji.Close != 108.5 {
		t.Error("match snapshots do not carry the source bars")
	}
}

func TestMatch_DojiClosesOutsideBody(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 100, High: 110, Low: 99, Close: 109}
	// Close of 110 lands outside the 100-109 body: breakout not rejected.
	second := model.Bar{Open: 109.8, High: 111, Low: 107, Close: 110}

	if _, ok := d.Match("TEST", model.Daily, first, second, 4); ok {
		t.Error("expected no match when the doji closes outside the marubozu body")
	}
}

func TestMatch_BearishPositive(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 109, High: 110, Low: 99, Close: 100}  // bearish marubozu
	second := model.Bar{Open: 101, High: 102, Low: 98, Close: 100.5} // doji breaking the low

	m, ok := d.Match("TEST", model.Weekly, first, second, 4)
	if !ok {
		t.Fatal("expected a bearish match")
	}
	if m.Direction != model.Bearish {
		t.Errorf("direction = %s, want bearish", m.Direction)
	}
	if m.BreakoutAmount != 1.0 {
		t.Errorf("breakout = %.2f, want 1.0", m.BreakoutAmount)
	}
	if m.Timeframe != model.Weekly {
		t.Errorf("timeframe = %s, want 1W", m.Timeframe)
	}
}

func TestMatch_BearishNoLowBreak(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 109, High: 110, Low: 99, Close: 100}
	// Doji stays above the marubozu low: no breakout.
	second := model.Bar{Open: 101, High: 102, Low: 99.5, Close: 100.5}

	if _, ok := d.Match("TEST", model.Daily, first, second, 4); ok {
		t.Error("expected no match without a low break")
	}
}

func TestMatch_ZeroRangeNeverDominant(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 100, High: 100, Low: 100, Close: 100}
	second := model.Bar{Open: 100, High: 102, Low: 99, Close: 100.2}

	if _, ok := d.Match("TEST", model.Daily, first, second, 0); ok {
		t.Error("a zero-range bar must never qualify as a dominant bar")
	}
}

func TestMatch_BodyMoveFilter(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 100, High: 110, Low: 99, Close: 109} // 9% body move
	second := model.Bar{Open: 108, High: 111, Low: 107, Close: 108.5}

	if _, ok := d.Match("TEST", model.Daily, first, second, 9.5); ok {
		t.Error("expected the body-move filter to reject a 9% move at threshold 9.5")
	}
	if _, ok := d.Match("TEST", model.Daily, first, second, 9); !ok {
		t.Error("expected a match at the exact threshold")
	}
}

func TestMatch_SecondBarNotIndecisive(t *testing.T) {
	d := NewDetector(0, 0)
	first := model.Bar{Open: 100, High: 110, Low: 99, Close: 109}
	// Body is 3 of a range of 6.5: ~46%, nowhere near a doji.
	second := model.Bar{Open: 105, High: 111, Low: 104.5, Close: 108}

	if _, ok := d.Match("TEST", model.Daily, first, second, 4); ok {
		t.Error("expected no match when the second bar has a large body")
	}
}

func TestNewDetector_Defaults(t *testing.T) {
	d := NewDetector(0, 0)
	if d.MarubozuPct != DefaultMarubozuPct || d.DojiPct != DefaultDojiPct {
		t.Errorf("defaults = %.0f/%.0f, want %.0f/%.0f",
			d.MarubozuPct, d.DojiPct, DefaultMarubozuPct, DefaultDojiPct)
	}
	custom := NewDetector(85, 20)
	if custom.MarubozuPct != 85 || custom.DojiPct != 20 {
		t.Errorf("custom thresholds not honored: %+v", custom)
	}
}
