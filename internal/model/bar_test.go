package model

import (
	"testing"
	"time"
)

func TestBar_DerivedMetrics(t *testing.T) {
	b := Bar{
		Date:  time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Open:  100,
		High:  110,
		Low:   99,
		Close: 109,
	}
	if got := b.Range(); got != 11 {
		t.Errorf("Range = %.2f, want 11", got)
	}
	if got := b.Body(); got != 9 {
		t.Errorf("Body = %.2f, want 9", got)
	}
	if got := b.BodyPct(); got < 81.8 || got > 81.9 {
		t.Errorf("BodyPct = %.2f, want ~81.82", got)
	}
	if got := b.BodyMovePct(); got != 9 {
		t.Errorf("BodyMovePct = %.2f, want 9", got)
	}
	if !b.IsBullish() || b.IsBearish() {
		t.Error("expected bullish bar")
	}
}

func TestBar_ZeroRange(t *testing.T) {
	b := Bar{Open: 50, High: 50, Low: 50, Close: 50}
	if got := b.BodyPct(); got != 0 {
		t.Errorf("zero-range BodyPct = %.2f, want 0", got)
	}
	// A zero-range bar is legal and must survive validation.
	if err := b.Validate(); err != nil {
		t.Errorf("zero-range bar failed validation: %v", err)
	}
}

func TestBar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{"valid", Bar{Open: 100, High: 110, Low: 99, Close: 109}, false},
		{"low above high", Bar{Open: 100, High: 99, Low: 110, Close: 100}, true},
		{"open above high", Bar{Open: 111, High: 110, Low: 99, Close: 109}, true},
		{"open below low", Bar{Open: 98, High: 110, Low: 99, Close: 109}, true},
		{"close above high", Bar{Open: 100, High: 110, Low: 99, Close: 111}, true},
		{"close below low", Bar{Open: 100, High: 110, Low: 99, Close: 98}, true},
	}
	for _, tt := range tests {
		err := tt.bar.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestTimeframe_LookbackDays(t *testing.T) {
	if got := Daily.LookbackDays(30); got != 40 {
		t.Errorf("daily lookback = %d, want 40", got)
	}
	if got := Weekly.LookbackDays(10); got != 84 {
		t.Errorf("weekly lookback = %d, want 84", got)
	}
	if got := Monthly.LookbackDays(6); got != 211 {
		t.Errorf("monthly lookback = %d, want 211", got)
	}
}

func TestPeriodKeyFor(t *testing.T) {
	// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
	d := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	if key := PeriodKeyFor(Weekly, d); key.Year != 2025 || key.Period != 1 {
		t.Errorf("weekly key = %+v, want {2025 1}", key)
	}
	if key := PeriodKeyFor(Monthly, d); key.Year != 2024 || key.Period != 12 {
		t.Errorf("monthly key = %+v, want {2024 12}", key)
	}
}
