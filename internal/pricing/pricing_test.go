package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestQuote_SeatFactorTiers(t *testing.T) {
	now := fixedNow()
	departure := now.AddDate(0, 0, 20) // time factor 1.1
	engine := NewEngine(WithDemandSource(FixedDemand(1.0)), WithClock(fixedNow))

	tests := []struct {
		name           string
		seatsAvailable int
		want           int64
	}{
		{"low occupancy", 80, 99000},          // 20/100 = 0.2 -> 0.9
		{"boundary 0.4 is mid tier", 60, 132000}, // 0.4 -> 1.2
		{"mid occupancy", 40, 132000},         // 0.6 -> 1.2
		{"boundary 0.8 is high tier", 20, 165000}, // 0.8 -> 1.5
		{"high occupancy", 10, 165000},        // 0.9 -> 1.5
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Quote(100000, tt.seatsAvailable, 100, departure)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_TimeFactorTiers(t *testing.T) {
	now := fixedNow()
	engine := NewEngine(WithDemandSource(FixedDemand(1.0)), WithClock(fixedNow))

	tests := []struct {
		name      string
		departure time.Time
		want      int64
	}{
		{"far out", now.AddDate(0, 0, 60), 76500},      // 0.9 * 0.85
		{"boundary 45 days", now.AddDate(0, 0, 45), 99000}, // not >45 -> 1.1
		{"mid window", now.AddDate(0, 0, 20), 99000},   // 0.9 * 1.1
		{"boundary 10 days", now.AddDate(0, 0, 10), 126000}, // not >10 -> 1.4
		{"last minute", now.AddDate(0, 0, 2), 126000},  // 0.9 * 1.4
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Quote(100000, 100, 100, tt.departure)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_ReferenceScenario(t *testing.T) {
	// AI101: base fare 8000, 150 of 200 seats free, 90 days out.
	// Occupancy 0.25 -> 0.9, time factor 0.85, so the demand-free price is
	// 6120.00 and the demand draw keeps the quote in [5997.60, 6609.60).
	now := fixedNow()
	departure := now.AddDate(0, 0, 90)

	low := NewEngine(WithDemandSource(FixedDemand(0.98)), WithClock(fixedNow))
	high := NewEngine(WithDemandSource(FixedDemand(1.08)), WithClock(fixedNow))

	assert.Equal(t, int64(599760), low.Quote(800000, 150, 200, departure))
	assert.Equal(t, int64(660960), high.Quote(800000, 150, 200, departure))

	random := NewEngine(WithClock(fixedNow))
	for i := 0; i < 100; i++ {
		price := random.Quote(800000, 150, 200, departure)
		assert.GreaterOrEqual(t, price, int64(599760))
		assert.LessOrEqual(t, price, int64(660960))
	}
}

func TestQuote_RoundsToCents(t *testing.T) {
	engine := NewEngine(WithDemandSource(FixedDemand(1.01)), WithClock(fixedNow))
	departure := fixedNow().AddDate(0, 0, 90)

	// 333.33 * 0.9 * 0.85 * 1.01 = 257.5474...; must round, not truncate.
	got := engine.Quote(33333, 150, 200, departure)
	assert.Equal(t, int64(25755), got)
}

func TestRandomDemand_Bounds(t *testing.T) {
	d := NewRandomDemand()
	for i := 0; i < 1000; i++ {
		v := d.Demand()
		assert.GreaterOrEqual(t, v, 0.98)
		assert.LessOrEqual(t, v, 1.08)
	}
}
