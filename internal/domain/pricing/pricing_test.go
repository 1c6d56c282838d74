package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func samples(points ...float64) []Sample {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Sample, len(points))
	for i, p := range points {
		// points[0] is the most recent appearance.
		out[i] = Sample{Points: p, PlayedAt: base.Add(-time.Duration(i) * 24 * time.Hour)}
	}
	return out
}

func TestNextPrice(t *testing.T) {
	tests := []struct {
		name    string
		history []Sample
		want    string
	}{
		{name: "no history", history: nil, want: "10"},
		// (5 + 25) * 1.2 * 1 * 0.5
		{name: "single match", history: samples(10), want: "18"},
		// avg 10, cv 0 -> (30) * 1.2 * 1.0 * 1.0
		{name: "steady five", history: samples(10, 10, 10, 10, 10), want: "36"},
		// base only: 5 * 1.2
		{name: "zero points", history: samples(0, 0, 0, 0, 0), want: "6"},
		// cap at 85
		{name: "capped", history: samples(40, 40, 40, 40, 40), want: "85"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextPrice(tc.history)
			want := decimal.RequireFromString(tc.want)
			if !got.Equal(want) {
				t.Fatalf("got %s want %s", got, want)
			}
		})
	}
}

func TestNextPrice_UsesOnlyLastFiveButCountsAllForParticipation(t *testing.T) {
	// Six appearances: the oldest (100 pts) falls outside the window.
	history := samples(10, 10, 10, 10, 10, 100)
	got := NextPrice(history)
	if !got.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("expected 36, got %s", got)
	}
}

func TestNextPrice_OrderIndependent(t *testing.T) {
	history := samples(12, 3, 8, 15, 6)
	reversed := make([]Sample, len(history))
	for i := range history {
		reversed[len(history)-1-i] = history[i]
	}
	if !NextPrice(history).Equal(NextPrice(reversed)) {
		t.Fatalf("price must not depend on input order")
	}
}

func TestTrendMultiplier(t *testing.T) {
	tests := []struct {
		points []float64
		want   float64
	}{
		{points: []float64{10, 10}, want: 1},
		{points: []float64{20, 20, 10, 10, 10}, want: 1.12},
		{points: []float64{12, 12, 10}, want: 1.05},
		{points: []float64{5, 5, 10}, want: 0.90},
		{points: []float64{8.5, 8.5, 10}, want: 0.97},
		{points: []float64{10, 10, 10}, want: 1},
	}

	for _, tc := range tests {
		if got := trendMultiplier(tc.points); got != tc.want {
			t.Fatalf("trendMultiplier(%v) = %v, want %v", tc.points, got, tc.want)
		}
	}
}
