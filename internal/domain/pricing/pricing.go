// Package pricing derives a player's market price from scored history.
package pricing

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	recentWindow = 5
	basePrice    = 5.0
	pointsFactor = 2.5
)

var (
	// InitialPrice is the price of a player without scored history.
	InitialPrice = decimal.NewFromInt(10)
	MinPrice     = decimal.NewFromInt(2)
	MaxPrice     = decimal.NewFromInt(85)
)

// Sample is one scored appearance.
type Sample struct {
	Points   float64
	PlayedAt time.Time
}

// NextPrice computes the price from every scored appearance of a player.
// Recent form (last five matches) sets the base, then consistency, trend and
// participation multipliers apply before clamping to [MinPrice, MaxPrice].
func NextPrice(history []Sample) decimal.Decimal {
	if len(history) == 0 {
		return InitialPrice
	}

	ordered := append([]Sample(nil), history...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PlayedAt.After(ordered[j].PlayedAt)
	})
	if len(ordered) > recentWindow {
		ordered = ordered[:recentWindow]
	}

	points := make([]float64, len(ordered))
	for i, s := range ordered {
		points[i] = s.Points
	}
	avg := mean(points)

	price := (basePrice + avg*pointsFactor) *
		consistencyMultiplier(points, avg) *
		trendMultiplier(points) *
		participationFactor(len(history))

	out := decimal.NewFromFloat(price).Round(2)
	if out.LessThan(MinPrice) {
		return MinPrice
	}
	if out.GreaterThan(MaxPrice) {
		return MaxPrice
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// consistencyMultiplier rewards a low coefficient of variation (sample
// standard deviation over the average, average floored at 1).
func consistencyMultiplier(points []float64, avg float64) float64 {
	var stdDev float64
	if len(points) > 1 {
		var acc float64
		for _, p := range points {
			acc += (p - avg) * (p - avg)
		}
		stdDev = math.Sqrt(acc / float64(len(points)-1))
	}
	cv := stdDev / math.Max(1, avg)

	switch {
	case cv < 0.15:
		return 1.20
	case cv < 0.25:
		return 1.10
	case cv < 0.40:
		return 1.00
	case cv < 0.55:
		return 0.95
	default:
		return 0.85
	}
}

// trendMultiplier compares the latest two matches against the rest of the
// window. points is ordered most recent first.
func trendMultiplier(points []float64) float64 {
	if len(points) < 3 {
		return 1
	}
	recent := mean(points[:2])
	older := mean(points[2:])

	switch {
	case recent > older*1.3:
		return 1.12
	case recent > older*1.1:
		return 1.05
	case recent < older*0.7:
		return 0.90
	case recent < older*0.9:
		return 0.97
	default:
		return 1
	}
}

func participationFactor(matches int) float64 {
	switch matches {
	case 1:
		return 0.50
	case 2:
		return 0.70
	case 3:
		return 0.85
	case 4:
		return 0.95
	default:
		return 1
	}
}
