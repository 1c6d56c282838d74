// Package scoring turns one player's match statistics into fantasy points.
// It has no dependencies and no side effects.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNegativeInput = errors.New("negative stat value")
	ErrNonFinite     = errors.New("non-finite stat value")
)

// Weights is a versioned scoring table. Tables are constants of the code
// base and are never configured at runtime.
type Weights struct {
	Version          string
	Kill             float64
	Death            float64
	Assist           float64
	FirstKill        float64
	FirstDeath       float64
	Clutch           float64
	ADRDivisor       float64
	RatingThreshold  float64
	RatingMultiplier float64
	WinBonus         float64
	SweepBonus       float64
	CloseWinBonus    float64
	Scale            float64
}

// V1 is the first published table.
var V1 = Weights{
	Version:          "v1",
	Kill:             0.75,
	Death:            -0.5,
	Assist:           0.3,
	FirstKill:        1.5,
	FirstDeath:       -1.2,
	Clutch:           3.0,
	ADRDivisor:       10,
	RatingThreshold:  1.10,
	RatingMultiplier: 10,
	WinBonus:         7,
	SweepBonus:       5,
	CloseWinBonus:    2,
	Scale:            0.35,
}

// Current is the table applied to newly processed matches.
func Current() Weights {
	return V1
}

// Line is the raw stat line of one player in one match.
type Line struct {
	Kills       int
	Deaths      int
	Assists     int
	FirstKills  int
	FirstDeaths int
	Clutches    int
	ACS         float64
	ADR         float64
	KAST        float64
	HeadshotPct float64
	Rating      float64
}

// Outcome is the series result from the player's team perspective.
type Outcome struct {
	Won   bool
	Sweep bool
	Close bool
}

// OutcomeFor derives the outcome from map scores. A sweep is a win without
// dropping a map; a close win is decided by one map.
func OutcomeFor(ownScore, opponentScore int) Outcome {
	if ownScore <= opponentScore {
		return Outcome{}
	}
	return Outcome{
		Won:   true,
		Sweep: opponentScore == 0,
		Close: opponentScore > 0 && ownScore-opponentScore == 1,
	}
}

func (l Line) validate() error {
	counters := []struct {
		name  string
		value int
	}{
		{"kills", l.Kills},
		{"deaths", l.Deaths},
		{"assists", l.Assists},
		{"first_kills", l.FirstKills},
		{"first_deaths", l.FirstDeaths},
		{"clutches", l.Clutches},
	}
	for _, c := range counters {
		if c.value < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeInput, c.name, c.value)
		}
	}

	ratios := []struct {
		name  string
		value float64
	}{
		{"acs", l.ACS},
		{"adr", l.ADR},
		{"kast", l.KAST},
		{"hs_pct", l.HeadshotPct},
		{"rating", l.Rating},
	}
	for _, r := range ratios {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) {
			return fmt.Errorf("%w: %s", ErrNonFinite, r.name)
		}
		if r.value < 0 {
			return fmt.Errorf("%w: %s=%.2f", ErrNegativeInput, r.name, r.value)
		}
	}
	return nil
}

// Score applies the current table.
func Score(line Line, outcome Outcome) (float64, error) {
	return Current().Score(line, outcome)
}

// Score returns the fantasy points for line, rounded to two decimals and
// never below zero.
func (w Weights) Score(line Line, outcome Outcome) (float64, error) {
	if err := line.validate(); err != nil {
		return 0, err
	}

	points := float64(line.Kills)*w.Kill +
		float64(line.Deaths)*w.Death +
		float64(line.Assists)*w.Assist +
		float64(line.FirstKills)*w.FirstKill +
		float64(line.FirstDeaths)*w.FirstDeath +
		float64(line.Clutches)*w.Clutch

	if w.ADRDivisor > 0 {
		points += line.ADR / w.ADRDivisor
	}
	if line.Rating > w.RatingThreshold {
		points += (line.Rating - w.RatingThreshold) * w.RatingMultiplier
	}

	if outcome.Won {
		points += w.WinBonus
		if outcome.Sweep {
			points += w.SweepBonus
		}
		if outcome.Close {
			points += w.CloseWinBonus
		}
	}

	points *= w.Scale
	if points < 0 {
		points = 0
	}
	return math.Round(points*100) / 100, nil
}
