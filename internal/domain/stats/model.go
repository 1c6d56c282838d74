package stats

import (
	"fmt"
	"time"
)

// PlayerMatchStats is one player's overall line for one match. Rows are
// immutable once the match is processed.
type PlayerMatchStats struct {
	ID             string
	MatchID        string
	PlayerID       string
	Agent          string
	Kills          int
	Deaths         int
	Assists        int
	ACS            float64
	ADR            float64
	KAST           float64
	HeadshotPct    float64
	Rating         float64
	FirstKills     int
	FirstDeaths    int
	Clutches       int
	FantasyPoints  float64
	ScoringVersion string
	CreatedAt      time.Time
}

func (s PlayerMatchStats) Validate() error {
	if s.MatchID == "" {
		return fmt.Errorf("stats match id is required")
	}
	if s.PlayerID == "" {
		return fmt.Errorf("stats player id is required")
	}
	return nil
}

// HistoryPoint is a scored appearance used for price calculation.
type HistoryPoint struct {
	MatchID  string
	Points   float64
	PlayedAt time.Time
}
