package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricing"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
)

// revaluePlayer derives points, appearances and price from the player's full
// scored history.
func revaluePlayer(ctx context.Context, statsRepo stats.Repository, playerID string) (player.Valuation, error) {
	history, err := statsRepo.ListPlayerHistory(ctx, playerID)
	if err != nil {
		return player.Valuation{}, fmt.Errorf("list player history player=%s: %w", playerID, err)
	}

	samples := make([]pricing.Sample, 0, len(history))
	var points float64
	for _, h := range history {
		points += h.Points
		samples = append(samples, pricing.Sample{Points: h.Points, PlayedAt: h.PlayedAt})
	}

	return player.Valuation{
		Points:        roundPoints(points),
		MatchesPlayed: len(history),
		CurrentPrice:  pricing.NextPrice(samples),
	}, nil
}
