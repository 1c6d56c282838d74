package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
)

type PlayerService struct {
	playerRepo player.Repository
	priceRepo  pricehistory.Repository
}

func NewPlayerService(playerRepo player.Repository, priceRepo pricehistory.Repository) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		priceRepo:  priceRepo,
	}
}

// ListPlayers returns the market ordered by price, most expensive first.
func (s *PlayerService) ListPlayers(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListPlayers")
	defer span.End()

	if filter.Role != "" {
		if _, ok := player.AllRoles[filter.Role]; !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, filter.Role)
		}
	}
	if filter.Region != "" {
		if _, ok := team.AllRegions[filter.Region]; !ok {
			return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidInput, filter.Region)
		}
	}

	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPlayer")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	item, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player by id: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrPlayerNotFound, playerID)
	}
	return item, nil
}

func (s *PlayerService) GetPriceHistory(ctx context.Context, playerID string) ([]pricehistory.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPriceHistory")
	defer span.End()

	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	items, err := s.priceRepo.ListByPlayer(ctx, strings.TrimSpace(playerID))
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	return items, nil
}
