package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
)

// ActivationService marks the players of an ongoing tournament as active.
type ActivationService struct {
	tournamentRepo tournament.Repository
	playerRepo     player.Repository
	invalidator    CacheInvalidator
	logger         *logging.Logger
}

func NewActivationService(
	tournamentRepo tournament.Repository,
	playerRepo player.Repository,
	invalidator CacheInvalidator,
	logger *logging.Logger,
) *ActivationService {
	if invalidator == nil {
		invalidator = NewNoopInvalidator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ActivationService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		invalidator:    invalidator,
		logger:         logger,
	}
}

func (s *ActivationService) ActivateForTournament(ctx context.Context, tournamentID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ActivationService.ActivateForTournament")
	defer span.End()

	if _, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return 0, fmt.Errorf("get tournament by id: %w", err)
	} else if !exists {
		return 0, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	teamIDs, err := s.tournamentRepo.ListTeamIDs(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("list tournament teams: %w", err)
	}

	activated, deactivated, err := s.playerRepo.SetCurrentTournament(ctx, tournamentID, teamIDs)
	if err != nil {
		return 0, fmt.Errorf("set current tournament: %w", err)
	}
	s.invalidator.InvalidatePlayers(ctx)

	s.logger.InfoContext(ctx, "players activated for tournament",
		"tournament_id", tournamentID,
		"team_count", len(teamIDs),
		"activated", activated,
		"deactivated", deactivated,
	)
	return activated, nil
}
