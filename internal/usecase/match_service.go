package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
)

type MatchStatsView struct {
	Match match.Match              `json:"match"`
	Stats []stats.PlayerMatchStats `json:"stats"`
}

type MatchService struct {
	tournamentRepo tournament.Repository
	matchRepo      match.Repository
	statsRepo      stats.Repository
}

func NewMatchService(tournamentRepo tournament.Repository, matchRepo match.Repository, statsRepo stats.Repository) *MatchService {
	return &MatchService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		statsRepo:      statsRepo,
	}
}

// GetMatchStats returns the scored stat lines of a match. Matches that are
// not processed yet have no lines.
func (s *MatchService) GetMatchStats(ctx context.Context, matchID string) (MatchStatsView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatchStats")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return MatchStatsView{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return MatchStatsView{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return MatchStatsView{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	rows, err := s.statsRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return MatchStatsView{}, fmt.Errorf("list match stats: %w", err)
	}
	return MatchStatsView{Match: item, Stats: rows}, nil
}

func (s *MatchService) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListTournaments")
	defer span.End()

	items, err := s.tournamentRepo.ListByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return items, nil
}

func (s *MatchService) ListMatchesByTournament(ctx context.Context, tournamentID string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListMatchesByTournament")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	if _, exists, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, fmt.Errorf("get tournament by id: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: tournament=%s", ErrNotFound, tournamentID)
	}

	items, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list matches by tournament: %w", err)
	}
	return items, nil
}

// ListNeedsAttention returns matches that stopped retrying automatically.
func (s *MatchService) ListNeedsAttention(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListNeedsAttention")
	defer span.End()

	items, err := s.matchRepo.ListNeedsAttention(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches needing attention: %w", err)
	}
	return items, nil
}
