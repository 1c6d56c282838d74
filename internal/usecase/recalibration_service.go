package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
)

type RecalibrationResult struct {
	PlayersRepriced   int `json:"players_repriced"`
	PriceChanges      int `json:"price_changes"`
	LeaguesRecomputed int `json:"leagues_recomputed"`
}

// RecalibrationService reprices every player from stored history. Stored
// fantasy points are never rewritten.
type RecalibrationService struct {
	tx          TxManager
	playerRepo  player.Repository
	statsRepo   stats.Repository
	priceRepo   pricehistory.Repository
	leagueRepo  league.Repository
	ranking     *RankingService
	invalidator CacheInvalidator
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewRecalibrationService(
	tx TxManager,
	playerRepo player.Repository,
	statsRepo stats.Repository,
	priceRepo pricehistory.Repository,
	leagueRepo league.Repository,
	ranking *RankingService,
	invalidator CacheInvalidator,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RecalibrationService {
	if invalidator == nil {
		invalidator = NewNoopInvalidator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RecalibrationService{
		tx:          tx,
		playerRepo:  playerRepo,
		statsRepo:   statsRepo,
		priceRepo:   priceRepo,
		leagueRepo:  leagueRepo,
		ranking:     ranking,
		invalidator: invalidator,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *RecalibrationService) RecalibratePrices(ctx context.Context) (RecalibrationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecalibrationService.RecalibratePrices")
	defer span.End()

	var result RecalibrationResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		players, err := s.playerRepo.List(ctx, player.Filter{})
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}

		now := s.now().UTC()
		entries := make([]pricehistory.Entry, 0, len(players))
		for _, p := range players {
			valuation, err := revaluePlayer(ctx, s.statsRepo, p.ID)
			if err != nil {
				return err
			}
			if err := s.playerRepo.UpdateValuation(ctx, p.ID, valuation); err != nil {
				return fmt.Errorf("update valuation player=%s: %w", p.ID, err)
			}
			result.PlayersRepriced++
			if valuation.CurrentPrice.Equal(p.CurrentPrice) {
				continue
			}

			entryID, err := s.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate price history id: %w", err)
			}
			entries = append(entries, pricehistory.Entry{
				ID:         entryID,
				PlayerID:   p.ID,
				Price:      valuation.CurrentPrice,
				Reason:     pricehistory.ReasonRecalibration,
				RecordedAt: now,
			})
		}
		if len(entries) > 0 {
			if err := s.priceRepo.Append(ctx, entries...); err != nil {
				return fmt.Errorf("append price history: %w", err)
			}
		}
		result.PriceChanges = len(entries)

		leagueIDs, err := s.leagueRepo.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("list leagues: %w", err)
		}
		for _, leagueID := range leagueIDs {
			if _, err := s.ranking.RecomputeLeague(ctx, leagueID); err != nil {
				return err
			}
		}
		result.LeaguesRecomputed = len(leagueIDs)
		return nil
	})
	if err != nil {
		return RecalibrationResult{}, err
	}

	s.invalidator.InvalidatePlayers(ctx)
	s.invalidator.InvalidateAllMatchStats(ctx)
	s.invalidator.InvalidateRankings(ctx)
	s.invalidator.InvalidateRosters(ctx)

	s.logger.InfoContext(ctx, "prices recalibrated",
		"players", result.PlayersRepriced,
		"price_changes", result.PriceChanges,
		"leagues", result.LeaguesRecomputed,
	)
	return result, nil
}
