package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/shopspring/decimal"
)

// RewardService grants budget bonuses when a tournament completes.
type RewardService struct {
	tx         TxManager
	leagueRepo league.Repository
	logger     *logging.Logger
}

func NewRewardService(tx TxManager, leagueRepo league.Repository, logger *logging.Logger) *RewardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RewardService{tx: tx, leagueRepo: leagueRepo, logger: logger}
}

// RewardFor returns the budget bonus earned by a member's total points.
func RewardFor(totalPoints float64) decimal.Decimal {
	switch {
	case totalPoints < 50:
		return decimal.NewFromInt(5)
	case totalPoints < 100:
		return decimal.NewFromInt(10)
	case totalPoints < 200:
		return decimal.NewFromInt(15)
	case totalPoints < 300:
		return decimal.NewFromInt(20)
	case totalPoints < 500:
		return decimal.NewFromInt(25)
	default:
		return decimal.NewFromInt(30)
	}
}

// GrantTournamentRewards credits every league member once. It returns the
// ids of members whose budget changed; callers invalidate their views after
// the outermost transaction commits.
func (s *RewardService) GrantTournamentRewards(ctx context.Context, tournamentID string) ([]string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RewardService.GrantTournamentRewards")
	defer span.End()

	var rewarded []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		leagueIDs, err := s.leagueRepo.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("list leagues: %w", err)
		}
		for _, leagueID := range leagueIDs {
			members, err := s.leagueRepo.ListMembers(ctx, leagueID)
			if err != nil {
				return fmt.Errorf("list members league=%s: %w", leagueID, err)
			}
			for _, m := range members {
				locked, exists, err := s.leagueRepo.GetMemberForUpdate(ctx, m.ID)
				if err != nil {
					return fmt.Errorf("lock member: %w", err)
				}
				if !exists {
					continue
				}
				bonus := RewardFor(locked.TotalPoints)
				if err := s.leagueRepo.UpdateMemberBudget(ctx, locked.ID, locked.Budget.Add(bonus)); err != nil {
					return fmt.Errorf("credit reward member=%s: %w", locked.ID, err)
				}
				rewarded = append(rewarded, locked.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament rewards granted",
		"tournament_id", tournamentID,
		"member_count", len(rewarded),
	)
	return rewarded, nil
}
