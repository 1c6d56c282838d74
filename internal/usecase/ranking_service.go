package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pointshistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/shopspring/decimal"
)

// RankingService derives member standings from roster and stats rows. It
// keeps no counters of its own, so a recompute always converges.
type RankingService struct {
	leagueRepo league.Repository
	rosterRepo roster.Repository
	playerRepo player.Repository
	statsRepo  stats.Repository
	pointsRepo pointshistory.Repository
	views      ViewCache
	idGen      idgen.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewRankingService(
	leagueRepo league.Repository,
	rosterRepo roster.Repository,
	playerRepo player.Repository,
	statsRepo stats.Repository,
	pointsRepo pointshistory.Repository,
	views ViewCache,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RankingService {
	if views == nil {
		views = NewPassthroughViewCache()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RankingService{
		leagueRepo: leagueRepo,
		rosterRepo: rosterRepo,
		playerRepo: playerRepo,
		statsRepo:  statsRepo,
		pointsRepo: pointsRepo,
		views:      views,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

// RecomputeLeague rewrites total points, team value and rank of every member
// of the league. Call it inside the transaction of the write that caused it,
// before taking any member row lock of that league.
func (s *RankingService) RecomputeLeague(ctx context.Context, leagueID string) ([]league.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.RecomputeLeague")
	defer span.End()

	return s.recompute(ctx, leagueID, newHistoryMemo(s.statsRepo))
}

// RecomputeAndSnapshot recomputes several leagues sharing one stats lookup
// and records a points snapshot per member.
func (s *RankingService) RecomputeAndSnapshot(ctx context.Context, leagueIDs []string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.RecomputeAndSnapshot")
	defer span.End()

	memo := newHistoryMemo(s.statsRepo)
	now := s.now().UTC()
	leagueIDs = append([]string(nil), leagueIDs...)
	sort.Strings(leagueIDs)
	for _, leagueID := range leagueIDs {
		if _, err := s.recompute(ctx, leagueID, memo); err != nil {
			return err
		}
		if s.pointsRepo == nil {
			continue
		}

		members, err := s.leagueRepo.ListMembers(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("list members for snapshot league=%s: %w", leagueID, err)
		}
		snapshots := make([]pointshistory.Snapshot, 0, len(members))
		for _, m := range members {
			snapshotID, err := s.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate snapshot id: %w", err)
			}
			snapshots = append(snapshots, pointshistory.Snapshot{
				ID:          snapshotID,
				UserID:      m.UserID,
				LeagueID:    leagueID,
				MemberID:    m.ID,
				TotalPoints: m.TotalPoints,
				Rank:        m.Rank,
				RecordedAt:  now,
			})
		}
		if err := s.pointsRepo.Append(ctx, snapshots...); err != nil {
			return fmt.Errorf("append points snapshots league=%s: %w", leagueID, err)
		}
	}

	return nil
}

func (s *RankingService) recompute(ctx context.Context, leagueID string, memo *historyMemo) ([]league.Standing, error) {
	// Concurrent recomputes of one league would overwrite each other's view.
	if err := s.leagueRepo.LockLeague(ctx, leagueID); err != nil {
		return nil, fmt.Errorf("lock league=%s: %w", leagueID, err)
	}
	// Member locks keep a concurrent buy from committing between the roster
	// read and the standings write.
	members, err := s.leagueRepo.ListMembersForUpdate(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("lock members league=%s: %w", leagueID, err)
	}

	standings := make([]league.Standing, 0, len(members))
	for _, m := range members {
		st, err := s.memberStanding(ctx, m.ID, memo)
		if err != nil {
			return nil, err
		}
		standings = append(standings, st)
	}

	rankStandings(standings)
	if err := s.leagueRepo.UpdateStandings(ctx, leagueID, standings); err != nil {
		return nil, fmt.Errorf("update standings league=%s: %w", leagueID, err)
	}

	return standings, nil
}

// RefreshMember rewrites total points and team value of one member. The
// caller holds the member row lock; the league row is left alone so
// mutations of different members never wait on each other. Rank is derived
// on read and persisted by the next league recompute.
func (s *RankingService) RefreshMember(ctx context.Context, memberID string) (league.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.RefreshMember")
	defer span.End()

	st, err := s.memberStanding(ctx, memberID, newHistoryMemo(s.statsRepo))
	if err != nil {
		return league.Standing{}, err
	}
	if err := s.leagueRepo.UpdateMemberStanding(ctx, st); err != nil {
		return league.Standing{}, fmt.Errorf("update standing member=%s: %w", memberID, err)
	}
	return st, nil
}

func (s *RankingService) memberStanding(ctx context.Context, memberID string, memo *historyMemo) (league.Standing, error) {
	entries, err := s.rosterRepo.ListByMember(ctx, memberID)
	if err != nil {
		return league.Standing{}, fmt.Errorf("list roster member=%s: %w", memberID, err)
	}

	var (
		points    float64
		activeIDs []string
	)
	for _, entry := range entries {
		history, err := memo.load(ctx, entry.PlayerID)
		if err != nil {
			return league.Standing{}, err
		}
		for _, h := range history {
			if entry.HeldAt(h.PlayedAt) {
				points += h.Points
			}
		}
		if entry.Active() {
			activeIDs = append(activeIDs, entry.PlayerID)
		}
	}

	value, err := s.teamValue(ctx, activeIDs)
	if err != nil {
		return league.Standing{}, err
	}
	return league.Standing{
		MemberID:    memberID,
		TotalPoints: roundPoints(points),
		TeamValue:   value,
	}, nil
}

func (s *RankingService) teamValue(ctx context.Context, playerIDs []string) (decimal.Decimal, error) {
	if len(playerIDs) == 0 {
		return decimal.Zero, nil
	}
	players, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get rostered players: %w", err)
	}
	total := decimal.Zero
	for _, p := range players {
		total = total.Add(p.CurrentPrice)
	}
	return total, nil
}

// GetRankings returns members ordered by rank.
func (s *RankingService) GetRankings(ctx context.Context, leagueID string) ([]league.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.GetRankings")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if _, exists, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		return nil, fmt.Errorf("get league by id: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	value, err := s.views.GetOrLoad(ctx, cache.RankingKey(leagueID), func(ctx context.Context) (any, error) {
		members, err := s.leagueRepo.ListMembers(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		rankMembers(members)
		return members, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list rankings league=%s: %w", leagueID, err)
	}

	members, _ := value.([]league.Member)
	return append([]league.Member(nil), members...), nil
}

// rankStandings orders by points desc, team value desc, member id and
// assigns 1-based ranks.
func rankStandings(items []league.Standing) {
	sort.SliceStable(items, func(i, j int) bool {
		return standsAbove(items[i].TotalPoints, items[i].TeamValue, items[i].MemberID, items[j].TotalPoints, items[j].TeamValue, items[j].MemberID)
	})
	for i := range items {
		items[i].Rank = i + 1
	}
}

// rankMembers applies the rankStandings order to stored members. The stored
// rank can lag behind a roster mutation, so reads always derive it.
func rankMembers(members []league.Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return standsAbove(members[i].TotalPoints, members[i].TeamValue, members[i].ID, members[j].TotalPoints, members[j].TeamValue, members[j].ID)
	})
	for i := range members {
		members[i].Rank = i + 1
	}
}

func standsAbove(pointsA float64, valueA decimal.Decimal, idA string, pointsB float64, valueB decimal.Decimal, idB string) bool {
	if pointsA != pointsB {
		return pointsA > pointsB
	}
	if cmp := valueA.Cmp(valueB); cmp != 0 {
		return cmp > 0
	}
	return idA < idB
}

func roundPoints(v float64) float64 {
	return math.Round(v*100) / 100
}

// historyMemo caches scored history per player for the duration of one
// recompute pass.
type historyMemo struct {
	repo  stats.Repository
	items map[string][]stats.HistoryPoint
}

func newHistoryMemo(repo stats.Repository) *historyMemo {
	return &historyMemo{repo: repo, items: make(map[string][]stats.HistoryPoint)}
}

func (m *historyMemo) load(ctx context.Context, playerID string) ([]stats.HistoryPoint, error) {
	if items, ok := m.items[playerID]; ok {
		return items, nil
	}
	items, err := m.repo.ListPlayerHistory(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list player history player=%s: %w", playerID, err)
	}
	m.items[playerID] = items
	return items, nil
}
