package cache

import (
	"context"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	basecache "github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
)

// The decorators below serve reads from the cache. Writes pass straight
// through: the use case that owns the write invalidates after its
// transaction commits (see Invalidator). Reads inside a transaction started
// by TxManager skip the cache in both directions.

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	if inTx(ctx) {
		return r.next.List(ctx)
	}
	v, err := r.cache.GetOrLoad(ctx, basecache.KeyTeamList, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	if inTx(ctx) {
		return r.next.GetByID(ctx, teamID)
	}
	v, err := r.cache.GetOrLoad(ctx, basecache.TeamKey(teamID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.next.GetByName(ctx, name)
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	return r.next.Upsert(ctx, item)
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	if inTx(ctx) {
		return r.next.List(ctx, filter)
	}
	v, err := r.cache.GetOrLoad(ctx, basecache.PlayerListKey(filter.Key()), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return append([]player.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]player.Player)
	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	if inTx(ctx) {
		return r.next.GetByID(ctx, playerID)
	}
	v, err := r.cache.GetOrLoad(ctx, basecache.PlayerKey(playerID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return cachedPlayerByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}

	cached, _ := v.(cachedPlayerByID)
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if inTx(ctx) {
		return r.next.GetByIDs(ctx, playerIDs)
	}
	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		item, exists, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (player.Player, bool, error) {
	return r.next.GetByName(ctx, name)
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) (player.Player, error) {
	return r.next.Create(ctx, item)
}

func (r *PlayerRepository) UpdateTeam(ctx context.Context, playerID, teamID string) error {
	return r.next.UpdateTeam(ctx, playerID, teamID)
}

func (r *PlayerRepository) UpdateRole(ctx context.Context, playerID string, role player.Role) error {
	return r.next.UpdateRole(ctx, playerID, role)
}

func (r *PlayerRepository) UpdateValuation(ctx context.Context, playerID string, valuation player.Valuation) error {
	return r.next.UpdateValuation(ctx, playerID, valuation)
}

func (r *PlayerRepository) LockForUpdate(ctx context.Context, playerIDs []string) error {
	return r.next.LockForUpdate(ctx, playerIDs)
}

func (r *PlayerRepository) SetCurrentTournament(ctx context.Context, tournamentID string, teamIDs []string) (int, int, error) {
	return r.next.SetCurrentTournament(ctx, tournamentID, teamIDs)
}

type cachedPlayerByID struct {
	value  player.Player
	exists bool
}

// StatsRepository caches the stat lines of processed matches only; a live or
// unprocessed match always reads through.
type StatsRepository struct {
	next    stats.Repository
	matches match.Repository
	cache   *basecache.Store
}

func NewStatsRepository(next stats.Repository, matches match.Repository, cache *basecache.Store) *StatsRepository {
	return &StatsRepository{next: next, matches: matches, cache: cache}
}

func (r *StatsRepository) ListByMatch(ctx context.Context, matchID string) ([]stats.PlayerMatchStats, error) {
	if inTx(ctx) {
		return r.next.ListByMatch(ctx, matchID)
	}
	key := basecache.MatchStatsKey(matchID)
	if v, ok := r.cache.Get(ctx, key); ok {
		items, _ := v.([]stats.PlayerMatchStats)
		return append([]stats.PlayerMatchStats(nil), items...), nil
	}

	item, exists, err := r.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !exists || !item.Processed {
		return r.next.ListByMatch(ctx, matchID)
	}

	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return append([]stats.PlayerMatchStats(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]stats.PlayerMatchStats)
	return append([]stats.PlayerMatchStats(nil), items...), nil
}

func (r *StatsRepository) InsertBatch(ctx context.Context, rows []stats.PlayerMatchStats) error {
	return r.next.InsertBatch(ctx, rows)
}

func (r *StatsRepository) ListPlayerHistory(ctx context.Context, playerID string) ([]stats.HistoryPoint, error) {
	return r.next.ListPlayerHistory(ctx, playerID)
}

func (r *StatsRepository) ListAgentsByPlayer(ctx context.Context) (map[string][]string, error) {
	return r.next.ListAgentsByPlayer(ctx)
}
