package cache

import (
	"context"

	basecache "github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
)

// Invalidator drops cached read views after a committed write.
type Invalidator struct {
	cache  *basecache.Store
	logger *logging.Logger
}

func NewInvalidator(cache *basecache.Store, logger *logging.Logger) *Invalidator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Invalidator{cache: cache, logger: logger}
}

func (i *Invalidator) InvalidateTeams(ctx context.Context, teamIDs ...string) {
	if len(teamIDs) == 0 {
		i.cache.DeletePrefix(ctx, basecache.PrefixTeam)
		return
	}
	keys := []string{basecache.KeyTeamList}
	for _, id := range teamIDs {
		if id != "" {
			keys = append(keys, basecache.TeamKey(id))
		}
	}
	i.cache.Delete(ctx, keys...)
}

// InvalidatePlayers also drops roster views because they embed prices.
func (i *Invalidator) InvalidatePlayers(ctx context.Context, playerIDs ...string) {
	i.cache.DeletePrefix(ctx, basecache.PrefixPlayerList)
	i.cache.DeletePrefix(ctx, basecache.PrefixRoster)
	if len(playerIDs) == 0 {
		i.cache.DeletePrefix(ctx, basecache.PrefixPlayer)
		return
	}
	keys := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		keys = append(keys, basecache.PlayerKey(id))
	}
	i.cache.Delete(ctx, keys...)
}

func (i *Invalidator) InvalidateMatchStats(ctx context.Context, matchIDs ...string) {
	if len(matchIDs) == 0 {
		i.InvalidateAllMatchStats(ctx)
		return
	}
	keys := make([]string, 0, len(matchIDs))
	for _, id := range matchIDs {
		keys = append(keys, basecache.MatchStatsKey(id))
	}
	i.cache.Delete(ctx, keys...)
}

func (i *Invalidator) InvalidateAllMatchStats(ctx context.Context) {
	i.cache.DeletePrefix(ctx, basecache.PrefixMatchStats)
}

func (i *Invalidator) InvalidateRankings(ctx context.Context, leagueIDs ...string) {
	if len(leagueIDs) == 0 {
		i.cache.DeletePrefix(ctx, basecache.PrefixRanking)
		return
	}
	keys := make([]string, 0, len(leagueIDs))
	for _, id := range leagueIDs {
		keys = append(keys, basecache.RankingKey(id))
	}
	i.cache.Delete(ctx, keys...)
}

func (i *Invalidator) InvalidateRosters(ctx context.Context, memberIDs ...string) {
	if len(memberIDs) == 0 {
		i.cache.DeletePrefix(ctx, basecache.PrefixRoster)
		return
	}
	keys := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		keys = append(keys, basecache.RosterKey(id))
	}
	i.cache.Delete(ctx, keys...)
}

// Flush drops every cached view.
func (i *Invalidator) Flush(ctx context.Context) {
	i.cache.Flush(ctx)
	i.logger.InfoContext(ctx, "cache flushed")
}
