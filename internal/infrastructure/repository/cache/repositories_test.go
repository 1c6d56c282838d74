package cache

import (
	"context"
	"testing"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	"github.com/shopspring/decimal"
)

func TestPlayerRepository_ServesCachedListUntilInvalidated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewSeededStore()
	views := basecache.NewStore(0)
	repo := NewPlayerRepository(store.Players(), views)
	invalidator := NewInvalidator(views, nil)

	filter := player.Filter{Role: player.RoleDuelist}
	cold, err := repo.List(ctx, filter)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}

	target := cold[0].ID
	if err := store.Players().UpdateValuation(ctx, target, player.Valuation{CurrentPrice: decimal.NewFromInt(40)}); err != nil {
		t.Fatalf("update valuation: %v", err)
	}

	warm, _ := repo.List(ctx, filter)
	if !warm[0].CurrentPrice.Equal(cold[0].CurrentPrice) {
		t.Fatalf("expected cached list before invalidation")
	}

	invalidator.InvalidatePlayers(ctx, target)
	fresh, _ := repo.List(ctx, filter)
	direct, _ := store.Players().List(ctx, filter)
	if len(fresh) != len(direct) || fresh[0].ID != direct[0].ID || !fresh[0].CurrentPrice.Equal(direct[0].CurrentPrice) {
		t.Fatalf("expected fresh list to equal the store after invalidation")
	}
}

func TestStatsRepository_CachesProcessedMatchesOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	views := basecache.NewStore(0)
	repo := NewStatsRepository(store.Stats(), store.Matches(), views)

	if _, err := store.Matches().Upsert(ctx, match.Match{ID: "m-1", ExternalID: "4001", TournamentID: "t-1", Status: match.StatusLive}); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if _, err := repo.ListByMatch(ctx, "m-1"); err != nil {
		t.Fatalf("list stats: %v", err)
	}
	if views.Len() != 0 {
		t.Fatalf("live match stats must not be cached")
	}

	if _, err := store.Matches().Upsert(ctx, match.Match{ID: "m-1", ExternalID: "4001", TournamentID: "t-1", Status: match.StatusCompleted}); err != nil {
		t.Fatalf("upsert match: %v", err)
	}
	if err := store.Stats().InsertBatch(ctx, []stats.PlayerMatchStats{{ID: "s-1", MatchID: "m-1", PlayerID: "p-1", FantasyPoints: 2.59}}); err != nil {
		t.Fatalf("insert stats: %v", err)
	}
	if err := store.Matches().MarkProcessed(ctx, "m-1"); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	rows, err := repo.ListByMatch(ctx, "m-1")
	if err != nil {
		t.Fatalf("list stats: %v", err)
	}
	if len(rows) != 1 || rows[0].FantasyPoints != 2.59 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if _, ok := views.Get(ctx, basecache.MatchStatsKey("m-1")); !ok {
		t.Fatalf("processed match stats should be cached")
	}
}

func TestInvalidator_TeamsDropListAndItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewSeededStore()
	views := basecache.NewStore(0)
	repo := NewTeamRepository(store.Teams(), views)

	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if _, _, err := repo.GetByID(ctx, "team-fnc"); err != nil {
		t.Fatalf("get team: %v", err)
	}
	if views.Len() != 2 {
		t.Fatalf("expected list and item cached, got %d entries", views.Len())
	}

	NewInvalidator(views, nil).InvalidateTeams(ctx, "team-fnc")
	if views.Len() != 0 {
		t.Fatalf("expected team views dropped, got %d entries", views.Len())
	}
}
