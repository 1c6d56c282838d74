package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	cacherepo "github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/shopspring/decimal"
)

type rosterEnv struct {
	store   *memory.Store
	leagues *LeagueService
	roster  *RosterService
	ranking *RankingService
}

func newRosterEnv(t *testing.T, views ViewCache, invalidator CacheInvalidator) rosterEnv {
	t.Helper()

	store := memory.NewSeededStore()
	ids := idgen.NewUUIDGenerator()
	ranking := NewRankingService(store.Leagues(), store.Rosters(), store.Players(), store.Stats(), store.PointsHistory(), views, ids, nil)
	return rosterEnv{
		store:   store,
		ranking: ranking,
		leagues: NewLeagueService(store, store.Leagues(), ranking, invalidator, ids, nil),
		roster:  NewRosterService(store, store.Leagues(), store.Players(), store.Rosters(), ranking, views, invalidator, ids, nil),
	}
}

func (e rosterEnv) createLeague(t *testing.T, owner string) LeagueDetail {
	t.Helper()
	detail, err := e.leagues.CreateLeague(context.Background(), user.Principal{UserID: owner}, CreateLeagueInput{Name: "Scrim League", TeamName: "Team " + owner})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return detail
}

func (e rosterEnv) member(t *testing.T, memberID string) league.Member {
	t.Helper()
	m, exists, err := e.store.Leagues().GetMember(context.Background(), memberID)
	if err != nil || !exists {
		t.Fatalf("get member %s: exists=%v err=%v", memberID, exists, err)
	}
	return m
}

func (e rosterEnv) setPrice(t *testing.T, playerID string, price int64) {
	t.Helper()
	if err := e.store.Players().UpdateValuation(context.Background(), playerID, player.Valuation{CurrentPrice: decimal.NewFromInt(price)}); err != nil {
		t.Fatalf("set price: %v", err)
	}
}

func TestRosterService_BuyPlayer_InsufficientBudget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "u1")
	memberID := detail.Members[0].ID

	if err := env.store.Leagues().UpdateMemberBudget(ctx, memberID, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	env.setPrice(t, "pl-zekken", 101)

	_, err := env.roster.BuyPlayer(ctx, user.Principal{UserID: "u1"}, BuyPlayerInput{MemberID: memberID, PlayerID: "pl-zekken", Slot: "Duelist 1"})
	if !errors.Is(err, ErrInsufficientBudget) {
		t.Fatalf("expected ErrInsufficientBudget, got %v", err)
	}

	if got := env.member(t, memberID).Budget; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("budget changed after rejected buy: %s", got)
	}
	active, _ := env.store.Rosters().ListActiveByMember(ctx, memberID)
	if len(active) != 0 {
		t.Fatalf("roster changed after rejected buy: %d entries", len(active))
	}
}

func TestRosterService_BuyPlayer_ConcurrentSameSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "u1")
	memberID := detail.Members[0].ID
	principal := user.Principal{UserID: "u1"}

	candidates := []string{"pl-boaster", "pl-valyn"}
	errs := make([]error, len(candidates))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, playerID := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = env.roster.BuyPlayer(ctx, principal, BuyPlayerInput{MemberID: memberID, PlayerID: playerID, Slot: "Controller 1"})
		}()
	}
	close(start)
	wg.Wait()

	succeeded, occupied := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotOccupied):
			occupied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || occupied != 1 {
		t.Fatalf("expected one success and one SlotOccupied, got %d and %d", succeeded, occupied)
	}
	if got := env.member(t, memberID).Budget; !got.Equal(decimal.NewFromInt(190)) {
		t.Fatalf("expected a single debit, budget=%s", got)
	}
}

func TestRosterService_BudgetLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "u1")
	memberID := detail.Members[0].ID
	principal := user.Principal{UserID: "u1"}

	boaster, err := env.roster.BuyPlayer(ctx, principal, BuyPlayerInput{MemberID: memberID, PlayerID: "pl-boaster", Slot: "Controller 1"})
	if err != nil {
		t.Fatalf("buy boaster: %v", err)
	}
	if _, err := env.roster.BuyPlayer(ctx, principal, BuyPlayerInput{MemberID: memberID, PlayerID: "pl-zekken", Slot: "duelist 1"}); err != nil {
		t.Fatalf("buy zekken: %v", err)
	}
	if got := env.member(t, memberID); !got.TeamValue.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected team value 20, got %s", got.TeamValue)
	}

	env.setPrice(t, "pl-boaster", 15)
	sold, err := env.roster.SellPlayer(ctx, principal, boaster.ID)
	if err != nil {
		t.Fatalf("sell boaster: %v", err)
	}
	if !sold.Refund.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected refund at current price 15, got %s", sold.Refund)
	}

	m := env.member(t, memberID)
	want := league.AdminBudget.Sub(decimal.NewFromInt(10)).Sub(decimal.NewFromInt(10)).Add(decimal.NewFromInt(15))
	if !m.Budget.Equal(want) || !sold.Budget.Equal(want) {
		t.Fatalf("budget=%s result=%s want %s", m.Budget, sold.Budget, want)
	}
	if !m.TeamValue.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected team value of remaining player, got %s", m.TeamValue)
	}

	if _, err := env.roster.SellPlayer(ctx, principal, boaster.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second sell to find nothing, got %v", err)
	}
}

func TestRosterService_BuyPlayer_RuleViolations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "u1")
	memberID := detail.Members[0].ID
	principal := user.Principal{UserID: "u1"}

	if _, err := env.store.Players().Create(ctx, player.Player{
		ID:           "pl-chronicle",
		Name:         "Chronicle",
		TeamID:       "team-fnc",
		Role:         player.RoleInitiator,
		BasePrice:    decimal.NewFromInt(10),
		CurrentPrice: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatalf("create player: %v", err)
	}
	for _, in := range []BuyPlayerInput{
		{MemberID: memberID, PlayerID: "pl-boaster", Slot: "Controller 1"},
		{MemberID: memberID, PlayerID: "pl-alfajer", Slot: "Sentinel 1"},
	} {
		if _, err := env.roster.BuyPlayer(ctx, principal, in); err != nil {
			t.Fatalf("buy %s: %v", in.PlayerID, err)
		}
	}

	tests := []struct {
		name      string
		principal user.Principal
		input     BuyPlayerInput
		want      error
	}{
		{
			name:      "third player of one pro team",
			principal: principal,
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-chronicle", Slot: "Initiator 1"},
			want:      ErrTeamLimitReached,
		},
		{
			name:      "player already held",
			principal: principal,
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-boaster", Slot: "Bench 1"},
			want:      ErrDuplicatePlayer,
		},
		{
			name:      "role does not fit slot",
			principal: principal,
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-zekken", Slot: "Controller 2"},
			want:      ErrInvalidInput,
		},
		{
			name:      "unknown slot",
			principal: principal,
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-zekken", Slot: "Captain"},
			want:      ErrInvalidInput,
		},
		{
			name:      "unknown player",
			principal: principal,
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-missing", Slot: "Bench 1"},
			want:      ErrPlayerNotFound,
		},
		{
			name:      "someone else's member",
			principal: user.Principal{UserID: "u2"},
			input:     BuyPlayerInput{MemberID: memberID, PlayerID: "pl-zekken", Slot: "Duelist 1"},
			want:      ErrForbidden,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.roster.BuyPlayer(ctx, tc.principal, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if got := env.member(t, memberID).Budget; !got.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("rejected buys must not touch the budget, got %s", got)
	}
}

func TestRosterService_SellPlayer_LeagueAdminMayActForMember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "admin")
	joined, err := env.leagues.JoinLeague(ctx, user.Principal{UserID: "u2"}, JoinLeagueInput{InviteCode: detail.League.InviteCode, TeamName: "Second"})
	if err != nil {
		t.Fatalf("join league: %v", err)
	}

	entry, err := env.roster.BuyPlayer(ctx, user.Principal{UserID: "u2"}, BuyPlayerInput{MemberID: joined.ID, PlayerID: "pl-leaf", Slot: "Sentinel 1"})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := env.roster.SellPlayer(ctx, user.Principal{UserID: "u3"}, entry.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected stranger to be forbidden, got %v", err)
	}
	if _, err := env.roster.SellPlayer(ctx, user.Principal{UserID: "admin"}, entry.ID); err != nil {
		t.Fatalf("league admin sell: %v", err)
	}
	if got := env.member(t, joined.ID).Budget; !got.Equal(league.MemberBudget) {
		t.Fatalf("expected budget restored to %s, got %s", league.MemberBudget, got)
	}
}

func TestRosterService_CachedViewsMatchColdReads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	views := basecache.NewStore(0)
	env := newRosterEnv(t, views, cacherepo.NewInvalidator(views, nil))
	cold := NewRosterService(env.store, env.store.Leagues(), env.store.Players(), env.store.Rosters(), env.ranking, nil, nil, idgen.NewUUIDGenerator(), nil)
	coldRanking := NewRankingService(env.store.Leagues(), env.store.Rosters(), env.store.Players(), env.store.Stats(), nil, nil, idgen.NewUUIDGenerator(), nil)

	detail := env.createLeague(t, "u1")
	memberID := detail.Members[0].ID
	principal := user.Principal{UserID: "u1"}

	compare := func(step string) {
		t.Helper()
		warm, err := env.roster.GetRoster(ctx, memberID)
		if err != nil {
			t.Fatalf("%s: warm roster: %v", step, err)
		}
		fresh, err := cold.GetRoster(ctx, memberID)
		if err != nil {
			t.Fatalf("%s: cold roster: %v", step, err)
		}
		if len(warm.Slots) != len(fresh.Slots) || !warm.Budget.Equal(fresh.Budget) || !warm.TeamValue.Equal(fresh.TeamValue) {
			t.Fatalf("%s: cached roster diverged: warm=%d/%s/%s cold=%d/%s/%s", step,
				len(warm.Slots), warm.Budget, warm.TeamValue, len(fresh.Slots), fresh.Budget, fresh.TeamValue)
		}
		for i := range warm.Slots {
			if warm.Slots[i].Entry.ID != fresh.Slots[i].Entry.ID || !warm.Slots[i].Player.CurrentPrice.Equal(fresh.Slots[i].Player.CurrentPrice) {
				t.Fatalf("%s: slot %d diverged", step, i)
			}
		}

		warmRanks, _ := env.ranking.GetRankings(ctx, detail.League.ID)
		coldRanks, _ := coldRanking.GetRankings(ctx, detail.League.ID)
		if len(warmRanks) != len(coldRanks) || !warmRanks[0].TeamValue.Equal(coldRanks[0].TeamValue) || !warmRanks[0].Budget.Equal(coldRanks[0].Budget) {
			t.Fatalf("%s: cached rankings diverged", step)
		}
	}

	compare("empty")
	entry, err := env.roster.BuyPlayer(ctx, principal, BuyPlayerInput{MemberID: memberID, PlayerID: "pl-mako", Slot: "Controller 1"})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	compare("after buy")

	env.setPrice(t, "pl-mako", 12)
	cacherepo.NewInvalidator(views, nil).InvalidatePlayers(ctx, "pl-mako")
	compare("after price change")

	if _, err := env.roster.SellPlayer(ctx, principal, entry.ID); err != nil {
		t.Fatalf("sell: %v", err)
	}
	compare("after sell")

	views.Flush(ctx)
	compare("after flush")
}

func TestRosterService_TeamValueIgnoresWarmPlayerCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewSeededStore()
	views := basecache.NewStore(0)
	players := cacherepo.NewPlayerRepository(store.Players(), views)
	tx := cacherepo.NewTxManager(store)
	invalidator := cacherepo.NewInvalidator(views, nil)
	ids := idgen.NewUUIDGenerator()
	ranking := NewRankingService(store.Leagues(), store.Rosters(), players, store.Stats(), store.PointsHistory(), views, ids, nil)
	leagues := NewLeagueService(tx, store.Leagues(), ranking, invalidator, ids, nil)
	rosters := NewRosterService(tx, store.Leagues(), players, store.Rosters(), ranking, views, invalidator, ids, nil)

	detail, err := leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, CreateLeagueInput{Name: "Cache League", TeamName: "Team u1"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	memberID := detail.Members[0].ID
	if err := store.Players().UpdateValuation(ctx, "pl-mako", player.Valuation{CurrentPrice: decimal.NewFromInt(10)}); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := rosters.BuyPlayer(ctx, user.Principal{UserID: "u1"}, BuyPlayerInput{MemberID: memberID, PlayerID: "pl-mako", Slot: "Controller 1"}); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := rosters.GetRoster(ctx, memberID); err != nil {
		t.Fatalf("warm roster: %v", err)
	}

	// Revalue and recompute in one transaction, the way a processed match does.
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := players.UpdateValuation(ctx, "pl-mako", player.Valuation{CurrentPrice: decimal.NewFromInt(12)}); err != nil {
			return err
		}
		return ranking.RecomputeAndSnapshot(ctx, []string{detail.League.ID})
	})
	if err != nil {
		t.Fatalf("revalue: %v", err)
	}
	invalidator.InvalidatePlayers(ctx, "pl-mako")

	m, _, _ := store.Leagues().GetMember(ctx, memberID)
	if !m.TeamValue.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected team value at the new price 12, got %s", m.TeamValue)
	}

	errRollback := errors.New("rollback")
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := players.UpdateValuation(ctx, "pl-mako", player.Valuation{CurrentPrice: decimal.NewFromInt(99)}); err != nil {
			return err
		}
		if _, _, err := players.GetByID(ctx, "pl-mako"); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("expected rollback, got %v", err)
	}

	p, _, err := players.GetByID(ctx, "pl-mako")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if !p.CurrentPrice.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("rolled back price leaked into the cache: %s", p.CurrentPrice)
	}
}

type lockRecordingLeagues struct {
	league.Repository

	mu    sync.Mutex
	calls []string
}

func (r *lockRecordingLeagues) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *lockRecordingLeagues) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

func (r *lockRecordingLeagues) LockLeague(ctx context.Context, leagueID string) error {
	r.record("league")
	return r.Repository.LockLeague(ctx, leagueID)
}

func (r *lockRecordingLeagues) GetMemberForUpdate(ctx context.Context, memberID string) (league.Member, bool, error) {
	r.record("member:" + memberID)
	return r.Repository.GetMemberForUpdate(ctx, memberID)
}

func (r *lockRecordingLeagues) ListMembersForUpdate(ctx context.Context, leagueID string) ([]league.Member, error) {
	r.record("members")
	return r.Repository.ListMembersForUpdate(ctx, leagueID)
}

func TestRosterService_MutationsLockOnlyTheMember(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewSeededStore()
	leagues := &lockRecordingLeagues{Repository: store.Leagues()}
	ids := idgen.NewUUIDGenerator()
	ranking := NewRankingService(leagues, store.Rosters(), store.Players(), store.Stats(), store.PointsHistory(), nil, ids, nil)
	leagueService := NewLeagueService(store, leagues, ranking, nil, ids, nil)
	rosters := NewRosterService(store, leagues, store.Players(), store.Rosters(), ranking, nil, nil, ids, nil)

	detail, err := leagueService.CreateLeague(ctx, user.Principal{UserID: "u1"}, CreateLeagueInput{Name: "Lock League", TeamName: "Team u1"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	joined, err := leagueService.JoinLeague(ctx, user.Principal{UserID: "u2"}, JoinLeagueInput{InviteCode: detail.League.InviteCode, TeamName: "Team u2"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	first, second := detail.Members[0].ID, joined.ID
	leagues.take()

	entry, err := rosters.BuyPlayer(ctx, user.Principal{UserID: "u2"}, BuyPlayerInput{MemberID: second, PlayerID: "pl-boaster", Slot: "Controller 1"})
	if err != nil {
		t.Fatalf("buy for second member: %v", err)
	}
	if _, err := rosters.BuyPlayer(ctx, user.Principal{UserID: "u1"}, BuyPlayerInput{MemberID: first, PlayerID: "pl-zekken", Slot: "Duelist 1"}); err != nil {
		t.Fatalf("buy for first member: %v", err)
	}
	if _, err := rosters.SellPlayer(ctx, user.Principal{UserID: "u2"}, entry.ID); err != nil {
		t.Fatalf("sell: %v", err)
	}

	want := []string{"member:" + second, "member:" + first, "member:" + second}
	got := leagues.take()
	if len(got) != len(want) {
		t.Fatalf("expected locks %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected locks %v, got %v", want, got)
		}
	}

	ranks, err := ranking.GetRankings(ctx, detail.League.ID)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if len(ranks) != 2 || ranks[0].ID != first || ranks[0].Rank != 1 || ranks[1].Rank != 2 {
		t.Fatalf("expected the member holding value to rank first, got %+v", ranks)
	}

	err = store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := ranking.RecomputeLeague(ctx, detail.League.ID)
		return err
	})
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got := leagues.take(); len(got) != 2 || got[0] != "league" || got[1] != "members" {
		t.Fatalf("expected league lock before member locks, got %v", got)
	}
}
