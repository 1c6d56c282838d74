package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricing"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/valorant-fantasy/internal/mocks/usecase"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

const (
	eventID = "2682"
	matchID = "4001"
)

type syncEnv struct {
	store    *memory.Store
	metadata *usecasemock.MetadataSource
	source   *usecasemock.StatsSource
	sync     *usecase.SyncService
	leagues  *usecase.LeagueService
	roster   *usecase.RosterService
}

func newSyncEnv(t *testing.T, maxAttempts int) syncEnv {
	t.Helper()

	store := memory.NewSeededStore()
	ids := idgen.NewUUIDGenerator()
	metadata := usecasemock.NewMetadataSource(t)
	source := usecasemock.NewStatsSource(t)

	ranking := usecase.NewRankingService(store.Leagues(), store.Rosters(), store.Players(), store.Stats(), store.PointsHistory(), nil, ids, nil)
	rewards := usecase.NewRewardService(store, store.Leagues(), nil)
	activation := usecase.NewActivationService(store.Tournaments(), store.Players(), nil, nil)
	syncService := usecase.NewSyncService(
		metadata,
		source,
		store,
		usecase.SyncRepositories{
			Tournaments: store.Tournaments(),
			Matches:     store.Matches(),
			Teams:       store.Teams(),
			Players:     store.Players(),
			Stats:       store.Stats(),
			Prices:      store.Prices(),
			Leagues:     store.Leagues(),
			Runs:        store.SyncRuns(),
		},
		ranking,
		rewards,
		activation,
		nil,
		ids,
		usecase.SyncConfig{
			Workers:          2,
			MatchMaxAttempts: maxAttempts,
			FetchRetry:       resilience.RetryPolicy{MaxRetries: 0},
		},
		nil,
	)

	return syncEnv{
		store:    store,
		metadata: metadata,
		source:   source,
		sync:     syncService,
		leagues:  usecase.NewLeagueService(store, store.Leagues(), ranking, nil, ids, nil),
		roster:   usecase.NewRosterService(store, store.Leagues(), store.Players(), store.Rosters(), ranking, nil, nil, ids, nil),
	}
}

func ongoingEvent(status string) []usecase.ExternalTournament {
	return []usecase.ExternalTournament{{
		ExternalID: eventID,
		Name:       "VCT 2026: EMEA Stage 1",
		Status:     status,
		EventPath:  "/event/2682/vct-2026-emea-stage-1",
	}}
}

func completedSeries() []usecase.ExternalMatch {
	return []usecase.ExternalMatch{{
		ExternalID: matchID,
		Team1:      "FNATIC",
		Team2:      "Team Heretics",
		Score1:     1,
		Score2:     2,
		Status:     "final",
		Stage:      "Group Stage",
	}}
}

// Player A: 10/2/3, Player B: 3/8/1, both on the losing side.
func twoPlayerStats() usecase.ExternalMatchStats {
	return usecase.ExternalMatchStats{
		MatchExternalID: matchID,
		Team1:           "FNATIC",
		Team2:           "Team Heretics",
		Score1:          1,
		Score2:          2,
		Players: []usecase.ExternalPlayerStat{
			{PlayerName: "Boaster", TeamName: "FNC", Agent: "Omen", Kills: 10, Deaths: 2, Assists: 3},
			{PlayerName: "Alfajer", TeamName: "FNC", Agent: "Killjoy", Kills: 3, Deaths: 8, Assists: 1},
		},
	}
}

func TestSyncService_ProcessesCompletedMatchOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)

	detail, err := env.leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, usecase.CreateLeagueInput{Name: "Scrims"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	memberID := detail.Members[0].ID
	if _, err := env.roster.BuyPlayer(ctx, user.Principal{UserID: "u1"}, usecase.BuyPlayerInput{MemberID: memberID, PlayerID: "pl-boaster", Slot: "Controller 1"}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil)
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return(completedSeries(), nil)
	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(twoPlayerStats(), nil).Once()

	first, err := env.sync.Run(ctx, syncrun.TriggerManual)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.MatchesProcessed != 1 || first.Status != string(syncrun.StatusSucceeded) {
		t.Fatalf("unexpected first report: %+v", first)
	}

	m, exists, _ := env.store.Matches().GetByExternalID(ctx, matchID)
	if !exists || !m.Processed || m.Format != match.FormatBo3 {
		t.Fatalf("expected processed Bo3 match, got %+v", m)
	}
	rows, _ := env.store.Stats().ListByMatch(ctx, m.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 stat rows, got %d", len(rows))
	}
	points := map[string]float64{}
	for _, row := range rows {
		points[row.PlayerID] = row.FantasyPoints
	}
	if points["pl-boaster"] != 2.59 || points["pl-alfajer"] != 0 {
		t.Fatalf("unexpected fantasy points: %v", points)
	}

	second, err := env.sync.Run(ctx, syncrun.TriggerManual)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.MatchesProcessed != 0 {
		t.Fatalf("second run must not process again: %+v", second)
	}
	again, _ := env.store.Stats().ListByMatch(ctx, m.ID)
	if len(again) != 2 || again[0].ID != rows[0].ID || again[1].ID != rows[1].ID {
		t.Fatalf("stat rows changed on re-run")
	}

	boaster, _, _ := env.store.Players().GetByID(ctx, "pl-boaster")
	wantPrice := pricing.NextPrice([]pricing.Sample{{Points: 2.59, PlayedAt: time.Now()}})
	if boaster.Points != 2.59 || boaster.MatchesPlayed != 1 || !boaster.CurrentPrice.Equal(wantPrice) {
		t.Fatalf("unexpected valuation: points=%v matches=%d price=%s", boaster.Points, boaster.MatchesPlayed, boaster.CurrentPrice)
	}
	if boaster.CurrentTournamentID == "" {
		t.Fatalf("expected player of a participating team to be activated")
	}
	prices, _ := env.store.Prices().ListByPlayer(ctx, "pl-boaster")
	if len(prices) != 1 || prices[0].Reason != pricehistory.ReasonMatch {
		t.Fatalf("expected one match price entry, got %+v", prices)
	}

	member, _, _ := env.store.Leagues().GetMember(ctx, memberID)
	if member.TotalPoints != 2.59 || member.Rank != 1 || !member.TeamValue.Equal(wantPrice) {
		t.Fatalf("unexpected standing: points=%v rank=%d value=%s", member.TotalPoints, member.Rank, member.TeamValue)
	}
	snapshots, _ := env.store.PointsHistory().ListByMember(ctx, memberID, 10)
	if len(snapshots) != 1 || snapshots[0].TotalPoints != 2.59 {
		t.Fatalf("expected one points snapshot, got %+v", snapshots)
	}

	runs, _ := env.store.SyncRuns().ListRecent(ctx, 10)
	if len(runs) != 2 {
		t.Fatalf("expected 2 recorded runs, got %d", len(runs))
	}
}

func TestSyncService_SoldPlayerKeepsEarnedPoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)
	principal := user.Principal{UserID: "u1"}

	detail, err := env.leagues.CreateLeague(ctx, principal, usecase.CreateLeagueInput{Name: "Scrims"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	memberID := detail.Members[0].ID
	entry, err := env.roster.BuyPlayer(ctx, principal, usecase.BuyPlayerInput{MemberID: memberID, PlayerID: "pl-boaster", Slot: "Controller 1"})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil).Once()
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return(completedSeries(), nil).Once()
	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(twoPlayerStats(), nil).Once()
	if _, err := env.sync.Run(ctx, syncrun.TriggerManual); err != nil {
		t.Fatalf("run: %v", err)
	}

	sold, err := env.roster.SellPlayer(ctx, principal, entry.ID)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	member, _, _ := env.store.Leagues().GetMember(ctx, memberID)
	if member.TotalPoints != 2.59 {
		t.Fatalf("points earned while held must survive the sale, got %v", member.TotalPoints)
	}
	if !member.TeamValue.IsZero() {
		t.Fatalf("expected empty team value after sale, got %s", member.TeamValue)
	}
	want := decimal.NewFromInt(200).Sub(decimal.NewFromInt(10)).Add(sold.Refund)
	if !member.Budget.Equal(want) {
		t.Fatalf("budget=%s want %s", member.Budget, want)
	}
}

func TestSyncService_FailingMatchNeedsAttention(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 2)
	unavailable := fmt.Errorf("%w: vlr returned 503", usecase.ErrDependencyUnavailable)

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil)
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return(completedSeries(), nil)
	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(usecase.ExternalMatchStats{}, unavailable).Times(2)

	for i := 0; i < 2; i++ {
		report, err := env.sync.Run(ctx, syncrun.TriggerScheduled)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if report.MatchesFailed != 1 || report.Status != string(syncrun.StatusPartial) {
			t.Fatalf("run %d: unexpected report %+v", i, report)
		}
	}

	m, _, _ := env.store.Matches().GetByExternalID(ctx, matchID)
	if m.Processed || m.SyncState != match.SyncStateNeedsAttention || m.SyncAttempts != 2 {
		t.Fatalf("expected unprocessed match needing attention, got %+v", m)
	}

	third, err := env.sync.Run(ctx, syncrun.TriggerScheduled)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.MatchesFailed != 0 || third.MatchesProcessed != 0 {
		t.Fatalf("needs-attention match must be skipped, got %+v", third)
	}

	reset, err := env.sync.RetryMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("retry match: %v", err)
	}
	if reset.SyncState != match.SyncStateOK || reset.SyncAttempts != 0 {
		t.Fatalf("expected reset sync state, got %+v", reset)
	}

	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(twoPlayerStats(), nil).Once()
	fourth, err := env.sync.Run(ctx, syncrun.TriggerManual)
	if err != nil {
		t.Fatalf("fourth run: %v", err)
	}
	if fourth.MatchesProcessed != 1 {
		t.Fatalf("expected match processed after reset, got %+v", fourth)
	}
}

func TestSyncService_TournamentCompletionGrantsRewardsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)

	detail, err := env.leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, usecase.CreateLeagueInput{Name: "Scrims"})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	memberID := detail.Members[0].ID

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil).Once()
	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("completed"), nil).Once()
	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil).Once()
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return([]usecase.ExternalMatch{}, nil)

	for i := 0; i < 3; i++ {
		if _, err := env.sync.Run(ctx, syncrun.TriggerScheduled); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	saved, _, _ := env.store.Tournaments().GetByExternalID(ctx, eventID)
	if saved.Status != tournament.StatusCompleted {
		t.Fatalf("tournament status must not regress, got %q", saved.Status)
	}
	member, _, _ := env.store.Leagues().GetMember(ctx, memberID)
	if want := decimal.NewFromInt(205); !member.Budget.Equal(want) {
		t.Fatalf("expected one reward of 5, budget=%s", member.Budget)
	}
}

func TestSyncService_ConcurrentRunsShareOnePass(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)
	release := make(chan struct{})
	started := make(chan struct{})

	env.metadata.On("FetchTournaments", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]usecase.ExternalTournament{}, nil).
		Once()

	type result struct {
		report usecase.SyncReport
		err    error
	}
	results := make(chan result, 2)
	go func() {
		r, err := env.sync.Run(ctx, syncrun.TriggerScheduled)
		results <- result{r, err}
	}()
	<-started

	if _, err := env.sync.RunIfIdle(ctx, syncrun.TriggerScheduled); !errors.Is(err, usecase.ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	go func() {
		r, err := env.sync.Run(ctx, syncrun.TriggerManual)
		results <- result{r, err}
	}()
	// Give the second caller time to join the flight.
	time.Sleep(20 * time.Millisecond)
	close(release)

	a, b := <-results, <-results
	if a.err != nil || b.err != nil {
		t.Fatalf("unexpected errors: %v %v", a.err, b.err)
	}
	if a.report.RunID != b.report.RunID {
		t.Fatalf("expected both callers to share one run, got %s and %s", a.report.RunID, b.report.RunID)
	}
}

func TestSyncService_UpdatePlayerRolesFollowsAgentHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)

	stats := twoPlayerStats()
	stats.Players[0].Agent = "Jett"

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil)
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return(completedSeries(), nil)
	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(stats, nil).Once()

	if _, err := env.sync.Run(ctx, syncrun.TriggerCLI); err != nil {
		t.Fatalf("run: %v", err)
	}

	changed, err := env.sync.UpdatePlayerRoles(ctx)
	if err != nil {
		t.Fatalf("update roles: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected only Boaster to change role, got %d", changed)
	}

	boaster, _, _ := env.store.Players().GetByID(ctx, "pl-boaster")
	if boaster.Role != player.RoleDuelist {
		t.Fatalf("expected Duelist from agent history, got %s", boaster.Role)
	}
	alfajer, _, _ := env.store.Players().GetByID(ctx, "pl-alfajer")
	if alfajer.Role != player.RoleSentinel {
		t.Fatalf("expected Sentinel kept, got %s", alfajer.Role)
	}
}

func TestSyncService_RejectedStatLineDoesNotBlockMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newSyncEnv(t, 3)

	payload := twoPlayerStats()
	payload.Players = append(payload.Players, usecase.ExternalPlayerStat{PlayerName: "Chronicle", TeamName: "FNC", Agent: "Viper", Kills: -1, Deaths: 4})

	env.metadata.On("FetchTournaments", mock.Anything).Return(ongoingEvent("ongoing"), nil)
	env.metadata.On("FetchMatches", mock.Anything, eventID).Return(completedSeries(), nil)
	env.source.On("FetchMatchStats", mock.Anything, matchID).Return(payload, nil).Once()

	discovery, err := env.sync.DiscoverTournaments(ctx)
	if err != nil {
		t.Fatalf("discover tournaments: %v", err)
	}
	if len(discovery.Tournaments) != 1 {
		t.Fatalf("expected one tournament, got %d", len(discovery.Tournaments))
	}
	if _, err := env.sync.DiscoverMatches(ctx, discovery.Tournaments[0]); err != nil {
		t.Fatalf("discover matches: %v", err)
	}
	m, exists, _ := env.store.Matches().GetByExternalID(ctx, matchID)
	if !exists {
		t.Fatalf("expected match %s to be discovered", matchID)
	}

	result, err := env.sync.ProcessCompletedMatch(ctx, m)
	if err != nil {
		t.Fatalf("process match: %v", err)
	}
	if result.PlayersScored != 2 || result.PlayersDropped != 1 {
		t.Fatalf("expected 2 scored and 1 dropped, got %+v", result)
	}

	processed, _, _ := env.store.Matches().GetByID(ctx, m.ID)
	if !processed.Processed {
		t.Fatalf("expected match to be processed")
	}
	rows, _ := env.store.Stats().ListByMatch(ctx, m.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 stat rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.PlayerID != "pl-boaster" && row.PlayerID != "pl-alfajer" {
			t.Fatalf("unexpected stat row for player %s", row.PlayerID)
		}
	}
	if _, exists, _ := env.store.Players().GetByName(ctx, "Chronicle"); exists {
		t.Fatalf("rejected line must not create a player")
	}
}
