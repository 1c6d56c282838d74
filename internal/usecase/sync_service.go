package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricing"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/scoring"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const (
	syncFlightKey    = "sync"
	maxReportErrors  = 20
	defaultWorkers   = 4
	defaultMaxTries  = 3
	defaultRunBudget = 10 * time.Minute
)

type SyncConfig struct {
	Workers          int
	MatchMaxAttempts int
	FetchRetry       resilience.RetryPolicy
	RunTimeout       time.Duration
}

type SyncReport struct {
	RunID                string    `json:"run_id"`
	Trigger              string    `json:"trigger"`
	Status               string    `json:"status"`
	TournamentsSeen      int       `json:"tournaments_seen"`
	MatchesSeen          int       `json:"matches_seen"`
	MatchesProcessed     int       `json:"matches_processed"`
	MatchesSkipped       int       `json:"matches_skipped"`
	MatchesFailed        int       `json:"matches_failed"`
	MatchesNeedAttention int       `json:"matches_need_attention"`
	PlayersActivated     int       `json:"players_activated"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
	Errors               []string  `json:"errors,omitempty"`
	Shared               bool      `json:"shared"`
}

type TournamentDiscovery struct {
	Tournaments []tournament.Tournament
	// Activated holds tournaments that moved to ongoing during this pass.
	Activated []string
	// Completed holds tournaments that moved from ongoing to completed; their
	// rewards were granted in the same transaction.
	Completed []string
}

type MatchProcessing struct {
	MatchID        string   `json:"match_id"`
	PlayersScored  int      `json:"players_scored"`
	PlayersDropped int      `json:"players_dropped"`
	PlayerIDs      []string `json:"player_ids"`
	LeagueIDs      []string `json:"league_ids"`
}

// SyncService reconciles tournaments, matches and stats with the external
// sources and scores completed matches exactly once.
type SyncService struct {
	metadata       MetadataSource
	statsSource    StatsSource
	tx             TxManager
	tournamentRepo tournament.Repository
	matchRepo      match.Repository
	teamRepo       team.Repository
	playerRepo     player.Repository
	statsRepo      stats.Repository
	priceRepo      pricehistory.Repository
	leagueRepo     league.Repository
	runRepo        syncrun.Repository
	ranking        *RankingService
	rewards        *RewardService
	activation     *ActivationService
	invalidator    CacheInvalidator
	idGen          idgen.Generator
	cfg            SyncConfig
	logger         *logging.Logger
	now            func() time.Time
	flight         resilience.SingleFlight
	teamMu         sync.Mutex
}

type SyncRepositories struct {
	Tournaments tournament.Repository
	Matches     match.Repository
	Teams       team.Repository
	Players     player.Repository
	Stats       stats.Repository
	Prices      pricehistory.Repository
	Leagues     league.Repository
	Runs        syncrun.Repository
}

func NewSyncService(
	metadata MetadataSource,
	statsSource StatsSource,
	tx TxManager,
	repos SyncRepositories,
	ranking *RankingService,
	rewards *RewardService,
	activation *ActivationService,
	invalidator CacheInvalidator,
	idGen idgen.Generator,
	cfg SyncConfig,
	logger *logging.Logger,
) *SyncService {
	if invalidator == nil {
		invalidator = NewNoopInvalidator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MatchMaxAttempts <= 0 {
		cfg.MatchMaxAttempts = defaultMaxTries
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunBudget
	}

	return &SyncService{
		metadata:       metadata,
		statsSource:    statsSource,
		tx:             tx,
		tournamentRepo: repos.Tournaments,
		matchRepo:      repos.Matches,
		teamRepo:       repos.Teams,
		playerRepo:     repos.Players,
		statsRepo:      repos.Stats,
		priceRepo:      repos.Prices,
		leagueRepo:     repos.Leagues,
		runRepo:        repos.Runs,
		ranking:        ranking,
		rewards:        rewards,
		activation:     activation,
		invalidator:    invalidator,
		idGen:          idGen,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

// Run performs one full pass. Concurrent callers join the pass already in
// flight and receive its report.
func (s *SyncService) Run(ctx context.Context, trigger syncrun.Trigger) (SyncReport, error) {
	// The pass is shared, so it must not die with the first caller's request.
	runCtx := context.WithoutCancel(ctx)
	value, err, shared := s.flight.Do(syncFlightKey, func() (any, error) {
		return s.run(runCtx, trigger)
	})

	report, _ := value.(SyncReport)
	report.Shared = shared
	return report, err
}

// RunIfIdle starts a pass unless one is already running. Scheduled ticks use
// it so slow passes never stack up.
func (s *SyncService) RunIfIdle(ctx context.Context, trigger syncrun.Trigger) (SyncReport, error) {
	if s.flight.InFlight(syncFlightKey) {
		return SyncReport{}, ErrSyncInProgress
	}
	return s.Run(ctx, trigger)
}

func (s *SyncService) InProgress() bool {
	return s.flight.InFlight(syncFlightKey)
}

func (s *SyncService) run(ctx context.Context, trigger syncrun.Trigger) (SyncReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Run", attribute.String("sync.trigger", string(trigger)))
	defer span.End()

	report := SyncReport{
		Trigger:   string(trigger),
		Status:    string(syncrun.StatusRunning),
		StartedAt: s.now().UTC(),
	}
	runID, err := s.idGen.NewID()
	if err != nil {
		return report, fmt.Errorf("generate sync run id: %w", err)
	}
	report.RunID = runID
	s.recordRunStart(ctx, report)

	s.logger.InfoContext(ctx, "sync run started", "run_id", runID, "trigger", string(trigger))

	discovery, err := s.DiscoverTournaments(ctx)
	if err != nil {
		report.Status = string(syncrun.StatusFailed)
		report.addError(err)
		markSpanError(span, err)
		s.finishRun(ctx, &report)
		return report, err
	}
	report.TournamentsSeen = len(discovery.Tournaments)

	seen, discoverErr := s.discoverAllMatches(ctx, discovery)
	report.MatchesSeen = seen
	if discoverErr != nil {
		report.addError(discoverErr)
	}

	for _, tournamentID := range discovery.Activated {
		if s.activation == nil {
			break
		}
		activated, err := s.activation.ActivateForTournament(ctx, tournamentID)
		if err != nil {
			s.logger.WarnContext(ctx, "player activation failed", "tournament_id", tournamentID, "error", err)
			report.addError(err)
			continue
		}
		report.PlayersActivated += activated
	}

	s.processPending(ctx, &report)

	switch {
	case report.MatchesFailed > 0 || discoverErr != nil:
		report.Status = string(syncrun.StatusPartial)
	default:
		report.Status = string(syncrun.StatusSucceeded)
	}
	s.finishRun(ctx, &report)

	s.logger.InfoContext(ctx, "sync run finished",
		"run_id", runID,
		"status", report.Status,
		"tournaments", report.TournamentsSeen,
		"matches_seen", report.MatchesSeen,
		"processed", report.MatchesProcessed,
		"failed", report.MatchesFailed,
		"needs_attention", report.MatchesNeedAttention,
	)
	return report, nil
}

// DiscoverTournaments upserts every listed tournament. Status only moves
// forward; the ongoing to completed edge grants rewards atomically with the
// status write.
func (s *SyncService) DiscoverTournaments(ctx context.Context) (TournamentDiscovery, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.DiscoverTournaments")
	defer span.End()

	items, err := s.metadata.FetchTournaments(ctx)
	if err != nil {
		return TournamentDiscovery{}, fmt.Errorf("fetch tournaments: %w", err)
	}

	var out TournamentDiscovery
	for _, ext := range items {
		ext.ExternalID = strings.TrimSpace(ext.ExternalID)
		ext.Name = strings.TrimSpace(ext.Name)
		if ext.ExternalID == "" || ext.Name == "" {
			s.logger.WarnContext(ctx, "skip tournament: missing external id or name",
				"error", ErrInvalidExternalData,
				"external_id", ext.ExternalID,
			)
			continue
		}
		incoming, ok := tournament.ParseStatus(ext.Status)
		if !ok {
			s.logger.WarnContext(ctx, "skip tournament: unknown status",
				"error", ErrInvalidExternalData,
				"external_id", ext.ExternalID,
				"status", ext.Status,
			)
			continue
		}

		var (
			saved     tournament.Tournament
			previous  tournament.Status
			completed bool
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			existing, exists, err := s.tournamentRepo.GetByExternalID(ctx, ext.ExternalID)
			if err != nil {
				return fmt.Errorf("get tournament by external id: %w", err)
			}

			now := s.now().UTC()
			item := existing
			if !exists {
				id, err := s.idGen.NewID()
				if err != nil {
					return fmt.Errorf("generate tournament id: %w", err)
				}
				item = tournament.Tournament{ID: id, ExternalID: ext.ExternalID, CreatedAt: now}
			}
			previous = existing.Status
			item.Name = ext.Name
			item.Region = tournamentRegion(ext)
			item.Status = tournament.Advance(existing.Status, incoming)
			item.EventPath = ext.EventPath
			if ext.StartDate != nil {
				item.StartDate = ext.StartDate
			}
			if ext.EndDate != nil {
				item.EndDate = ext.EndDate
			}
			item.LastSyncedAt = &now
			item.UpdatedAt = now

			saved, err = s.tournamentRepo.Upsert(ctx, item)
			if err != nil {
				return fmt.Errorf("upsert tournament external_id=%s: %w", ext.ExternalID, err)
			}

			completed = previous == tournament.StatusOngoing && saved.Status == tournament.StatusCompleted
			if completed && s.rewards != nil {
				if _, err := s.rewards.GrantTournamentRewards(ctx, saved.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return out, err
		}

		out.Tournaments = append(out.Tournaments, saved)
		if saved.Status == tournament.StatusOngoing && previous != tournament.StatusOngoing {
			out.Activated = append(out.Activated, saved.ID)
		}
		if completed {
			out.Completed = append(out.Completed, saved.ID)
			s.invalidator.InvalidateRosters(ctx)
			s.invalidator.InvalidateRankings(ctx)
		}
	}

	return out, nil
}

func tournamentRegion(ext ExternalTournament) team.Region {
	region := team.Region(strings.TrimSpace(ext.Region))
	if _, ok := team.AllRegions[region]; ok {
		return region
	}
	return team.InferRegion(ext.Name)
}

// discoverAllMatches fans match discovery out across the tournaments that can
// still produce results.
func (s *SyncService) discoverAllMatches(ctx context.Context, discovery TournamentDiscovery) (int, error) {
	justCompleted := make(map[string]struct{}, len(discovery.Completed))
	for _, id := range discovery.Completed {
		justCompleted[id] = struct{}{}
	}

	var seen atomic.Int64
	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.cfg.Workers)
	for _, item := range discovery.Tournaments {
		if _, ok := justCompleted[item.ID]; !ok && item.Status == tournament.StatusCompleted {
			continue
		}
		p.Go(func(ctx context.Context) error {
			n, err := s.DiscoverMatches(ctx, item)
			seen.Add(int64(n))
			if err != nil {
				s.logger.WarnContext(ctx, "match discovery failed", "tournament_id", item.ID, "error", err)
				return fmt.Errorf("discover matches tournament=%s: %w", item.ID, err)
			}
			return nil
		})
	}

	err := p.Wait()
	return int(seen.Load()), err
}

// DiscoverMatches upserts the tournament's matches. Processed matches are
// left untouched.
func (s *SyncService) DiscoverMatches(ctx context.Context, t tournament.Tournament) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.DiscoverMatches")
	defer span.End()

	items, err := s.metadata.FetchMatches(ctx, t.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("fetch matches: %w", err)
	}

	var (
		seen        int
		teamIDs     = make(map[string]struct{})
		createdTeam []string
	)
	for _, ext := range items {
		ext.ExternalID = strings.TrimSpace(ext.ExternalID)
		if ext.ExternalID == "" {
			s.logger.WarnContext(ctx, "skip match: missing external id", "error", ErrInvalidExternalData, "tournament_id", t.ID)
			continue
		}
		status, ok := match.ParseStatus(ext.Status)
		if !ok {
			s.logger.WarnContext(ctx, "skip match: unknown status",
				"error", ErrInvalidExternalData,
				"external_id", ext.ExternalID,
				"status", ext.Status,
			)
			continue
		}
		normalized, score1, score2 := match.NormalizeScore(status, ext.Score1, ext.Score2)
		if normalized != status || score1 != ext.Score1 || score2 != ext.Score2 {
			s.logger.WarnContext(ctx, "match score out of range, reset",
				"error", ErrInvalidExternalData,
				"external_id", ext.ExternalID,
				"score1", ext.Score1,
				"score2", ext.Score2,
			)
		}

		team1, created1, err := s.resolveTeam(ctx, ext.Team1, t.Region)
		if err != nil {
			return seen, err
		}
		team2, created2, err := s.resolveTeam(ctx, ext.Team2, t.Region)
		if err != nil {
			return seen, err
		}
		for _, item := range []struct {
			t       team.Team
			created bool
		}{{team1, created1}, {team2, created2}} {
			if item.created {
				createdTeam = append(createdTeam, item.t.ID)
			}
			if !item.t.IsPlaceholder() {
				teamIDs[item.t.ID] = struct{}{}
			}
		}

		existing, exists, err := s.matchRepo.GetByExternalID(ctx, ext.ExternalID)
		if err != nil {
			return seen, fmt.Errorf("get match by external id: %w", err)
		}
		seen++
		if exists && existing.Processed {
			continue
		}

		now := s.now().UTC()
		item := existing
		if !exists {
			id, err := s.idGen.NewID()
			if err != nil {
				return seen, fmt.Errorf("generate match id: %w", err)
			}
			item = match.Match{ID: id, ExternalID: ext.ExternalID, SyncState: match.SyncStateOK, CreatedAt: now}
		}
		item.TournamentID = t.ID
		item.Team1ID = team1.ID
		item.Team2ID = team2.ID
		item.Status = normalized
		item.Score1 = score1
		item.Score2 = score2
		item.Format = match.DeduceFormat(score1, score2)
		item.Stage = strings.TrimSpace(ext.Stage)
		item.URL = ext.URL
		if ext.PlayedAt != nil {
			item.PlayedAt = ext.PlayedAt
		}
		item.UpdatedAt = now

		if _, err := s.matchRepo.Upsert(ctx, item); err != nil {
			if errors.Is(err, match.ErrAlreadyProcessed) {
				continue
			}
			return seen, fmt.Errorf("upsert match external_id=%s: %w", ext.ExternalID, err)
		}
	}

	if len(teamIDs) > 0 {
		ids := make([]string, 0, len(teamIDs))
		for id := range teamIDs {
			ids = append(ids, id)
		}
		if err := s.tournamentRepo.LinkTeams(ctx, t.ID, ids); err != nil {
			return seen, fmt.Errorf("link tournament teams: %w", err)
		}
	}
	if len(createdTeam) > 0 {
		s.invalidator.InvalidateTeams(ctx, createdTeam...)
	}

	return seen, nil
}

// resolveTeam finds a team by name, creating it when unseen. Blank or TBD
// names resolve to the shared placeholder team.
func (s *SyncService) resolveTeam(ctx context.Context, name string, region team.Region) (team.Team, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, team.TBDName) {
		name = team.TBDName
		region = team.RegionGlobal
	}

	// Two tournaments may introduce the same team concurrently.
	s.teamMu.Lock()
	defer s.teamMu.Unlock()

	existing, exists, err := s.teamRepo.GetByName(ctx, name)
	if err != nil {
		return team.Team{}, false, fmt.Errorf("get team by name: %w", err)
	}
	if exists {
		return existing, false, nil
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("generate team id: %w", err)
	}
	if region == "" {
		region = team.RegionGlobal
	}
	now := s.now().UTC()
	created, err := s.teamRepo.Upsert(ctx, team.Team{
		ID:        id,
		Name:      name,
		Region:    region,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return team.Team{}, false, fmt.Errorf("create team %q: %w", name, err)
	}
	return created, true, nil
}

// processPending scores every ready match on a bounded worker pool.
func (s *SyncService) processPending(ctx context.Context, report *SyncReport) {
	ready, err := s.matchRepo.ListReadyForProcessing(ctx)
	if err != nil {
		report.addError(fmt.Errorf("list matches ready for processing: %w", err))
		return
	}
	if len(ready) == 0 {
		return
	}

	workerPool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		report.addError(fmt.Errorf("create worker pool: %w", err))
		return
	}
	defer workerPool.Release()

	var (
		workers sync.WaitGroup
		mu      sync.Mutex
	)
	for _, item := range ready {
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			_, err := s.ProcessCompletedMatch(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.MatchesProcessed++
			case errors.Is(err, ErrMatchAlreadyProcessed):
				report.MatchesSkipped++
			default:
				report.MatchesFailed++
				report.addError(err)
				if s.recordFailure(ctx, item, err) == match.SyncStateNeedsAttention {
					report.MatchesNeedAttention++
				}
			}
		}); err != nil {
			workers.Done()
			mu.Lock()
			report.MatchesFailed++
			report.addError(fmt.Errorf("submit match=%s to worker pool: %w", item.ID, err))
			mu.Unlock()
		}
	}
	workers.Wait()
}

// ProcessCompletedMatch fetches, scores and persists one completed match.
// Stats rows, the processed flag, player valuations and league standings
// commit together or not at all.
func (s *SyncService) ProcessCompletedMatch(ctx context.Context, m match.Match) (MatchProcessing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ProcessCompletedMatch",
		attribute.String("match.id", m.ID),
		attribute.String("match.external_id", m.ExternalID),
	)
	defer span.End()

	if m.Processed {
		return MatchProcessing{}, fmt.Errorf("%w: match=%s", ErrMatchAlreadyProcessed, m.ID)
	}
	if m.Status != match.StatusCompleted {
		return MatchProcessing{}, fmt.Errorf("%w: match=%s is %s", ErrInvalidInput, m.ID, m.Status)
	}

	var payload ExternalMatchStats
	err := resilience.Retry(ctx, s.cfg.FetchRetry, isTransientSourceError, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			s.logger.DebugContext(ctx, "retrying match stats fetch", "match_id", m.ID, "attempt", attempt)
		}
		var err error
		payload, err = s.statsSource.FetchMatchStats(ctx, m.ExternalID)
		return err
	})
	if err != nil {
		markSpanError(span, err)
		return MatchProcessing{}, fmt.Errorf("fetch stats match=%s: %w", m.ID, err)
	}
	if len(payload.Players) == 0 {
		return MatchProcessing{}, fmt.Errorf("%w: match=%s has no player stats yet", ErrInvalidExternalData, m.ID)
	}

	t, _, err := s.tournamentRepo.GetByID(ctx, m.TournamentID)
	if err != nil {
		return MatchProcessing{}, fmt.Errorf("get tournament by id: %w", err)
	}
	sides, err := s.matchSides(ctx, m)
	if err != nil {
		return MatchProcessing{}, err
	}

	result := MatchProcessing{MatchID: m.ID}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.matchRepo.MarkProcessed(ctx, m.ID); err != nil {
			if errors.Is(err, match.ErrAlreadyProcessed) {
				return fmt.Errorf("%w: match=%s", ErrMatchAlreadyProcessed, m.ID)
			}
			return fmt.Errorf("mark match processed: %w", err)
		}

		now := s.now().UTC()
		rows := make([]stats.PlayerMatchStats, 0, len(payload.Players))
		seenPlayers := make(map[string]struct{}, len(payload.Players))
		var initialPrices []pricehistory.Entry
		for _, line := range payload.Players {
			line.PlayerName = strings.TrimSpace(line.PlayerName)
			if line.PlayerName == "" {
				result.PlayersDropped++
				s.logger.WarnContext(ctx, "drop stat line: missing player name", "error", ErrInvalidExternalData, "match_id", m.ID)
				continue
			}

			side := sides.lookup(line.TeamName)
			scoringLine := scoring.Line{
				Kills:       line.Kills,
				Deaths:      line.Deaths,
				Assists:     line.Assists,
				FirstKills:  line.FirstKills,
				FirstDeaths: line.FirstDeaths,
				Clutches:    line.Clutches,
				ACS:         line.ACS,
				ADR:         line.ADR,
				KAST:        line.KAST,
				HeadshotPct: line.HeadshotPct,
				Rating:      line.Rating,
			}
			own, opp, _ := m.ScoreFor(side.ID)
			points, err := scoring.Score(scoringLine, scoring.OutcomeFor(own, opp))
			if err != nil {
				result.PlayersDropped++
				s.logger.WarnContext(ctx, "drop stat line: scoring rejected input",
					"error", err,
					"match_id", m.ID,
					"player", line.PlayerName,
				)
				continue
			}

			p, created, err := s.resolvePlayer(ctx, line, side, t.Region)
			if err != nil {
				return err
			}
			if _, dup := seenPlayers[p.ID]; dup {
				result.PlayersDropped++
				continue
			}
			seenPlayers[p.ID] = struct{}{}
			if created {
				entryID, err := s.idGen.NewID()
				if err != nil {
					return fmt.Errorf("generate price history id: %w", err)
				}
				initialPrices = append(initialPrices, pricehistory.Entry{
					ID:         entryID,
					PlayerID:   p.ID,
					Price:      p.CurrentPrice,
					Reason:     pricehistory.ReasonInitial,
					RecordedAt: now,
				})
			}

			rowID, err := s.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate stats id: %w", err)
			}
			rows = append(rows, stats.PlayerMatchStats{
				ID:             rowID,
				MatchID:        m.ID,
				PlayerID:       p.ID,
				Agent:          strings.TrimSpace(line.Agent),
				Kills:          line.Kills,
				Deaths:         line.Deaths,
				Assists:        line.Assists,
				ACS:            line.ACS,
				ADR:            line.ADR,
				KAST:           line.KAST,
				HeadshotPct:    line.HeadshotPct,
				Rating:         line.Rating,
				FirstKills:     line.FirstKills,
				FirstDeaths:    line.FirstDeaths,
				Clutches:       line.Clutches,
				FantasyPoints:  points,
				ScoringVersion: scoring.Current().Version,
				CreatedAt:      now,
			})
			result.PlayerIDs = append(result.PlayerIDs, p.ID)
		}
		if len(rows) == 0 {
			return fmt.Errorf("%w: match=%s has no scorable stat lines", ErrInvalidExternalData, m.ID)
		}

		if len(initialPrices) > 0 {
			if err := s.priceRepo.Append(ctx, initialPrices...); err != nil {
				return fmt.Errorf("append initial prices: %w", err)
			}
		}
		if err := s.statsRepo.InsertBatch(ctx, rows); err != nil {
			return fmt.Errorf("insert match stats: %w", err)
		}
		result.PlayersScored = len(rows)

		if err := s.revaluePlayers(ctx, m.ID, result.PlayerIDs, now); err != nil {
			return err
		}

		leagueIDs, err := s.leagueRepo.ListLeagueIDsByPlayers(ctx, result.PlayerIDs)
		if err != nil {
			return fmt.Errorf("list leagues holding players: %w", err)
		}
		if err := s.ranking.RecomputeAndSnapshot(ctx, leagueIDs); err != nil {
			return err
		}
		result.LeagueIDs = leagueIDs

		if m.SyncAttempts > 0 || m.SyncState != match.SyncStateOK {
			if err := s.matchRepo.UpdateSyncState(ctx, m.ID, match.SyncStateOK, 0, ""); err != nil {
				return fmt.Errorf("reset sync state: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return MatchProcessing{}, err
	}

	s.invalidator.InvalidatePlayers(ctx, result.PlayerIDs...)
	s.invalidator.InvalidateMatchStats(ctx, m.ID)
	s.invalidator.InvalidateTeams(ctx, m.Team1ID, m.Team2ID)
	s.invalidator.InvalidateRankings(ctx, result.LeagueIDs...)

	s.logger.InfoContext(ctx, "match processed",
		"match_id", m.ID,
		"players_scored", result.PlayersScored,
		"players_dropped", result.PlayersDropped,
		"leagues", len(result.LeagueIDs),
	)
	return result, nil
}

func (s *SyncService) revaluePlayers(ctx context.Context, matchID string, playerIDs []string, now time.Time) error {
	// Matches sharing a player serialize here, so each valuation sees the
	// other match's committed stats.
	if err := s.playerRepo.LockForUpdate(ctx, playerIDs); err != nil {
		return fmt.Errorf("lock scored players: %w", err)
	}
	current, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return fmt.Errorf("get scored players: %w", err)
	}

	entries := make([]pricehistory.Entry, 0, len(current))
	for _, p := range current {
		valuation, err := revaluePlayer(ctx, s.statsRepo, p.ID)
		if err != nil {
			return err
		}
		if err := s.playerRepo.UpdateValuation(ctx, p.ID, valuation); err != nil {
			return fmt.Errorf("update valuation player=%s: %w", p.ID, err)
		}
		entryID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate price history id: %w", err)
		}
		entries = append(entries, pricehistory.Entry{
			ID:         entryID,
			PlayerID:   p.ID,
			Price:      valuation.CurrentPrice,
			Reason:     pricehistory.ReasonMatch,
			MatchID:    matchID,
			RecordedAt: now,
		})
	}
	if err := s.priceRepo.Append(ctx, entries...); err != nil {
		return fmt.Errorf("append price history: %w", err)
	}
	return nil
}

// resolvePlayer finds a player by handle, creating them at the initial price
// when unseen. A player who changed teams is moved to the new one.
func (s *SyncService) resolvePlayer(ctx context.Context, line ExternalPlayerStat, side team.Team, region team.Region) (player.Player, bool, error) {
	existing, exists, err := s.playerRepo.GetByName(ctx, line.PlayerName)
	if err != nil {
		return player.Player{}, false, fmt.Errorf("get player by name: %w", err)
	}
	if exists {
		if side.ID != "" && existing.TeamID != side.ID {
			if err := s.playerRepo.UpdateTeam(ctx, existing.ID, side.ID); err != nil {
				return player.Player{}, false, fmt.Errorf("update player team: %w", err)
			}
			existing.TeamID = side.ID
		}
		return existing, false, nil
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("generate player id: %w", err)
	}
	if region == "" {
		region = side.Region
	}
	now := s.now().UTC()
	created, err := s.playerRepo.Create(ctx, player.Player{
		ID:           id,
		Name:         line.PlayerName,
		TeamID:       side.ID,
		Role:         player.InferRole(line.Agent),
		Region:       region,
		BasePrice:    pricing.InitialPrice,
		CurrentPrice: pricing.InitialPrice,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return player.Player{}, false, fmt.Errorf("create player %q: %w", line.PlayerName, err)
	}
	return created, true, nil
}

type matchSides struct {
	teams []team.Team
}

// lookup matches a stats-table team label against full names and tags.
func (m matchSides) lookup(label string) team.Team {
	label = strings.TrimSpace(label)
	if label == "" {
		return team.Team{}
	}
	for _, t := range m.teams {
		if strings.EqualFold(t.Name, label) || (t.ShortName != "" && strings.EqualFold(t.ShortName, label)) {
			return t
		}
	}
	return team.Team{}
}

func (s *SyncService) matchSides(ctx context.Context, m match.Match) (matchSides, error) {
	var out matchSides
	for _, id := range []string{m.Team1ID, m.Team2ID} {
		if id == "" {
			continue
		}
		t, exists, err := s.teamRepo.GetByID(ctx, id)
		if err != nil {
			return matchSides{}, fmt.Errorf("get team by id: %w", err)
		}
		if exists && !t.IsPlaceholder() {
			out.teams = append(out.teams, t)
		}
	}
	return out, nil
}

// recordFailure bumps the attempt counter. After MatchMaxAttempts failures
// the match waits for an operator.
func (s *SyncService) recordFailure(ctx context.Context, m match.Match, cause error) match.SyncState {
	attempts := m.SyncAttempts + 1
	state := match.SyncStateRetrying
	if attempts >= s.cfg.MatchMaxAttempts {
		state = match.SyncStateNeedsAttention
	}

	if err := s.matchRepo.UpdateSyncState(ctx, m.ID, state, attempts, truncateError(cause)); err != nil {
		s.logger.ErrorContext(ctx, "record match sync failure", "match_id", m.ID, "error", err)
	}

	if state == match.SyncStateNeedsAttention {
		s.logger.ErrorContext(ctx, "match needs attention",
			"match_id", m.ID,
			"external_id", m.ExternalID,
			"attempts", attempts,
			"error", cause,
		)
	} else {
		s.logger.WarnContext(ctx, "match processing failed, will retry",
			"match_id", m.ID,
			"attempts", attempts,
			"error", cause,
		)
	}
	return state
}

// RetryMatch clears the needs-attention flag so the next pass picks the
// match up again.
func (s *SyncService) RetryMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.RetryMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if item.Processed {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrMatchAlreadyProcessed, matchID)
	}

	if err := s.matchRepo.UpdateSyncState(ctx, matchID, match.SyncStateOK, 0, ""); err != nil {
		return match.Match{}, fmt.Errorf("reset sync state: %w", err)
	}
	item.SyncState = match.SyncStateOK
	item.SyncAttempts = 0
	item.LastSyncError = ""

	s.logger.InfoContext(ctx, "match sync state reset", "match_id", matchID)
	return item, nil
}

// UpdatePlayerRoles reassigns each player's role from the agents they have
// played. It returns the number of players whose role changed.
func (s *SyncService) UpdatePlayerRoles(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.UpdatePlayerRoles")
	defer span.End()

	agentsByPlayer, err := s.statsRepo.ListAgentsByPlayer(ctx)
	if err != nil {
		return 0, fmt.Errorf("list agents by player: %w", err)
	}
	players, err := s.playerRepo.List(ctx, player.Filter{})
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}

	changed := 0
	for _, p := range players {
		role, ok := player.MajorityRole(agentsByPlayer[p.ID])
		if !ok || role == p.Role {
			continue
		}
		if err := s.playerRepo.UpdateRole(ctx, p.ID, role); err != nil {
			return changed, fmt.Errorf("update role player=%s: %w", p.ID, err)
		}
		changed++
	}
	if changed > 0 {
		s.invalidator.InvalidatePlayers(ctx)
	}

	s.logger.InfoContext(ctx, "player roles updated", "players", len(players), "changed", changed)
	return changed, nil
}

// ListRecentRuns returns the latest pass records, newest first.
func (s *SyncService) ListRecentRuns(ctx context.Context, limit int) ([]syncrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.ListRecentRuns")
	defer span.End()

	if s.runRepo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.runRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sync runs: %w", err)
	}
	return runs, nil
}

func (s *SyncService) recordRunStart(ctx context.Context, report SyncReport) {
	if s.runRepo == nil {
		return
	}
	err := s.runRepo.Create(ctx, syncrun.Run{
		ID:        report.RunID,
		Trigger:   syncrun.Trigger(report.Trigger),
		Status:    syncrun.StatusRunning,
		StartedAt: report.StartedAt,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "record sync run start failed", "run_id", report.RunID, "error", err)
	}
}

func (s *SyncService) finishRun(ctx context.Context, report *SyncReport) {
	report.FinishedAt = s.now().UTC()
	if s.runRepo == nil {
		return
	}
	finished := report.FinishedAt
	err := s.runRepo.Finish(ctx, syncrun.Run{
		ID:                   report.RunID,
		Trigger:              syncrun.Trigger(report.Trigger),
		Status:               syncrun.Status(report.Status),
		StartedAt:            report.StartedAt,
		FinishedAt:           &finished,
		TournamentsSeen:      report.TournamentsSeen,
		MatchesSeen:          report.MatchesSeen,
		MatchesProcessed:     report.MatchesProcessed,
		MatchesFailed:        report.MatchesFailed,
		MatchesNeedAttention: report.MatchesNeedAttention,
		ErrorMessage:         strings.Join(report.Errors, "; "),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "record sync run finish failed", "run_id", report.RunID, "error", err)
	}
}

func (r *SyncReport) addError(err error) {
	if err == nil || len(r.Errors) >= maxReportErrors {
		return
	}
	r.Errors = append(r.Errors, err.Error())
}

// isTransientSourceError reports whether a source failure is worth retrying
// within the same pass.
func isTransientSourceError(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}

func truncateError(err error) string {
	const limit = 500
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > limit {
		return msg[:limit]
	}
	return msg
}
