package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/valorant-fantasy/external/vlr"
	"github.com/riskibarqy/valorant-fantasy/internal/config"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/valorant-fantasy/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

// Container holds the wired services shared by the API server and the
// worker commands.
type Container struct {
	cfg    config.Config
	logger *logging.Logger
	repos  repositories

	Teams         *usecase.TeamService
	Players       *usecase.PlayerService
	Matches       *usecase.MatchService
	Leagues       *usecase.LeagueService
	Rosters       *usecase.RosterService
	Rankings      *usecase.RankingService
	Recalibration *usecase.RecalibrationService
	Sync          *usecase.SyncService
	Jobs          usecase.JobQueue
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ids := idgen.NewUUIDGenerator()
	vlrClient := vlr.ClientConfig{
		BaseURL:         cfg.VLRBaseURL,
		UserAgent:       cfg.VLRUserAgent,
		Timeout:         cfg.VLRTimeout,
		RequestInterval: cfg.VLRRequestInterval,
		Retry: resilience.RetryPolicy{
			MaxRetries: cfg.VLRMaxRetries,
			BaseDelay:  cfg.VLRRetryBaseDelay,
			MaxDelay:   cfg.VLRRetryMaxDelay,
		},
		Logger: logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.VLRCircuitEnabled,
			FailureThreshold: cfg.VLRCircuitFailureCount,
			OpenTimeout:      cfg.VLRCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.VLRCircuitHalfOpenMaxReq,
		},
	}
	metadata := vlr.NewMetadataClient(vlr.MetadataConfig{
		ClientConfig: vlrClient,
		EventsPath:   cfg.VLREventsPath,
		EventIDs:     cfg.VLREventIDs,
	})
	statsSource := vlr.NewStatsClient(vlrClient)

	ranking := usecase.NewRankingService(repos.leagues, repos.rosters, repos.players, repos.stats, repos.points, repos.views, ids, logger)
	rewards := usecase.NewRewardService(repos.tx, repos.leagues, logger)
	activation := usecase.NewActivationService(repos.tournaments, repos.players, repos.invalidator, logger)
	syncService := usecase.NewSyncService(metadata, statsSource, repos.tx, usecase.SyncRepositories{
		Tournaments: repos.tournaments,
		Matches:     repos.matches,
		Teams:       repos.teams,
		Players:     repos.players,
		Stats:       repos.stats,
		Prices:      repos.prices,
		Leagues:     repos.leagues,
		Runs:        repos.runs,
	}, ranking, rewards, activation, repos.invalidator, ids, usecase.SyncConfig{
		Workers:          cfg.SyncWorkers,
		MatchMaxAttempts: cfg.SyncMatchMaxAttempts,
		FetchRetry: resilience.RetryPolicy{
			MaxRetries: cfg.SyncMatchMaxAttempts - 1,
			BaseDelay:  cfg.SyncRetryBackoff,
			MaxDelay:   cfg.SyncRetryBackoff * 8,
		},
		RunTimeout: cfg.SyncRunTimeout,
	}, logger)

	var jobs usecase.JobQueue
	if cfg.QStashEnabled {
		jobs = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			CircuitBreaker:   resilience.DefaultCircuitBreakerConfig(),
		}, logger)
	}

	return &Container{
		cfg:           cfg,
		logger:        logger,
		repos:         repos,
		Teams:         usecase.NewTeamService(repos.teams),
		Players:       usecase.NewPlayerService(repos.players, repos.prices),
		Matches:       usecase.NewMatchService(repos.tournaments, repos.matches, repos.stats),
		Leagues:       usecase.NewLeagueService(repos.tx, repos.leagues, ranking, repos.invalidator, ids, logger),
		Rosters:       usecase.NewRosterService(repos.tx, repos.leagues, repos.players, repos.rosters, ranking, repos.views, repos.invalidator, ids, logger),
		Rankings:      ranking,
		Recalibration: usecase.NewRecalibrationService(repos.tx, repos.players, repos.stats, repos.prices, repos.leagues, ranking, repos.invalidator, ids, logger),
		Sync:          syncService,
		Jobs:          jobs,
	}, nil
}

func (c *Container) NewHTTPServer() (*http.Server, error) {
	if c.cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	verifier := anubis.NewClient(anubis.ClientConfig{
		HTTPClient:     &http.Client{Timeout: c.cfg.AnubisTimeout},
		BaseURL:        c.cfg.AnubisBaseURL,
		IntrospectPath: c.cfg.AnubisIntrospectURL,
		AdminKey:       c.cfg.AnubisAdminKey,
		AdminRole:      c.cfg.AnubisAdminRole,
		CacheTTL:       c.cfg.AnubisCacheTTL,
		CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		Logger:         c.logger,
	})

	handler := httpapi.NewHandler(httpapi.Services{
		Teams:         c.Teams,
		Players:       c.Players,
		Matches:       c.Matches,
		Leagues:       c.Leagues,
		Rosters:       c.Rosters,
		Rankings:      c.Rankings,
		Recalibration: c.Recalibration,
		Sync:          c.Sync,
		Jobs:          c.Jobs,
	}, c.logger)
	router := httpapi.NewRouter(handler, verifier, c.logger, httpapi.RouterConfig{
		SwaggerEnabled:     c.cfg.SwaggerEnabled,
		CORSAllowedOrigins: c.cfg.CORSAllowedOrigins,
		InternalJobToken:   c.cfg.InternalJobToken,
	})

	return &http.Server{
		Addr:         c.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  c.cfg.ReadTimeout,
		WriteTimeout: c.cfg.WriteTimeout,
	}, nil
}

func (c *Container) Close() error {
	if c == nil || c.repos.close == nil {
		return nil
	}
	return c.repos.close()
}
