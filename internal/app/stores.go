package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/valorant-fantasy/internal/config"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pointshistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	cacherepo "github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

type repositories struct {
	tx          usecase.TxManager
	teams       team.Repository
	tournaments tournament.Repository
	players     player.Repository
	matches     match.Repository
	stats       stats.Repository
	prices      pricehistory.Repository
	leagues     league.Repository
	rosters     roster.Repository
	points      pointshistory.Repository
	runs        syncrun.Repository

	invalidator usecase.CacheInvalidator
	views       usecase.ViewCache

	close func() error
}

func openRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories
	if cfg.UseMemoryStore {
		store := memory.NewSeededStore()
		repos = repositories{
			tx:          store,
			teams:       store.Teams(),
			tournaments: store.Tournaments(),
			players:     store.Players(),
			matches:     store.Matches(),
			stats:       store.Stats(),
			prices:      store.Prices(),
			leagues:     store.Leagues(),
			rosters:     store.Rosters(),
			points:      store.PointsHistory(),
			runs:        store.SyncRuns(),
			close:       func() error { return nil },
		}
		logger.Info("using in-memory store")
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}
		repos = repositories{
			tx:          postgres.NewTxManager(db),
			teams:       postgres.NewTeamRepository(db),
			tournaments: postgres.NewTournamentRepository(db),
			players:     postgres.NewPlayerRepository(db),
			matches:     postgres.NewMatchRepository(db),
			stats:       postgres.NewStatsRepository(db),
			prices:      postgres.NewPriceHistoryRepository(db),
			leagues:     postgres.NewLeagueRepository(db),
			rosters:     postgres.NewRosterRepository(db),
			points:      postgres.NewPointsHistoryRepository(db),
			runs:        postgres.NewSyncRunRepository(db),
			close:       db.Close,
		}
		logger.Info("using postgres store", "db_name", dbNameFromURL(cfg.DBURL))
	}

	if !cfg.CacheEnabled {
		repos.invalidator = usecase.NewNoopInvalidator()
		repos.views = usecase.NewPassthroughViewCache()
		return repos, nil
	}

	store := basecache.NewStore(cfg.CacheTTL)
	repos.tx = cacherepo.NewTxManager(repos.tx)
	repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
	repos.players = cacherepo.NewPlayerRepository(repos.players, store)
	repos.stats = cacherepo.NewStatsRepository(repos.stats, repos.matches, store)
	repos.invalidator = cacherepo.NewInvalidator(store, logger)
	repos.views = store
	logger.Info("read cache enabled", "ttl", cfg.CacheTTL.String())

	return repos, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
