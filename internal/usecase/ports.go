package usecase

import (
	"context"
	"time"
)

// TxManager runs fn inside one store transaction. Repositories called with
// the ctx passed to fn participate in it; nested calls join the outer
// transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetadataSource pulls the tournament schedule and match results.
type MetadataSource interface {
	FetchTournaments(ctx context.Context) ([]ExternalTournament, error)
	FetchMatches(ctx context.Context, tournamentExternalID string) ([]ExternalMatch, error)
}

// StatsSource pulls per-player statistics of one match.
type StatsSource interface {
	FetchMatchStats(ctx context.Context, matchExternalID string) (ExternalMatchStats, error)
}

type ExternalTournament struct {
	ExternalID string
	Name       string
	Status     string
	Region     string
	EventPath  string
	StartDate  *time.Time
	EndDate    *time.Time
}

type ExternalMatch struct {
	ExternalID string
	Team1      string
	Team2      string
	Score1     int
	Score2     int
	Status     string
	Stage      string
	URL        string
	PlayedAt   *time.Time
}

type ExternalMatchStats struct {
	MatchExternalID string
	Team1           string
	Team2           string
	Score1          int
	Score2          int
	Players         []ExternalPlayerStat
}

type ExternalPlayerStat struct {
	PlayerName  string
	TeamName    string
	Agent       string
	Rating      float64
	ACS         float64
	Kills       int
	Deaths      int
	Assists     int
	KAST        float64
	ADR         float64
	HeadshotPct float64
	FirstKills  int
	FirstDeaths int
	Clutches    int
}

// CacheInvalidator drops derived read views after a committed write. Calling
// a method without ids drops the whole resource class. Calls never fail.
type CacheInvalidator interface {
	InvalidateTeams(ctx context.Context, teamIDs ...string)
	// InvalidatePlayers drops every player list variant, the given players and
	// roster views that embed player prices.
	InvalidatePlayers(ctx context.Context, playerIDs ...string)
	InvalidateMatchStats(ctx context.Context, matchIDs ...string)
	InvalidateAllMatchStats(ctx context.Context)
	InvalidateRankings(ctx context.Context, leagueIDs ...string)
	InvalidateRosters(ctx context.Context, memberIDs ...string)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateTeams(context.Context, ...string)      {}
func (noopInvalidator) InvalidatePlayers(context.Context, ...string)    {}
func (noopInvalidator) InvalidateMatchStats(context.Context, ...string) {}
func (noopInvalidator) InvalidateAllMatchStats(context.Context)         {}
func (noopInvalidator) InvalidateRankings(context.Context, ...string)   {}
func (noopInvalidator) InvalidateRosters(context.Context, ...string)    {}

func NewNoopInvalidator() CacheInvalidator {
	return noopInvalidator{}
}

// ViewCache memoizes read views that span several repositories.
type ViewCache interface {
	GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error)
}

type passthroughViewCache struct{}

func (passthroughViewCache) GetOrLoad(ctx context.Context, _ string, loader func(context.Context) (any, error)) (any, error) {
	return loader(ctx)
}

func NewPassthroughViewCache() ViewCache {
	return passthroughViewCache{}
}

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}
