package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, tournamentID string) (Tournament, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Tournament, bool, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Tournament, error)
	Upsert(ctx context.Context, item Tournament) (Tournament, error)
	LinkTeams(ctx context.Context, tournamentID string, teamIDs []string) error
	ListTeamIDs(ctx context.Context, tournamentID string) ([]string, error)
}
