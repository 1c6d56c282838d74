package team

import "context"

// Repository describes pro team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByName(ctx context.Context, name string) (Team, bool, error)
	// Upsert inserts by name or updates logo/region of the existing row.
	Upsert(ctx context.Context, item Team) (Team, error)
}
