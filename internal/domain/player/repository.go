package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Player, error)
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	GetByIDs(ctx context.Context, playerIDs []string) ([]Player, error)
	GetByName(ctx context.Context, name string) (Player, bool, error)
	Create(ctx context.Context, item Player) (Player, error)
	UpdateTeam(ctx context.Context, playerID, teamID string) error
	UpdateRole(ctx context.Context, playerID string, role Role) error
	UpdateValuation(ctx context.Context, playerID string, valuation Valuation) error
	// LockForUpdate holds row locks on the players, taken in id order, until
	// the surrounding transaction ends.
	LockForUpdate(ctx context.Context, playerIDs []string) error
	// SetCurrentTournament activates players of teamIDs for tournamentID and
	// clears every other player.
	SetCurrentTournament(ctx context.Context, tournamentID string, teamIDs []string) (activated int, deactivated int, err error)
}
