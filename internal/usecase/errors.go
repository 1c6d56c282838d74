package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrInvalidExternalData   = errors.New("invalid external data")

	ErrInsufficientBudget     = errors.New("insufficient budget")
	ErrSlotOccupied           = errors.New("slot occupied")
	ErrDuplicatePlayer        = errors.New("duplicate player")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrTeamLimitReached       = errors.New("team limit reached")
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrMatchAlreadyProcessed is an idempotent no-op signal; callers treat it
	// as success.
	ErrMatchAlreadyProcessed = errors.New("match already processed")

	ErrLeagueFull     = errors.New("league full")
	ErrAlreadyMember  = errors.New("already a league member")
	ErrSyncInProgress = errors.New("sync already in progress")
)
