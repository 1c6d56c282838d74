package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	GetByExternalID(ctx context.Context, externalID string) (Match, bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Match, error)
	// ListReadyForProcessing returns completed, unprocessed matches that are
	// not flagged for manual attention.
	ListReadyForProcessing(ctx context.Context) ([]Match, error)
	ListNeedsAttention(ctx context.Context) ([]Match, error)
	// Upsert writes by external id. It returns ErrAlreadyProcessed without
	// writing when the stored match is processed.
	Upsert(ctx context.Context, item Match) (Match, error)
	// MarkProcessed flips processed from false to true; ErrAlreadyProcessed
	// when another writer won.
	MarkProcessed(ctx context.Context, matchID string) error
	UpdateSyncState(ctx context.Context, matchID string, state SyncState, attempts int, lastError string) error
}
