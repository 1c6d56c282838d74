package stats

import "context"

// Repository describes per-match player statistics persistence.
type Repository interface {
	InsertBatch(ctx context.Context, rows []PlayerMatchStats) error
	ListByMatch(ctx context.Context, matchID string) ([]PlayerMatchStats, error)
	// ListPlayerHistory returns the player's appearances in processed
	// matches, most recent first.
	ListPlayerHistory(ctx context.Context, playerID string) ([]HistoryPoint, error)
	// ListAgentsByPlayer returns every agent each player has been recorded on.
	ListAgentsByPlayer(ctx context.Context) (map[string][]string, error)
}
