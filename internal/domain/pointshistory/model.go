package pointshistory

import (
	"context"
	"time"
)

// Snapshot records a user's points across all leagues at one recompute.
type Snapshot struct {
	ID          string
	UserID      string
	LeagueID    string
	MemberID    string
	TotalPoints float64
	Rank        int
	RecordedAt  time.Time
}

type Repository interface {
	Append(ctx context.Context, snapshots ...Snapshot) error
	ListByMember(ctx context.Context, memberID string, limit int) ([]Snapshot, error)
}
