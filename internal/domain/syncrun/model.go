package syncrun

import (
	"context"
	"time"
)

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerJob       Trigger = "job"
	TriggerCLI       Trigger = "cli"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Run is the record of one orchestrator pass.
type Run struct {
	ID                   string
	Trigger              Trigger
	Status               Status
	StartedAt            time.Time
	FinishedAt           *time.Time
	TournamentsSeen      int
	MatchesSeen          int
	MatchesProcessed     int
	MatchesFailed        int
	MatchesNeedAttention int
	ErrorMessage         string
}

type Repository interface {
	Create(ctx context.Context, run Run) error
	Finish(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
