package match

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAlreadyProcessed is returned by writes against a processed match.
var ErrAlreadyProcessed = errors.New("match already processed")

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus accepts source labels such as "final", "LIVE" or "TBD".
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "upcoming", "tbd", "scheduled", "":
		return StatusUpcoming, true
	case "live", "ongoing":
		return StatusLive, true
	case "completed", "final", "finished":
		return StatusCompleted, true
	default:
		return "", false
	}
}

type Format string

const (
	FormatBo3 Format = "Bo3"
	FormatBo5 Format = "Bo5"
)

// MaxMapScore is the highest map count a side can reach (Bo5).
const MaxMapScore = 3

// DeduceFormat infers the series length from the map score.
func DeduceFormat(score1, score2 int) Format {
	if score1 == 3 || score2 == 3 || score1+score2 >= 4 {
		return FormatBo5
	}
	return FormatBo3
}

// NormalizeScore rejects impossible map scores: anything above MaxMapScore
// resets the series to 0-0 and a completed status back to upcoming.
func NormalizeScore(status Status, score1, score2 int) (Status, int, int) {
	if score1 > MaxMapScore || score2 > MaxMapScore || score1 < 0 || score2 < 0 {
		if status == StatusCompleted {
			status = StatusUpcoming
		}
		return status, 0, 0
	}
	return status, score1, score2
}

// SyncState tracks repeated processing failures.
type SyncState string

const (
	SyncStateOK             SyncState = "ok"
	SyncStateRetrying       SyncState = "retrying"
	SyncStateNeedsAttention SyncState = "needs_attention"
)

// Match is one series between two teams. Team ids point at the TBD team
// until both sides are known.
type Match struct {
	ID            string
	ExternalID    string
	TournamentID  string
	Team1ID       string
	Team2ID       string
	Score1        int
	Score2        int
	Status        Status
	Format        Format
	Stage         string
	URL           string
	PlayedAt      *time.Time
	Processed     bool
	ProcessedAt   *time.Time
	SyncState     SyncState
	SyncAttempts  int
	LastSyncError string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(m.ExternalID) == "" {
		return fmt.Errorf("match external id is required")
	}
	if m.TournamentID == "" {
		return fmt.Errorf("match tournament id is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("invalid match status: %s", m.Status)
	}
	if m.Processed && m.Status != StatusCompleted {
		return fmt.Errorf("only completed matches can be processed")
	}
	return nil
}

// ReadyForProcessing reports whether the match should be scored now.
func (m Match) ReadyForProcessing() bool {
	return m.Status == StatusCompleted && !m.Processed && m.SyncState != SyncStateNeedsAttention
}

// ScoreFor returns the map score from teamID's side and whether the team
// played in this match.
func (m Match) ScoreFor(teamID string) (own int, opponent int, ok bool) {
	switch {
	case teamID == "":
		return 0, 0, false
	case teamID == m.Team1ID:
		return m.Score1, m.Score2, true
	case teamID == m.Team2ID:
		return m.Score2, m.Score1, true
	default:
		return 0, 0, false
	}
}
