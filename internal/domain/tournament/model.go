package tournament

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
)

// Status is the tournament lifecycle. It only ever moves forward.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

func (s Status) rank() int {
	switch s {
	case StatusUpcoming:
		return 1
	case StatusOngoing:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

func (s Status) Valid() bool {
	return s.rank() > 0
}

// ParseStatus accepts the labels used by event listings ("upcoming",
// "ongoing", "completed", "live", "finished").
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "upcoming":
		return StatusUpcoming, true
	case "ongoing", "live", "in progress":
		return StatusOngoing, true
	case "completed", "finished":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// Advance returns the status to persist when current is observed as
// incoming: a regression is ignored.
func Advance(current, incoming Status) Status {
	if !incoming.Valid() {
		return current
	}
	if !current.Valid() || incoming.rank() > current.rank() {
		return incoming
	}
	return current
}

// Tournament is a professional event discovered from the metadata source.
type Tournament struct {
	ID           string
	ExternalID   string
	Name         string
	Region       team.Region
	Status       Status
	EventPath    string
	StartDate    *time.Time
	EndDate      *time.Time
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t Tournament) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tournament id is required")
	}
	if strings.TrimSpace(t.ExternalID) == "" {
		return fmt.Errorf("tournament external id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tournament name is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid tournament status: %s", t.Status)
	}
	return nil
}
