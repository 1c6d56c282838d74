package league

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInviteCodeTaken is returned when a new league's invite code collides
	// with an existing one.
	ErrInviteCodeTaken = errors.New("invite code taken")
	// ErrMemberExists is returned when the user already belongs to the league.
	ErrMemberExists = errors.New("league member exists")
)

type Status string

const (
	StatusDrafting Status = "drafting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

const (
	DefaultMaxTeams = 10
	MaxTeamsLimit   = 100
)

var (
	AdminBudget  = decimal.NewFromInt(200)
	MemberBudget = decimal.NewFromInt(150)
)

// League is an invite-coded fantasy competition.
type League struct {
	ID          string
	Name        string
	AdminUserID string
	InviteCode  string
	MaxTeams    int
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("league name is required")
	}
	if l.AdminUserID == "" {
		return fmt.Errorf("league admin is required")
	}
	if l.InviteCode == "" {
		return fmt.Errorf("league invite code is required")
	}
	if l.MaxTeams < 2 || l.MaxTeams > MaxTeamsLimit {
		return fmt.Errorf("league max teams must be between 2 and %d", MaxTeamsLimit)
	}
	return nil
}

// Member is one user's participation in a league. Budget is the remaining
// spendable capital; TotalPoints, TeamValue and Rank are derived by the
// ranking recompute and never written by roster operations directly.
type Member struct {
	ID            string
	LeagueID      string
	UserID        string
	TeamName      string
	Budget        decimal.Decimal
	InitialBudget decimal.Decimal
	TotalPoints   float64
	TeamValue     decimal.Decimal
	Rank          int
	IsAdmin       bool
	JoinedAt      time.Time
	UpdatedAt     time.Time
}

func (m Member) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("member id is required")
	}
	if m.LeagueID == "" {
		return fmt.Errorf("member league id is required")
	}
	if m.UserID == "" {
		return fmt.Errorf("member user id is required")
	}
	if strings.TrimSpace(m.TeamName) == "" {
		return fmt.Errorf("member team name is required")
	}
	if m.Budget.IsNegative() {
		return fmt.Errorf("member budget must not be negative")
	}
	return nil
}

// Standing is the derived ranking state of a member.
type Standing struct {
	MemberID    string
	TotalPoints float64
	TeamValue   decimal.Decimal
	Rank        int
}
