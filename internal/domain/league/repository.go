package league

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository describes league persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item League) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByInviteCode(ctx context.Context, inviteCode string) (League, bool, error)
	ListIDs(ctx context.Context) ([]string, error)
	// LockLeague holds the league row lock until the surrounding transaction
	// ends, serializing joins against max_teams and league recomputes. Lock
	// order is league, then member rows.
	LockLeague(ctx context.Context, leagueID string) error

	CreateMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, memberID string) (Member, bool, error)
	// GetMemberForUpdate reads the member and holds its row lock until the
	// surrounding transaction ends.
	GetMemberForUpdate(ctx context.Context, memberID string) (Member, bool, error)
	GetMemberByUser(ctx context.Context, leagueID, userID string) (Member, bool, error)
	ListMembers(ctx context.Context, leagueID string) ([]Member, error)
	// ListMembersForUpdate holds every member row lock of the league, taken
	// in id order. Callers take LockLeague first.
	ListMembersForUpdate(ctx context.Context, leagueID string) ([]Member, error)
	CountMembers(ctx context.Context, leagueID string) (int, error)
	UpdateMemberBudget(ctx context.Context, memberID string, budget decimal.Decimal) error
	UpdateStandings(ctx context.Context, leagueID string, standings []Standing) error
	// UpdateMemberStanding writes points and team value of one member and
	// leaves its rank untouched.
	UpdateMemberStanding(ctx context.Context, standing Standing) error
	// ListLeagueIDsByPlayers returns leagues where any of playerIDs is or was
	// rostered.
	ListLeagueIDsByPlayers(ctx context.Context, playerIDs []string) ([]string, error)
}
