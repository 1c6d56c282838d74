package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
)

func TestLeagueService_CreateLeague_EnrollsAdmin(t *testing.T) {
	t.Parallel()

	env := newRosterEnv(t, nil, nil)
	detail := env.createLeague(t, "u1")

	if len(detail.League.InviteCode) != 8 {
		t.Fatalf("unexpected invite code %q", detail.League.InviteCode)
	}
	if detail.League.MaxTeams != league.DefaultMaxTeams {
		t.Fatalf("expected default max teams, got %d", detail.League.MaxTeams)
	}
	admin := detail.Members[0]
	if !admin.IsAdmin || !admin.Budget.Equal(league.AdminBudget) || admin.Rank != 1 {
		t.Fatalf("unexpected admin member: %+v", admin)
	}
}

func TestLeagueService_CreateLeague_RetriesInviteCodeCollision(t *testing.T) {
	t.Parallel()

	env := newRosterEnv(t, nil, nil)
	codes := []string{"AAAA1111", "AAAA1111", "BBBB2222"}
	env.leagues.inviteCodes = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	first := env.createLeague(t, "u1")
	second := env.createLeague(t, "u2")
	if first.League.InviteCode != "AAAA1111" || second.League.InviteCode != "BBBB2222" {
		t.Fatalf("unexpected codes %s and %s", first.League.InviteCode, second.League.InviteCode)
	}
}

func TestLeagueService_JoinLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newRosterEnv(t, nil, nil)
	detail, err := env.leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, CreateLeagueInput{Name: "Duo", MaxTeams: 2})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}

	joined, err := env.leagues.JoinLeague(ctx, user.Principal{UserID: "u2"}, JoinLeagueInput{InviteCode: " " + detail.League.InviteCode, TeamName: "Second"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.IsAdmin || !joined.Budget.Equal(league.MemberBudget) || joined.Rank < 1 || joined.Rank > 2 {
		t.Fatalf("unexpected member: %+v", joined)
	}

	tests := []struct {
		name   string
		userID string
		code   string
		want   error
	}{
		{name: "already a member", userID: "u2", code: detail.League.InviteCode, want: ErrAlreadyMember},
		{name: "league is full", userID: "u3", code: detail.League.InviteCode, want: ErrLeagueFull},
		{name: "unknown code", userID: "u3", code: "ZZZZ9999", want: ErrNotFound},
		{name: "missing caller", userID: "", code: detail.League.InviteCode, want: ErrUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.leagues.JoinLeague(ctx, user.Principal{UserID: tc.userID}, JoinLeagueInput{InviteCode: tc.code, TeamName: "Late"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	got, err := env.leagues.GetLeague(ctx, detail.League.ID)
	if err != nil {
		t.Fatalf("get league: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(got.Members))
	}
}

func TestLeagueService_CreateLeague_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	env := newRosterEnv(t, nil, nil)
	ctx := context.Background()

	if _, err := env.leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, CreateLeagueInput{Name: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := env.leagues.CreateLeague(ctx, user.Principal{UserID: "u1"}, CreateLeagueInput{Name: "Huge", MaxTeams: 1000}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for max teams, got %v", err)
	}
}
