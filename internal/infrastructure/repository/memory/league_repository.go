package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/shopspring/decimal"
)

type LeagueRepository struct {
	store *Store
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, existing := range t.leagues {
			if strings.EqualFold(existing.InviteCode, item.InviteCode) {
				return league.ErrInviteCodeTaken
			}
		}
		t.leagues[item.ID] = item
		return nil
	})
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	var (
		item   league.League
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.leagues[leagueID]
	})
	return item, exists, nil
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	var (
		item   league.League
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		for _, candidate := range t.leagues {
			if strings.EqualFold(candidate.InviteCode, inviteCode) {
				item, exists = candidate, true
				return
			}
		}
	})
	return item, exists, nil
}

func (r *LeagueRepository) ListIDs(ctx context.Context) ([]string, error) {
	var out []string
	r.store.read(ctx, func(t *tables) {
		for id := range t.leagues {
			out = append(out, id)
		}
	})
	sort.Strings(out)
	return out, nil
}

func (r *LeagueRepository) LockLeague(context.Context, string) error {
	return nil
}

func (r *LeagueRepository) CreateMember(ctx context.Context, member league.Member) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, existing := range t.members {
			if existing.LeagueID == member.LeagueID && existing.UserID == member.UserID {
				return fmt.Errorf("%w: user=%s league=%s", league.ErrMemberExists, member.UserID, member.LeagueID)
			}
		}
		t.members[member.ID] = member
		return nil
	})
}

func (r *LeagueRepository) GetMember(ctx context.Context, memberID string) (league.Member, bool, error) {
	var (
		item   league.Member
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.members[memberID]
	})
	return item, exists, nil
}

// GetMemberForUpdate reads like GetMember; transactions already hold the
// store mutex.
func (r *LeagueRepository) GetMemberForUpdate(ctx context.Context, memberID string) (league.Member, bool, error) {
	return r.GetMember(ctx, memberID)
}

func (r *LeagueRepository) GetMemberByUser(ctx context.Context, leagueID, userID string) (league.Member, bool, error) {
	var (
		item   league.Member
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		for _, m := range t.members {
			if m.LeagueID == leagueID && m.UserID == userID {
				item, exists = m, true
				return
			}
		}
	})
	return item, exists, nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	var out []league.Member
	r.store.read(ctx, func(t *tables) {
		for _, m := range t.members {
			if m.LeagueID == leagueID {
				out = append(out, m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListMembersForUpdate reads like ListMembers; transactions already hold the
// store mutex.
func (r *LeagueRepository) ListMembersForUpdate(ctx context.Context, leagueID string) ([]league.Member, error) {
	return r.ListMembers(ctx, leagueID)
}

func (r *LeagueRepository) CountMembers(ctx context.Context, leagueID string) (int, error) {
	count := 0
	r.store.read(ctx, func(t *tables) {
		for _, m := range t.members {
			if m.LeagueID == leagueID {
				count++
			}
		}
	})
	return count, nil
}

func (r *LeagueRepository) UpdateMemberBudget(ctx context.Context, memberID string, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return fmt.Errorf("member %s budget must not be negative", memberID)
	}
	return r.store.write(ctx, func(t *tables) error {
		m, ok := t.members[memberID]
		if !ok {
			return fmt.Errorf("member %s not found", memberID)
		}
		m.Budget = budget
		t.members[memberID] = m
		return nil
	})
}

func (r *LeagueRepository) UpdateStandings(ctx context.Context, leagueID string, standings []league.Standing) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, st := range standings {
			m, ok := t.members[st.MemberID]
			if !ok || m.LeagueID != leagueID {
				return fmt.Errorf("member %s not in league %s", st.MemberID, leagueID)
			}
			m.TotalPoints = st.TotalPoints
			m.TeamValue = st.TeamValue
			m.Rank = st.Rank
			t.members[st.MemberID] = m
		}
		return nil
	})
}

func (r *LeagueRepository) UpdateMemberStanding(ctx context.Context, st league.Standing) error {
	return r.store.write(ctx, func(t *tables) error {
		m, ok := t.members[st.MemberID]
		if !ok {
			return fmt.Errorf("member %s not found", st.MemberID)
		}
		m.TotalPoints = st.TotalPoints
		m.TeamValue = st.TeamValue
		t.members[st.MemberID] = m
		return nil
	})
}

func (r *LeagueRepository) ListLeagueIDsByPlayers(ctx context.Context, playerIDs []string) ([]string, error) {
	wanted := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		wanted[id] = struct{}{}
	}

	set := make(map[string]struct{})
	r.store.read(ctx, func(t *tables) {
		for _, e := range t.roster {
			if _, ok := wanted[e.PlayerID]; !ok {
				continue
			}
			if m, ok := t.members[e.MemberID]; ok {
				set[m.LeagueID] = struct{}{}
			}
		}
	})

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
