package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

const (
	constraintInviteCode = "leagues_invite_code_key"
	constraintMemberUser = "league_members_league_id_user_id_key"
)

type LeagueRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db, now: time.Now}
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	row := leagueTableModel{
		ID:          item.ID,
		Name:        item.Name,
		AdminUserID: item.AdminUserID,
		InviteCode:  strings.ToUpper(item.InviteCode),
		MaxTeams:    item.MaxTeams,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("leagues", row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert league query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintInviteCode {
			return fmt.Errorf("%w: %s", league.ErrInviteCodeTaken, item.InviteCode)
		}
		return fmt.Errorf("insert league: %w", mapError(err))
	}
	return nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.getOne(ctx, qb.Eq("id", leagueID))
}

func (r *LeagueRepository) GetByInviteCode(ctx context.Context, inviteCode string) (league.League, bool, error) {
	return r.getOne(ctx, qb.Eq("invite_code", strings.ToUpper(strings.TrimSpace(inviteCode))))
}

func (r *LeagueRepository) getOne(ctx context.Context, cond qb.Condition) (league.League, bool, error) {
	query, args, err := qb.Select("*").From("leagues").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league query: %w", err)
	}

	var row leagueTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("select league: %w", err)
	}
	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("id").From("leagues").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league ids query: %w", err)
	}

	var ids []string
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select league ids: %w", err)
	}
	return ids, nil
}

func (r *LeagueRepository) LockLeague(ctx context.Context, leagueID string) error {
	query, args, err := qb.Select("id").From("leagues").
		Where(qb.Eq("id", leagueID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock league query: %w", err)
	}

	var id string
	if err := conn(ctx, r.db).GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("league %s not found", leagueID)
		}
		return fmt.Errorf("lock league=%s: %w", leagueID, mapError(err))
	}
	return nil
}

func (r *LeagueRepository) CreateMember(ctx context.Context, member league.Member) error {
	row := leagueMemberTableModel{
		ID:            member.ID,
		LeagueID:      member.LeagueID,
		UserID:        member.UserID,
		TeamName:      member.TeamName,
		Budget:        member.Budget,
		InitialBudget: member.InitialBudget,
		TotalPoints:   member.TotalPoints,
		TeamValue:     member.TeamValue,
		Rank:          member.Rank,
		IsAdmin:       member.IsAdmin,
		JoinedAt:      member.JoinedAt.UTC(),
		UpdatedAt:     member.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("league_members", row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert league member query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintMemberUser {
			return fmt.Errorf("%w: league=%s user=%s", league.ErrMemberExists, member.LeagueID, member.UserID)
		}
		return fmt.Errorf("insert league member: %w", mapError(err))
	}
	return nil
}

func (r *LeagueRepository) GetMember(ctx context.Context, memberID string) (league.Member, bool, error) {
	return r.getMember(ctx, qb.Select("*").From("league_members").Where(qb.Eq("id", memberID)))
}

func (r *LeagueRepository) GetMemberForUpdate(ctx context.Context, memberID string) (league.Member, bool, error) {
	return r.getMember(ctx, qb.Select("*").From("league_members").Where(qb.Eq("id", memberID)).ForUpdate())
}

func (r *LeagueRepository) GetMemberByUser(ctx context.Context, leagueID, userID string) (league.Member, bool, error) {
	return r.getMember(ctx, qb.Select("*").From("league_members").Where(
		qb.Eq("league_id", leagueID),
		qb.Eq("user_id", userID),
	))
}

func (r *LeagueRepository) getMember(ctx context.Context, builder *qb.SelectBuilder) (league.Member, bool, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return league.Member{}, false, fmt.Errorf("build select league member query: %w", err)
	}

	var row leagueMemberTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.Member{}, false, nil
		}
		return league.Member{}, false, fmt.Errorf("select league member: %w", mapError(err))
	}
	return memberFromRow(row), true, nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	query, args, err := qb.Select("*").From("league_members").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league members query: %w", err)
	}

	var rows []leagueMemberTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league members: %w", err)
	}

	out := make([]league.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

// ListMembersForUpdate locks every member row of the league in id order.
func (r *LeagueRepository) ListMembersForUpdate(ctx context.Context, leagueID string) ([]league.Member, error) {
	query, args, err := qb.Select("*").From("league_members").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build lock league members query: %w", err)
	}

	var rows []leagueMemberTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("lock league members league=%s: %w", leagueID, mapError(err))
	}

	out := make([]league.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) CountMembers(ctx context.Context, leagueID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("league_members").
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count league members query: %w", err)
	}

	var count int
	if err := conn(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count league members: %w", err)
	}
	return count, nil
}

func (r *LeagueRepository) UpdateMemberBudget(ctx context.Context, memberID string, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return fmt.Errorf("member %s budget must not be negative", memberID)
	}

	query, args, err := qb.Update("league_members").
		Set("budget", budget).
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", memberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update member budget query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member budget member=%s: %w", memberID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("member %s not found", memberID))
}

func (r *LeagueRepository) UpdateStandings(ctx context.Context, leagueID string, standings []league.Standing) error {
	now := r.now().UTC()
	db := conn(ctx, r.db)
	for _, st := range standings {
		query, args, err := qb.Update("league_members").
			Set("total_points", st.TotalPoints).
			Set("team_value", st.TeamValue).
			Set("rank", st.Rank).
			Set("updated_at", now).
			Where(
				qb.Eq("id", st.MemberID),
				qb.Eq("league_id", leagueID),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update standings query: %w", err)
		}

		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update standings member=%s: %w", st.MemberID, mapError(err))
		}
		if err := expectOneRow(res, fmt.Errorf("member %s not in league %s", st.MemberID, leagueID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *LeagueRepository) UpdateMemberStanding(ctx context.Context, st league.Standing) error {
	query, args, err := qb.Update("league_members").
		Set("total_points", st.TotalPoints).
		Set("team_value", st.TeamValue).
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", st.MemberID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update member standing query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member standing member=%s: %w", st.MemberID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("member %s not found", st.MemberID))
}

func (r *LeagueRepository) ListLeagueIDsByPlayers(ctx context.Context, playerIDs []string) ([]string, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("DISTINCT m.league_id").
		From("roster_entries e").
		Join("JOIN league_members m ON m.id = e.member_id").
		Where(qb.In("e.player_id", stringSliceToAny(playerIDs))).
		OrderBy("m.league_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues by players query: %w", err)
	}

	var ids []string
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues by players: %w", err)
	}
	return ids, nil
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:          row.ID,
		Name:        row.Name,
		AdminUserID: row.AdminUserID,
		InviteCode:  row.InviteCode,
		MaxTeams:    row.MaxTeams,
		Status:      league.Status(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func memberFromRow(row leagueMemberTableModel) league.Member {
	return league.Member{
		ID:            row.ID,
		LeagueID:      row.LeagueID,
		UserID:        row.UserID,
		TeamName:      row.TeamName,
		Budget:        row.Budget,
		InitialBudget: row.InitialBudget,
		TotalPoints:   row.TotalPoints,
		TeamValue:     row.TeamValue,
		Rank:          row.Rank,
		IsAdmin:       row.IsAdmin,
		JoinedAt:      row.JoinedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
