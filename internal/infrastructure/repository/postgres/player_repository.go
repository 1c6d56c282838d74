package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db, now: time.Now}
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	conditions := make([]qb.Condition, 0, 4)
	if filter.Role != "" {
		conditions = append(conditions, qb.Eq("role", string(filter.Role)))
	}
	if filter.Region != "" {
		conditions = append(conditions, qb.Eq("region", string(filter.Region)))
	}
	if filter.TeamID != "" {
		conditions = append(conditions, qb.Eq("team_id", filter.TeamID))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, qb.Expr("current_tournament_id IS NOT NULL"))
	}

	query, args, err := qb.Select("*").From("players").
		Where(conditions...).
		OrderBy("current_price DESC", "name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Eq("id", playerID))
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (player.Player, bool, error) {
	return r.getOne(ctx, qb.Expr("lower(name) = lower(?)", strings.TrimSpace(name)))
}

func (r *PlayerRepository) getOne(ctx context.Context, cond qb.Condition) (player.Player, bool, error) {
	query, args, err := qb.Select("*").From("players").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("players").
		Where(qb.In("id", stringSliceToAny(playerIDs))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	var rows []playerTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by ids: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, playerFromRow(row))
	}
	return out, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) (player.Player, error) {
	row := playerTableModel{
		ID:                  item.ID,
		Name:                strings.TrimSpace(item.Name),
		TeamID:              nullString(item.TeamID),
		Role:                string(item.Role),
		Region:              string(item.Region),
		BasePrice:           item.BasePrice,
		CurrentPrice:        item.CurrentPrice,
		Points:              item.Points,
		MatchesPlayed:       item.MatchesPlayed,
		CurrentTournamentID: nullString(item.CurrentTournamentID),
		CreatedAt:           item.CreatedAt.UTC(),
		UpdatedAt:           item.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("players", row).ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build insert player query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return player.Player{}, fmt.Errorf("player name %q already exists (%s)", item.Name, constraint)
		}
		return player.Player{}, fmt.Errorf("insert player: %w", mapError(err))
	}
	return item, nil
}

func (r *PlayerRepository) update(ctx context.Context, playerID string, builder *qb.UpdateBuilder) error {
	query, args, err := builder.
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player=%s: %w", playerID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("player %s not found", playerID))
}

func (r *PlayerRepository) UpdateTeam(ctx context.Context, playerID, teamID string) error {
	return r.update(ctx, playerID, qb.Update("players").Set("team_id", nullString(teamID)))
}

func (r *PlayerRepository) UpdateRole(ctx context.Context, playerID string, role player.Role) error {
	return r.update(ctx, playerID, qb.Update("players").Set("role", string(role)))
}

func (r *PlayerRepository) UpdateValuation(ctx context.Context, playerID string, valuation player.Valuation) error {
	return r.update(ctx, playerID, qb.Update("players").
		Set("points", valuation.Points).
		Set("matches_played", valuation.MatchesPlayed).
		Set("current_price", valuation.CurrentPrice))
}

func (r *PlayerRepository) LockForUpdate(ctx context.Context, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	ids := append([]string(nil), playerIDs...)
	sort.Strings(ids)

	query, args, err := qb.Select("id").From("players").
		Where(qb.In("id", stringSliceToAny(ids))).
		OrderBy("id").
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock players query: %w", err)
	}

	var locked []string
	if err := conn(ctx, r.db).SelectContext(ctx, &locked, query, args...); err != nil {
		return fmt.Errorf("lock players: %w", mapError(err))
	}
	return nil
}

func (r *PlayerRepository) SetCurrentTournament(ctx context.Context, tournamentID string, teamIDs []string) (int, int, error) {
	now := r.now().UTC()
	db := conn(ctx, r.db)
	if teamIDs == nil {
		// pq encodes a nil slice as NULL, which ANY() never matches.
		teamIDs = []string{}
	}

	const activateQuery = `
UPDATE players
SET current_tournament_id = $1, updated_at = $2
WHERE team_id = ANY($3)`
	res, err := db.ExecContext(ctx, activateQuery, tournamentID, now, pq.Array(teamIDs))
	if err != nil {
		return 0, 0, fmt.Errorf("activate players tournament=%s: %w", tournamentID, mapError(err))
	}
	activated, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("rows affected: %w", err)
	}

	const deactivateQuery = `
UPDATE players
SET current_tournament_id = NULL, updated_at = $1
WHERE current_tournament_id IS NOT NULL
  AND (team_id IS NULL OR NOT (team_id = ANY($2)))`
	res, err = db.ExecContext(ctx, deactivateQuery, now, pq.Array(teamIDs))
	if err != nil {
		return 0, 0, fmt.Errorf("deactivate players: %w", mapError(err))
	}
	deactivated, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(activated), int(deactivated), nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:                  row.ID,
		Name:                row.Name,
		TeamID:              row.TeamID.String,
		Role:                player.Role(row.Role),
		Region:              team.Region(row.Region),
		BasePrice:           row.BasePrice,
		CurrentPrice:        row.CurrentPrice,
		Points:              row.Points,
		MatchesPlayed:       row.MatchesPlayed,
		CurrentTournamentID: row.CurrentTournamentID.String,
		CreatedAt:           row.CreatedAt.UTC(),
		UpdatedAt:           row.UpdatedAt.UTC(),
	}
}
