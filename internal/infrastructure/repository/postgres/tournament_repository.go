package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	return r.getOne(ctx, qb.Eq("id", tournamentID))
}

func (r *TournamentRepository) GetByExternalID(ctx context.Context, externalID string) (tournament.Tournament, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *TournamentRepository) getOne(ctx context.Context, cond qb.Condition) (tournament.Tournament, bool, error) {
	query, args, err := qb.Select("*").From("tournaments").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return tournament.Tournament{}, false, fmt.Errorf("build select tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("select tournament: %w", err)
	}
	return tournamentFromRow(row), true, nil
}

func (r *TournamentRepository) ListByStatus(ctx context.Context, statuses ...tournament.Status) ([]tournament.Tournament, error) {
	builder := qb.Select("*").From("tournaments").OrderBy("external_id")
	if len(statuses) > 0 {
		values := make([]any, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		builder = builder.Where(qb.In("status", values))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, tournamentFromRow(row))
	}
	return out, nil
}

// Upsert keys on the VLR event id. Known dates are never cleared by a page
// that omits them.
func (r *TournamentRepository) Upsert(ctx context.Context, item tournament.Tournament) (tournament.Tournament, error) {
	query, args, err := qb.InsertModel("tournaments", tournamentToRow(item)).
		OnConflict("external_id").
		DoUpdate("name", "region", "status", "event_path", "last_synced_at", "updated_at").
		DoUpdateExpr("start_date", "COALESCE(EXCLUDED.start_date, tournaments.start_date)").
		DoUpdateExpr("end_date", "COALESCE(EXCLUDED.end_date, tournaments.end_date)").
		Returning("*").
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build upsert tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		return tournament.Tournament{}, fmt.Errorf("upsert tournament external_id=%s: %w", item.ExternalID, mapError(err))
	}
	return tournamentFromRow(row), nil
}

func (r *TournamentRepository) LinkTeams(ctx context.Context, tournamentID string, teamIDs []string) error {
	if len(teamIDs) == 0 {
		return nil
	}

	builder := qb.InsertInto("tournament_teams").Columns("tournament_id", "team_id")
	for _, teamID := range teamIDs {
		builder = builder.Values(tournamentID, teamID)
	}
	query, args, err := builder.OnConflict().DoNothing().ToSQL()
	if err != nil {
		return fmt.Errorf("build insert tournament teams query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("link tournament teams tournament=%s: %w", tournamentID, mapError(err))
	}
	return nil
}

func (r *TournamentRepository) ListTeamIDs(ctx context.Context, tournamentID string) ([]string, error) {
	query, args, err := qb.Select("team_id").From("tournament_teams").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select tournament teams query: %w", err)
	}

	var ids []string
	if err := conn(ctx, r.db).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select tournament teams: %w", err)
	}
	return ids, nil
}

func tournamentToRow(item tournament.Tournament) tournamentTableModel {
	return tournamentTableModel{
		ID:           item.ID,
		ExternalID:   item.ExternalID,
		Name:         item.Name,
		Region:       string(item.Region),
		Status:       string(item.Status),
		EventPath:    item.EventPath,
		StartDate:    nullTime(item.StartDate),
		EndDate:      nullTime(item.EndDate),
		LastSyncedAt: nullTime(item.LastSyncedAt),
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
}

func tournamentFromRow(row tournamentTableModel) tournament.Tournament {
	return tournament.Tournament{
		ID:           row.ID,
		ExternalID:   row.ExternalID,
		Name:         row.Name,
		Region:       team.Region(row.Region),
		Status:       tournament.Status(row.Status),
		EventPath:    row.EventPath,
		StartDate:    timePtr(row.StartDate),
		EndDate:      timePtr(row.EndDate),
		LastSyncedAt: timePtr(row.LastSyncedAt),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}
