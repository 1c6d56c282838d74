package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("id", teamID))
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Expr("lower(name) = lower(?)", strings.TrimSpace(name)))
}

func (r *TeamRepository) getOne(ctx context.Context, cond qb.Condition) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}
	return teamFromRow(row), true, nil
}

// Upsert keys on the case-insensitive name; empty short name or logo keep the
// stored values.
// Upsert keys on the case-insensitive name. Blank optional columns keep the
// stored values.
func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	row := teamTableModel{
		ID:        item.ID,
		Name:      strings.TrimSpace(item.Name),
		ShortName: item.ShortName,
		LogoURL:   item.LogoURL,
		Region:    string(item.Region),
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
	builder := qb.InsertModel("teams", row).OnConflict("(lower(name))")
	for _, col := range []string{"short_name", "logo_url", "region"} {
		builder = builder.DoUpdateExpr(col, "COALESCE(NULLIF(EXCLUDED."+col+", ''), teams."+col+")")
	}
	query, args, err := builder.DoUpdate("updated_at").Returning("*").ToSQL()
	if err != nil {
		return team.Team{}, fmt.Errorf("build upsert team query: %w", err)
	}

	var stored teamTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &stored, query, args...); err != nil {
		return team.Team{}, fmt.Errorf("upsert team name=%s: %w", item.Name, mapError(err))
	}
	return teamFromRow(stored), nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:        row.ID,
		Name:      row.Name,
		ShortName: row.ShortName,
		LogoURL:   row.LogoURL,
		Region:    team.Region(row.Region),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
