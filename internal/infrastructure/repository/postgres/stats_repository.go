package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) InsertBatch(ctx context.Context, rows []stats.PlayerMatchStats) error {
	if len(rows) == 0 {
		return nil
	}

	models := make([]statsTableModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, statsToRow(row))
	}
	query, args, err := qb.InsertModels("player_match_stats", models).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert player match stats query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		// (match_id, player_id) is unique: another writer already stored this match.
		if _, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%w: stats for match=%s exist", match.ErrAlreadyProcessed, rows[0].MatchID)
		}
		return fmt.Errorf("insert player match stats: %w", mapError(err))
	}
	return nil
}

func (r *StatsRepository) ListByMatch(ctx context.Context, matchID string) ([]stats.PlayerMatchStats, error) {
	query, args, err := qb.Select("*").From("player_match_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("fantasy_points DESC", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player match stats query: %w", err)
	}

	var rows []statsTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player match stats: %w", err)
	}

	out := make([]stats.PlayerMatchStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, statsFromRow(row))
	}
	return out, nil
}

func (r *StatsRepository) ListPlayerHistory(ctx context.Context, playerID string) ([]stats.HistoryPoint, error) {
	query, args, err := qb.Select(
		"s.match_id",
		"s.fantasy_points",
		"COALESCE(m.played_at, m.processed_at, m.updated_at) AS played_at",
	).
		From("player_match_stats s").
		Join("JOIN matches m ON m.id = s.match_id").
		Where(
			qb.Eq("s.player_id", playerID),
			qb.Eq("m.processed", true),
		).
		OrderBy("played_at DESC", "s.match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player history query: %w", err)
	}

	var rows []struct {
		MatchID       string    `db:"match_id"`
		FantasyPoints float64   `db:"fantasy_points"`
		PlayedAt      time.Time `db:"played_at"`
	}
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player history player=%s: %w", playerID, err)
	}

	out := make([]stats.HistoryPoint, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.HistoryPoint{
			MatchID:  row.MatchID,
			Points:   row.FantasyPoints,
			PlayedAt: row.PlayedAt.UTC(),
		})
	}
	return out, nil
}

func (r *StatsRepository) ListAgentsByPlayer(ctx context.Context) (map[string][]string, error) {
	query, args, err := qb.Select("player_id", "agent").From("player_match_stats").
		Where(qb.Expr("agent <> ''")).
		OrderBy("player_id", "created_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select agents query: %w", err)
	}

	var rows []struct {
		PlayerID string `db:"player_id"`
		Agent    string `db:"agent"`
	}
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select agents: %w", err)
	}

	out := make(map[string][]string)
	for _, row := range rows {
		out[row.PlayerID] = append(out[row.PlayerID], row.Agent)
	}
	return out, nil
}

func statsToRow(s stats.PlayerMatchStats) statsTableModel {
	return statsTableModel{
		ID:             s.ID,
		MatchID:        s.MatchID,
		PlayerID:       s.PlayerID,
		Agent:          s.Agent,
		Kills:          s.Kills,
		Deaths:         s.Deaths,
		Assists:        s.Assists,
		ACS:            s.ACS,
		ADR:            s.ADR,
		KAST:           s.KAST,
		HeadshotPct:    s.HeadshotPct,
		Rating:         s.Rating,
		FirstKills:     s.FirstKills,
		FirstDeaths:    s.FirstDeaths,
		Clutches:       s.Clutches,
		FantasyPoints:  s.FantasyPoints,
		ScoringVersion: s.ScoringVersion,
		CreatedAt:      s.CreatedAt.UTC(),
	}
}

func statsFromRow(row statsTableModel) stats.PlayerMatchStats {
	return stats.PlayerMatchStats{
		ID:             row.ID,
		MatchID:        row.MatchID,
		PlayerID:       row.PlayerID,
		Agent:          row.Agent,
		Kills:          row.Kills,
		Deaths:         row.Deaths,
		Assists:        row.Assists,
		ACS:            row.ACS,
		ADR:            row.ADR,
		KAST:           row.KAST,
		HeadshotPct:    row.HeadshotPct,
		Rating:         row.Rating,
		FirstKills:     row.FirstKills,
		FirstDeaths:    row.FirstDeaths,
		Clutches:       row.Clutches,
		FantasyPoints:  row.FantasyPoints,
		ScoringVersion: row.ScoringVersion,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
