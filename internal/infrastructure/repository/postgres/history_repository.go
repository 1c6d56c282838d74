package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pointshistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

type PriceHistoryRepository struct {
	db *sqlx.DB
}

func NewPriceHistoryRepository(db *sqlx.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db: db}
}

func (r *PriceHistoryRepository) Append(ctx context.Context, entries ...pricehistory.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	builder := qb.InsertInto("price_history").Columns("id", "player_id", "price", "reason", "match_id", "recorded_at")
	for _, e := range entries {
		builder = builder.Values(e.ID, e.PlayerID, e.Price, string(e.Reason), nullString(e.MatchID), e.RecordedAt.UTC())
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert price history query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert price history: %w", mapError(err))
	}
	return nil
}

func (r *PriceHistoryRepository) ListByPlayer(ctx context.Context, playerID string) ([]pricehistory.Entry, error) {
	query, args, err := qb.Select("*").From("price_history").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("recorded_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select price history query: %w", err)
	}

	var rows []priceHistoryTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select price history: %w", err)
	}

	out := make([]pricehistory.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, pricehistory.Entry{
			ID:         row.ID,
			PlayerID:   row.PlayerID,
			Price:      row.Price,
			Reason:     pricehistory.Reason(row.Reason),
			MatchID:    row.MatchID.String,
			RecordedAt: row.RecordedAt.UTC(),
		})
	}
	return out, nil
}

type PointsHistoryRepository struct {
	db *sqlx.DB
}

func NewPointsHistoryRepository(db *sqlx.DB) *PointsHistoryRepository {
	return &PointsHistoryRepository{db: db}
}

func (r *PointsHistoryRepository) Append(ctx context.Context, snapshots ...pointshistory.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	builder := qb.InsertInto("points_history").
		Columns("id", "user_id", "league_id", "member_id", "total_points", "rank", "recorded_at")
	for _, s := range snapshots {
		builder = builder.Values(s.ID, s.UserID, s.LeagueID, s.MemberID, s.TotalPoints, s.Rank, s.RecordedAt.UTC())
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert points history query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert points history: %w", mapError(err))
	}
	return nil
}

func (r *PointsHistoryRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]pointshistory.Snapshot, error) {
	query, args, err := qb.Select("*").From("points_history").
		Where(qb.Eq("member_id", memberID)).
		OrderBy("recorded_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select points history query: %w", err)
	}

	var rows []pointsSnapshotTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select points history: %w", err)
	}

	out := make([]pointshistory.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, pointshistory.Snapshot{
			ID:          row.ID,
			UserID:      row.UserID,
			LeagueID:    row.LeagueID,
			MemberID:    row.MemberID,
			TotalPoints: row.TotalPoints,
			Rank:        row.Rank,
			RecordedAt:  row.RecordedAt.UTC(),
		})
	}
	return out, nil
}

type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run syncrun.Run) error {
	query, args, err := qb.InsertModel("sync_runs", syncRunToRow(run)).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run: %w", mapError(err))
	}
	return nil
}

func (r *SyncRunRepository) Finish(ctx context.Context, run syncrun.Run) error {
	row := syncRunToRow(run)
	query, args, err := qb.Update("sync_runs").
		Set("status", row.Status).
		Set("finished_at", row.FinishedAt).
		Set("tournaments_seen", row.TournamentsSeen).
		Set("matches_seen", row.MatchesSeen).
		Set("matches_processed", row.MatchesProcessed).
		Set("matches_failed", row.MatchesFailed).
		Set("matches_need_attention", row.MatchesNeedAttention).
		Set("error_message", row.ErrorMessage).
		Where(qb.Eq("id", run.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish sync run query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish sync run=%s: %w", run.ID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("sync run %s not found", run.ID))
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	query, args, err := qb.Select("*").From("sync_runs").
		OrderBy("started_at DESC", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sync runs: %w", err)
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncrun.Run{
			ID:                   row.ID,
			Trigger:              syncrun.Trigger(row.Trigger),
			Status:               syncrun.Status(row.Status),
			StartedAt:            row.StartedAt.UTC(),
			FinishedAt:           timePtr(row.FinishedAt),
			TournamentsSeen:      row.TournamentsSeen,
			MatchesSeen:          row.MatchesSeen,
			MatchesProcessed:     row.MatchesProcessed,
			MatchesFailed:        row.MatchesFailed,
			MatchesNeedAttention: row.MatchesNeedAttention,
			ErrorMessage:         row.ErrorMessage,
		})
	}
	return out, nil
}

func syncRunToRow(run syncrun.Run) syncRunTableModel {
	return syncRunTableModel{
		ID:                   run.ID,
		Trigger:              string(run.Trigger),
		Status:               string(run.Status),
		StartedAt:            run.StartedAt.UTC(),
		FinishedAt:           nullTime(run.FinishedAt),
		TournamentsSeen:      run.TournamentsSeen,
		MatchesSeen:          run.MatchesSeen,
		MatchesProcessed:     run.MatchesProcessed,
		MatchesFailed:        run.MatchesFailed,
		MatchesNeedAttention: run.MatchesNeedAttention,
		ErrorMessage:         run.ErrorMessage,
	}
}
