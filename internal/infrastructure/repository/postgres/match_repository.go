package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
)

// matchOrder sorts by the instant a match counts toward rosters.
const matchOrder = "COALESCE(played_at, processed_at, updated_at)"

type MatchRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db, now: time.Now}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	return r.getOne(ctx, qb.Eq("id", matchID))
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID))
}

func (r *MatchRepository) getOne(ctx context.Context, cond qb.Condition) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").Where(cond).Limit(1).ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match query: %w", err)
	}

	var row matchTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match: %w", err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) list(ctx context.Context, conditions ...qb.Condition) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(conditions...).
		OrderBy(matchOrder, "external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]match.Match, error) {
	return r.list(ctx, qb.Eq("tournament_id", tournamentID))
}

func (r *MatchRepository) ListReadyForProcessing(ctx context.Context) ([]match.Match, error) {
	return r.list(ctx,
		qb.Eq("status", string(match.StatusCompleted)),
		qb.Eq("processed", false),
		qb.Expr("sync_state <> ?", string(match.SyncStateNeedsAttention)),
	)
}

func (r *MatchRepository) ListNeedsAttention(ctx context.Context) ([]match.Match, error) {
	return r.list(ctx,
		qb.Eq("processed", false),
		qb.Eq("sync_state", string(match.SyncStateNeedsAttention)),
	)
}

// Upsert leaves processed rows untouched: the conflict update is guarded by
// processed = false, so RETURNING yields nothing for them.
func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	const upsertQuery = `
INSERT INTO matches (
    id, external_id, tournament_id, team1_id, team2_id, score1, score2, status, format,
    stage, url, played_at, processed, sync_state, sync_attempts, last_sync_error, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, $13, 0, '', $14, $15)
ON CONFLICT (external_id)
DO UPDATE SET
    tournament_id = EXCLUDED.tournament_id,
    team1_id = EXCLUDED.team1_id,
    team2_id = EXCLUDED.team2_id,
    score1 = EXCLUDED.score1,
    score2 = EXCLUDED.score2,
    status = EXCLUDED.status,
    format = EXCLUDED.format,
    stage = EXCLUDED.stage,
    url = EXCLUDED.url,
    played_at = COALESCE(EXCLUDED.played_at, matches.played_at),
    updated_at = EXCLUDED.updated_at
WHERE matches.processed = false
RETURNING *`

	syncState := item.SyncState
	if syncState == "" {
		syncState = match.SyncStateOK
	}

	var row matchTableModel
	err := conn(ctx, r.db).GetContext(ctx, &row, upsertQuery,
		item.ID,
		item.ExternalID,
		item.TournamentID,
		nullString(item.Team1ID),
		nullString(item.Team2ID),
		item.Score1,
		item.Score2,
		string(item.Status),
		string(item.Format),
		item.Stage,
		item.URL,
		nullTime(item.PlayedAt),
		string(syncState),
		item.CreatedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	if err != nil {
		if isNotFound(err) {
			return match.Match{}, match.ErrAlreadyProcessed
		}
		return match.Match{}, fmt.Errorf("upsert match external_id=%s: %w", item.ExternalID, mapError(err))
	}
	return matchFromRow(row), nil
}

func (r *MatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	now := r.now().UTC()
	query, args, err := qb.Update("matches").
		Set("processed", true).
		Set("processed_at", now).
		Set("updated_at", now).
		Where(
			qb.Eq("id", matchID),
			qb.Eq("processed", false),
			qb.Eq("status", string(match.StatusCompleted)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark match processed query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark match processed match=%s: %w", matchID, mapError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing flipped; tell the caller why.
	current, exists, err := r.GetByID(ctx, matchID)
	switch {
	case err != nil:
		return err
	case !exists:
		return fmt.Errorf("match %s not found", matchID)
	case current.Processed:
		return match.ErrAlreadyProcessed
	default:
		return fmt.Errorf("match %s is not completed", matchID)
	}
}

func (r *MatchRepository) UpdateSyncState(ctx context.Context, matchID string, state match.SyncState, attempts int, lastError string) error {
	query, args, err := qb.Update("matches").
		Set("sync_state", string(state)).
		Set("sync_attempts", attempts).
		Set("last_sync_error", lastError).
		Set("updated_at", r.now().UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match sync state query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match sync state match=%s: %w", matchID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("match %s not found", matchID))
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:            row.ID,
		ExternalID:    row.ExternalID,
		TournamentID:  row.TournamentID,
		Team1ID:       row.Team1ID.String,
		Team2ID:       row.Team2ID.String,
		Score1:        row.Score1,
		Score2:        row.Score2,
		Status:        match.Status(row.Status),
		Format:        match.Format(row.Format),
		Stage:         row.Stage,
		URL:           row.URL,
		PlayedAt:      timePtr(row.PlayedAt),
		Processed:     row.Processed,
		ProcessedAt:   timePtr(row.ProcessedAt),
		SyncState:     match.SyncState(row.SyncState),
		SyncAttempts:  row.SyncAttempts,
		LastSyncError: row.LastSyncError,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
