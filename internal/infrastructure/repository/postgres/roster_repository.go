package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	qb "github.com/riskibarqy/valorant-fantasy/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

const (
	constraintActiveSlot   = "roster_entries_active_slot_idx"
	constraintActivePlayer = "roster_entries_active_player_idx"
)

type RosterRepository struct {
	db *sqlx.DB
}

func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) ListActiveByMember(ctx context.Context, memberID string) ([]roster.Entry, error) {
	return r.list(ctx, qb.Eq("member_id", memberID), qb.IsNull("released_at"))
}

func (r *RosterRepository) ListByMember(ctx context.Context, memberID string) ([]roster.Entry, error) {
	return r.list(ctx, qb.Eq("member_id", memberID))
}

func (r *RosterRepository) list(ctx context.Context, conditions ...qb.Condition) ([]roster.Entry, error) {
	query, args, err := qb.Select("*").From("roster_entries").
		Where(conditions...).
		OrderBy("acquired_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select roster entries query: %w", err)
	}

	var rows []rosterEntryTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select roster entries: %w", err)
	}

	out := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, rosterEntryFromRow(row))
	}
	return out, nil
}

func (r *RosterRepository) GetByID(ctx context.Context, entryID string) (roster.Entry, bool, error) {
	query, args, err := qb.Select("*").From("roster_entries").Where(qb.Eq("id", entryID)).ToSQL()
	if err != nil {
		return roster.Entry{}, false, fmt.Errorf("build select roster entry query: %w", err)
	}

	var row rosterEntryTableModel
	if err := conn(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return roster.Entry{}, false, nil
		}
		return roster.Entry{}, false, fmt.Errorf("select roster entry: %w", err)
	}
	return rosterEntryFromRow(row), true, nil
}

// Insert relies on the partial unique indexes over active entries to reject a
// second holder of a slot or player.
func (r *RosterRepository) Insert(ctx context.Context, entry roster.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	row := rosterEntryTableModel{
		ID:            entry.ID,
		MemberID:      entry.MemberID,
		PlayerID:      entry.PlayerID,
		Slot:          string(entry.Slot),
		PurchasePrice: entry.PurchasePrice,
		AcquiredAt:    entry.AcquiredAt.UTC(),
	}
	query, args, err := qb.InsertModel("roster_entries", row).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert roster entry query: %w", err)
	}

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case constraintActiveSlot:
				return fmt.Errorf("%w: member=%s slot=%s", roster.ErrSlotTaken, entry.MemberID, entry.Slot)
			case constraintActivePlayer:
				return fmt.Errorf("%w: member=%s player=%s", roster.ErrPlayerHeld, entry.MemberID, entry.PlayerID)
			}
		}
		return fmt.Errorf("insert roster entry: %w", mapError(err))
	}
	return nil
}

func (r *RosterRepository) Release(ctx context.Context, entryID string, salePrice decimal.Decimal, releasedAt time.Time) error {
	query, args, err := qb.Update("roster_entries").
		Set("sale_price", salePrice).
		Set("released_at", releasedAt.UTC()).
		Where(
			qb.Eq("id", entryID),
			qb.IsNull("released_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build release roster entry query: %w", err)
	}

	res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("release roster entry=%s: %w", entryID, mapError(err))
	}
	return expectOneRow(res, fmt.Errorf("roster entry %s is not active", entryID))
}

func rosterEntryFromRow(row rosterEntryTableModel) roster.Entry {
	entry := roster.Entry{
		ID:            row.ID,
		MemberID:      row.MemberID,
		PlayerID:      row.PlayerID,
		Slot:          roster.Slot(row.Slot),
		PurchasePrice: row.PurchasePrice,
		AcquiredAt:    row.AcquiredAt.UTC(),
		ReleasedAt:    timePtr(row.ReleasedAt),
	}
	if row.SalePrice.Valid {
		price := row.SalePrice.Decimal
		entry.SalePrice = &price
	}
	return entry
}
