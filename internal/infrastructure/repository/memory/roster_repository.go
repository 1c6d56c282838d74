package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/shopspring/decimal"
)

type RosterRepository struct {
	store *Store
}

func (r *RosterRepository) listByMember(ctx context.Context, memberID string, activeOnly bool) []roster.Entry {
	var out []roster.Entry
	r.store.read(ctx, func(t *tables) {
		for _, e := range t.roster {
			if e.MemberID != memberID || (activeOnly && !e.Active()) {
				continue
			}
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.Before(out[j].AcquiredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *RosterRepository) ListActiveByMember(ctx context.Context, memberID string) ([]roster.Entry, error) {
	return r.listByMember(ctx, memberID, true), nil
}

func (r *RosterRepository) ListByMember(ctx context.Context, memberID string) ([]roster.Entry, error) {
	return r.listByMember(ctx, memberID, false), nil
}

func (r *RosterRepository) GetByID(ctx context.Context, entryID string) (roster.Entry, bool, error) {
	var (
		item   roster.Entry
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.roster[entryID]
	})
	return item, exists, nil
}

func (r *RosterRepository) Insert(ctx context.Context, entry roster.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	return r.store.write(ctx, func(t *tables) error {
		for _, existing := range t.roster {
			if existing.MemberID != entry.MemberID || !existing.Active() {
				continue
			}
			if existing.Slot == entry.Slot {
				return fmt.Errorf("%w: %q", roster.ErrSlotTaken, entry.Slot)
			}
			if existing.PlayerID == entry.PlayerID {
				return fmt.Errorf("%w: player=%s", roster.ErrPlayerHeld, entry.PlayerID)
			}
		}
		t.roster[entry.ID] = entry
		return nil
	})
}

func (r *RosterRepository) Release(ctx context.Context, entryID string, salePrice decimal.Decimal, releasedAt time.Time) error {
	return r.store.write(ctx, func(t *tables) error {
		e, ok := t.roster[entryID]
		if !ok || !e.Active() {
			return fmt.Errorf("active roster entry %s not found", entryID)
		}
		e.SalePrice = &salePrice
		e.ReleasedAt = &releasedAt
		t.roster[entryID] = e
		return nil
	})
}
