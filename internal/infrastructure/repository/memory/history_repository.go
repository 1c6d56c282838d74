package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/pointshistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
)

type PriceHistoryRepository struct {
	store *Store
}

func (r *PriceHistoryRepository) Append(ctx context.Context, entries ...pricehistory.Entry) error {
	return r.store.write(ctx, func(t *tables) error {
		t.prices = append(t.prices, entries...)
		return nil
	})
}

func (r *PriceHistoryRepository) ListByPlayer(ctx context.Context, playerID string) ([]pricehistory.Entry, error) {
	var out []pricehistory.Entry
	r.store.read(ctx, func(t *tables) {
		for _, e := range t.prices {
			if e.PlayerID == playerID {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

type PointsHistoryRepository struct {
	store *Store
}

func (r *PointsHistoryRepository) Append(ctx context.Context, snapshots ...pointshistory.Snapshot) error {
	return r.store.write(ctx, func(t *tables) error {
		t.snapshots = append(t.snapshots, snapshots...)
		return nil
	})
}

func (r *PointsHistoryRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]pointshistory.Snapshot, error) {
	var out []pointshistory.Snapshot
	r.store.read(ctx, func(t *tables) {
		for i := len(t.snapshots) - 1; i >= 0; i-- {
			if t.snapshots[i].MemberID != memberID {
				continue
			}
			out = append(out, t.snapshots[i])
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

type SyncRunRepository struct {
	store *Store
}

func (r *SyncRunRepository) Create(ctx context.Context, run syncrun.Run) error {
	return r.store.write(ctx, func(t *tables) error {
		t.runs[run.ID] = run
		return nil
	})
}

func (r *SyncRunRepository) Finish(ctx context.Context, run syncrun.Run) error {
	return r.Create(ctx, run)
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	var out []syncrun.Run
	r.store.read(ctx, func(t *tables) {
		for _, run := range t.runs {
			out = append(out, run)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
