package roster

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository describes roster persistence needs from use cases.
type Repository interface {
	ListActiveByMember(ctx context.Context, memberID string) ([]Entry, error)
	ListByMember(ctx context.Context, memberID string) ([]Entry, error)
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)
	// Insert fails with ErrSlotTaken or ErrPlayerHeld when the member already
	// has an active entry for the slot or the player.
	Insert(ctx context.Context, entry Entry) error
	Release(ctx context.Context, entryID string, salePrice decimal.Decimal, releasedAt time.Time) error
}
