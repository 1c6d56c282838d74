package pricehistory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonInitial       Reason = "initial"
	ReasonMatch         Reason = "match"
	ReasonRecalibration Reason = "recalibration"
)

// Entry is one append-only price observation of a player.
type Entry struct {
	ID         string
	PlayerID   string
	Price      decimal.Decimal
	Reason     Reason
	MatchID    string
	RecordedAt time.Time
}

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, entries ...Entry) error
	ListByPlayer(ctx context.Context, playerID string) ([]Entry, error)
}
