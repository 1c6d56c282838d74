package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the starter teams and players into an empty database.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM players`); err != nil {
		return fmt.Errorf("count players for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	teams := NewTeamRepository(db)
	players := NewPlayerRepository(db)
	prices := NewPriceHistoryRepository(db)

	return NewTxManager(db).WithinTx(ctx, func(ctx context.Context) error {
		for _, t := range memory.SeedTeams() {
			if _, err := teams.Upsert(ctx, t); err != nil {
				return fmt.Errorf("seed team %s: %w", t.ID, err)
			}
		}
		for _, p := range memory.SeedPlayers() {
			if _, err := players.Create(ctx, p); err != nil {
				return fmt.Errorf("seed player %s: %w", p.ID, err)
			}
			if err := prices.Append(ctx, pricehistory.Entry{
				ID:         "seed-price-" + p.ID,
				PlayerID:   p.ID,
				Price:      p.CurrentPrice,
				Reason:     pricehistory.ReasonInitial,
				RecordedAt: p.CreatedAt,
			}); err != nil {
				return fmt.Errorf("seed price %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
