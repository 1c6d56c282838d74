package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
)

type PlayerRepository struct {
	store *Store
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	var out []player.Player
	r.store.read(ctx, func(t *tables) {
		for _, p := range t.players {
			if filter.Match(p) {
				out = append(out, p)
			}
		}
	})
	sortPlayers(out)
	return out, nil
}

// sortPlayers orders by price desc then name, the market listing order.
func sortPlayers(items []player.Player) {
	sort.SliceStable(items, func(i, j int) bool {
		if cmp := items[i].CurrentPrice.Cmp(items[j].CurrentPrice); cmp != 0 {
			return cmp > 0
		}
		return items[i].Name < items[j].Name
	})
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	var (
		item   player.Player
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.players[playerID]
	})
	return item, exists, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	out := make([]player.Player, 0, len(playerIDs))
	r.store.read(ctx, func(t *tables) {
		for _, id := range playerIDs {
			if p, ok := t.players[id]; ok {
				out = append(out, p)
			}
		}
	})
	return out, nil
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (player.Player, bool, error) {
	var (
		item   player.Player
		exists bool
	)
	name = strings.TrimSpace(name)
	r.store.read(ctx, func(t *tables) {
		for _, p := range t.players {
			if strings.EqualFold(p.Name, name) {
				item, exists = p, true
				return
			}
		}
	})
	return item, exists, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) (player.Player, error) {
	err := r.store.write(ctx, func(t *tables) error {
		for _, p := range t.players {
			if strings.EqualFold(p.Name, item.Name) {
				return fmt.Errorf("player name %q already exists", item.Name)
			}
		}
		t.players[item.ID] = item
		return nil
	})
	return item, err
}

func (r *PlayerRepository) update(ctx context.Context, playerID string, fn func(p *player.Player)) error {
	return r.store.write(ctx, func(t *tables) error {
		p, ok := t.players[playerID]
		if !ok {
			return fmt.Errorf("player %s not found", playerID)
		}
		fn(&p)
		t.players[playerID] = p
		return nil
	})
}

func (r *PlayerRepository) UpdateTeam(ctx context.Context, playerID, teamID string) error {
	return r.update(ctx, playerID, func(p *player.Player) { p.TeamID = teamID })
}

func (r *PlayerRepository) UpdateRole(ctx context.Context, playerID string, role player.Role) error {
	return r.update(ctx, playerID, func(p *player.Player) { p.Role = role })
}

func (r *PlayerRepository) UpdateValuation(ctx context.Context, playerID string, valuation player.Valuation) error {
	return r.update(ctx, playerID, func(p *player.Player) {
		p.Points = valuation.Points
		p.MatchesPlayed = valuation.MatchesPlayed
		p.CurrentPrice = valuation.CurrentPrice
	})
}

// LockForUpdate is a no-op: the store mutex already serializes transactions.
func (r *PlayerRepository) LockForUpdate(context.Context, []string) error {
	return nil
}

func (r *PlayerRepository) SetCurrentTournament(ctx context.Context, tournamentID string, teamIDs []string) (int, int, error) {
	participating := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		participating[id] = struct{}{}
	}

	var activated, deactivated int
	err := r.store.write(ctx, func(t *tables) error {
		for id, p := range t.players {
			if _, ok := participating[p.TeamID]; ok && p.TeamID != "" {
				p.CurrentTournamentID = tournamentID
				activated++
			} else {
				if p.CurrentTournamentID != "" {
					deactivated++
				}
				p.CurrentTournamentID = ""
			}
			t.players[id] = p
		}
		return nil
	})
	return activated, deactivated, err
}
