package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
)

type MatchRepository struct {
	store *Store
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	var (
		item   match.Match
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.matches[matchID]
	})
	return item, exists, nil
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (match.Match, bool, error) {
	var (
		item   match.Match
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = findMatchByExternalID(t, externalID)
	})
	return item, exists, nil
}

func findMatchByExternalID(t *tables, externalID string) (match.Match, bool) {
	for _, m := range t.matches {
		if m.ExternalID == externalID {
			return m, true
		}
	}
	return match.Match{}, false
}

func (r *MatchRepository) list(ctx context.Context, keep func(match.Match) bool) []match.Match {
	var out []match.Match
	r.store.read(ctx, func(t *tables) {
		for _, m := range t.matches {
			if keep(m) {
				out = append(out, m)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		pi, pj := playedAt(out[i]), playedAt(out[j])
		if !pi.Equal(pj) {
			return pi.Before(pj)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out
}

func (r *MatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]match.Match, error) {
	return r.list(ctx, func(m match.Match) bool { return m.TournamentID == tournamentID }), nil
}

func (r *MatchRepository) ListReadyForProcessing(ctx context.Context) ([]match.Match, error) {
	return r.list(ctx, match.Match.ReadyForProcessing), nil
}

func (r *MatchRepository) ListNeedsAttention(ctx context.Context) ([]match.Match, error) {
	return r.list(ctx, func(m match.Match) bool {
		return !m.Processed && m.SyncState == match.SyncStateNeedsAttention
	}), nil
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	err := r.store.write(ctx, func(t *tables) error {
		if existing, ok := findMatchByExternalID(t, item.ExternalID); ok {
			if existing.Processed {
				return match.ErrAlreadyProcessed
			}
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			item.Processed = false
			item.ProcessedAt = nil
			item.SyncState = existing.SyncState
			item.SyncAttempts = existing.SyncAttempts
			item.LastSyncError = existing.LastSyncError
		}
		if item.SyncState == "" {
			item.SyncState = match.SyncStateOK
		}
		t.matches[item.ID] = item
		return nil
	})
	if err != nil {
		return match.Match{}, err
	}
	return item, nil
}

func (r *MatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	return r.store.write(ctx, func(t *tables) error {
		m, ok := t.matches[matchID]
		if !ok {
			return fmt.Errorf("match %s not found", matchID)
		}
		if m.Processed {
			return match.ErrAlreadyProcessed
		}
		if m.Status != match.StatusCompleted {
			return fmt.Errorf("match %s is not completed", matchID)
		}
		now := time.Now().UTC()
		m.Processed = true
		m.ProcessedAt = &now
		t.matches[matchID] = m
		return nil
	})
}

func (r *MatchRepository) UpdateSyncState(ctx context.Context, matchID string, state match.SyncState, attempts int, lastError string) error {
	return r.store.write(ctx, func(t *tables) error {
		m, ok := t.matches[matchID]
		if !ok {
			return fmt.Errorf("match %s not found", matchID)
		}
		m.SyncState = state
		m.SyncAttempts = attempts
		m.LastSyncError = lastError
		t.matches[matchID] = m
		return nil
	})
}

// playedAt is the instant a match counts toward rosters: the scheduled time
// when known, otherwise when it was processed.
func playedAt(m match.Match) time.Time {
	switch {
	case m.PlayedAt != nil:
		return *m.PlayedAt
	case m.ProcessedAt != nil:
		return *m.ProcessedAt
	default:
		return m.UpdatedAt
	}
}

type StatsRepository struct {
	store *Store
}

func (r *StatsRepository) InsertBatch(ctx context.Context, rows []stats.PlayerMatchStats) error {
	return r.store.write(ctx, func(t *tables) error {
		for _, row := range rows {
			for _, existing := range t.stats {
				if existing.MatchID == row.MatchID && existing.PlayerID == row.PlayerID {
					return fmt.Errorf("stats for match=%s player=%s already exist", row.MatchID, row.PlayerID)
				}
			}
			t.stats[row.ID] = row
		}
		return nil
	})
}

func (r *StatsRepository) ListByMatch(ctx context.Context, matchID string) ([]stats.PlayerMatchStats, error) {
	var out []stats.PlayerMatchStats
	r.store.read(ctx, func(t *tables) {
		for _, row := range t.stats {
			if row.MatchID == matchID {
				out = append(out, row)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].FantasyPoints != out[j].FantasyPoints {
			return out[i].FantasyPoints > out[j].FantasyPoints
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *StatsRepository) ListPlayerHistory(ctx context.Context, playerID string) ([]stats.HistoryPoint, error) {
	var out []stats.HistoryPoint
	r.store.read(ctx, func(t *tables) {
		for _, row := range t.stats {
			if row.PlayerID != playerID {
				continue
			}
			m, ok := t.matches[row.MatchID]
			if !ok || !m.Processed {
				continue
			}
			out = append(out, stats.HistoryPoint{
				MatchID:  row.MatchID,
				Points:   row.FantasyPoints,
				PlayedAt: playedAt(m),
			})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].MatchID < out[j].MatchID
	})
	return out, nil
}

func (r *StatsRepository) ListAgentsByPlayer(ctx context.Context) (map[string][]string, error) {
	out := make(map[string][]string)
	r.store.read(ctx, func(t *tables) {
		for _, row := range t.stats {
			if row.Agent != "" {
				out[row.PlayerID] = append(out[row.PlayerID], row.Agent)
			}
		}
	})
	return out, nil
}
