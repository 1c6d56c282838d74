package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pointshistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
)

type tables struct {
	teams           map[string]team.Team
	tournaments     map[string]tournament.Tournament
	tournamentTeams map[string]map[string]struct{}
	players         map[string]player.Player
	matches         map[string]match.Match
	stats           map[string]stats.PlayerMatchStats
	prices          []pricehistory.Entry
	leagues         map[string]league.League
	members         map[string]league.Member
	roster          map[string]roster.Entry
	snapshots       []pointshistory.Snapshot
	runs            map[string]syncrun.Run
}

func newTables() *tables {
	return &tables{
		teams:           make(map[string]team.Team),
		tournaments:     make(map[string]tournament.Tournament),
		tournamentTeams: make(map[string]map[string]struct{}),
		players:         make(map[string]player.Player),
		matches:         make(map[string]match.Match),
		stats:           make(map[string]stats.PlayerMatchStats),
		leagues:         make(map[string]league.League),
		members:         make(map[string]league.Member),
		roster:          make(map[string]roster.Entry),
		runs:            make(map[string]syncrun.Run),
	}
}

func (t *tables) clone() *tables {
	out := &tables{
		teams:           maps.Clone(t.teams),
		tournaments:     maps.Clone(t.tournaments),
		tournamentTeams: make(map[string]map[string]struct{}, len(t.tournamentTeams)),
		players:         maps.Clone(t.players),
		matches:         maps.Clone(t.matches),
		stats:           maps.Clone(t.stats),
		prices:          append([]pricehistory.Entry(nil), t.prices...),
		leagues:         maps.Clone(t.leagues),
		members:         maps.Clone(t.members),
		roster:          maps.Clone(t.roster),
		snapshots:       append([]pointshistory.Snapshot(nil), t.snapshots...),
		runs:            maps.Clone(t.runs),
	}
	for id, set := range t.tournamentTeams {
		out.tournamentTeams[id] = maps.Clone(set)
	}
	return out
}

type txKey struct{}

// Store keeps every table in process memory. One mutex serializes
// transactions and standalone operations, which stands in for row locks: a
// transaction sees no interleaved writes and a failed one is rolled back to
// its snapshot.
type Store struct {
	mu   sync.Mutex
	data *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// WithinTx runs fn atomically. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func(t *tables)) {
	if s.inTx(ctx) {
		fn(s.data)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if s.inTx(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// A standalone write is its own transaction.
	snapshot := s.data.clone()
	if err := fn(s.data); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Teams() *TeamRepository { return &TeamRepository{store: s} }

func (s *Store) Tournaments() *TournamentRepository { return &TournamentRepository{store: s} }

func (s *Store) Players() *PlayerRepository { return &PlayerRepository{store: s} }

func (s *Store) Matches() *MatchRepository { return &MatchRepository{store: s} }

func (s *Store) Stats() *StatsRepository { return &StatsRepository{store: s} }

func (s *Store) Prices() *PriceHistoryRepository { return &PriceHistoryRepository{store: s} }

func (s *Store) Leagues() *LeagueRepository { return &LeagueRepository{store: s} }

func (s *Store) Rosters() *RosterRepository { return &RosterRepository{store: s} }

func (s *Store) PointsHistory() *PointsHistoryRepository { return &PointsHistoryRepository{store: s} }

func (s *Store) SyncRuns() *SyncRunRepository { return &SyncRunRepository{store: s} }
