package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
)

type TeamRepository struct {
	store *Store
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	var out []team.Team
	r.store.read(ctx, func(t *tables) {
		out = make([]team.Team, 0, len(t.teams))
		for _, item := range t.teams {
			out = append(out, item)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	var (
		item   team.Team
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.teams[teamID]
	})
	return item, exists, nil
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	var (
		item   team.Team
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = findTeamByName(t, name)
	})
	return item, exists, nil
}

func findTeamByName(t *tables, name string) (team.Team, bool) {
	name = strings.TrimSpace(name)
	for _, item := range t.teams {
		if strings.EqualFold(item.Name, name) {
			return item, true
		}
	}
	return team.Team{}, false
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (team.Team, error) {
	err := r.store.write(ctx, func(t *tables) error {
		if existing, ok := findTeamByName(t, item.Name); ok {
			existing.ShortName = coalesce(item.ShortName, existing.ShortName)
			existing.LogoURL = coalesce(item.LogoURL, existing.LogoURL)
			if item.Region != "" {
				existing.Region = item.Region
			}
			existing.UpdatedAt = item.UpdatedAt
			item = existing
		}
		t.teams[item.ID] = item
		return nil
	})
	return item, err
}

type TournamentRepository struct {
	store *Store
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID string) (tournament.Tournament, bool, error) {
	var (
		item   tournament.Tournament
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		item, exists = t.tournaments[tournamentID]
	})
	return item, exists, nil
}

func (r *TournamentRepository) GetByExternalID(ctx context.Context, externalID string) (tournament.Tournament, bool, error) {
	var (
		item   tournament.Tournament
		exists bool
	)
	r.store.read(ctx, func(t *tables) {
		for _, candidate := range t.tournaments {
			if candidate.ExternalID == externalID {
				item, exists = candidate, true
				return
			}
		}
	})
	return item, exists, nil
}

func (r *TournamentRepository) ListByStatus(ctx context.Context, statuses ...tournament.Status) ([]tournament.Tournament, error) {
	wanted := make(map[tournament.Status]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	var out []tournament.Tournament
	r.store.read(ctx, func(t *tables) {
		for _, item := range t.tournaments {
			if _, ok := wanted[item.Status]; len(wanted) == 0 || ok {
				out = append(out, item)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

func (r *TournamentRepository) Upsert(ctx context.Context, item tournament.Tournament) (tournament.Tournament, error) {
	err := r.store.write(ctx, func(t *tables) error {
		for id, existing := range t.tournaments {
			if existing.ExternalID == item.ExternalID && id != item.ID {
				item.ID = id
				item.CreatedAt = existing.CreatedAt
			}
		}
		t.tournaments[item.ID] = item
		return nil
	})
	return item, err
}

func (r *TournamentRepository) LinkTeams(ctx context.Context, tournamentID string, teamIDs []string) error {
	return r.store.write(ctx, func(t *tables) error {
		set, ok := t.tournamentTeams[tournamentID]
		if !ok {
			set = make(map[string]struct{}, len(teamIDs))
			t.tournamentTeams[tournamentID] = set
		}
		for _, id := range teamIDs {
			set[id] = struct{}{}
		}
		return nil
	})
}

func (r *TournamentRepository) ListTeamIDs(ctx context.Context, tournamentID string) ([]string, error) {
	var out []string
	r.store.read(ctx, func(t *tables) {
		for id := range t.tournamentTeams[tournamentID] {
			out = append(out, id)
		}
	})
	sort.Strings(out)
	return out, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
