package memory

import (
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricing"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
)

var seedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// TBDTeamID is the seeded placeholder for unresolved match sides.
const TBDTeamID = "team-tbd"

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: TBDTeamID, Name: team.TBDName, ShortName: team.TBDName, Region: team.RegionGlobal},
		{ID: "team-fnc", Name: "FNATIC", ShortName: "FNC", Region: team.RegionEMEA},
		{ID: "team-th", Name: "Team Heretics", ShortName: "TH", Region: team.RegionEMEA},
		{ID: "team-sen", Name: "Sentinels", ShortName: "SEN", Region: team.RegionAmericas},
		{ID: "team-g2", Name: "G2 Esports", ShortName: "G2", Region: team.RegionAmericas},
		{ID: "team-prx", Name: "Paper Rex", ShortName: "PRX", Region: team.RegionPacific},
		{ID: "team-drx", Name: "DRX", ShortName: "DRX", Region: team.RegionPacific},
	}
}

func SeedPlayers() []player.Player {
	type row struct {
		id, name, teamID string
		role             player.Role
		region           team.Region
	}
	rows := []row{
		{"pl-boaster", "Boaster", "team-fnc", player.RoleController, team.RegionEMEA},
		{"pl-alfajer", "Alfajer", "team-fnc", player.RoleSentinel, team.RegionEMEA},
		{"pl-miniboo", "MiniBoo", "team-th", player.RoleDuelist, team.RegionEMEA},
		{"pl-wo0t", "Wo0t", "team-th", player.RoleFlex, team.RegionEMEA},
		{"pl-zekken", "zekken", "team-sen", player.RoleDuelist, team.RegionAmericas},
		{"pl-johnqt", "johnqt", "team-sen", player.RoleSentinel, team.RegionAmericas},
		{"pl-leaf", "leaf", "team-g2", player.RoleSentinel, team.RegionAmericas},
		{"pl-valyn", "valyn", "team-g2", player.RoleController, team.RegionAmericas},
		{"pl-something", "something", "team-prx", player.RoleDuelist, team.RegionPacific},
		{"pl-f0rsaken", "f0rsakeN", "team-prx", player.RoleInitiator, team.RegionPacific},
		{"pl-mako", "MaKo", "team-drx", player.RoleController, team.RegionPacific},
		{"pl-flashback", "Flashback", "team-drx", player.RoleInitiator, team.RegionPacific},
	}

	out := make([]player.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, player.Player{
			ID:           r.id,
			Name:         r.name,
			TeamID:       r.teamID,
			Role:         r.role,
			Region:       r.region,
			BasePrice:    pricing.InitialPrice,
			CurrentPrice: pricing.InitialPrice,
			CreatedAt:    seedTime,
			UpdatedAt:    seedTime,
		})
	}
	return out
}

// NewSeededStore returns a store preloaded with the placeholder team and a
// small pro roster for local runs.
func NewSeededStore() *Store {
	s := NewStore()
	for _, item := range SeedTeams() {
		item.CreatedAt, item.UpdatedAt = seedTime, seedTime
		s.data.teams[item.ID] = item
	}
	for _, item := range SeedPlayers() {
		s.data.players[item.ID] = item
	}
	return s
}
