package httpapi

import (
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/match"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/pricehistory"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/stats"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/tournament"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
	"github.com/shopspring/decimal"
)

type createLeagueRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	TeamName string `json:"team_name" validate:"required,max=100"`
	MaxTeams int    `json:"max_teams" validate:"omitempty,min=2,max=100"`
}

type joinLeagueRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=32"`
	TeamName   string `json:"team_name" validate:"required,max=100"`
}

type buyPlayerRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Slot     string `json:"slot" validate:"required"`
}

type adminSyncRequest struct {
	Async bool `json:"async"`
}

type internalJobSyncRequest struct {
	Trigger    string `json:"trigger" validate:"omitempty,oneof=manual scheduled job"`
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=128"`
}

type teamDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
	Region    string `json:"region"`
}

type playerDTO struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	TeamID              string          `json:"team_id"`
	Role                string          `json:"role"`
	Region              string          `json:"region"`
	BasePrice           decimal.Decimal `json:"base_price"`
	CurrentPrice        decimal.Decimal `json:"current_price"`
	Points              float64         `json:"points"`
	MatchesPlayed       int             `json:"matches_played"`
	CurrentTournamentID string          `json:"current_tournament_id,omitempty"`
	Active              bool            `json:"active"`
}

type priceHistoryDTO struct {
	Price      decimal.Decimal `json:"price"`
	Reason     string          `json:"reason"`
	MatchID    string          `json:"match_id,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type tournamentDTO struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	Region     string     `json:"region"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

type matchDTO struct {
	ID             string     `json:"id"`
	ExternalID     string     `json:"external_id"`
	TournamentID   string     `json:"tournament_id"`
	Team1ID        string     `json:"team1_id"`
	Team2ID        string     `json:"team2_id"`
	Score1         int        `json:"score1"`
	Score2         int        `json:"score2"`
	Status         string     `json:"status"`
	Format         string     `json:"format,omitempty"`
	Stage          string     `json:"stage,omitempty"`
	PlayedAt       *time.Time `json:"played_at,omitempty"`
	Processed      bool       `json:"processed"`
	NeedsAttention bool       `json:"needs_attention"`
	SyncAttempts   int        `json:"sync_attempts"`
	LastSyncError  string     `json:"last_sync_error,omitempty"`
}

type statLineDTO struct {
	PlayerID      string  `json:"player_id"`
	Agent         string  `json:"agent"`
	Kills         int     `json:"kills"`
	Deaths        int     `json:"deaths"`
	Assists       int     `json:"assists"`
	ACS           float64 `json:"acs"`
	ADR           float64 `json:"adr"`
	KAST          float64 `json:"kast"`
	HeadshotPct   float64 `json:"headshot_pct"`
	Rating        float64 `json:"rating"`
	FirstKills    int     `json:"first_kills"`
	FirstDeaths   int     `json:"first_deaths"`
	Clutches      int     `json:"clutches"`
	FantasyPoints float64 `json:"fantasy_points"`
}

type matchStatsDTO struct {
	Match matchDTO      `json:"match"`
	Stats []statLineDTO `json:"stats"`
}

type leagueDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AdminUserID string    `json:"admin_user_id"`
	InviteCode  string    `json:"invite_code"`
	MaxTeams    int       `json:"max_teams"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberDTO struct {
	ID            string          `json:"id"`
	LeagueID      string          `json:"league_id"`
	UserID        string          `json:"user_id"`
	TeamName      string          `json:"team_name"`
	Budget        decimal.Decimal `json:"budget"`
	InitialBudget decimal.Decimal `json:"initial_budget"`
	TotalPoints   float64         `json:"total_points"`
	TeamValue     decimal.Decimal `json:"team_value"`
	Rank          int             `json:"rank"`
	IsAdmin       bool            `json:"is_admin"`
	JoinedAt      time.Time       `json:"joined_at"`
}

type leagueDetailDTO struct {
	League  leagueDTO   `json:"league"`
	Members []memberDTO `json:"members"`
}

type rosterEntryDTO struct {
	ID            string           `json:"id"`
	MemberID      string           `json:"member_id"`
	PlayerID      string           `json:"player_id"`
	Slot          string           `json:"slot"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	AcquiredAt    time.Time        `json:"acquired_at"`
	ReleasedAt    *time.Time       `json:"released_at,omitempty"`
}

type rosterSlotDTO struct {
	Entry  rosterEntryDTO `json:"entry"`
	Player playerDTO      `json:"player"`
}

type rosterDTO struct {
	Member    memberDTO       `json:"member"`
	Slots     []rosterSlotDTO `json:"slots"`
	Budget    decimal.Decimal `json:"budget"`
	TeamValue decimal.Decimal `json:"team_value"`
}

type sellResultDTO struct {
	Entry  rosterEntryDTO  `json:"entry"`
	Refund decimal.Decimal `json:"refund"`
	Budget decimal.Decimal `json:"budget"`
}

type syncRunDTO struct {
	ID                   string     `json:"id"`
	Trigger              string     `json:"trigger"`
	Status               string     `json:"status"`
	StartedAt            time.Time  `json:"started_at"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	TournamentsSeen      int        `json:"tournaments_seen"`
	MatchesSeen          int        `json:"matches_seen"`
	MatchesProcessed     int        `json:"matches_processed"`
	MatchesFailed        int        `json:"matches_failed"`
	MatchesNeedAttention int        `json:"matches_need_attention"`
	ErrorMessage         string     `json:"error_message,omitempty"`
}

type syncAcceptedDTO struct {
	Status     string `json:"status"`
	DispatchID string `json:"dispatch_id,omitempty"`
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:        v.ID,
		Name:      v.Name,
		ShortName: v.ShortName,
		LogoURL:   v.LogoURL,
		Region:    string(v.Region),
	}
}

func playerToDTO(v player.Player) playerDTO {
	return playerDTO{
		ID:                  v.ID,
		Name:                v.Name,
		TeamID:              v.TeamID,
		Role:                string(v.Role),
		Region:              string(v.Region),
		BasePrice:           v.BasePrice,
		CurrentPrice:        v.CurrentPrice,
		Points:              v.Points,
		MatchesPlayed:       v.MatchesPlayed,
		CurrentTournamentID: v.CurrentTournamentID,
		Active:              v.CurrentTournamentID != "",
	}
}

func priceHistoryToDTO(v pricehistory.Entry) priceHistoryDTO {
	return priceHistoryDTO{
		Price:      v.Price,
		Reason:     string(v.Reason),
		MatchID:    v.MatchID,
		RecordedAt: v.RecordedAt,
	}
}

func tournamentToDTO(v tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:         v.ID,
		ExternalID: v.ExternalID,
		Name:       v.Name,
		Region:     string(v.Region),
		Status:     string(v.Status),
		StartDate:  v.StartDate,
		EndDate:    v.EndDate,
	}
}

func matchToDTO(v match.Match) matchDTO {
	return matchDTO{
		ID:             v.ID,
		ExternalID:     v.ExternalID,
		TournamentID:   v.TournamentID,
		Team1ID:        v.Team1ID,
		Team2ID:        v.Team2ID,
		Score1:         v.Score1,
		Score2:         v.Score2,
		Status:         string(v.Status),
		Format:         string(v.Format),
		Stage:          v.Stage,
		PlayedAt:       v.PlayedAt,
		Processed:      v.Processed,
		NeedsAttention: v.SyncState == match.SyncStateNeedsAttention,
		SyncAttempts:   v.SyncAttempts,
		LastSyncError:  v.LastSyncError,
	}
}

func statLineToDTO(v stats.PlayerMatchStats) statLineDTO {
	return statLineDTO{
		PlayerID:      v.PlayerID,
		Agent:         v.Agent,
		Kills:         v.Kills,
		Deaths:        v.Deaths,
		Assists:       v.Assists,
		ACS:           v.ACS,
		ADR:           v.ADR,
		KAST:          v.KAST,
		HeadshotPct:   v.HeadshotPct,
		Rating:        v.Rating,
		FirstKills:    v.FirstKills,
		FirstDeaths:   v.FirstDeaths,
		Clutches:      v.Clutches,
		FantasyPoints: v.FantasyPoints,
	}
}

func matchStatsToDTO(v usecase.MatchStatsView) matchStatsDTO {
	out := matchStatsDTO{
		Match: matchToDTO(v.Match),
		Stats: make([]statLineDTO, 0, len(v.Stats)),
	}
	for _, line := range v.Stats {
		out.Stats = append(out.Stats, statLineToDTO(line))
	}
	return out
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		AdminUserID: v.AdminUserID,
		InviteCode:  v.InviteCode,
		MaxTeams:    v.MaxTeams,
		Status:      string(v.Status),
		CreatedAt:   v.CreatedAt,
	}
}

func memberToDTO(v league.Member) memberDTO {
	return memberDTO{
		ID:            v.ID,
		LeagueID:      v.LeagueID,
		UserID:        v.UserID,
		TeamName:      v.TeamName,
		Budget:        v.Budget,
		InitialBudget: v.InitialBudget,
		TotalPoints:   v.TotalPoints,
		TeamValue:     v.TeamValue,
		Rank:          v.Rank,
		IsAdmin:       v.IsAdmin,
		JoinedAt:      v.JoinedAt,
	}
}

func membersToDTO(items []league.Member) []memberDTO {
	out := make([]memberDTO, 0, len(items))
	for _, item := range items {
		out = append(out, memberToDTO(item))
	}
	return out
}

func leagueDetailToDTO(v usecase.LeagueDetail) leagueDetailDTO {
	return leagueDetailDTO{
		League:  leagueToDTO(v.League),
		Members: membersToDTO(v.Members),
	}
}

func rosterEntryToDTO(v roster.Entry) rosterEntryDTO {
	return rosterEntryDTO{
		ID:            v.ID,
		MemberID:      v.MemberID,
		PlayerID:      v.PlayerID,
		Slot:          string(v.Slot),
		PurchasePrice: v.PurchasePrice,
		SalePrice:     v.SalePrice,
		AcquiredAt:    v.AcquiredAt,
		ReleasedAt:    v.ReleasedAt,
	}
}

func rosterToDTO(v usecase.RosterView) rosterDTO {
	out := rosterDTO{
		Member:    memberToDTO(v.Member),
		Slots:     make([]rosterSlotDTO, 0, len(v.Slots)),
		Budget:    v.Budget,
		TeamValue: v.TeamValue,
	}
	for _, slot := range v.Slots {
		out.Slots = append(out.Slots, rosterSlotDTO{
			Entry:  rosterEntryToDTO(slot.Entry),
			Player: playerToDTO(slot.Player),
		})
	}
	return out
}

func syncRunToDTO(v syncrun.Run) syncRunDTO {
	return syncRunDTO{
		ID:                   v.ID,
		Trigger:              string(v.Trigger),
		Status:               string(v.Status),
		StartedAt:            v.StartedAt,
		FinishedAt:           v.FinishedAt,
		TournamentsSeen:      v.TournamentsSeen,
		MatchesSeen:          v.MatchesSeen,
		MatchesProcessed:     v.MatchesProcessed,
		MatchesFailed:        v.MatchesFailed,
		MatchesNeedAttention: v.MatchesNeedAttention,
		ErrorMessage:         v.ErrorMessage,
	}
}
