package vlr

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type tournamentDTO struct {
	ExternalID string `validate:"required,numeric"`
	Name       string `validate:"required"`
	Status     string `validate:"required,oneof=upcoming ongoing completed"`
	EventPath  string `validate:"required,startswith=/event/"`
	StartDate  *time.Time
	EndDate    *time.Time
}

func (d tournamentDTO) toExternal() usecase.ExternalTournament {
	return usecase.ExternalTournament{
		ExternalID: d.ExternalID,
		Name:       d.Name,
		Status:     d.Status,
		EventPath:  d.EventPath,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
	}
}

type matchDTO struct {
	ExternalID string `validate:"required,numeric"`
	Team1      string `validate:"required"`
	Team2      string `validate:"required"`
	Score1     int    `validate:"gte=0"`
	Score2     int    `validate:"gte=0"`
	Status     string `validate:"required,oneof=upcoming live completed"`
	Stage      string
	URL        string `validate:"required,startswith=/"`
	PlayedAt   *time.Time
}

func (d matchDTO) toExternal() usecase.ExternalMatch {
	return usecase.ExternalMatch{
		ExternalID: d.ExternalID,
		Team1:      d.Team1,
		Team2:      d.Team2,
		Score1:     d.Score1,
		Score2:     d.Score2,
		Status:     d.Status,
		Stage:      d.Stage,
		URL:        d.URL,
		PlayedAt:   d.PlayedAt,
	}
}

type playerStatDTO struct {
	PlayerName  string `validate:"required"`
	TeamName    string `validate:"required"`
	Agent       string
	Rating      float64 `validate:"gte=0"`
	ACS         float64 `validate:"gte=0"`
	Kills       int     `validate:"gte=0"`
	Deaths      int     `validate:"gte=0"`
	Assists     int     `validate:"gte=0"`
	KAST        float64 `validate:"gte=0,lte=100"`
	ADR         float64 `validate:"gte=0"`
	HeadshotPct float64 `validate:"gte=0,lte=100"`
	FirstKills  int     `validate:"gte=0"`
	FirstDeaths int     `validate:"gte=0"`
	Clutches    int     `validate:"gte=0"`
}

func (d playerStatDTO) toExternal() usecase.ExternalPlayerStat {
	return usecase.ExternalPlayerStat{
		PlayerName:  d.PlayerName,
		TeamName:    d.TeamName,
		Agent:       d.Agent,
		Rating:      d.Rating,
		ACS:         d.ACS,
		Kills:       d.Kills,
		Deaths:      d.Deaths,
		Assists:     d.Assists,
		KAST:        d.KAST,
		ADR:         d.ADR,
		HeadshotPct: d.HeadshotPct,
		FirstKills:  d.FirstKills,
		FirstDeaths: d.FirstDeaths,
		Clutches:    d.Clutches,
	}
}

func validateDTO(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidExternalData, err)
	}
	return nil
}
