package postgres

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type teamTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ShortName string    `db:"short_name"`
	LogoURL   string    `db:"logo_url"`
	Region    string    `db:"region"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type tournamentTableModel struct {
	ID           string       `db:"id"`
	ExternalID   string       `db:"external_id"`
	Name         string       `db:"name"`
	Region       string       `db:"region"`
	Status       string       `db:"status"`
	EventPath    string       `db:"event_path"`
	StartDate    sql.NullTime `db:"start_date"`
	EndDate      sql.NullTime `db:"end_date"`
	LastSyncedAt sql.NullTime `db:"last_synced_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

type playerTableModel struct {
	ID                  string          `db:"id"`
	Name                string          `db:"name"`
	TeamID              sql.NullString  `db:"team_id"`
	Role                string          `db:"role"`
	Region              string          `db:"region"`
	BasePrice           decimal.Decimal `db:"base_price"`
	CurrentPrice        decimal.Decimal `db:"current_price"`
	Points              float64         `db:"points"`
	MatchesPlayed       int             `db:"matches_played"`
	CurrentTournamentID sql.NullString  `db:"current_tournament_id"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

type matchTableModel struct {
	ID            string         `db:"id"`
	ExternalID    string         `db:"external_id"`
	TournamentID  string         `db:"tournament_id"`
	Team1ID       sql.NullString `db:"team1_id"`
	Team2ID       sql.NullString `db:"team2_id"`
	Score1        int            `db:"score1"`
	Score2        int            `db:"score2"`
	Status        string         `db:"status"`
	Format        string         `db:"format"`
	Stage         string         `db:"stage"`
	URL           string         `db:"url"`
	PlayedAt      sql.NullTime   `db:"played_at"`
	Processed     bool           `db:"processed"`
	ProcessedAt   sql.NullTime   `db:"processed_at"`
	SyncState     string         `db:"sync_state"`
	SyncAttempts  int            `db:"sync_attempts"`
	LastSyncError string         `db:"last_sync_error"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type statsTableModel struct {
	ID             string    `db:"id"`
	MatchID        string    `db:"match_id"`
	PlayerID       string    `db:"player_id"`
	Agent          string    `db:"agent"`
	Kills          int       `db:"kills"`
	Deaths         int       `db:"deaths"`
	Assists        int       `db:"assists"`
	ACS            float64   `db:"acs"`
	ADR            float64   `db:"adr"`
	KAST           float64   `db:"kast"`
	HeadshotPct    float64   `db:"headshot_pct"`
	Rating         float64   `db:"rating"`
	FirstKills     int       `db:"first_kills"`
	FirstDeaths    int       `db:"first_deaths"`
	Clutches       int       `db:"clutches"`
	FantasyPoints  float64   `db:"fantasy_points"`
	ScoringVersion string    `db:"scoring_version"`
	CreatedAt      time.Time `db:"created_at"`
}

type priceHistoryTableModel struct {
	ID         string          `db:"id"`
	PlayerID   string          `db:"player_id"`
	Price      decimal.Decimal `db:"price"`
	Reason     string          `db:"reason"`
	MatchID    sql.NullString  `db:"match_id"`
	RecordedAt time.Time       `db:"recorded_at"`
}

type leagueTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	AdminUserID string    `db:"admin_user_id"`
	InviteCode  string    `db:"invite_code"`
	MaxTeams    int       `db:"max_teams"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type leagueMemberTableModel struct {
	ID            string          `db:"id"`
	LeagueID      string          `db:"league_id"`
	UserID        string          `db:"user_id"`
	TeamName      string          `db:"team_name"`
	Budget        decimal.Decimal `db:"budget"`
	InitialBudget decimal.Decimal `db:"initial_budget"`
	TotalPoints   float64         `db:"total_points"`
	TeamValue     decimal.Decimal `db:"team_value"`
	Rank          int             `db:"rank"`
	IsAdmin       bool            `db:"is_admin"`
	JoinedAt      time.Time       `db:"joined_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type rosterEntryTableModel struct {
	ID            string              `db:"id"`
	MemberID      string              `db:"member_id"`
	PlayerID      string              `db:"player_id"`
	Slot          string              `db:"slot"`
	PurchasePrice decimal.Decimal     `db:"purchase_price"`
	SalePrice     decimal.NullDecimal `db:"sale_price"`
	AcquiredAt    time.Time           `db:"acquired_at"`
	ReleasedAt    sql.NullTime        `db:"released_at"`
}

type pointsSnapshotTableModel struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	LeagueID    string    `db:"league_id"`
	MemberID    string    `db:"member_id"`
	TotalPoints float64   `db:"total_points"`
	Rank        int       `db:"rank"`
	RecordedAt  time.Time `db:"recorded_at"`
}

type syncRunTableModel struct {
	ID                   string       `db:"id"`
	Trigger              string       `db:"run_trigger"`
	Status               string       `db:"status"`
	StartedAt            time.Time    `db:"started_at"`
	FinishedAt           sql.NullTime `db:"finished_at"`
	TournamentsSeen      int          `db:"tournaments_seen"`
	MatchesSeen          int          `db:"matches_seen"`
	MatchesProcessed     int          `db:"matches_processed"`
	MatchesFailed        int          `db:"matches_failed"`
	MatchesNeedAttention int          `db:"matches_need_attention"`
	ErrorMessage         string       `db:"error_message"`
}
