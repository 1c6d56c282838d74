package player

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/shopspring/decimal"
)

// Role is the in-game function a player usually fills.
type Role string

const (
	RoleDuelist    Role = "Duelist"
	RoleInitiator  Role = "Initiator"
	RoleController Role = "Controller"
	RoleSentinel   Role = "Sentinel"
	RoleFlex       Role = "Flex"
)

var AllRoles = map[Role]struct{}{
	RoleDuelist:    {},
	RoleInitiator:  {},
	RoleController: {},
	RoleSentinel:   {},
	RoleFlex:       {},
}

var agentRoles = map[string]Role{
	"jett": RoleDuelist, "raze": RoleDuelist, "phoenix": RoleDuelist, "reyna": RoleDuelist,
	"yoru": RoleDuelist, "neon": RoleDuelist, "iso": RoleDuelist, "waylay": RoleDuelist,

	"sova": RoleInitiator, "breach": RoleInitiator, "skye": RoleInitiator, "kay/o": RoleInitiator,
	"fade": RoleInitiator, "gekko": RoleInitiator, "tejo": RoleInitiator,

	"brimstone": RoleController, "omen": RoleController, "viper": RoleController,
	"astra": RoleController, "harbor": RoleController, "clove": RoleController,

	"killjoy": RoleSentinel, "cypher": RoleSentinel, "sage": RoleSentinel, "chamber": RoleSentinel,
	"deadlock": RoleSentinel, "vyse": RoleSentinel, "veto": RoleSentinel,
}

// InferRole maps an agent name to its role. Unknown or empty agents are Flex.
func InferRole(agent string) Role {
	if role, ok := agentRoles[strings.ToLower(strings.TrimSpace(agent))]; ok {
		return role
	}
	return RoleFlex
}

// MajorityRole picks a player's role from the agents they have played.
// Three or more distinct roles, or a tie for first, yields Flex. The second
// return is false when no agent maps to a concrete role.
func MajorityRole(agents []string) (Role, bool) {
	counts := make(map[Role]int)
	for _, agent := range agents {
		role := InferRole(agent)
		if role == RoleFlex {
			continue
		}
		counts[role]++
	}
	if len(counts) == 0 {
		return "", false
	}
	if len(counts) >= 3 {
		return RoleFlex, true
	}

	type roleCount struct {
		role  Role
		count int
	}
	ranked := make([]roleCount, 0, len(counts))
	for role, count := range counts {
		ranked = append(ranked, roleCount{role: role, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].role < ranked[j].role
	})
	if len(ranked) > 1 && ranked[0].count == ranked[1].count {
		return RoleFlex, true
	}
	return ranked[0].role, true
}

// Player is a professional athlete available in the fantasy market.
type Player struct {
	ID                  string
	Name                string
	TeamID              string
	Role                Role
	Region              team.Region
	BasePrice           decimal.Decimal
	CurrentPrice        decimal.Decimal
	Points              float64
	MatchesPlayed       int
	CurrentTournamentID string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllRoles[p.Role]; !ok {
		return fmt.Errorf("invalid player role: %s", p.Role)
	}
	if !p.CurrentPrice.IsPositive() {
		return fmt.Errorf("player price must be greater than zero")
	}
	return nil
}

// Valuation is the scoring-derived state recomputed from match history.
type Valuation struct {
	Points        float64
	MatchesPlayed int
	CurrentPrice  decimal.Decimal
}

// Filter narrows player listings. The zero value lists everyone.
type Filter struct {
	Role       Role
	Region     team.Region
	TeamID     string
	ActiveOnly bool
}

// Key is a stable identifier for a filter variant.
func (f Filter) Key() string {
	return fmt.Sprintf("role=%s|region=%s|team=%s|active=%t", f.Role, f.Region, f.TeamID, f.ActiveOnly)
}

func (f Filter) Match(p Player) bool {
	if f.Role != "" && p.Role != f.Role {
		return false
	}
	if f.Region != "" && p.Region != f.Region {
		return false
	}
	if f.TeamID != "" && p.TeamID != f.TeamID {
		return false
	}
	if f.ActiveOnly && p.CurrentTournamentID == "" {
		return false
	}
	return true
}
