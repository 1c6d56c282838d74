package team

import (
	"fmt"
	"strings"
	"time"
)

// Region is the competitive circuit a team or tournament belongs to.
type Region string

const (
	RegionEMEA     Region = "EMEA"
	RegionAmericas Region = "Americas"
	RegionPacific  Region = "Pacific"
	RegionCN       Region = "CN"
	RegionGlobal   Region = "GLOBAL"
)

var AllRegions = map[Region]struct{}{
	RegionEMEA:     {},
	RegionAmericas: {},
	RegionPacific:  {},
	RegionCN:       {},
	RegionGlobal:   {},
}

// TBDName is the placeholder team used while a match side is unresolved.
const TBDName = "TBD"

// Team is a professional organization.
type Team struct {
	ID        string
	Name      string
	ShortName string
	LogoURL   string
	Region    Region
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Team) IsPlaceholder() bool {
	return strings.EqualFold(strings.TrimSpace(t.Name), TBDName)
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if _, ok := AllRegions[t.Region]; !ok {
		return fmt.Errorf("invalid team region: %s", t.Region)
	}
	return nil
}

// InferRegion maps a tournament title to its circuit. Unknown titles fall back
// to EMEA.
func InferRegion(tournamentName string) Region {
	switch {
	case strings.Contains(tournamentName, "Pacific"):
		return RegionPacific
	case strings.Contains(tournamentName, "EMEA"):
		return RegionEMEA
	case strings.Contains(tournamentName, "Americas"):
		return RegionAmericas
	case strings.Contains(tournamentName, "China"), strings.Contains(tournamentName, "CN"):
		return RegionCN
	default:
		return RegionEMEA
	}
}
