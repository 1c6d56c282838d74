package roster

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/shopspring/decimal"
)

var (
	ErrSlotTaken   = errors.New("roster slot already taken")
	ErrPlayerHeld  = errors.New("player already on roster")
	ErrInvalidSlot = errors.New("invalid roster slot")
)

// MaxPlayersPerProTeam caps how many players of one professional team a
// member may hold at once.
const MaxPlayersPerProTeam = 2

// Slot is a named roster position such as "Duelist 1" or "Bench 2".
type Slot string

const (
	SlotDuelist1    Slot = "Duelist 1"
	SlotDuelist2    Slot = "Duelist 2"
	SlotController1 Slot = "Controller 1"
	SlotController2 Slot = "Controller 2"
	SlotInitiator1  Slot = "Initiator 1"
	SlotInitiator2  Slot = "Initiator 2"
	SlotSentinel1   Slot = "Sentinel 1"
	SlotSentinel2   Slot = "Sentinel 2"
	SlotBench1      Slot = "Bench 1"
	SlotBench2      Slot = "Bench 2"
	SlotBench3      Slot = "Bench 3"
)

// Layout lists every slot in display order: eight starters then three bench.
var Layout = []Slot{
	SlotDuelist1, SlotDuelist2,
	SlotController1, SlotController2,
	SlotInitiator1, SlotInitiator2,
	SlotSentinel1, SlotSentinel2,
	SlotBench1, SlotBench2, SlotBench3,
}

var slotRoles = map[Slot]player.Role{
	SlotDuelist1:    player.RoleDuelist,
	SlotDuelist2:    player.RoleDuelist,
	SlotController1: player.RoleController,
	SlotController2: player.RoleController,
	SlotInitiator1:  player.RoleInitiator,
	SlotInitiator2:  player.RoleInitiator,
	SlotSentinel1:   player.RoleSentinel,
	SlotSentinel2:   player.RoleSentinel,
}

// ParseSlot accepts labels case-insensitively and tolerates surrounding or
// repeated whitespace.
func ParseSlot(label string) (Slot, error) {
	normalized := strings.Join(strings.Fields(label), " ")
	for _, slot := range Layout {
		if strings.EqualFold(string(slot), normalized) {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, label)
}

func (s Slot) IsBench() bool {
	return strings.HasPrefix(string(s), "Bench ")
}

func (s Slot) IsStarter() bool {
	_, ok := slotRoles[s]
	return ok
}

// Role returns the role a starter slot requires. Bench slots have none.
func (s Slot) Role() (player.Role, bool) {
	role, ok := slotRoles[s]
	return role, ok
}

// Accepts reports whether a player of role may sit in the slot. Bench takes
// anyone; Flex players may fill any starter slot.
func (s Slot) Accepts(role player.Role) bool {
	if s.IsBench() {
		return true
	}
	required, ok := slotRoles[s]
	if !ok {
		return false
	}
	return role == required || role == player.RoleFlex
}

// Entry assigns a player to a slot of one member's roster. Entries are never
// deleted: selling sets ReleasedAt and SalePrice so historical points stay
// attributable.
type Entry struct {
	ID            string
	MemberID      string
	PlayerID      string
	Slot          Slot
	PurchasePrice decimal.Decimal
	SalePrice     *decimal.Decimal
	AcquiredAt    time.Time
	ReleasedAt    *time.Time
}

func (e Entry) IsStarter() bool { return e.Slot.IsStarter() }

func (e Entry) IsBench() bool { return e.Slot.IsBench() }

func (e Entry) Active() bool { return e.ReleasedAt == nil }

// HeldAt reports whether the entry owned its player at instant t.
func (e Entry) HeldAt(t time.Time) bool {
	if t.Before(e.AcquiredAt) {
		return false
	}
	return e.ReleasedAt == nil || t.Before(*e.ReleasedAt)
}

func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("roster entry id is required")
	}
	if e.MemberID == "" || e.PlayerID == "" {
		return fmt.Errorf("roster entry member and player are required")
	}
	if _, err := ParseSlot(string(e.Slot)); err != nil {
		return err
	}
	if e.PurchasePrice.IsNegative() {
		return fmt.Errorf("roster entry purchase price must not be negative")
	}
	return nil
}
