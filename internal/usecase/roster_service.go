package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/roster"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/cache"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/shopspring/decimal"
)

type BuyPlayerInput struct {
	MemberID string
	PlayerID string
	Slot     string
}

type SellPlayerResult struct {
	Entry  roster.Entry    `json:"entry"`
	Refund decimal.Decimal `json:"refund"`
	Budget decimal.Decimal `json:"budget"`
}

type RosterSlot struct {
	Entry  roster.Entry  `json:"entry"`
	Player player.Player `json:"player"`
}

type RosterView struct {
	Member    league.Member   `json:"member"`
	Slots     []RosterSlot    `json:"slots"`
	Budget    decimal.Decimal `json:"budget"`
	TeamValue decimal.Decimal `json:"team_value"`
}

// RosterService is the only writer of roster entries and member budgets.
// Every mutation locks only the member row and refreshes that member's
// standing, so buys and sells of one member are serialized while different
// members never contend. The league row is never locked here.
type RosterService struct {
	tx          TxManager
	leagueRepo  league.Repository
	playerRepo  player.Repository
	rosterRepo  roster.Repository
	ranking     *RankingService
	views       ViewCache
	invalidator CacheInvalidator
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewRosterService(
	tx TxManager,
	leagueRepo league.Repository,
	playerRepo player.Repository,
	rosterRepo roster.Repository,
	ranking *RankingService,
	views ViewCache,
	invalidator CacheInvalidator,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RosterService {
	if views == nil {
		views = NewPassthroughViewCache()
	}
	if invalidator == nil {
		invalidator = NewNoopInvalidator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RosterService{
		tx:          tx,
		leagueRepo:  leagueRepo,
		playerRepo:  playerRepo,
		rosterRepo:  rosterRepo,
		ranking:     ranking,
		views:       views,
		invalidator: invalidator,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *RosterService) BuyPlayer(ctx context.Context, principal user.Principal, input BuyPlayerInput) (roster.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.BuyPlayer")
	defer span.End()

	input.MemberID = strings.TrimSpace(input.MemberID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.MemberID == "" || input.PlayerID == "" {
		return roster.Entry{}, fmt.Errorf("%w: member_id and player_id are required", ErrInvalidInput)
	}
	slot, err := roster.ParseSlot(input.Slot)
	if err != nil {
		return roster.Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var (
		entry    roster.Entry
		leagueID string
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		member, err := s.lockMember(ctx, principal, input.MemberID, false)
		if err != nil {
			return err
		}
		leagueID = member.LeagueID

		p, exists, err := s.playerRepo.GetByID(ctx, input.PlayerID)
		if err != nil {
			return fmt.Errorf("get player by id: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: player=%s", ErrPlayerNotFound, input.PlayerID)
		}
		if !slot.Accepts(p.Role) {
			return fmt.Errorf("%w: %s player cannot fill slot %q", ErrInvalidInput, p.Role, slot)
		}

		active, err := s.rosterRepo.ListActiveByMember(ctx, member.ID)
		if err != nil {
			return fmt.Errorf("list active roster: %w", err)
		}
		if err := s.checkRosterRules(ctx, active, slot, p); err != nil {
			return err
		}

		price := p.CurrentPrice
		if price.GreaterThan(member.Budget) {
			return fmt.Errorf("%w: price %s exceeds budget %s", ErrInsufficientBudget, price.StringFixed(2), member.Budget.StringFixed(2))
		}

		entryID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate roster entry id: %w", err)
		}
		entry = roster.Entry{
			ID:            entryID,
			MemberID:      member.ID,
			PlayerID:      p.ID,
			Slot:          slot,
			PurchasePrice: price,
			AcquiredAt:    s.now().UTC(),
		}
		if err := s.rosterRepo.Insert(ctx, entry); err != nil {
			return mapRosterWriteError(err)
		}
		if err := s.leagueRepo.UpdateMemberBudget(ctx, member.ID, member.Budget.Sub(price)); err != nil {
			return fmt.Errorf("debit member budget: %w", err)
		}
		if _, err := s.ranking.RefreshMember(ctx, member.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return roster.Entry{}, err
	}

	s.invalidateAfterMutation(ctx, input.MemberID, leagueID, entry.PlayerID)
	s.logger.InfoContext(ctx, "player bought",
		"member_id", entry.MemberID,
		"player_id", entry.PlayerID,
		"slot", string(entry.Slot),
		"price", entry.PurchasePrice.String(),
	)

	return entry, nil
}

func (s *RosterService) SellPlayer(ctx context.Context, principal user.Principal, entryID string) (SellPlayerResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.SellPlayer")
	defer span.End()

	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return SellPlayerResult{}, fmt.Errorf("%w: roster entry id is required", ErrInvalidInput)
	}

	var (
		result   SellPlayerResult
		leagueID string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, exists, err := s.rosterRepo.GetByID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("get roster entry: %w", err)
		}
		if !exists || !entry.Active() {
			return fmt.Errorf("%w: roster entry=%s", ErrNotFound, entryID)
		}

		member, err := s.lockMember(ctx, principal, entry.MemberID, true)
		if err != nil {
			return err
		}
		leagueID = member.LeagueID

		// Re-read under the member lock: a concurrent sell may have released it.
		entry, exists, err = s.rosterRepo.GetByID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("get roster entry: %w", err)
		}
		if !exists || !entry.Active() {
			return fmt.Errorf("%w: roster entry=%s", ErrNotFound, entryID)
		}

		p, exists, err := s.playerRepo.GetByID(ctx, entry.PlayerID)
		if err != nil {
			return fmt.Errorf("get player by id: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: player=%s", ErrPlayerNotFound, entry.PlayerID)
		}

		refund := p.CurrentPrice
		releasedAt := s.now().UTC()
		if err := s.rosterRepo.Release(ctx, entry.ID, refund, releasedAt); err != nil {
			return fmt.Errorf("release roster entry: %w", err)
		}
		budget := member.Budget.Add(refund)
		if err := s.leagueRepo.UpdateMemberBudget(ctx, member.ID, budget); err != nil {
			return fmt.Errorf("credit member budget: %w", err)
		}
		if _, err := s.ranking.RefreshMember(ctx, member.ID); err != nil {
			return err
		}

		entry.ReleasedAt = &releasedAt
		entry.SalePrice = &refund
		result = SellPlayerResult{Entry: entry, Refund: refund, Budget: budget}
		return nil
	})
	if err != nil {
		return SellPlayerResult{}, err
	}

	s.invalidateAfterMutation(ctx, result.Entry.MemberID, leagueID, result.Entry.PlayerID)
	s.logger.InfoContext(ctx, "player sold",
		"member_id", result.Entry.MemberID,
		"player_id", result.Entry.PlayerID,
		"refund", result.Refund.String(),
	)

	return result, nil
}

// GetRoster returns the member's active roster in slot order.
func (s *RosterService) GetRoster(ctx context.Context, memberID string) (RosterView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetRoster")
	defer span.End()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return RosterView{}, fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}

	value, err := s.views.GetOrLoad(ctx, cache.RosterKey(memberID), func(ctx context.Context) (any, error) {
		return s.loadRoster(ctx, memberID)
	})
	if err != nil {
		return RosterView{}, err
	}

	view, _ := value.(RosterView)
	view.Slots = append([]RosterSlot(nil), view.Slots...)
	return view, nil
}

func (s *RosterService) loadRoster(ctx context.Context, memberID string) (RosterView, error) {
	member, exists, err := s.leagueRepo.GetMember(ctx, memberID)
	if err != nil {
		return RosterView{}, fmt.Errorf("get member: %w", err)
	}
	if !exists {
		return RosterView{}, fmt.Errorf("%w: member=%s", ErrNotFound, memberID)
	}

	entries, err := s.rosterRepo.ListActiveByMember(ctx, memberID)
	if err != nil {
		return RosterView{}, fmt.Errorf("list active roster: %w", err)
	}

	playerIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		playerIDs = append(playerIDs, e.PlayerID)
	}
	players, err := s.playerRepo.GetByIDs(ctx, playerIDs)
	if err != nil {
		return RosterView{}, fmt.Errorf("get rostered players: %w", err)
	}
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	order := make(map[roster.Slot]int, len(roster.Layout))
	for i, slot := range roster.Layout {
		order[slot] = i
	}

	view := RosterView{
		Member:    member,
		Slots:     make([]RosterSlot, 0, len(entries)),
		Budget:    member.Budget,
		TeamValue: decimal.Zero,
	}
	for _, e := range entries {
		p := byID[e.PlayerID]
		view.Slots = append(view.Slots, RosterSlot{Entry: e, Player: p})
		view.TeamValue = view.TeamValue.Add(p.CurrentPrice)
	}
	sortSlots(view.Slots, order)

	return view, nil
}

func sortSlots(slots []RosterSlot, order map[roster.Slot]int) {
	sort.SliceStable(slots, func(i, j int) bool {
		return order[slots[i].Entry.Slot] < order[slots[j].Entry.Slot]
	})
}

// lockMember loads the member under its row lock and checks the caller may
// act on it. League admins may only act when allowLeagueAdmin is set.
func (s *RosterService) lockMember(ctx context.Context, principal user.Principal, memberID string, allowLeagueAdmin bool) (league.Member, error) {
	member, exists, err := s.leagueRepo.GetMemberForUpdate(ctx, memberID)
	if err != nil {
		return league.Member{}, fmt.Errorf("lock member: %w", err)
	}
	if !exists {
		return league.Member{}, fmt.Errorf("%w: member=%s", ErrNotFound, memberID)
	}
	if principal.IsAdmin || member.UserID == principal.UserID {
		return member, nil
	}
	if allowLeagueAdmin {
		lg, exists, err := s.leagueRepo.GetByID(ctx, member.LeagueID)
		if err != nil {
			return league.Member{}, fmt.Errorf("get league by id: %w", err)
		}
		if exists && lg.AdminUserID == principal.UserID {
			return member, nil
		}
	}
	return league.Member{}, fmt.Errorf("%w: member=%s does not belong to caller", ErrForbidden, memberID)
}

func (s *RosterService) checkRosterRules(ctx context.Context, active []roster.Entry, slot roster.Slot, candidate player.Player) error {
	heldIDs := make([]string, 0, len(active))
	for _, e := range active {
		if e.Slot == slot {
			return fmt.Errorf("%w: slot %q", ErrSlotOccupied, slot)
		}
		if e.PlayerID == candidate.ID {
			return fmt.Errorf("%w: player=%s already in slot %q", ErrDuplicatePlayer, candidate.ID, e.Slot)
		}
		heldIDs = append(heldIDs, e.PlayerID)
	}

	if candidate.TeamID == "" || len(heldIDs) == 0 {
		return nil
	}
	held, err := s.playerRepo.GetByIDs(ctx, heldIDs)
	if err != nil {
		return fmt.Errorf("get rostered players: %w", err)
	}
	sameTeam := 0
	for _, p := range held {
		if p.TeamID == candidate.TeamID {
			sameTeam++
		}
	}
	if sameTeam >= roster.MaxPlayersPerProTeam {
		return fmt.Errorf("%w: already holding %d players of team=%s", ErrTeamLimitReached, sameTeam, candidate.TeamID)
	}
	return nil
}

func (s *RosterService) invalidateAfterMutation(ctx context.Context, memberID, leagueID, playerID string) {
	s.invalidator.InvalidateRosters(ctx, memberID)
	s.invalidator.InvalidateRankings(ctx, leagueID)
	s.invalidator.InvalidatePlayers(ctx, playerID)
}

func mapRosterWriteError(err error) error {
	switch {
	case errors.Is(err, roster.ErrSlotTaken):
		return fmt.Errorf("%w: %v", ErrSlotOccupied, err)
	case errors.Is(err, roster.ErrPlayerHeld):
		return fmt.Errorf("%w: %v", ErrDuplicatePlayer, err)
	default:
		return fmt.Errorf("insert roster entry: %w", err)
	}
}
