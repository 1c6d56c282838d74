package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/league"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	idgen "github.com/riskibarqy/valorant-fantasy/internal/platform/id"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
)

const inviteCodeAttempts = 5

type CreateLeagueInput struct {
	Name     string
	TeamName string
	MaxTeams int
}

type JoinLeagueInput struct {
	InviteCode string
	TeamName   string
}

type LeagueDetail struct {
	League  league.League   `json:"league"`
	Members []league.Member `json:"members"`
}

type LeagueService struct {
	tx          TxManager
	leagueRepo  league.Repository
	ranking     *RankingService
	invalidator CacheInvalidator
	idGen       idgen.Generator
	inviteCodes func() (string, error)
	logger      *logging.Logger
	now         func() time.Time
}

func NewLeagueService(
	tx TxManager,
	leagueRepo league.Repository,
	ranking *RankingService,
	invalidator CacheInvalidator,
	idGen idgen.Generator,
	logger *logging.Logger,
) *LeagueService {
	if invalidator == nil {
		invalidator = NewNoopInvalidator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &LeagueService{
		tx:          tx,
		leagueRepo:  leagueRepo,
		ranking:     ranking,
		invalidator: invalidator,
		idGen:       idGen,
		inviteCodes: idgen.NewInviteCode,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateLeague creates the league and enrolls the caller as its admin member.
func (s *LeagueService) CreateLeague(ctx context.Context, principal user.Principal, input CreateLeagueInput) (LeagueDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.CreateLeague")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return LeagueDetail{}, fmt.Errorf("%w: missing caller", ErrUnauthorized)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.TeamName = strings.TrimSpace(input.TeamName)
	if input.Name == "" {
		return LeagueDetail{}, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	}
	if input.TeamName == "" {
		input.TeamName = input.Name + " Admin"
	}
	if input.MaxTeams == 0 {
		input.MaxTeams = league.DefaultMaxTeams
	}

	now := s.now().UTC()
	leagueID, err := s.idGen.NewID()
	if err != nil {
		return LeagueDetail{}, fmt.Errorf("generate league id: %w", err)
	}
	memberID, err := s.idGen.NewID()
	if err != nil {
		return LeagueDetail{}, fmt.Errorf("generate member id: %w", err)
	}

	item := league.League{
		ID:          leagueID,
		Name:        input.Name,
		AdminUserID: principal.UserID,
		MaxTeams:    input.MaxTeams,
		Status:      league.StatusDrafting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	admin := league.Member{
		ID:            memberID,
		LeagueID:      leagueID,
		UserID:        principal.UserID,
		TeamName:      input.TeamName,
		Budget:        league.AdminBudget,
		InitialBudget: league.AdminBudget,
		Rank:          1,
		IsAdmin:       true,
		JoinedAt:      now,
		UpdatedAt:     now,
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := s.inviteCodes()
		if err != nil {
			return LeagueDetail{}, fmt.Errorf("generate invite code: %w", err)
		}
		item.InviteCode = code
		if err := item.Validate(); err != nil {
			return LeagueDetail{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.leagueRepo.Create(ctx, item); err != nil {
				return err
			}
			if err := s.leagueRepo.CreateMember(ctx, admin); err != nil {
				return fmt.Errorf("create admin member: %w", err)
			}
			return nil
		})
		if errors.Is(err, league.ErrInviteCodeTaken) {
			s.logger.WarnContext(ctx, "invite code collision, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return LeagueDetail{}, fmt.Errorf("create league: %w", err)
		}

		s.logger.InfoContext(ctx, "league created", "league_id", item.ID, "admin_user_id", principal.UserID)
		return LeagueDetail{League: item, Members: []league.Member{admin}}, nil
	}

	return LeagueDetail{}, fmt.Errorf("%w: could not allocate a unique invite code", ErrConcurrentModification)
}

func (s *LeagueService) JoinLeague(ctx context.Context, principal user.Principal, input JoinLeagueInput) (league.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.JoinLeague")
	defer span.End()

	if strings.TrimSpace(principal.UserID) == "" {
		return league.Member{}, fmt.Errorf("%w: missing caller", ErrUnauthorized)
	}
	code := strings.ToUpper(strings.TrimSpace(input.InviteCode))
	teamName := strings.TrimSpace(input.TeamName)
	if code == "" {
		return league.Member{}, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}
	if teamName == "" {
		return league.Member{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	var member league.Member
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lg, exists, err := s.leagueRepo.GetByInviteCode(ctx, code)
		if err != nil {
			return fmt.Errorf("get league by invite code: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: invite code %s", ErrNotFound, code)
		}
		if lg.Status == league.StatusFinished {
			return fmt.Errorf("%w: league=%s is finished", ErrInvalidInput, lg.ID)
		}
		if err := s.leagueRepo.LockLeague(ctx, lg.ID); err != nil {
			return fmt.Errorf("lock league: %w", err)
		}

		if _, exists, err := s.leagueRepo.GetMemberByUser(ctx, lg.ID, principal.UserID); err != nil {
			return fmt.Errorf("get member by user: %w", err)
		} else if exists {
			return fmt.Errorf("%w: league=%s", ErrAlreadyMember, lg.ID)
		}

		count, err := s.leagueRepo.CountMembers(ctx, lg.ID)
		if err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if count >= lg.MaxTeams {
			return fmt.Errorf("%w: league=%s has %d/%d teams", ErrLeagueFull, lg.ID, count, lg.MaxTeams)
		}

		memberID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate member id: %w", err)
		}
		now := s.now().UTC()
		member = league.Member{
			ID:            memberID,
			LeagueID:      lg.ID,
			UserID:        principal.UserID,
			TeamName:      teamName,
			Budget:        league.MemberBudget,
			InitialBudget: league.MemberBudget,
			JoinedAt:      now,
			UpdatedAt:     now,
		}
		if err := s.leagueRepo.CreateMember(ctx, member); err != nil {
			if errors.Is(err, league.ErrMemberExists) {
				return fmt.Errorf("%w: league=%s", ErrAlreadyMember, lg.ID)
			}
			return fmt.Errorf("create member: %w", err)
		}

		standings, err := s.ranking.RecomputeLeague(ctx, lg.ID)
		if err != nil {
			return err
		}
		for _, st := range standings {
			if st.MemberID == member.ID {
				member.Rank = st.Rank
			}
		}
		return nil
	})
	if err != nil {
		return league.Member{}, err
	}

	s.invalidator.InvalidateRankings(ctx, member.LeagueID)
	s.logger.InfoContext(ctx, "league joined", "league_id", member.LeagueID, "member_id", member.ID)
	return member, nil
}

func (s *LeagueService) GetLeague(ctx context.Context, leagueID string) (LeagueDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueService.GetLeague")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return LeagueDetail{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return LeagueDetail{}, fmt.Errorf("get league by id: %w", err)
	}
	if !exists {
		return LeagueDetail{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	members, err := s.leagueRepo.ListMembers(ctx, leagueID)
	if err != nil {
		return LeagueDetail{}, fmt.Errorf("list members: %w", err)
	}
	rankMembers(members)

	return LeagueDetail{League: lg, Members: members}, nil
}
