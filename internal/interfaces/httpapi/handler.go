package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

// Services groups the use cases the HTTP surface exposes. Jobs may be nil
// when asynchronous dispatch is disabled.
type Services struct {
	Teams         *usecase.TeamService
	Players       *usecase.PlayerService
	Matches       *usecase.MatchService
	Leagues       *usecase.LeagueService
	Rosters       *usecase.RosterService
	Rankings      *usecase.RankingService
	Recalibration *usecase.RecalibrationService
	Sync          *usecase.SyncService
	Jobs          usecase.JobQueue
}

type Handler struct {
	teamService          *usecase.TeamService
	playerService        *usecase.PlayerService
	matchService         *usecase.MatchService
	leagueService        *usecase.LeagueService
	rosterService        *usecase.RosterService
	rankingService       *usecase.RankingService
	recalibrationService *usecase.RecalibrationService
	syncService          *usecase.SyncService
	jobQueue             usecase.JobQueue
	logger               *logging.Logger
	validator            *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:          services.Teams,
		playerService:        services.Players,
		matchService:         services.Matches,
		leagueService:        services.Leagues,
		rosterService:        services.Rosters,
		rankingService:       services.Rankings,
		recalibrationService: services.Recalibration,
		syncService:          services.Sync,
		jobQueue:             services.Jobs,
		logger:               logger,
		validator:            validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON reads a JSON body into dst. An empty body is accepted only when
// allowEmpty is set, leaving dst at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	decoder := jsoniter.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// principalOrError writes 401 when the auth middleware did not run.
func principalOrError(ctx context.Context, w http.ResponseWriter) (user.Principal, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
	}
	return principal, ok
}
