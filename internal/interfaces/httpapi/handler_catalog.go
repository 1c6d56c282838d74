package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/player"
	"github.com/riskibarqy/valorant-fantasy/internal/domain/team"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teamService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	filter, err := parsePlayerFilter(r.URL.Query())
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	players, err := h.playerService.ListPlayers(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list players failed", "filter", filter.Key(), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	item, err := h.playerService.GetPlayer(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(item))
}

func (h *Handler) GetPlayerPriceHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerPriceHistory")
	defer span.End()

	playerID := strings.TrimSpace(r.PathValue("playerID"))
	history, err := h.playerService.GetPriceHistory(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get price history failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]priceHistoryDTO, 0, len(history))
	for _, entry := range history {
		items = append(items, priceHistoryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	tournaments, err := h.matchService.ListTournaments(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list tournaments failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]tournamentDTO, 0, len(tournaments))
	for _, t := range tournaments {
		items = append(items, tournamentToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTournamentMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentMatches")
	defer span.End()

	tournamentID := strings.TrimSpace(r.PathValue("tournamentID"))
	matches, err := h.matchService.ListMatchesByTournament(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchStats")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	view, err := h.matchService.GetMatchStats(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match stats failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStatsToDTO(view))
}

func parsePlayerFilter(query url.Values) (player.Filter, error) {
	var filter player.Filter

	if raw := strings.TrimSpace(query.Get("role")); raw != "" {
		role, ok := matchRole(raw)
		if !ok {
			return player.Filter{}, fmt.Errorf("%w: unknown role %q", usecase.ErrInvalidInput, raw)
		}
		filter.Role = role
	}
	if raw := strings.TrimSpace(query.Get("region")); raw != "" {
		region, ok := matchRegion(raw)
		if !ok {
			return player.Filter{}, fmt.Errorf("%w: unknown region %q", usecase.ErrInvalidInput, raw)
		}
		filter.Region = region
	}
	filter.TeamID = strings.TrimSpace(query.Get("team_id"))
	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return player.Filter{}, fmt.Errorf("%w: active must be a boolean", usecase.ErrInvalidInput)
		}
		filter.ActiveOnly = active
	}

	return filter, nil
}

func matchRole(raw string) (player.Role, bool) {
	for role := range player.AllRoles {
		if strings.EqualFold(string(role), raw) {
			return role, true
		}
	}
	return "", false
}

func matchRegion(raw string) (team.Region, bool) {
	for region := range team.AllRegions {
		if strings.EqualFold(string(region), raw) {
			return region, true
		}
	}
	return "", false
}
