package httpapi

import (
	"net/http"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/user"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/players", handler.ListPlayers)
	mux.HandleFunc("GET /v1/players/{playerID}", handler.GetPlayer)
	mux.HandleFunc("GET /v1/players/{playerID}/prices", handler.GetPlayerPriceHistory)
	mux.HandleFunc("GET /v1/tournaments", handler.ListTournaments)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/matches", handler.ListTournamentMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}/stats", handler.GetMatchStats)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier user.Verifier) {
	mux.Handle("POST /v1/leagues", RequireAuth(verifier, http.HandlerFunc(handler.CreateLeague)))
	mux.Handle("POST /v1/leagues/join", RequireAuth(verifier, http.HandlerFunc(handler.JoinLeague)))
	mux.Handle("GET /v1/leagues/{leagueID}", RequireAuth(verifier, http.HandlerFunc(handler.GetLeague)))
	mux.Handle("GET /v1/leagues/{leagueID}/rankings", RequireAuth(verifier, http.HandlerFunc(handler.GetRankings)))
	mux.Handle("GET /v1/members/{memberID}/roster", RequireAuth(verifier, http.HandlerFunc(handler.GetRoster)))
	// Ownership is enforced by the roster service under the member lock.
	mux.Handle("POST /v1/members/{memberID}/roster", RequireAuth(verifier, http.HandlerFunc(handler.BuyPlayer)))
	mux.Handle("DELETE /v1/roster/{entryID}", RequireAuth(verifier, http.HandlerFunc(handler.SellPlayer)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier user.Verifier) {
	admin := func(next http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RequireAdmin(next))
	}

	mux.Handle("POST /v1/admin/sync", admin(handler.TriggerSync))
	mux.Handle("GET /v1/admin/sync", admin(handler.GetSyncStatus))
	mux.Handle("GET /v1/admin/sync/runs", admin(handler.ListSyncRuns))
	mux.Handle("POST /v1/admin/recalibrate", admin(handler.RecalibratePrices))
	mux.Handle("POST /v1/admin/roles", admin(handler.UpdatePlayerRoles))
	mux.Handle("GET /v1/admin/matches/attention", admin(handler.ListMatchesNeedingAttention))
	mux.Handle("POST /v1/admin/matches/{matchID}/retry", admin(handler.RetryMatch))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST "+internalSyncJobPath, RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSyncJob)))
}
