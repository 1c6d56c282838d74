package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

const internalSyncJobPath = "/v1/internal/jobs/sync"

// TriggerSync runs a full pass inline, or hands it to the job queue when the
// caller asks for async dispatch.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerSync")
	defer span.End()

	var req adminSyncRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	if req.Async {
		if h.jobQueue == nil {
			writeError(ctx, w, fmt.Errorf("%w: job queue is not configured", usecase.ErrDependencyUnavailable))
			return
		}

		dispatchID := buildManualDispatchID("sync", time.Now())
		payload := internalJobSyncRequest{Trigger: string(syncrun.TriggerManual), DispatchID: dispatchID}
		if err := h.jobQueue.Enqueue(ctx, internalSyncJobPath, payload, 0, dispatchID); err != nil {
			h.logger.WarnContext(ctx, "enqueue sync job failed", "dispatch_id", dispatchID, "error", err)
			writeError(ctx, w, err)
			return
		}

		h.logger.InfoContext(ctx, "sync job enqueued", "dispatch_id", dispatchID)
		writeSuccess(ctx, w, http.StatusAccepted, syncAcceptedDTO{Status: "queued", DispatchID: dispatchID})
		return
	}

	report, err := h.syncService.Run(ctx, syncrun.TriggerManual)
	if err != nil {
		h.logger.WarnContext(ctx, "manual sync failed", "run_id", report.RunID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSyncStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"in_progress": h.syncService.InProgress()})
}

func (h *Handler) RecalibratePrices(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecalibratePrices")
	defer span.End()

	result, err := h.recalibrationService.RecalibratePrices(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "recalibrate prices failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) UpdatePlayerRoles(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePlayerRoles")
	defer span.End()

	updated, err := h.syncService.UpdatePlayerRoles(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "update player roles failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"players_updated": updated})
}

func (h *Handler) ListMatchesNeedingAttention(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesNeedingAttention")
	defer span.End()

	matches, err := h.matchService.ListNeedsAttention(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches needing attention failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RetryMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetryMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.syncService.RetryMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "retry match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSyncRuns")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	runs, err := h.syncService.ListRecentRuns(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list sync runs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]syncRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, syncRunToDTO(run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
