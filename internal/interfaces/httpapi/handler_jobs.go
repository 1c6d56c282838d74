package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/valorant-fantasy/internal/domain/syncrun"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

var internalJobDispatchUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// RunSyncJob is the queue delivery target. A pass already in flight is
// reported as skipped with 200 so the queue does not redeliver.
func (h *Handler) RunSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSyncJob")
	defer span.End()

	var req internalJobSyncRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.syncService.RunIfIdle(ctx, syncrun.TriggerJob)
	if errors.Is(err, usecase.ErrSyncInProgress) {
		h.logger.InfoContext(ctx, "sync job skipped, pass in flight", "dispatch_id", req.DispatchID)
		writeSuccess(ctx, w, http.StatusOK, syncAcceptedDTO{Status: "skipped", DispatchID: req.DispatchID})
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "sync job failed",
			"dispatch_id", req.DispatchID,
			"requested_by", req.Trigger,
			"run_id", report.RunID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "sync job completed",
		"dispatch_id", req.DispatchID,
		"run_id", report.RunID,
		"matches_processed", report.MatchesProcessed,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}

func buildManualDispatchID(jobName string, now time.Time) string {
	jobName = sanitizeDispatchPart(jobName)
	ts := now.UTC().Format("20060102T150405.000000000Z")
	return "manual-" + jobName + "-" + ts
}

func sanitizeDispatchPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return internalJobDispatchUnsafeRegex.ReplaceAllString(value, "-")
}
