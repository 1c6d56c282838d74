package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoster")
	defer span.End()

	memberID := strings.TrimSpace(r.PathValue("memberID"))
	view, err := h.rosterService.GetRoster(ctx, memberID)
	if err != nil {
		h.logger.WarnContext(ctx, "get roster failed", "member_id", memberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rosterToDTO(view))
}

func (h *Handler) BuyPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BuyPlayer")
	defer span.End()

	principal, ok := principalOrError(ctx, w)
	if !ok {
		return
	}

	var req buyPlayerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	memberID := strings.TrimSpace(r.PathValue("memberID"))
	entry, err := h.rosterService.BuyPlayer(ctx, principal, usecase.BuyPlayerInput{
		MemberID: memberID,
		PlayerID: req.PlayerID,
		Slot:     req.Slot,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "buy player failed",
			"member_id", memberID,
			"player_id", req.PlayerID,
			"slot", req.Slot,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, rosterEntryToDTO(entry))
}

func (h *Handler) SellPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SellPlayer")
	defer span.End()

	principal, ok := principalOrError(ctx, w)
	if !ok {
		return
	}

	entryID := strings.TrimSpace(r.PathValue("entryID"))
	result, err := h.rosterService.SellPlayer(ctx, principal, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "sell player failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sellResultDTO{
		Entry:  rosterEntryToDTO(result.Entry),
		Refund: result.Refund,
		Budget: result.Budget,
	})
}
