package handlers

import (
	"net/http"

	"github.com/clmates/wesnoth-tournament-manager-sub001/services"
)

type AdminHandler struct {
	recalc services.Recalculator
}

func NewAdminHandler(recalc services.Recalculator) *AdminHandler {
	return &AdminHandler{recalc: recalc}
}

// RecalculateStats replays the full match history from the baseline.
func (h *AdminHandler) RecalculateStats(w http.ResponseWriter, r *http.Request) {
	if err := h.recalc.RecalculateAll(r.Context()); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"status": "recalculated"}, nil)
}
