package handlers

import (
	"net/http"

	"github.com/clmates/wesnoth-tournament-manager-sub001/services"
)

type SeriesHandler struct {
	seriesService services.SeriesService
}

func NewSeriesHandler(seriesService services.SeriesService) *SeriesHandler {
	return &SeriesHandler{seriesService: seriesService}
}

func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	series, err := h.seriesService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"series": series}, nil)
}

func (h *SeriesHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "seriesID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	games, err := h.seriesService.ListGames(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil)
}
