package handlers

import (
	"net/http"

	"github.com/clmates/wesnoth-tournament-manager-sub001/middleware"
	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
	"github.com/clmates/wesnoth-tournament-manager-sub001/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	roundService      services.RoundService
}

func NewTournamentHandler(tournamentService services.TournamentService, roundService services.RoundService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		roundService:      roundService,
	}
}

type createTournamentRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Format        string  `json:"format"`
	GeneralRounds int     `json:"general_rounds"`
	FinalRounds   int     `json:"final_rounds"`
	GeneralBestOf int     `json:"general_best_of"`
	FinalBestOf   int     `json:"final_best_of"`
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), services.CreateTournamentInput{
		Name:          req.Name,
		Description:   req.Description,
		CreatorID:     creatorID,
		Format:        models.TournamentFormat(req.Format),
		GeneralRounds: req.GeneralRounds,
		FinalRounds:   req.FinalRounds,
		GeneralBestOf: req.GeneralBestOf,
		FinalBestOf:   req.FinalBestOf,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.TournamentStatus(raw)
		status = &s
	}
	tournaments, err := h.tournamentService.List(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.tournamentService.Register(r.Context(), tournamentID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil)
}

// Prepare computes and persists the round plan.
func (h *TournamentHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.Prepare(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil)
}

func (h *TournamentHandler) ActivateRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, number, err := h.roundParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := h.roundService.ActivateRound(r.Context(), tournamentID, number)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil)
}

func (h *TournamentHandler) CheckRoundCompletion(w http.ResponseWriter, r *http.Request) {
	tournamentID, number, err := h.roundParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	completed, err := h.roundService.CheckRoundCompletion(r.Context(), tournamentID, number)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"completed": completed}, nil)
}

func (h *TournamentHandler) roundParams(r *http.Request) (tournamentID, number int, err error) {
	tournamentID, err = idParam(r, "tournamentID")
	if err != nil {
		return 0, 0, err
	}
	number, err = idParam(r, "roundNumber")
	if err != nil {
		return 0, 0, err
	}
	return tournamentID, number, nil
}
