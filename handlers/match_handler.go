package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clmates/wesnoth-tournament-manager-sub001/middleware"
	"github.com/clmates/wesnoth-tournament-manager-sub001/services"
	"github.com/clmates/wesnoth-tournament-manager-sub001/storage"
)

const maxReplaySize = 8 << 20 // 8MB

type MatchHandler struct {
	matchService services.MatchService
	uploader     storage.FileUploader
}

func NewMatchHandler(matchService services.MatchService, uploader storage.FileUploader) *MatchHandler {
	return &MatchHandler{matchService: matchService, uploader: uploader}
}

type reportMatchRequest struct {
	LoserID       int     `json:"loser_id"`
	Map           string  `json:"map"`
	WinnerFaction string  `json:"winner_faction"`
	LoserFaction  string  `json:"loser_faction"`
	Comments      *string `json:"comments,omitempty"`
	SeriesGameID  *int    `json:"series_game_id,omitempty"`
}

// Report creates a match with the authenticated user as the winner.
func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req reportMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Report(r.Context(), services.ReportMatchInput{
		WinnerID:      actorID,
		LoserID:       req.LoserID,
		Map:           req.Map,
		WinnerFaction: req.WinnerFaction,
		LoserFaction:  req.LoserFaction,
		Comments:      req.Comments,
		SeriesGameID:  req.SeriesGameID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil)
}

type respondRequest struct {
	Comments *string `json:"comments,omitempty"`
}

func (h *MatchHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actorID, matchID, req, ok := h.readResponse(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.Confirm(r.Context(), matchID, actorID, req.Comments)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	actorID, matchID, req, ok := h.readResponse(w, r)
	if !ok {
		return
	}

	comments := ""
	if req.Comments != nil {
		comments = *req.Comments
	}
	match, err := h.matchService.Dispute(r.Context(), matchID, actorID, comments)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) readResponse(w http.ResponseWriter, r *http.Request) (actorID, matchID int, req respondRequest, ok bool) {
	actorID, authed := middleware.UserIDFromContext(r.Context())
	if !authed {
		unauthorizedResponse(w, r, "authentication required")
		return 0, 0, req, false
	}
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, req, false
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return 0, 0, req, false
		}
	}
	return actorID, matchID, req, true
}

type resolveRequest struct {
	Validate bool `json:"validate"`
}

// Resolve is the admin decision on a disputed match.
func (h *MatchHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req resolveRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ResolveDispute(r.Context(), matchID, req.Validate)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

// UploadReplay accepts a multipart replay file and stores it in the
// replay bucket under a key derived from the match.
func (h *MatchHandler) UploadReplay(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		errorResponse(w, r, http.StatusServiceUnavailable, "replay storage is not configured")
		return
	}
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxReplaySize); err != nil {
		badRequestResponse(w, r, errors.New("invalid multipart form or replay too large"))
		return
	}
	file, header, err := r.FormFile("replay")
	if err != nil {
		badRequestResponse(w, r, errors.New("replay file is required"))
		return
	}
	defer file.Close()

	key := fmt.Sprintf("replays/%d/match-%d-%d", time.Now().Year(), matchID, time.Now().UnixNano())
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := h.matchService.AttachReplay(r.Context(), matchID, actorID, result.Key); err != nil {
		// Best effort cleanup of the orphaned object.
		_ = h.uploader.Delete(r.Context(), result.Key)
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusCreated, jsonResponse{
		"key": result.Key,
		"url": result.Location,
	}, nil)
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) ListDisputed(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListDisputed(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}
