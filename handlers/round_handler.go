package handlers

import (
	"net/http"

	"github.com/austinlparker/bsky-bracket/services"
)

type RoundHandler struct {
	roundService *services.RoundService
}

func NewRoundHandler(roundService *services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: roundService}
}

// CurrentHandler handles GET /api/rounds/current.
func (h *RoundHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	round, err := h.roundService.CurrentRound(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if round == nil {
		notFoundResponse(w, r)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatusHandler handles GET /api/rounds/status: the current round with live
// progress and aggregate counters.
func (h *RoundHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.roundService.RoundStatus(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if report == nil {
		notFoundResponse(w, r)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatsHandler handles GET /api/rounds/{roundID}/stats.
func (h *RoundHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.roundService.RoundStats(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CutoffsHandler handles GET /api/rounds/{roundID}/cutoffs: per-team cutoff
// like counts of a completed round.
func (h *RoundHandler) CutoffsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cutoffs, err := h.roundService.TeamCutoffs(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round_id": id, "cutoffs": cutoffs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
