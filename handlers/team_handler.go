package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/austinlparker/bsky-bracket/services"
	"github.com/go-chi/chi/v5"
)

type TeamHandler struct {
	statsService *services.StatsService
	roundService *services.RoundService
}

func NewTeamHandler(statsService *services.StatsService, roundService *services.RoundService) *TeamHandler {
	return &TeamHandler{statsService: statsService, roundService: roundService}
}

// ListHandler handles GET /api/teams: member counts of every team that has at
// least one known user.
func (h *TeamHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.TeamMemberCounts(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": counts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EliminationsHandler handles GET /api/teams/{team}/eliminations. Team zero is
// valid, so the generic positive-id helper does not apply here.
func (h *TeamHandler) EliminationsHandler(w http.ResponseWriter, r *http.Request) {
	team, err := strconv.Atoi(chi.URLParam(r, "team"))
	if err != nil || team < 0 {
		badRequestResponse(w, r, errors.New("invalid team URL parameter"))
		return
	}

	eliminations, err := h.roundService.TeamEliminations(r.Context(), team)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team, "eliminations": eliminations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
