package handlers

import (
	"net/http"

	"github.com/austinlparker/bsky-bracket/services"
)

type StatsHandler struct {
	statsService *services.StatsService
}

func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// CurrentHandler handles GET /api/stats/current: the full dashboard payload.
// Always 200; with no game running the overview comes back mostly empty.
func (h *StatsHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := h.statsService.CurrentOverview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
