package handlers

import (
	"net/http"

	"github.com/austinlparker/bsky-bracket/services"
)

type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// CurrentHandler handles GET /api/games/current.
func (h *GameHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameService.CurrentGame(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if game == nil {
		notFoundResponse(w, r)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
