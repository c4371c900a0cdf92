package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/austinlparker/bsky-bracket/middleware"
	"github.com/austinlparker/bsky-bracket/services"
)

type FeedHandler struct {
	feedService *services.FeedService
}

func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// GetHandler handles GET /api/feed?cursor=&limit=. The caller's team comes
// from their authenticated DID; an unknown DID has no team yet and gets 404.
func (h *FeedHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	did, err := middleware.GetDIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	query := r.URL.Query()
	cursor := query.Get("cursor")

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}

	page, err := h.feedService.RankedFeed(r.Context(), did, cursor, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, page, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
