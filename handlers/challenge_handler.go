package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/middleware"
	"github.com/asertelegram/Sparkaph/services"
)

type ChallengeHandler struct {
	allocator *services.SlotAllocator
	tracker   *services.AssignmentTracker
}

func NewChallengeHandler(allocator *services.SlotAllocator, tracker *services.AssignmentTracker) *ChallengeHandler {
	return &ChallengeHandler{
		allocator: allocator,
		tracker:   tracker,
	}
}

func (h *ChallengeHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": challenge.Categories()})
}

// Draw reserves a random challenge from the requested category.
func (h *ChallengeHandler) Draw(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		CategoryID string `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !challenge.ValidCategory(body.CategoryID) {
		respondWithError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	c, a, err := h.allocator.Reserve(ctx, userID, body.CategoryID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"challenge":  c,
		"assignment": a,
	})
}

// Skip ends the user's active assignment without a submission.
func (h *ChallengeHandler) Skip(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.tracker.Skip(ctx, userID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
}
