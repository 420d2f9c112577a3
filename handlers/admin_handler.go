package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/asertelegram/Sparkaph/internal/challenge"
	"github.com/asertelegram/Sparkaph/internal/submission"
	"github.com/asertelegram/Sparkaph/middleware"
	"github.com/asertelegram/Sparkaph/services"
)

type AdminHandler struct {
	catalog  *services.CatalogService
	pipeline *services.SubmissionPipeline
}

func NewAdminHandler(catalog *services.CatalogService, pipeline *services.SubmissionPipeline) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		pipeline: pipeline,
	}
}

func (h *AdminHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	adminID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.catalog.Create(ctx, adminID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *AdminHandler) ArchiveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	if err := h.catalog.Archive(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

func (h *AdminHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	c, err := h.catalog.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

// GetPendingSubmissions returns the moderation queue, oldest first.
func (h *AdminHandler) GetPendingSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	pending, err := h.pipeline.ListPending(ctx, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"submissions": pending})
}

// ReviewSubmission applies an approve or reject decision. A duplicate
// decision on an already-reviewed submission is absorbed: the admin bot
// retries on flaky networks and must not see an error for the retry.
func (h *AdminHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	reviewerID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	var req submission.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Decision.Terminal() {
		respondWithError(w, http.StatusBadRequest, "decision must be approved or rejected")
		return
	}

	sub, err := h.pipeline.Review(ctx, id, reviewerID, req.Decision, req.Reason)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyReviewed) {
			respondWithJSON(w, http.StatusOK, map[string]string{"status": "already_reviewed"})
			return
		}
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sub)
}
