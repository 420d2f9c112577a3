package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/asertelegram/Sparkaph/internal/submission"
	"github.com/asertelegram/Sparkaph/middleware"
	"github.com/asertelegram/Sparkaph/services"
)

type SubmissionHandler struct {
	pipeline *services.SubmissionPipeline
}

func NewSubmissionHandler(pipeline *services.SubmissionPipeline) *SubmissionHandler {
	return &SubmissionHandler{pipeline: pipeline}
}

// Submit accepts proof for the caller's active assignment.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req submission.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ContentRef == "" || !submission.ValidContentType(req.ContentType) {
		respondWithError(w, http.StatusBadRequest, "content_ref and a valid content_type are required")
		return
	}

	sub, err := h.pipeline.Submit(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sub)
}
