package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/asertelegram/Sparkaph/internal/store"
	"github.com/asertelegram/Sparkaph/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps domain outcomes to HTTP statuses. Anything
// unrecognized is logged and reported as a 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoCapacity):
		respondWithError(w, http.StatusConflict, "No challenge with free capacity, try another category or come back later")
	case errors.Is(err, services.ErrAlreadyAssigned):
		respondWithError(w, http.StatusConflict, "You already have an active challenge")
	case errors.Is(err, services.ErrNoActiveAssignment):
		respondWithError(w, http.StatusConflict, "You have no active challenge")
	case errors.Is(err, services.ErrRateLimited):
		respondWithError(w, http.StatusTooManyRequests, "Too many attempts, slow down")
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	default:
		log.Printf("Internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
