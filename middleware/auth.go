package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strconv"
)

type contextKey string

const UserIDKey contextKey = "userID"

// GatewayAuthMiddleware authenticates calls from the trusted bot gateway.
// The gateway proves itself with a shared secret and forwards the acting
// Telegram user in X-Telegram-User-ID.
func GatewayAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Gateway-Token")
		if !secretEqual(token, os.Getenv("GATEWAY_TOKEN")) {
			respondWithError(w, http.StatusUnauthorized, "Invalid gateway token")
			return
		}

		userID, err := strconv.ParseInt(r.Header.Get("X-Telegram-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			respondWithError(w, http.StatusUnauthorized, "Missing or invalid X-Telegram-User-ID")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminAuthMiddleware protects the moderation and catalog endpoints. The
// admin bot sends its own secret plus the acting moderator's Telegram ID.
func AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Admin-Token")
		if !secretEqual(token, os.Getenv("ADMIN_TOKEN")) {
			respondWithError(w, http.StatusForbidden, "Invalid admin token")
			return
		}

		userID, err := strconv.ParseInt(r.Header.Get("X-Telegram-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			respondWithError(w, http.StatusUnauthorized, "Missing or invalid X-Telegram-User-ID")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func secretEqual(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// GetUserID extracts the acting Telegram user ID from context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
