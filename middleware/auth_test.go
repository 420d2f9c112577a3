package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func gatewayHandler(t *testing.T, wantUserID int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		if !ok {
			t.Error("user ID missing from context")
		}
		if userID != wantUserID {
			t.Errorf("user ID = %d, want %d", userID, wantUserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestGatewayAuth(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "gw-secret")

	h := GatewayAuthMiddleware(gatewayHandler(t, 42))

	req := httptest.NewRequest("GET", "/api/v1/user", nil)
	req.Header.Set("X-Gateway-Token", "gw-secret")
	req.Header.Set("X-Telegram-User-ID", "42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGatewayAuthRejects(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "gw-secret")

	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid auth")
	})
	h := GatewayAuthMiddleware(deny)

	cases := []struct {
		name   string
		token  string
		userID string
	}{
		{"wrong token", "nope", "42"},
		{"missing token", "", "42"},
		{"missing user", "gw-secret", ""},
		{"bad user", "gw-secret", "abc"},
		{"negative user", "gw-secret", "-5"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/api/v1/user", nil)
		if tc.token != "" {
			req.Header.Set("X-Gateway-Token", tc.token)
		}
		if tc.userID != "" {
			req.Header.Set("X-Telegram-User-ID", tc.userID)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestGatewayAuthUnsetSecret(t *testing.T) {
	t.Setenv("GATEWAY_TOKEN", "")

	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with unset server secret")
	})
	h := GatewayAuthMiddleware(deny)

	// An empty configured secret must never match an empty header.
	req := httptest.NewRequest("GET", "/api/v1/user", nil)
	req.Header.Set("X-Telegram-User-ID", "42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "admin-secret")

	h := AdminAuthMiddleware(gatewayHandler(t, 7))

	req := httptest.NewRequest("POST", "/api/v1/admin/challenges", nil)
	req.Header.Set("X-Admin-Token", "admin-secret")
	req.Header.Set("X-Telegram-User-ID", "7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/v1/admin/challenges", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	req.Header.Set("X-Telegram-User-ID", "7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
