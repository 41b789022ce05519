package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"costume-vote-backend/internal/services"
)

func gatedHandler(secret string) http.Handler {
	adminService := services.NewAdminService(secret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AdminMiddleware(adminService)(next)
}

func TestAdminMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		serverSecret string
		headers      map[string]string
		wantStatus   int
	}{
		{
			name:         "correct secret header",
			serverSecret: "hunter2",
			headers:      map[string]string{"X-Admin-Secret": "hunter2"},
			wantStatus:   http.StatusOK,
		},
		{
			name:         "wrong secret header",
			serverSecret: "hunter2",
			headers:      map[string]string{"X-Admin-Secret": "nope"},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "no credentials",
			serverSecret: "hunter2",
			headers:      nil,
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "malformed bearer header",
			serverSecret: "hunter2",
			headers:      map[string]string{"Authorization": "hunter2"},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "garbage bearer token",
			serverSecret: "hunter2",
			headers:      map[string]string{"Authorization": "Bearer garbage"},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "unconfigured secret fails closed",
			serverSecret: "",
			headers:      map[string]string{"X-Admin-Secret": "anything"},
			wantStatus:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/reset", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			gatedHandler(tt.serverSecret).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminMiddlewareAcceptsSessionToken(t *testing.T) {
	adminService := services.NewAdminService("hunter2")
	token, err := adminService.IssueToken("hunter2")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := AdminMiddleware(adminService)(next)

	req := httptest.NewRequest(http.MethodPut, "/admin/phase", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
