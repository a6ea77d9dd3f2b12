package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authHandler(t *testing.T, apiKeys []string) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuthMiddleware(apiKeys)(next)
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		apiKeys    []string
		path       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "no keys configured passes through",
			apiKeys:    nil,
			path:       "/api/chat",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid bearer token",
			apiKeys:    []string{"key-1"},
			path:       "/api/chat",
			authHeader: "Bearer key-1",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header rejected",
			apiKeys:    []string{"key-1"},
			path:       "/api/chat",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme rejected",
			apiKeys:    []string{"key-1"},
			path:       "/api/chat",
			authHeader: "Basic key-1",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid key rejected",
			apiKeys:    []string{"key-1"},
			path:       "/api/chat",
			authHeader: "Bearer key-2",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "health exempt",
			apiKeys:    []string{"key-1"},
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics exempt",
			apiKeys:    []string{"key-1"},
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty keys filtered out",
			apiKeys:    []string{""},
			path:       "/api/chat",
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			authHandler(t, tt.apiKeys).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
