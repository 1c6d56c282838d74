package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/riskibarqy/valorant-fantasy/internal/infrastructure/jobqueue"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	const site = "https://valorant-fantasy.example.com"

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantVary    bool
		wantHeaders bool
	}{
		{
			name:        "configured origin echoed",
			allowed:     []string{site},
			method:      http.MethodGet,
			origin:      site,
			wantStatus:  http.StatusOK,
			wantOrigin:  site,
			wantVary:    true,
			wantHeaders: true,
		},
		{
			name:        "wildcard preflight short circuits",
			allowed:     []string{"*"},
			method:      http.MethodOptions,
			origin:      site,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "*",
			wantHeaders: true,
		},
		{
			name:       "unknown origin gets no headers",
			allowed:    []string{"https://allowed.example.com"},
			method:     http.MethodDelete,
			origin:     "https://elsewhere.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "no origin passes through",
			allowed:    []string{site},
			method:     http.MethodPost,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tc.method, "/v1/players", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tc.wantVary {
				t.Fatalf("unexpected Vary header %q", rec.Header().Get("Vary"))
			}
			allowHeaders := rec.Header().Get("Access-Control-Allow-Headers")
			if got := strings.Contains(allowHeaders, jobqueue.InternalJobTokenHeader); got != tc.wantHeaders {
				t.Fatalf("unexpected Access-Control-Allow-Headers %q", allowHeaders)
			}
		})
	}
}
