package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/logging"
)

func TestRequestLogger_LogsStatusPathAndUser(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	router := NewRouter(RouterDeps{
		Pool:      &stubPool{},
		Claims:    &stubClaims{},
		Directory: testUsers,
		Logger:    logging.New(logging.Options{Writer: buf}),
	})

	rec := doRequest(router, http.MethodGet, "/pool/buyers/my-claims", "agent-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["method"] != "GET" || entry["path"] != "/pool/buyers/my-claims" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Fatalf("expected status 200 in log, got %v", entry["status"])
	}
	if entry["user_id"] != "agent-a" {
		t.Fatalf("expected user id in log, got %v", entry["user_id"])
	}
}

func TestRequestLogger_LogsErrorsAtErrorLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	router := NewRouter(RouterDeps{
		Pool:      &stubPool{err: errStoreDown},
		Claims:    &stubClaims{},
		Directory: testUsers,
		Logger:    logging.New(logging.Options{Writer: buf}),
	})

	rec := doRequest(router, http.MethodGet, "/pool/buyers/search", "agent-a", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("expected ERROR level, got %v", entry["level"])
	}
	if !contains(entry["error"].(string), "connection refused") {
		t.Fatalf("expected cause in log, got %v", entry["error"])
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil, nil)

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "blank header", userID: "   ", want: http.StatusUnauthorized},
		{name: "unknown user", userID: "ghost", want: http.StatusUnauthorized},
		{name: "known user", userID: "agent-a", want: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doRequest(router, http.MethodGet, "/pool/buyers/my-claims", tt.userID, "")
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
