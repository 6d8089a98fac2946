package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/app"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/logging"
)

type stubDirectory map[string]identity.Principal

func (d stubDirectory) Resolve(_ context.Context, userID string) (identity.Principal, error) {
	p, ok := d[userID]
	if !ok {
		return identity.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

var testUsers = stubDirectory{
	"agent-a": {UserID: "agent-a", Capabilities: identity.NewCapabilities(identity.CapAgent)},
	"admin":   {UserID: "admin", Capabilities: identity.NewCapabilities(identity.CapAdmin)},
}

type stubPool struct {
	result app.PagedResult[app.ProjectedBuyerRequest]
	err    error

	gotFilters app.SearchFilters
	gotPage    app.Page
}

func (s *stubPool) Search(_ context.Context, _ identity.Principal, f app.SearchFilters, p app.Page) (app.PagedResult[app.ProjectedBuyerRequest], error) {
	s.gotFilters, s.gotPage = f, p
	return s.result, s.err
}

type stubClaims struct {
	claim    app.ClaimResult
	released domain.Claim
	views    []app.ActiveClaimView
	err      error

	gotClaim   app.ClaimInput
	gotRelease app.ReleaseInput
}

func (s *stubClaims) Claim(_ context.Context, _ identity.Principal, in app.ClaimInput) (app.ClaimResult, error) {
	s.gotClaim = in
	return s.claim, s.err
}

func (s *stubClaims) Release(_ context.Context, _ identity.Principal, in app.ReleaseInput) (domain.Claim, error) {
	s.gotRelease = in
	return s.released, s.err
}

func (s *stubClaims) ListActiveClaimsForAgent(context.Context, identity.Principal) ([]app.ActiveClaimView, error) {
	return s.views, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

var errStoreDown = errors.New("connection refused")

func newTestRouter(pool PoolSearcher, claims ClaimManager) *gin.Engine {
	if pool == nil {
		pool = &stubPool{}
	}
	if claims == nil {
		claims = &stubClaims{}
	}
	return NewRouter(RouterDeps{
		Pool:        pool,
		Claims:      claims,
		Directory:   testUsers,
		Ready:       stubPinger{},
		Logger:      logging.Discard(),
		CORSOrigins: []string{"http://localhost:5173"},
	})
}

func doRequest(h http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func contains(body, substr string) bool {
	return strings.Contains(body, substr)
}
