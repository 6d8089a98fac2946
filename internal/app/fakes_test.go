package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/visibility"
)

type memTxKey struct{}

// memStore serializes transactions on one mutex and restores a snapshot on
// error, which is enough to model row locking plus rollback.
type memStore struct {
	mu       sync.Mutex
	requests map[string]domain.BuyerRequest
	claims   []domain.Claim
	leads    []domain.Lead

	createLeadErr error
	listErr       error
}

func newMemStore(requests ...domain.BuyerRequest) *memStore {
	m := &memStore{requests: make(map[string]domain.BuyerRequest)}
	for _, r := range requests {
		m.requests[r.ID] = r
	}
	return m
}

func (m *memStore) guard(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make(map[string]domain.BuyerRequest, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	claims := append([]domain.Claim(nil), m.claims...)
	leads := append([]domain.Lead(nil), m.leads...)

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.requests, m.claims, m.leads = requests, claims, leads
		return err
	}
	return nil
}

func (m *memStore) GetBuyerRequestForUpdate(ctx context.Context, id string) (domain.BuyerRequest, error) {
	defer m.guard(ctx)()
	br, ok := m.requests[id]
	if !ok {
		return domain.BuyerRequest{}, domain.ErrBuyerRequestNotFound
	}
	return br, nil
}

func (m *memStore) TerminateClaim(ctx context.Context, claimID string, status domain.ClaimStatus, releasedAt *time.Time, notes string) (bool, error) {
	defer m.guard(ctx)()
	for i := range m.claims {
		if m.claims[i].ID == claimID && m.claims[i].Status == domain.ClaimStatusActive {
			m.claims[i].Status = status
			m.claims[i].ReleasedAt = releasedAt
			m.claims[i].Notes = notes
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CompareAndSetBuyerRequestStatus(ctx context.Context, id string, from, to domain.BuyerRequestStatus, at time.Time) (bool, error) {
	defer m.guard(ctx)()
	br, ok := m.requests[id]
	if !ok {
		return false, domain.ErrBuyerRequestNotFound
	}
	if br.Status != from {
		return false, nil
	}
	br.Status = to
	br.UpdatedAt = at
	m.requests[id] = br
	return true, nil
}

func (m *memStore) FindActiveClaimForUpdate(ctx context.Context, buyerRequestID string) (*domain.Claim, error) {
	defer m.guard(ctx)()
	for _, c := range m.claims {
		if c.BuyerRequestID == buyerRequestID && c.Status == domain.ClaimStatusActive {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) LockAgent(context.Context, string) error {
	return nil
}

func (m *memStore) CountActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) (int, error) {
	defer m.guard(ctx)()
	n := 0
	for _, c := range m.claims {
		if c.AgentID == agentID && c.LiveAt(now) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountClaimsSince(ctx context.Context, buyerRequestID string, since time.Time) (int, error) {
	defer m.guard(ctx)()
	n := 0
	for _, c := range m.claims {
		if c.BuyerRequestID == buyerRequestID && c.ClaimedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateClaim(ctx context.Context, claim domain.Claim) error {
	defer m.guard(ctx)()
	for _, c := range m.claims {
		if c.BuyerRequestID == claim.BuyerRequestID && c.Status == domain.ClaimStatusActive {
			return domain.ErrAlreadyClaimed
		}
	}
	m.claims = append(m.claims, claim)
	return nil
}

func (m *memStore) CreateLead(ctx context.Context, lead domain.Lead) error {
	defer m.guard(ctx)()
	if m.createLeadErr != nil {
		return m.createLeadErr
	}
	m.leads = append(m.leads, lead)
	return nil
}

func (m *memStore) ListActiveClaimsByAgent(ctx context.Context, agentID string, now time.Time) ([]ClaimWithRequest, error) {
	defer m.guard(ctx)()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ClaimWithRequest
	for _, c := range m.claims {
		if c.AgentID == agentID && c.LiveAt(now) {
			out = append(out, ClaimWithRequest{Claim: c, Request: m.requests[c.BuyerRequestID]})
		}
	}
	return out, nil
}

func (m *memStore) GetClaimForUpdate(ctx context.Context, claimID string) (domain.Claim, error) {
	defer m.guard(ctx)()
	for _, c := range m.claims {
		if c.ID == claimID {
			return c, nil
		}
	}
	return domain.Claim{}, domain.ErrClaimNotFound
}

func (m *memStore) ListExpiredActiveClaims(ctx context.Context, now time.Time, limit int) ([]domain.Claim, error) {
	defer m.guard(ctx)()
	var out []domain.Claim
	for _, c := range m.claims {
		if c.Status == domain.ClaimStatusActive && !c.ExpiresAt.After(now) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) SearchBuyerRequests(ctx context.Context, q PoolQuery) ([]PoolRow, int, error) {
	defer m.guard(ctx)()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}

	var hits []PoolRow
	for _, br := range m.requests {
		holder := ""
		for _, c := range m.claims {
			if c.BuyerRequestID == br.ID && c.LiveAt(q.Now) {
				holder = c.AgentID
			}
		}
		if holder != "" && holder != q.CallerID {
			continue
		}
		if !matches(br, q.Filters) {
			continue
		}
		held := holder != ""
		if !held {
			br.Status = domain.BuyerRequestStatusOpen
		}
		hits = append(hits, PoolRow{Request: br, HasActiveClaim: held})
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i].Request, hits[j].Request
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := len(hits)
	if q.Offset >= total {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return hits[q.Offset:end], total, nil
}

func matches(br domain.BuyerRequest, f SearchFilters) bool {
	if f.City != "" && !strings.EqualFold(br.City, f.City) {
		return false
	}
	if f.PropertyType != "" && br.PropertyType != f.PropertyType {
		return false
	}
	if f.MinPrice != nil && br.MaxPrice != nil && *br.MaxPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && br.MinPrice != nil && *br.MinPrice > *f.MaxPrice {
		return false
	}
	if f.MinBedrooms != nil && br.MaxBedrooms != nil && *br.MaxBedrooms < *f.MinBedrooms {
		return false
	}
	if f.MaxBedrooms != nil && br.MinBedrooms != nil && *br.MinBedrooms > *f.MaxBedrooms {
		return false
	}
	return true
}

func (m *memStore) request(id string) domain.BuyerRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *memStore) claimByID(id string) domain.Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.ID == id {
			return c
		}
	}
	return domain.Claim{}
}

func (m *memStore) activeClaimCount(buyerRequestID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.claims {
		if c.BuyerRequestID == buyerRequestID && c.Status == domain.ClaimStatusActive {
			n++
		}
	}
	return n
}

type fakeDirectory map[string]identity.Principal

func (d fakeDirectory) Resolve(_ context.Context, userID string) (identity.Principal, error) {
	p, ok := d[userID]
	if !ok {
		return identity.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (s *recordingSink) Record(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *recordingSink) actions() []domain.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Action)
	}
	return out
}

var errBoom = errors.New("boom")

func agent(id, org string) identity.Principal {
	return identity.Principal{UserID: id, OrganizationID: org, Capabilities: identity.NewCapabilities(identity.CapAgent)}
}

func openRequest(id string, createdAt time.Time) domain.BuyerRequest {
	full := domain.ContactInfo{Name: "Buyer " + id, Phone: "+966500000000", Email: id + "@example.com"}
	return domain.BuyerRequest{
		ID:            id,
		City:          "Riyadh",
		PropertyType:  "apartment",
		Status:        domain.BuyerRequestStatusOpen,
		FullContact:   full,
		MaskedContact: visibility.Mask(full),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
