package app

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/clock"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/visibility"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SearchFilters are optional and combined with AND. Price and bedroom bounds
// match requests whose own range overlaps the filter range.
type SearchFilters struct {
	City         string
	PropertyType string
	MinPrice     *int64
	MaxPrice     *int64
	MinBedrooms  *int
	MaxBedrooms  *int
}

// Page is 1-based. Zero values select the defaults.
type Page struct {
	Number int
	Size   int
}

type PagedResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// ProjectedBuyerRequest is a pool entry as the caller is allowed to see it.
type ProjectedBuyerRequest struct {
	Request        domain.BuyerRequest
	HasActiveClaim bool
	Contact        visibility.ContactView
}

type PoolService struct {
	repo         PoolRepository
	clock        clock.Clock
	storeTimeout time.Duration
}

func NewPoolService(repo PoolRepository, clk clock.Clock) *PoolService {
	return &PoolService{
		repo:         repo,
		clock:        clk,
		storeTimeout: defaultStoreTimeout,
	}
}

// WithStoreTimeout returns s with its read timeout replaced.
func (s *PoolService) WithStoreTimeout(d time.Duration) *PoolService {
	if d > 0 {
		s.storeTimeout = d
	}
	return s
}

// Search lists OPEN requests plus the requests the caller currently holds.
func (s *PoolService) Search(ctx context.Context, caller identity.Principal, filters SearchFilters, page Page) (PagedResult[ProjectedBuyerRequest], error) {
	if !caller.IsAgent() {
		return PagedResult[ProjectedBuyerRequest]{}, domain.ErrPermissionDenied
	}
	page, err := normalizePage(page)
	if err != nil {
		return PagedResult[ProjectedBuyerRequest]{}, err
	}
	filters, err = normalizeFilters(filters)
	if err != nil {
		return PagedResult[ProjectedBuyerRequest]{}, err
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rows, total, err := s.repo.SearchBuyerRequests(readCtx, PoolQuery{
		Filters:  filters,
		CallerID: caller.UserID,
		Now:      s.clock.Now(),
		Limit:    page.Size,
		Offset:   (page.Number - 1) * page.Size,
	})
	if err != nil {
		return PagedResult[ProjectedBuyerRequest]{}, classifyStoreErr(err)
	}

	items := make([]ProjectedBuyerRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, ProjectedBuyerRequest{
			Request:        row.Request,
			HasActiveClaim: row.HasActiveClaim,
			Contact:        visibility.Project(row.Request, caller, row.HasActiveClaim),
		})
	}

	return PagedResult[ProjectedBuyerRequest]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: (total + page.Size - 1) / page.Size,
	}, nil
}

func normalizePage(p Page) (Page, error) {
	if p.Number == 0 {
		p.Number = 1
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Number < 1 {
		return Page{}, domain.Validationf("page must be at least 1")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return Page{}, domain.Validationf("pageSize must be between 1 and %d", MaxPageSize)
	}
	if p.Number > math.MaxInt32/p.Size {
		return Page{}, domain.Validationf("page is too large")
	}
	return p, nil
}

func normalizeFilters(f SearchFilters) (SearchFilters, error) {
	f.City = strings.TrimSpace(f.City)
	f.PropertyType = strings.TrimSpace(f.PropertyType)

	if (f.MinPrice != nil && *f.MinPrice < 0) || (f.MaxPrice != nil && *f.MaxPrice < 0) {
		return SearchFilters{}, domain.Validationf("price bounds must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return SearchFilters{}, domain.Validationf("minPrice must not exceed maxPrice")
	}
	if (f.MinBedrooms != nil && *f.MinBedrooms < 0) || (f.MaxBedrooms != nil && *f.MaxBedrooms < 0) {
		return SearchFilters{}, domain.Validationf("bedroom bounds must not be negative")
	}
	if f.MinBedrooms != nil && f.MaxBedrooms != nil && *f.MinBedrooms > *f.MaxBedrooms {
		return SearchFilters{}, domain.Validationf("minBedrooms must not exceed maxBedrooms")
	}
	return f, nil
}
