package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/clock"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/logging"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/ratelimit"
)

func TestPoolService_SearchProjectsContact(t *testing.T) {
	t.Parallel()

	store := newMemStore(openRequest("br-1", testNow), openRequest("br-2", testNow.Add(time.Minute)))
	clk := clock.NewFixed(testNow.Add(time.Hour))
	claims := NewClaimService(store, nil, ratelimit.New(ratelimit.DefaultLimits()), clk, WithClaimLogger(logging.Discard()))
	pool := NewPoolService(store, clk)
	ctx := context.Background()
	a, b := agent("agent-a", ""), agent("agent-b", "")

	if _, err := claims.Claim(ctx, a, ClaimInput{BuyerRequestID: "br-1"}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	res, err := pool.Search(ctx, a, SearchFilters{}, Page{})
	if err != nil {
		t.Fatalf("search as A: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("expected 2 results for A, got total=%d items=%d", res.Total, len(res.Items))
	}
	for _, item := range res.Items {
		switch item.Request.ID {
		case "br-1":
			if !item.HasActiveClaim || item.Contact.Full == nil {
				t.Fatalf("expected full contact on own claim: %+v", item)
			}
		case "br-2":
			if item.HasActiveClaim || item.Contact.Full != nil {
				t.Fatalf("expected masked only on unclaimed request: %+v", item)
			}
		}
		if item.Contact.Masked != item.Request.MaskedContact {
			t.Fatalf("expected masked contact to always be present")
		}
	}

	res, err = pool.Search(ctx, b, SearchFilters{}, Page{})
	if err != nil {
		t.Fatalf("search as B: %v", err)
	}
	if res.Total != 1 || res.Items[0].Request.ID != "br-2" {
		t.Fatalf("expected B to see only br-2, got %+v", res.Items)
	}
	if res.Items[0].Contact.Full != nil {
		t.Fatalf("expected B to see masked contact only")
	}
}

func TestPoolService_SearchFiltersAndPaging(t *testing.T) {
	t.Parallel()

	var requests []domain.BuyerRequest
	for i := 0; i < 25; i++ {
		br := openRequest(fmt.Sprintf("br-%02d", i), testNow.Add(time.Duration(i)*time.Minute))
		br.MinPrice, br.MaxPrice = int64Ptr(int64(i)*100_000), int64Ptr(int64(i)*100_000+50_000)
		br.MinBedrooms, br.MaxBedrooms = intPtr(i%4+1), intPtr(i%4+2)
		if i%5 == 0 {
			br.City = "Jeddah"
		}
		requests = append(requests, br)
	}
	pool := NewPoolService(newMemStore(requests...), clock.NewFixed(testNow.Add(time.Hour)))
	ctx := context.Background()
	a := agent("agent-a", "")

	t.Run("default page", func(t *testing.T) {
		res, err := pool.Search(ctx, a, SearchFilters{}, Page{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if res.Page != 1 || res.PageSize != DefaultPageSize || res.Total != 25 || res.TotalPages != 2 {
			t.Fatalf("unexpected paging: %+v", res)
		}
		if len(res.Items) != DefaultPageSize {
			t.Fatalf("expected %d items, got %d", DefaultPageSize, len(res.Items))
		}
		if res.Items[0].Request.ID != "br-24" {
			t.Fatalf("expected newest first, got %s", res.Items[0].Request.ID)
		}
	})

	t.Run("last page", func(t *testing.T) {
		res, err := pool.Search(ctx, a, SearchFilters{}, Page{Number: 2, Size: 20})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(res.Items) != 5 {
			t.Fatalf("expected 5 items, got %d", len(res.Items))
		}
	})

	t.Run("city filter is case insensitive", func(t *testing.T) {
		res, err := pool.Search(ctx, a, SearchFilters{City: " jeddah "}, Page{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if res.Total != 5 {
			t.Fatalf("expected 5 Jeddah requests, got %d", res.Total)
		}
	})

	t.Run("price range overlaps", func(t *testing.T) {
		res, err := pool.Search(ctx, a, SearchFilters{MinPrice: int64Ptr(320_000), MaxPrice: int64Ptr(520_000)}, Page{})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		// br-03 [300k,350k], br-04 [400k,450k], br-05 [500k,550k]
		if res.Total != 3 {
			t.Fatalf("expected 3 overlapping requests, got %d", res.Total)
		}
	})

	t.Run("bedroom bounds", func(t *testing.T) {
		res, err := pool.Search(ctx, a, SearchFilters{MinBedrooms: intPtr(5)}, Page{Size: 100})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		for _, item := range res.Items {
			if *item.Request.MaxBedrooms < 5 {
				t.Fatalf("request %s does not reach 5 bedrooms", item.Request.ID)
			}
		}
		if res.Total == 0 {
			t.Fatalf("expected some matches")
		}
	})
}

func TestPoolService_SearchValidation(t *testing.T) {
	t.Parallel()

	pool := NewPoolService(newMemStore(), clock.NewFixed(testNow))
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  identity.Principal
		filters SearchFilters
		page    Page
		wantErr error
	}{
		{name: "not an agent", caller: identity.Principal{UserID: "u"}, wantErr: domain.ErrPermissionDenied},
		{name: "page below one", caller: agent("a", ""), page: Page{Number: -1}, wantErr: domain.ErrValidation},
		{name: "page size too large", caller: agent("a", ""), page: Page{Size: MaxPageSize + 1}, wantErr: domain.ErrValidation},
		{name: "page offset overflows", caller: agent("a", ""), page: Page{Number: math.MaxInt64 / 10, Size: 20}, wantErr: domain.ErrValidation},
		{name: "negative price", caller: agent("a", ""), filters: SearchFilters{MinPrice: int64Ptr(-1)}, wantErr: domain.ErrValidation},
		{name: "inverted price range", caller: agent("a", ""), filters: SearchFilters{MinPrice: int64Ptr(10), MaxPrice: int64Ptr(5)}, wantErr: domain.ErrValidation},
		{name: "inverted bedroom range", caller: agent("a", ""), filters: SearchFilters{MinBedrooms: intPtr(4), MaxBedrooms: intPtr(2)}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := pool.Search(ctx, tt.caller, tt.filters, tt.page)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPoolService_SearchStoreError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.listErr = context.DeadlineExceeded
	pool := NewPoolService(store, clock.NewFixed(testNow))

	_, err := pool.Search(context.Background(), agent("a", ""), SearchFilters{}, Page{})
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}
