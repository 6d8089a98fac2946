package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/app"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/visibility"
)

// PoolSearcher is the minimal interface needed to search the buyer pool.
type PoolSearcher interface {
	Search(ctx context.Context, caller identity.Principal, filters app.SearchFilters, page app.Page) (app.PagedResult[app.ProjectedBuyerRequest], error)
}

// ClaimManager is the minimal interface needed for the claim endpoints.
type ClaimManager interface {
	Claim(ctx context.Context, caller identity.Principal, in app.ClaimInput) (app.ClaimResult, error)
	Release(ctx context.Context, caller identity.Principal, in app.ReleaseInput) (domain.Claim, error)
	ListActiveClaimsForAgent(ctx context.Context, caller identity.Principal) ([]app.ActiveClaimView, error)
}

// RegisterPoolRoutes mounts the buyer pool endpoints on r. r must already
// run Authenticate.
func RegisterPoolRoutes(r gin.IRoutes, pool PoolSearcher, claims ClaimManager) {
	r.GET("/pool/buyers/search", handleSearch(pool))
	r.GET("/pool/buyers/my-claims", handleMyClaims(claims))
	r.POST("/pool/buyers/:id/claim", handleClaim(claims))
	r.POST("/pool/buyers/:id/release", handleRelease(claims))
}

type searchQuery struct {
	City        string `form:"city"`
	Type        string `form:"type"`
	MinPrice    *int64 `form:"minPrice" binding:"omitempty,min=0"`
	MaxPrice    *int64 `form:"maxPrice" binding:"omitempty,min=0"`
	MinBedrooms *int   `form:"minBedrooms" binding:"omitempty,min=0"`
	MaxBedrooms *int   `form:"maxBedrooms" binding:"omitempty,min=0"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func handleSearch(svc PoolSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principalFrom(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
			return
		}

		var q searchQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			writeError(c, http.StatusBadRequest, codeInvalidQuery, "invalid query parameters")
			return
		}

		res, err := svc.Search(c.Request.Context(), caller, app.SearchFilters{
			City:         q.City,
			PropertyType: q.Type,
			MinPrice:     q.MinPrice,
			MaxPrice:     q.MaxPrice,
			MinBedrooms:  q.MinBedrooms,
			MaxBedrooms:  q.MaxBedrooms,
		}, app.Page{Number: q.Page, Size: q.PageSize})
		if err != nil {
			writeDomainError(c, err)
			return
		}

		data := make([]buyerRequestResponse, 0, len(res.Items))
		for _, item := range res.Items {
			data = append(data, newBuyerRequestResponse(item.Request, item.Contact, item.HasActiveClaim))
		}
		c.JSON(http.StatusOK, searchResponse{
			Success: true,
			Data:    data,
			Pagination: paginationResponse{
				Page:       res.Page,
				PageSize:   res.PageSize,
				Total:      res.Total,
				TotalPages: res.TotalPages,
			},
		})
	}
}

func handleClaim(svc ClaimManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principalFrom(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
			return
		}
		body, ok := bindNotes(c)
		if !ok {
			return
		}

		res, err := svc.Claim(c.Request.Context(), caller, app.ClaimInput{
			BuyerRequestID: c.Param("id"),
			Notes:          body.Notes,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}

		c.JSON(http.StatusCreated, claimCreatedResponse{
			Success: true,
			Claim:   newClaimResponse(res.Claim),
			Lead:    newLeadResponse(res.Lead),
		})
	}
}

func handleRelease(svc ClaimManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principalFrom(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
			return
		}
		body, ok := bindNotes(c)
		if !ok {
			return
		}

		claim, err := svc.Release(c.Request.Context(), caller, app.ReleaseInput{
			BuyerRequestID: c.Param("id"),
			Notes:          body.Notes,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}

		resp := newClaimResponse(claim)
		c.JSON(http.StatusOK, releaseResponse{Success: true, Claim: &resp})
	}
}

func handleMyClaims(svc ClaimManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := principalFrom(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
			return
		}

		views, err := svc.ListActiveClaimsForAgent(c.Request.Context(), caller)
		if err != nil {
			writeDomainError(c, err)
			return
		}

		claims := make([]myClaimResponse, 0, len(views))
		for _, v := range views {
			claims = append(claims, myClaimResponse{
				claimResponse: newClaimResponse(v.Claim),
				BuyerRequest:  newBuyerRequestResponse(v.Request, v.Contact, true),
			})
		}
		c.JSON(http.StatusOK, myClaimsResponse{Success: true, Claims: claims})
	}
}

// bindNotes accepts an empty body as "no notes".
func bindNotes(c *gin.Context) (notesRequest, bool) {
	var body notesRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return notesRequest{}, false
	}
	return body, true
}

type searchResponse struct {
	Success    bool                   `json:"success"`
	Data       []buyerRequestResponse `json:"data"`
	Pagination paginationResponse     `json:"pagination"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type buyerRequestResponse struct {
	ID                 string                    `json:"id"`
	City               string                    `json:"city"`
	PropertyType       string                    `json:"propertyType"`
	MinPrice           *int64                    `json:"minPrice"`
	MaxPrice           *int64                    `json:"maxPrice"`
	MinBedrooms        *int                      `json:"minBedrooms"`
	MaxBedrooms        *int                      `json:"maxBedrooms"`
	ContactPreferences domain.ContactPreferences `json:"contactPreferences"`
	Status             domain.BuyerRequestStatus `json:"status"`
	MaskedContact      domain.ContactInfo        `json:"maskedContact"`
	FullContact        *domain.ContactInfo       `json:"fullContact"`
	HasActiveClaim     bool                      `json:"hasActiveClaim"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

func newBuyerRequestResponse(br domain.BuyerRequest, contact visibility.ContactView, hasActiveClaim bool) buyerRequestResponse {
	return buyerRequestResponse{
		ID:                 br.ID,
		City:               br.City,
		PropertyType:       br.PropertyType,
		MinPrice:           br.MinPrice,
		MaxPrice:           br.MaxPrice,
		MinBedrooms:        br.MinBedrooms,
		MaxBedrooms:        br.MaxBedrooms,
		ContactPreferences: br.ContactPreferences,
		Status:             br.Status,
		MaskedContact:      contact.Masked,
		FullContact:        contact.Full,
		HasActiveClaim:     hasActiveClaim,
		CreatedAt:          br.CreatedAt,
		UpdatedAt:          br.UpdatedAt,
	}
}

type claimResponse struct {
	ID             string             `json:"id"`
	AgentID        string             `json:"agentId"`
	BuyerRequestID string             `json:"buyerRequestId"`
	Status         domain.ClaimStatus `json:"status"`
	ClaimedAt      time.Time          `json:"claimedAt"`
	ExpiresAt      time.Time          `json:"expiresAt"`
	ReleasedAt     *time.Time         `json:"releasedAt"`
	Notes          string             `json:"notes"`
}

func newClaimResponse(c domain.Claim) claimResponse {
	return claimResponse{
		ID:             c.ID,
		AgentID:        c.AgentID,
		BuyerRequestID: c.BuyerRequestID,
		Status:         c.Status,
		ClaimedAt:      c.ClaimedAt,
		ExpiresAt:      c.ExpiresAt,
		ReleasedAt:     c.ReleasedAt,
		Notes:          c.Notes,
	}
}

type leadResponse struct {
	ID             string            `json:"id"`
	AgentID        string            `json:"agentId"`
	BuyerRequestID string            `json:"buyerRequestId"`
	Status         domain.LeadStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func newLeadResponse(l domain.Lead) leadResponse {
	return leadResponse{
		ID:             l.ID,
		AgentID:        l.AgentID,
		BuyerRequestID: l.BuyerRequestID,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
	}
}

type claimCreatedResponse struct {
	Success bool          `json:"success"`
	Claim   claimResponse `json:"claim"`
	Lead    leadResponse  `json:"lead"`
}

type releaseResponse struct {
	Success bool           `json:"success"`
	Claim   *claimResponse `json:"claim,omitempty"`
}

type myClaimResponse struct {
	claimResponse
	BuyerRequest buyerRequestResponse `json:"buyerRequest"`
}

type myClaimsResponse struct {
	Success bool              `json:"success"`
	Claims  []myClaimResponse `json:"claims"`
}
