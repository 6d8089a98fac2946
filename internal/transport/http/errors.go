package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidQuery       = "invalid_query"
	codeValidation         = "validation_error"
	codeUnauthenticated    = "unauthenticated"
	codeForbidden          = "forbidden"
	codeBuyerNotFound      = "buyer_request_not_found"
	codeAlreadyClaimed     = "already_claimed"
	codeNoActiveClaim      = "no_active_claim"
	codeRateLimited        = "rate_limited"
	codeStoreUnavailable   = "store_unavailable"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Code          string `json:"code"`
	Message       string `json:"message,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	CooldownHours int    `json:"cooldownHours,omitempty"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

// writeDomainError maps service errors onto the HTTP error contract.
func writeDomainError(c *gin.Context, err error) {
	var rlErr *domain.RateLimitError
	switch {
	case errors.As(err, &rlErr):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
			Error:         "rate limited",
			Code:          codeRateLimited,
			Message:       rlErr.Error(),
			Limit:         rlErr.Limit,
			CooldownHours: rlErr.CooldownHours,
		})
	case errors.Is(err, domain.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Code: codeValidation, Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(c, http.StatusForbidden, codeForbidden, "forbidden")
	case errors.Is(err, domain.ErrBuyerRequestNotFound), errors.Is(err, domain.ErrInvalidID):
		writeError(c, http.StatusNotFound, codeBuyerNotFound, "buyer request not found")
	case errors.Is(err, domain.ErrAlreadyClaimed):
		writeError(c, http.StatusConflict, codeAlreadyClaimed, "buyer request already claimed")
	case errors.Is(err, domain.ErrNoActiveClaim), errors.Is(err, domain.ErrClaimNotFound):
		writeError(c, http.StatusConflict, codeNoActiveClaim, "no active claim for buyer request")
	case errors.Is(err, domain.ErrTransient):
		_ = c.Error(err)
		writeError(c, http.StatusServiceUnavailable, codeStoreUnavailable, "store temporarily unavailable")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
