package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
)

const (
	userIDHeader    = "X-User-ID"
	principalCtxKey = "principal"
)

// RequestLogger logs method, path, status, latency and the caller once the
// request has been handled. Errors attached with c.Error are logged too.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if p, ok := principalFrom(c); ok {
			attrs = append(attrs, "user_id", p.UserID)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			logger.Error("request", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}

// Authenticate resolves the X-User-ID header set by the upstream gateway.
// Missing or unknown users get 401.
func Authenticate(dir identity.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			writeError(c, http.StatusUnauthorized, codeUnauthenticated, "unauthenticated")
			return
		}
		p, err := dir.Resolve(c.Request.Context(), userID)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.Set(principalCtxKey, p)
		c.Next()
	}
}

func principalFrom(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(principalCtxKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok
}
