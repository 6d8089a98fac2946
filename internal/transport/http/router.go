package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/identity"
)

// RouterDeps are the collaborators the HTTP surface needs.
type RouterDeps struct {
	Pool        PoolSearcher
	Claims      ClaimManager
	Directory   identity.Directory
	Ready       Pinger
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter wires public endpoints and the authenticated pool API.
// Public: /health, /ready. Authenticated: /pool/buyers/*.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), RequestLogger(deps.Logger), CORS(deps.CORSOrigins))
	r.NoRoute(handleNotFound)
	r.NoMethod(handleMethodNotAllowed)

	r.GET("/health", handleHealth)
	r.GET("/ready", handleReady(deps.Ready))

	api := r.Group("/")
	api.Use(Authenticate(deps.Directory))
	RegisterPoolRoutes(api, deps.Pool, deps.Claims)

	return r
}
