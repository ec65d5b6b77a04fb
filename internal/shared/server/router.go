package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"study-backend/internal/materials"
	"study-backend/internal/processor"
	"study-backend/internal/services/health"
	"study-backend/internal/uploads"
	"study-backend/internal/shared/auth"
	"study-backend/internal/shared/config"
	"study-backend/internal/shared/metrics"
	"study-backend/internal/shared/server/middleware"
	"study-backend/internal/shared/server/respond"
)

const processRateGroup = "PROCESS"

// RouterDeps are the handlers and services the router mounts.
type RouterDeps struct {
	Config           config.Config
	Verifier         *auth.Verifier
	Health           *health.Service
	MaterialsHandler *materials.Handler
	ProcessHandler   *processor.Handler
	UploadsHandler   *uploads.Handler
	RateLimiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.CORS(),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.Identify(deps.Verifier),
	)

	r.GET("/metrics", metrics.Handler())

	processChain := []gin.HandlerFunc{middleware.RequireIdentity(), processRateLimit(deps)}
	if deps.ProcessHandler != nil {
		processChain = append(processChain, deps.ProcessHandler.Process)
		r.POST(processor.FunctionPath, processChain...)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.ProcessHandler != nil {
		api.POST("/process", processChain...)
	}

	authed := api.Group("", middleware.RequireIdentity())
	registerMeRoutes(authed)
	if deps.MaterialsHandler != nil {
		deps.MaterialsHandler.RegisterRoutes(authed)
	}
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(authed)
	}

	return r
}

func processRateLimit(deps RouterDeps) gin.HandlerFunc {
	rules := map[string]middleware.RateLimitRule{}
	if deps.Config.ProcessRatePM > 0 {
		rules[processRateGroup] = middleware.PerMinute(deps.Config.ProcessRatePM, deps.Config.ProcessBurst)
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: processRateGroup,
		Limiter:      deps.RateLimiter,
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
