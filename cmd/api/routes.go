package main

import (
	"log/slog"
	"net/http"
	"time"

	"construction-platform/internal/apierror"
	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/config"
	"construction-platform/internal/httpapi"
	"construction-platform/internal/rbac"
	"construction-platform/internal/security"
	"construction-platform/internal/users"
	"construction-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// authLimitWindow is fixed; only the attempt cap is configurable.
const authLimitWindow = 15 * time.Minute

type routerDeps struct {
	Config   config.Config
	Log      *slog.Logger
	Users    users.Repository
	Audit    *audit.Service
	Tokens   *auth.Manager
	Hasher   auth.PasswordHasher
	Counters security.CounterStore

	// Tracking inserts the Sentry stage inside ErrorLogger.
	Tracking bool
}

// newRouter builds the request pipeline and wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
//
// Order: request log, error log, optional Sentry, headers, CORS, /api/ limiter, then per-route
// auth limiter, authentication and authorization. The loggers sit outermost
// so rejected and failed requests are still logged.
func newRouter(d routerDeps) (*gin.Engine, error) {
	sec := d.Config.Security

	apiLimiter, err := security.NewLimiter(d.Counters, security.APILimit(sec.RateLimitWindow, sec.RateLimitMax))
	if err != nil {
		return nil, err
	}
	authLimiter, err := security.NewLimiter(d.Counters, security.AuthLimit(authLimitWindow, sec.AuthRateLimit))
	if err != nil {
		return nil, err
	}

	corsStage, err := security.CORS(sec.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	if err := r.SetTrustedProxies(sec.TrustedProxies); err != nil {
		return nil, err
	}
	stages := []gin.HandlerFunc{
		logger.RequestLogger(d.Log),
		logger.ErrorLogger(apierror.Internal),
	}
	if d.Tracking {
		stages = append(stages, logger.ErrorTracker())
	}
	stages = append(stages,
		security.Headers(),
		corsStage,
		security.ForPrefix("/api/", apiLimiter.Middleware()),
	)
	r.Use(stages...)
	r.NoRoute(func(c *gin.Context) {
		apierror.Abort(c, http.StatusNotFound, apierror.CodeNotFound, "Route not found")
	})

	authn := auth.NewAuthenticator(d.Tokens, auth.NewResolver(d.Users))
	h := &httpapi.Handlers{
		Users:  d.Users,
		Tokens: d.Tokens,
		Hasher: d.Hasher,
		Audit:  d.Audit,
	}

	api := r.Group("/api")
	api.GET("/health", authn.OptionalAuth(), h.Health)

	// AUTH routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authLimiter.Middleware(), h.Register)
		authGroup.POST("/login", authLimiter.Middleware(), h.Login)

		session := authGroup.Group("", authn.Authenticate())
		session.GET("/me", h.Me)
		session.POST("/logout", h.Logout)
		session.PUT("/password", h.ChangePassword)
	}

	// ADMIN routes
	admin := api.Group("/users", authn.Authenticate(), rbac.Authorize(rbac.AdminOnly...))
	{
		admin.PATCH("/:id/status", h.SetUserStatus)
	}

	return r, nil
}
