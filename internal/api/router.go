package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/loveos/couple-api/docs"
	"github.com/loveos/couple-api/internal/api/handler"
	"github.com/loveos/couple-api/internal/api/middleware"
	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
	"github.com/loveos/couple-api/internal/infrastructure/http/handlers"
)

// Deps carries everything the router needs to wire handlers.
type Deps struct {
	Auth     ports.AuthService
	Partners ports.PartnerService
	Couple   ports.CoupleService

	// Checks are the readiness probes served at /health/ready, keyed by name.
	Checks map[string]handlers.Check

	// LoginRateLimit is the per-IP login rate in requests per second; 0 disables it.
	LoginRateLimit float64

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// HTTP metrics go to their own registry so that building several routers
	// in one process does not register collectors twice.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "loveos",
		Subsystem:  "http",
		Registerer: httpMetrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Partners)
	coupleHandler := handler.NewCoupleHandler(d.Couple)
	requireSession := middleware.Auth(d.Auth)
	partnersOnly := middleware.RBAC(domain.RoleBoyfriend, domain.RoleGirlfriend)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login, middleware.LoginRateLimit(d.LoginRateLimit))
	auth.GET("/me", authHandler.Me, requireSession)
	auth.POST("/logout", authHandler.Logout, requireSession)
	auth.POST("/link-partner", authHandler.LinkPartner, requireSession, partnersOnly)
	auth.POST("/unlink-partner", authHandler.UnlinkPartner, requireSession, partnersOnly)

	// --- Couple routes ---
	e.GET("/api/couple", coupleHandler.Summary, requireSession, partnersOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpMetrics},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
