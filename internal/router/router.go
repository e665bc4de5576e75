package router // package router defines how HTTP routes are registered for the portal

import (
	"github.com/labstack/echo/v4"                             // Echo web framework
	"github.com/prometheus/client_golang/prometheus"          // metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // /metrics handler
	"github.com/redis/go-redis/v9"                            // rate limiter storage
	"go.uber.org/zap"                                         // structured logging

	"github.com/iliyamo/complaints-admin-portal/internal/config"     // rate limit settings
	"github.com/iliyamo/complaints-admin-portal/internal/handler"    // HTTP handlers
	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // guards and roles
	"github.com/iliyamo/complaints-admin-portal/internal/model"      // role names
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // portal registry
)

// Deps is everything the routes need.
type Deps struct {
	Portal    *service.Portal
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil disables rate limiting
	Gatherer  prometheus.Gatherer
	StoreKind string
	Log       *zap.Logger
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.StoreKind))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the login view and the login/logout actions.
// Signed-in sessions never see the login view; the login action is rate
// limited per client.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := handler.NewAuthHandler(d.Portal, d.Log)

	e.GET(middleware.LoginPath, a.LoginView, middleware.RedirectIfAuthenticated(d.Portal))
	e.POST(middleware.LoginPath, a.Login, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	e.POST("/logout", a.Logout)
}

// RegisterViews registers the protected views. Every route passes the
// session guard; the status action is for employees and the dashboard for
// admins.
func RegisterViews(e *echo.Echo, d Deps) {
	ch := handler.NewComplaintHandler()
	eh := handler.NewEmployeeHandler(d.Log)

	// The guard is attached per route: a root group would also catch
	// unknown paths.
	guard := middleware.RouteGuard(d.Portal, d.Log)
	e.GET("/", ch.Home, guard)
	e.GET("/complaints", ch.List, guard)
	e.PUT("/complaints/:id/status", ch.UpdateStatus, guard, middleware.RequireRole(model.RoleEmployee))

	admin := e.Group("/dashboard", guard, middleware.RequireRole(model.RoleAdmin))
	admin.GET("", eh.Dashboard)
	admin.POST("/employees", eh.Create)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterViews(e, d)
}
