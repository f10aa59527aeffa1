package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                   // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // request ids and panic recovery
	"go.uber.org/zap"                               // structured logging

	"github.com/iliyamo/account-service/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/account-service/internal/middleware" // import middleware for bearer authentication and the admin gate
)

// Deps carries everything the routes need.  RateLimit may be nil, in
// which case the credential endpoints are not throttled.
type Deps struct {
	Prefix    string
	Logger    *zap.Logger
	Resolver  middleware.Resolver
	Auth      *handler.AuthHandler
	Accounts  *handler.AccountHandler
	Health    *handler.HealthHandler
	RateLimit echo.MiddlewareFunc
}

// New builds an Echo instance with the shared middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.NoStore())

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes mounts the API under d.Prefix.
func RegisterRoutes(e *echo.Echo, d Deps) {
	api := e.Group(d.Prefix)

	throttle := d.RateLimit
	if throttle == nil {
		throttle = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	authn := middleware.Authenticated(d.Resolver, d.Logger)
	admin := middleware.RequireAdmin()

	// Health check for load balancers and monitoring.
	api.GET("/health", d.Health.Health)

	// Credential exchange.
	api.POST("/login/access-token", d.Auth.Login, throttle)
	api.POST("/login/test-token", d.Auth.TestToken, authn)

	// Open account endpoints.
	api.POST("/user", d.Accounts.Create)
	api.PATCH("/user/forgot-password", d.Accounts.ForgotPassword, throttle)

	// The caller's own account.
	api.GET("/user/me", d.Accounts.Me, authn)
	api.PUT("/user/me", d.Accounts.UpdateMe, authn)
	api.DELETE("/user/me", d.Accounts.DeleteMe, authn)

	// Administration.  Static segments are registered before /user/:id.
	api.GET("/user", d.Accounts.List, authn, admin)
	api.GET("/user/user-name/:user_name", d.Accounts.GetByUserName, authn, admin)
	api.DELETE("/user/user-name/:user_name", d.Accounts.DeleteByUserName, authn, admin)
	api.GET("/user/:id", d.Accounts.GetByID, authn, admin)
	api.PUT("/user/:id", d.Accounts.UpdateByID, authn, admin)
	api.DELETE("/user/:id", d.Accounts.DeleteByID, authn, admin)
}
