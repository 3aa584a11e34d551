package router

import (
	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/handler"
	"github.com/spotatlas/spot-directory/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the session endpoints. Register, login, refresh and
// logout live under /v1/auth and need no token; /v1/me sits behind the
// JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body, so no JWT is required.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAccount wires profile updates and the password-reset flow.
// Forgot and the token-addressed reset endpoints are reachable without a
// session; editing the account is not.
func RegisterAccount(e *echo.Echo, a *handler.AccountHandler, jwtSecret string) {
	e.POST("/v1/account/forgot", a.Forgot)
	e.GET("/v1/account/reset/:token", a.ResetCheck)
	e.POST("/v1/account/reset/:token", a.Reset)

	auth := e.Group("/v1/account")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.PUT("", a.Update)
}

// RegisterSpots wires the spot catalogue: public browse, search and
// aggregate views, plus the authenticated mutations (create, edit,
// hearts, reviews). Cacheable GETs accept the extra middleware chain the
// caller passes in.
func RegisterSpots(e *echo.Echo, s *handler.SpotHandler, jwtSecret string, cached ...echo.MiddlewareFunc) {
	e.GET("/v1/spots", s.List)
	e.GET("/v1/spots/top", s.Top, cached...)
	e.GET("/v1/spots/near", s.Near)
	e.GET("/v1/spots/search", s.Search)
	e.GET("/v1/spots/:slug", s.GetBySlug)
	e.GET("/v1/tags", s.Tags, cached...)
	e.GET("/v1/tags/:tag", s.Tags, cached...)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/spots", s.Create)
	auth.PUT("/spots/:id", s.Update)
	auth.POST("/spots/:id/heart", s.ToggleHeart)
	auth.GET("/hearts", s.HeartedSpots)
	auth.POST("/spots/:id/reviews", s.CreateReview)
}
