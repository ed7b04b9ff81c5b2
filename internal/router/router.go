package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/contacts-api/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/contacts-api/internal/middleware" // import middleware for bearer authentication
)

// Deps carries everything the route table needs.  RateLimit guards contact
// listing and creation; a nil value means no limit.
type Deps struct {
	Auth      *handler.AuthHandler
	Contacts  *handler.ContactHandler
	Users     middleware.UserResolver
	Health    echo.HandlerFunc
	RateLimit echo.MiddlewareFunc
}

// Register mounts every route under /api plus /healthz at the root.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health)

	api := e.Group("/api")
	registerAuth(api, d.Auth)

	// /users and /contacts require an access token.  Each gets its own group
	// so unknown paths elsewhere under /api still answer 404.
	auth := middleware.JWTAuth(d.Users)
	registerUsers(api.Group("/users", auth), d.Auth)
	registerContacts(api.Group("/contacts", auth), d.Contacts, d.RateLimit)
}

// registerAuth registers routes that issue or exchange tokens.  None of them
// require an access token; refresh reads its own bearer credential.
func registerAuth(api *echo.Group, a *handler.AuthHandler) {
	g := api.Group("/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.GET("/refresh_token", a.RefreshToken)
	g.GET("/confirmed_email/:token", a.ConfirmedEmail)
	g.POST("/request_email", a.RequestEmail)
	g.POST("/reset-password", a.RequestPasswordReset)
	// The reset email links to the GET form, which posts to the email route.
	// That POST also requires the token from the form, which the plain
	// new_password-only interface did not; the token binds the reset to the
	// address it was issued for.
	g.GET("/reset-password/:token", a.ResetPasswordForm)
	g.POST("/reset-password/:email", a.ResetPassword)
}

func registerUsers(g *echo.Group, a *handler.AuthHandler) {
	g.GET("/me", a.Me)
	g.PATCH("/avatar", a.UpdateAvatar)
}

func registerContacts(c *echo.Group, h *handler.ContactHandler, limit echo.MiddlewareFunc) {
	var limited []echo.MiddlewareFunc
	if limit != nil {
		limited = append(limited, limit)
	}
	c.GET("", h.List, limited...)
	c.POST("", h.Create, limited...)
	c.GET("/birthday", h.Birthdays)
	c.POST("/find", h.Find)
	c.GET("/:id", h.Get)
	c.PUT("/:id", h.Update)
	c.DELETE("/:id", h.Delete)
}
