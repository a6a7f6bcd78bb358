package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/modacart/auth-service/internal/handler"    // import the handlers that implement business logic
	"github.com/modacart/auth-service/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  The limiter middleware is
// applied to the whole auth group so that credential guessing, OTP flooding
// and refresh spinning all share one budget per client.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session.  Each of these handlers either creates
	// a session or exchanges tokens.
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle password login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Sign in (or sign up) with a Google ID token.
	g.POST("/google", a.LoginWithGoogle)
	// Sign in with a Google ID token that carries a phone_number claim.
	g.POST("/phone", a.LoginWithPhone)
	// Request a one-time code by email.  Always answers 204.
	g.POST("/otp/send", a.SendOTP)
	// Exchange a one-time code for a session.
	g.POST("/otp/login", a.LoginWithOTP)
	// Reset a password with a one-time code.
	g.POST("/password/reset", a.ResetPassword)
	// Check whether an email already has an account.
	g.GET("/email-exists", a.EmailExists)
	// Rotate the refresh token and mint a new access token.
	g.POST("/refresh", a.Refresh)
	// Revoke the presented refresh token.  Does not require a JWT: the
	// refresh token itself proves ownership of the session.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any authenticated role may hit these endpoints.  The middleware will
	// reject requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's identity.
	auth.GET("/me", a.Me)
	// Revoke every live session of the authenticated user.
	auth.POST("/logout-all", a.LogoutAll)
}

// RegisterAdmin registers the SUPER_ADMIN-scoped management endpoints under
// /v1/admins.  Every route requires a valid JWT with the ADMIN role, and the
// RequireSuperAdmin middleware additionally reloads the acting account so a
// demotion takes effect even while an older access token is still valid.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, users middleware.UserLoader) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admins",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
		middleware.RequireSuperAdmin(users),
	)

	// ---- Admin accounts ----
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	// ---- Permission management ----
	g.PATCH("/:id/permissions", h.UpdatePermissions)
	g.POST("/:id/permissions/:perm", h.Grant)
	g.DELETE("/:id/permissions/:perm", h.Revoke)
}
