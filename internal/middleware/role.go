package middleware // middleware provides shared request processing for handlers

import (
    "context"  // context for store lookups
    "net/http" // http package defines standard HTTP status codes
    "time"     // timeouts for store lookups

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/modacart/auth-service/internal/model"
)

// UserLoader is the store lookup the super-admin gate needs; satisfied by
// *repository.UserRepo.
type UserLoader interface {
    FindByID(ctx context.Context, id uint64) (model.User, error)
}

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  The roles accepted
// correspond to the values stored in the JWT's "role" claim.  If the user's
// role is not in the allowed set, the request is aborted with a 403
// Forbidden response.  It assumes JWTAuth has already stored the role in the
// context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}

// RequireSuperAdmin gates the admin-management endpoints.  The role claim
// alone is not enough here: levels and deletions change while an access
// token is still valid, so the gate reloads the acting account and requires
// a live SUPER_ADMIN record.
func RequireSuperAdmin(users UserLoader) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            u, err := users.FindByID(ctx, id)
            if err != nil {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            if u.IsDeleted || !u.IsAdmin() || u.AdminLevel != model.LevelSuperAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "super admin required"})
            }
            return next(c)
        }
    }
}
