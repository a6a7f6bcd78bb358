package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.  The
// provided secret must match the one used when issuing tokens.  This
// middleware should wrap protected routes so that handlers can access
// authenticated user information via `c.Get("user_id")` (uint64) and
// `c.Get("role")` (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse the token using the HS256 signing method and our secret.
            // The callback supplies the signing key and ensures the
            // algorithm matches what we expect; tokens signed any other way
            // are rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // The subject is the numeric user id.  JWT numbers decode as
            // float64; reject tokens without a usable subject rather than
            // passing a zero id downstream.
            sub, ok := claims["sub"].(float64)
            if !ok || sub <= 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            role, _ := claims["role"].(string)

            c.Set("user_id", uint64(sub))
            c.Set("role", role)
            return next(c)
        }
    }
}

// UserID retrieves the authenticated user id stored by JWTAuth.  The boolean
// is false when the request is unauthenticated.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get("user_id").(uint64)
    return id, ok
}
