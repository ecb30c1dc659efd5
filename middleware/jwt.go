package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims extends jwt.RegisteredClaims with application-specific fields.
// Access tokens are minted by the main site, not by this API.
type Claims struct {
	Handle   string `json:"handle"`
	PersonID int    `json:"person_id"`
	jwt.RegisteredClaims
}

// AccessToken returns an Echo middleware that validates a Bearer token in
// the Authorization header using the provided signing key. A valid token
// also counts as API authentication.
func AccessToken(key []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}
			token := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxAuthenticated, true)
			c.Set(CtxHandle, claims.Handle)
			return next(c)
		}
	}
}
