package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
	"github.com/AkshadGawde/linktree-api/internal/core/ports"
)

// UserContextKey is the echo context key holding the authenticated *domain.User.
const UserContextKey = "user"

// UserFinder resolves the account a session token belongs to.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer token, loads the account it names and stores it
// in the context under UserContextKey. Any failure stops the chain.
func Auth(tokens ports.TokenSigner, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized: no token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized: no token provided")
			}

			userID, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized: invalid token")
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrUserNotFound
				}
				return fmt.Errorf("auth: resolve user: %w", err)
			}

			c.Set(UserContextKey, user.Public())
			return next(c)
		}
	}
}

// CurrentUser returns the account stored by Auth.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(UserContextKey).(*domain.User)
	return u, ok && u != nil
}
