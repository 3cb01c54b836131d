package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AkshadGawde/linktree-api/internal/api/middleware"
	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

// currentUser returns the account resolved by the Auth middleware. A missing
// value means the route was mounted without the middleware.
func currentUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized: no token provided")
	}
	return user, nil
}

// bindAndValidate decodes the JSON body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
