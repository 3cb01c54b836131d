package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/AkshadGawde/linktree-api/internal/core/domain"
)

const internalErrorMessage = "server error, please try again later"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler maps domain errors to status codes, logs anything it
// does not recognise and renders {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrInvalidReferralCode),
		errors.Is(err, domain.ErrUnknownEmail),
		errors.Is(err, domain.ErrInvalidResetToken):
		return http.StatusBadRequest, sentinelMessage(err)
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, sentinelMessage(err)
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrResetThrottled):
		return http.StatusTooManyRequests, domain.ErrResetThrottled.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, internalErrorMessage
}

// clientErrors lists the sentinels whose text is safe to show as-is.
var clientErrors = []error{
	domain.ErrEmailTaken,
	domain.ErrDuplicateAccount,
	domain.ErrInvalidReferralCode,
	domain.ErrUnknownEmail,
	domain.ErrInvalidResetToken,
	domain.ErrInvalidCredentials,
	domain.ErrUnauthorized,
}

// sentinelMessage returns the text of the first known sentinel in err's
// chain, so wrapped causes never reach the client.
func sentinelMessage(err error) string {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
