package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
	"github.com/sua-a1/cram-app-sub001/app/utils/token"
)

// PrincipalHeader replaces any inbound principal assertion with one signed for
// the principal the guard resolved.
func PrincipalHeader(signer *token.PrincipalSigner, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Request().Header.Del(token.HeaderName)

			principal := PrincipalFrom(c)
			if principal == nil {
				return next(c)
			}

			assertion, err := signer.Sign(principal)
			if err != nil {
				logger.Error("failed to sign principal", "identity_id", principal.Identity.ID, "error", err)
				return apperrors.Wrap(apperrors.ErrCodeInternalError, "internal server error", err)
			}
			c.Request().Header.Set(token.HeaderName, assertion)
			return next(c)
		}
	}
}

// Upstream returns a handler that forwards the request to the ticketing
// application.
func Upstream(rawURL string, logger *slog.Logger) (echo.HandlerFunc, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", rawURL, err)
	}

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Error("upstream request failed", "path", c.Request().URL.Path, "error", err)
			return apperrors.Wrap(apperrors.ErrCodeServiceUnavailable, "please try again", err)
		},
	})

	return proxy(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	}), nil
}
