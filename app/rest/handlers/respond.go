package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
	"github.com/sua-a1/cram-app-sub001/app/utils/validator"
)

const apiPrefix = "/api/"

// wantsJSON reports whether the caller expects a JSON body instead of a redirect.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	if strings.HasPrefix(req.URL.Path, apiPrefix) {
		return true
	}
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// toAppError maps bind, validation and domain errors to the caller-facing taxonomy.
func toAppError(err error) *apperrors.AppError {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		appErr := apperrors.NewValidationError(verr.Error())
		for field, message := range verr.Errors {
			appErr.WithContext(field, message)
		}
		return appErr
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusBadRequest {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, "malformed request", err)
	}
	return apperrors.FromDomain(err)
}

// formError answers a failed form submission. Page flows are sent back to
// origin with ?error=<code>; JSON callers receive the error body. Profile and
// tenant problems always become redirects.
func formError(c echo.Context, origin string, err error) error {
	appErr := toAppError(err)
	surface := domain.SurfaceForPath(c.Request().URL.Path)

	switch appErr.Code {
	case apperrors.ErrCodeProfileMissing:
		return c.Redirect(http.StatusFound, surface.OnboardingPath())
	case apperrors.ErrCodeTenantRequired:
		return c.Redirect(http.StatusFound, domain.PathOrgAccess)
	}

	if wantsJSON(c) {
		return c.JSON(appErr.StatusCode, appErr)
	}
	return c.Redirect(http.StatusFound, withQuery(origin, "error", string(appErr.Code)))
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

// redirect answers a successful form submission.
func redirect(c echo.Context, location string) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"redirect": location})
	}
	return c.Redirect(http.StatusFound, location)
}
