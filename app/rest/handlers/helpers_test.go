package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
	"github.com/sua-a1/cram-app-sub001/app/utils/validator"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()
	return e
}

func formRequest(method, target string, values url.Values) *http.Request {
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if values != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	return req
}

func serve(e *echo.Echo, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func testPrincipal(role domain.Role, tenantID *uuid.UUID) *domain.Principal {
	id := uuid.New()
	p := &domain.Principal{
		Identity: domain.Identity{ID: id, Email: "dana@example.com", DisplayName: "Dana"},
		Session:  domain.Session{ID: "sess-1", IdentityID: id, Token: "ory_st_token"},
	}
	if role != "" {
		p.Profile = &domain.Profile{IdentityID: id, Email: "dana@example.com", DisplayName: "Dana", Role: role, TenantID: tenantID}
	}
	return p
}
