package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
	"github.com/sua-a1/cram-app-sub001/app/utils/token"
)

func newProxiedServer(t *testing.T, signer *token.PrincipalSigner, principal *domain.Principal) (*echo.Echo, *string) {
	t.Helper()

	received := new(string)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*received = r.Header.Get(token.HeaderName)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("upstream " + r.URL.Path))
	}))
	t.Cleanup(upstream.Close)

	forward, err := Upstream(upstream.URL, logger.Discard())
	require.NoError(t, err)

	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetPrincipal(c, principal)
			return next(c)
		}
	})
	e.Any("/*", forward, PrincipalHeader(signer, logger.Discard()))
	return e, received
}

func TestPrincipalHeader_SignsResolvedPrincipal(t *testing.T) {
	signer := token.NewPrincipalSigner(strings.Repeat("s", 32), time.Minute)
	tenantID := uuid.New()
	principal := principalWith(domain.RoleEmployee, &tenantID)

	e, received := newProxiedServer(t, signer, principal)

	req := httptest.NewRequest(http.MethodGet, "/tickets/7", nil)
	req.Header.Set(token.HeaderName, "forged")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream /tickets/7", rec.Body.String())

	claims, err := signer.Verify(*received)
	require.NoError(t, err)
	assert.Equal(t, principal.Identity.ID.String(), claims.Subject)
	assert.Equal(t, "employee", claims.Role)
	assert.Equal(t, tenantID.String(), claims.TenantID)
}

func TestPrincipalHeader_StripsForgedHeaderWithoutSession(t *testing.T) {
	signer := token.NewPrincipalSigner(strings.Repeat("s", 32), time.Minute)
	e, received := newProxiedServer(t, signer, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(token.HeaderName, "forged")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *received)
}

func TestUpstream_InvalidURL(t *testing.T) {
	_, err := Upstream("://nope", logger.Discard())
	assert.Error(t, err)
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantHSTS   bool
	}{
		{name: "production", production: true, wantHSTS: true},
		{name: "development", production: false, wantHSTS: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(SecurityHeaders(tt.production))
			e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, tt.wantHSTS, rec.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestCORS_OnlyAPI(t *testing.T) {
	e := echo.New()
	e.Use(CORS("/api/", []string{"https://cram.example.com"}))
	e.GET("/api/auth/session", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/tickets", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for path, want := range map[string]string{
		"/api/auth/session": "https://cram.example.com",
		"/tickets":          "",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(echo.HeaderOrigin, "https://cram.example.com")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Header().Get(echo.HeaderAccessControlAllowOrigin), path)
	}
}
