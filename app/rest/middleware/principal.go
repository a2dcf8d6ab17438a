package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

const (
	principalKey = "cram.principal"
	resolvedKey  = "cram.principal_resolved"
)

// SetPrincipal stores the principal on the request context. A nil principal
// records that the request has no session.
func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
	c.Set(resolvedKey, true)
}

// PrincipalFrom returns the principal cached on the context, if any.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// ResolvePrincipal resolves the session at most once per request.
func ResolvePrincipal(c echo.Context, resolver port.SessionResolver) (*domain.Principal, error) {
	if resolved, _ := c.Get(resolvedKey).(bool); resolved {
		return PrincipalFrom(c), nil
	}

	p, err := resolver.Resolve(c.Request().Context(), c.Request(), c.Response())
	if err != nil {
		return nil, err
	}
	SetPrincipal(c, p)
	return p, nil
}
