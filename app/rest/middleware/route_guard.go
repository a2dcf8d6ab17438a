package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
)

// RouteGuard enforces the route policy in front of every page and API call.
type RouteGuard struct {
	policy   *domain.RoutePolicy
	resolver port.SessionResolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
	skipper  middleware.Skipper
}

// NewRouteGuard creates a new route guard
func NewRouteGuard(policy *domain.RoutePolicy, resolver port.SessionResolver, m *metrics.Metrics, logger *slog.Logger, skipper middleware.Skipper) *RouteGuard {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return &RouteGuard{
		policy:   policy,
		resolver: resolver,
		metrics:  m,
		logger:   logger.With("component", "route_guard"),
		skipper:  skipper,
	}
}

// Middleware evaluates the policy and forwards, redirects or rejects.
func (g *RouteGuard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.skipper(c) {
				return next(c)
			}

			decision := g.decide(c)
			g.metrics.GuardDecision(decision.Kind.String(), decision.Reason)

			switch decision.Kind {
			case domain.DecisionForward:
				return next(c)
			case domain.DecisionRedirect:
				return c.Redirect(decision.Status, decision.Location)
			default:
				return g.reject(c, decision)
			}
		}
	}
}

func (g *RouteGuard) decide(c echo.Context) domain.Decision {
	req := c.Request()
	path := req.URL.Path

	if g.policy.IsPublic(path) {
		return domain.Forward(domain.ReasonPublic)
	}

	principal, err := ResolvePrincipal(c, g.resolver)
	if err != nil {
		g.logger.Error("session resolution failed, failing closed", "path", path, "error", err)
		return g.policy.Failure(path)
	}

	decision := g.policy.Decide(path, req.URL.RawQuery, principal)
	if decision.Kind != domain.DecisionForward && principal != nil {
		g.logger.Info("route guard denied request",
			"path", path,
			"decision", decision.Kind.String(),
			"reason", decision.Reason,
			"identity_id", principal.Identity.ID)
	}
	return decision
}

func (g *RouteGuard) reject(c echo.Context, d domain.Decision) error {
	var appErr *apperrors.AppError
	switch d.Reason {
	case domain.ReasonNoSession:
		appErr = apperrors.NewUnauthorized("sign in required")
	case domain.ReasonProfileMissing:
		appErr = apperrors.New(apperrors.ErrCodeProfileMissing, "profile setup required")
	case domain.ReasonTenantRequired:
		appErr = apperrors.New(apperrors.ErrCodeTenantRequired, "organization membership required")
	case domain.ReasonRoleDenied, domain.ReasonTenantMismatch:
		appErr = apperrors.New(apperrors.ErrCodeUnauthorizedRole, "role not allowed")
	default:
		appErr = apperrors.New(apperrors.ErrCodeInternalError, "internal server error")
	}
	if d.Status == 0 {
		d.Status = http.StatusInternalServerError
	}
	return c.JSON(d.Status, appErr)
}
