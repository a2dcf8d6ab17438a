package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/rest/handlers"
	custommw "github.com/sua-a1/cram-app-sub001/app/rest/middleware"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
	"github.com/sua-a1/cram-app-sub001/app/utils/logger"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
	"github.com/sua-a1/cram-app-sub001/app/utils/token"
	"github.com/sua-a1/cram-app-sub001/app/utils/validator"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger            *slog.Logger
	Policy            *domain.RoutePolicy
	AuthUsecase       port.AuthUsecase
	ProvisionUsecase  port.ProvisionUsecase
	MembershipUsecase port.MembershipUsecase
	Challenges        port.ChallengeStore
	Sessions          port.SessionResolver
	Signer            *token.PrincipalSigner
	Metrics           *metrics.Metrics
	Gatherer          prometheus.Gatherer
	HealthChecks      map[string]handlers.HealthChecker
	RateLimiter       *custommw.RateLimiter
	AllowOrigins      []string
	// Upstream serves every path the gateway does not handle itself.
	Upstream      echo.HandlerFunc
	ServiceName   string
	Version       string
	Production    bool
	EnableTracing bool
	EnableMetrics bool
}

// NewRouter creates and configures the Echo router
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = errorHandler(cfg.Logger)

	authHandler := handlers.NewAuthHandler(cfg.AuthUsecase, cfg.Challenges, cfg.Sessions, cfg.Logger)
	accountHandler := handlers.NewAccountHandler(cfg.ProvisionUsecase, cfg.MembershipUsecase, cfg.Sessions, cfg.Logger)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks, cfg.Version, cfg.Logger)

	guard := custommw.NewRouteGuard(cfg.Policy, cfg.Sessions, cfg.Metrics, cfg.Logger, isOperational)

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.EnableTracing {
		e.Use(otelecho.Middleware(cfg.ServiceName, otelecho.WithSkipper(isOperational)))
	}
	e.Use(requestLogger(cfg.Logger))
	e.Use(custommw.SecurityHeaders(cfg.Production))
	if len(cfg.AllowOrigins) > 0 {
		e.Use(custommw.CORS(cfg.Policy.APIPrefix, cfg.AllowOrigins))
	}
	e.Use(guard.Middleware())

	// Operational endpoints
	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/health/live", healthHandler.LivenessCheck)
	e.GET("/health/ready", healthHandler.ReadinessCheck)
	if cfg.EnableMetrics && cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	limited := []echo.MiddlewareFunc{}
	if cfg.RateLimiter != nil {
		limited = append(limited, cfg.RateLimiter.Middleware())
	}

	principalHeader := custommw.PrincipalHeader(cfg.Signer, cfg.Logger)

	// Pages owned by the upstream app answer GET; the gateway handles the form posts.
	page := func(path string, post echo.HandlerFunc, m ...echo.MiddlewareFunc) {
		e.POST(path, post, m...)
		e.GET(path, cfg.Upstream, principalHeader)
	}

	// Credential exchange
	page(domain.PathCustomerSignIn, authHandler.SignIn, limited...)
	page(domain.PathOrgSignIn, authHandler.SignIn, limited...)
	e.GET(domain.PathCustomerCallback, authHandler.Callback)
	e.GET(domain.PathOrgCallback, authHandler.Callback)
	e.GET("/api/auth/callback", authHandler.Callback)

	// Sessions and passwords
	page("/auth/signout", authHandler.SignOut)
	page("/org/org-auth/signout", authHandler.SignOut)
	page(domain.PathCustomerResetPassword, authHandler.ResetPassword, limited...)
	page(domain.PathOrgResetPassword, authHandler.ResetPassword, limited...)
	page(domain.PathCustomerUpdatePassword, authHandler.UpdatePassword)
	page(domain.PathOrgUpdatePassword, authHandler.UpdatePassword)
	e.GET("/api/auth/session", authHandler.Session)

	// Provisioning and onboarding
	page(domain.PathCustomerSignUp, accountHandler.CustomerSignUp, limited...)
	page(domain.PathOrgSignUp, accountHandler.OrgSignUp, limited...)
	page(domain.PathOrgRegister, accountHandler.RegisterOrganization)
	page(domain.PathCustomerOnboarding, accountHandler.CompleteOnboarding)
	page(domain.PathOrgAccess, accountHandler.JoinOrganization)

	// Everything else is the ticketing application.
	e.Any("/*", cfg.Upstream, principalHeader)

	return e
}

func isOperational(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}

func requestLogger(base *slog.Logger) echo.MiddlewareFunc {
	base = logger.WithComponent(base, "http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      isOperational,
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			reqLogger := logger.WithRequest(base, v.RequestID, v.Method, v.URI)
			if v.Error == nil {
				reqLogger.InfoContext(ctx, "request completed", "status", v.Status, "latency_ms", v.Latency.Milliseconds())
			} else {
				reqLogger.ErrorContext(ctx, "request failed", "status", v.Status, "latency_ms", v.Latency.Milliseconds(), "error", v.Error.Error())
			}
			return nil
		},
	})
}

// errorHandler renders every unhandled error as an AppError body.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *apperrors.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &httpErr):
			appErr = fromHTTPError(httpErr)
		default:
			appErr = apperrors.FromDomain(err)
		}

		if appErr.StatusCode >= http.StatusInternalServerError {
			logger.Error("request error", "path", c.Request().URL.Path, "code", appErr.Code, "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(appErr.StatusCode)
		} else {
			err = c.JSON(appErr.StatusCode, appErr)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

func fromHTTPError(he *echo.HTTPError) *apperrors.AppError {
	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok {
		message = m
	}

	var code apperrors.ErrorCode
	switch he.Code {
	case http.StatusUnauthorized:
		code = apperrors.ErrCodeUnauthorized
	case http.StatusForbidden:
		code = apperrors.ErrCodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		code = apperrors.ErrCodeNotFound
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		code = apperrors.ErrCodeInvalidInput
	case http.StatusTooManyRequests:
		code = apperrors.ErrCodeRateLimitExceeded
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		code = apperrors.ErrCodeServiceUnavailable
	default:
		code = apperrors.ErrCodeInternalError
	}

	appErr := apperrors.New(code, message)
	appErr.StatusCode = he.Code
	appErr.Cause = he.Internal
	return appErr
}
