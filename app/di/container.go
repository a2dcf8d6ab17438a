package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/sua-a1/cram-app-sub001/app/config"
	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/driver/cookie"
	"github.com/sua-a1/cram-app-sub001/app/driver/kratos"
	"github.com/sua-a1/cram-app-sub001/app/driver/postgres"
	"github.com/sua-a1/cram-app-sub001/app/driver/redisstore"
	"github.com/sua-a1/cram-app-sub001/app/gateway"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/rest"
	"github.com/sua-a1/cram-app-sub001/app/rest/handlers"
	custommw "github.com/sua-a1/cram-app-sub001/app/rest/middleware"
	"github.com/sua-a1/cram-app-sub001/app/usecase"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
	"github.com/sua-a1/cram-app-sub001/app/utils/token"
)

const serviceName = "cram-identity-gateway"

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB           *postgres.DB
	Redis        *redis.Client
	KratosClient *kratos.Client

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Gateways
	IdentityProvider *gateway.IdentityGateway

	// Usecases
	AuthUsecase       port.AuthUsecase
	ProvisionUsecase  port.ProvisionUsecase
	MembershipUsecase port.MembershipUsecase
	Reconciler        *usecase.Reconciler

	// Sessions
	Challenges port.ChallengeStore
	Sessions   port.SessionResolver

	Policy *domain.RoutePolicy
}

// NewContainer connects every backing service and wires the usecases. ctx
// bounds the startup connections and the rate limiter's cleanup loop.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = metrics.New(c.Registry)

	policy, err := config.LoadRoutePolicy(cfg.RoutePolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load route policy: %w", err)
	}
	c.Policy = policy

	c.DB, err = postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c.Redis, err = redisstore.NewClient(cfg.Redis)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	c.KratosClient, err = kratos.NewClient(cfg.Kratos, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize Kratos client: %w", err)
	}

	// Repositories
	profiles := postgres.NewProfileRepository(c.DB.Pool(), logger)
	tenants := postgres.NewTenantRepository(c.DB.Pool(), logger)
	failures := postgres.NewProvisionFailureRepository(c.DB.Pool(), logger)

	// Identity provider
	c.IdentityProvider = gateway.NewIdentityGateway(
		kratos.NewKratosClientAdapter(c.KratosClient, logger),
		gateway.IdentityGatewayConfig{
			Timeout:          cfg.Kratos.Timeout,
			RetryBackoff:     cfg.Kratos.RetryBackoff,
			RefreshThreshold: cfg.Cookie.RefreshThreshold,
		},
		c.Metrics,
		logger,
	)

	// Cookies and short-lived state
	cookies := cookie.NewSecureCookieAdapter(
		[]byte(cfg.Cookie.HashKey),
		[]byte(cfg.Cookie.BlockKey),
		cfg.Cookie.SessionTTL,
		cfg.IsProduction(),
	)
	ledger := redisstore.NewChallengeLedger(c.Redis, cfg.Redis.KeyPrefix)
	grants := redisstore.NewGrantStore(c.Redis, cfg.Redis.KeyPrefix)

	c.Challenges = usecase.NewChallengeStore(cookies, ledger, cfg.Cookie.ChallengeName, cfg.Cookie.ChallengeTTL, logger)
	c.Sessions = usecase.NewSessionResolver(cookies, c.IdentityProvider, profiles, cfg.Cookie.SessionName, cfg.Cookie.SessionTTL, c.Metrics, logger)

	// Usecases
	c.AuthUsecase = usecase.NewAuthUseCase(c.IdentityProvider, profiles, grants, usecase.AuthConfig{
		GrantTTL:      cfg.Cookie.GrantTTL,
		PublicBaseURL: cfg.PublicBaseURL,
	}, logger)
	c.ProvisionUsecase = usecase.NewProvisioner(c.IdentityProvider, profiles, tenants, failures, c.Metrics, logger)
	c.MembershipUsecase = usecase.NewMembershipUseCase(profiles, tenants, logger)
	c.Reconciler = usecase.NewReconciler(c.IdentityProvider, tenants, failures, logger)

	logger.Info("container initialized",
		"kratos_public_url", cfg.Kratos.PublicURL,
		"upstream_url", cfg.Upstream.URL,
		"route_rules", len(policy.Rules))

	return c, nil
}

// NewReconcilerContainer wires only what the provisioning CLI needs: the
// database and the identity provider.
func NewReconcilerContainer(ctx context.Context, dbCfg config.DatabaseConfig, kratosCfg config.KratosConfig, logger *slog.Logger) (*Container, error) {
	c := &Container{Logger: logger}

	var err error
	c.DB, err = postgres.NewConnection(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c.KratosClient, err = kratos.NewClient(kratosCfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize Kratos client: %w", err)
	}

	c.IdentityProvider = gateway.NewIdentityGateway(
		kratos.NewKratosClientAdapter(c.KratosClient, logger),
		gateway.IdentityGatewayConfig{Timeout: kratosCfg.Timeout, RetryBackoff: kratosCfg.RetryBackoff},
		nil,
		logger,
	)
	c.Reconciler = usecase.NewReconciler(
		c.IdentityProvider,
		postgres.NewTenantRepository(c.DB.Pool(), logger),
		postgres.NewProvisionFailureRepository(c.DB.Pool(), logger),
		logger,
	)
	return c, nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter(ctx context.Context, enableTracing bool) (*echo.Echo, error) {
	upstream, err := custommw.Upstream(c.Config.Upstream.URL, c.Logger)
	if err != nil {
		return nil, err
	}

	origins := c.Config.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{c.Config.PublicBaseURL}
	}

	return rest.NewRouter(rest.RouterConfig{
		Logger:            c.Logger,
		Policy:            c.Policy,
		AuthUsecase:       c.AuthUsecase,
		ProvisionUsecase:  c.ProvisionUsecase,
		MembershipUsecase: c.MembershipUsecase,
		Challenges:        c.Challenges,
		Sessions:          c.Sessions,
		Signer:            token.NewPrincipalSigner(c.Config.Upstream.PrincipalSecret, c.Config.Upstream.PrincipalTTL),
		Metrics:           c.Metrics,
		Gatherer:          c.Registry,
		HealthChecks:      c.healthChecks(),
		RateLimiter:       custommw.NewRateLimiter(ctx, c.Config.AuthRatePerMinute, c.Config.AuthRateBurst),
		AllowOrigins:      origins,
		Upstream:          upstream,
		ServiceName:       serviceName,
		Version:           c.Config.Version,
		Production:        c.Config.IsProduction(),
		EnableTracing:     enableTracing,
		EnableMetrics:     c.Config.EnableMetrics,
	}), nil
}

func (c *Container) healthChecks() map[string]handlers.HealthChecker {
	return map[string]handlers.HealthChecker{
		"postgres": c.DB.HealthCheck,
		"redis": func(ctx context.Context) error {
			return redisstore.HealthCheck(ctx, c.Redis)
		},
		"kratos": c.IdentityProvider.HealthCheck,
	}
}

// Close closes all resources
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("failed to close redis client", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	c.Logger.Info("container closed")
}
