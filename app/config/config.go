package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `env:"HOST"      envDefault:"auth-postgres"`
	Port     string `env:"PORT"      envDefault:"5432"`
	Name     string `env:"NAME"      envDefault:"cram_auth"`
	User     string `env:"USER"      envDefault:"cram_auth"`
	Password string `env:"PASSWORD,required"`
	SSLMode  string `env:"SSL_MODE"  envDefault:"require"`
	// ConnectTimeout bounds dialing; it is written into the DSN.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

// DSN renders the connection URL understood by both pgx and lib/pq.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

// KratosConfig holds the identity provider endpoints.
type KratosConfig struct {
	PublicURL string        `env:"PUBLIC_URL,required"`
	AdminURL  string        `env:"ADMIN_URL,required"`
	SchemaID  string        `env:"SCHEMA_ID"  envDefault:"default"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"5s"`
	// RetryBackoff is the initial wait before the single timeout retry.
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"200ms"`
}

// RedisConfig holds the grant and challenge store connection.
type RedisConfig struct {
	URL         string        `env:"URL"          envDefault:"redis://localhost:6379/0"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"1s"`
	KeyPrefix   string        `env:"KEY_PREFIX"   envDefault:"cram"`
}

// CookieConfig holds the cookie codec keys and lifetimes.
type CookieConfig struct {
	HashKey          string        `env:"HASH_KEY,required"`
	BlockKey         string        `env:"BLOCK_KEY,required"`
	SessionName      string        `env:"SESSION_NAME"      envDefault:"cram_session"`
	ChallengeName    string        `env:"CHALLENGE_NAME"    envDefault:"cram_pkce"`
	SessionTTL       time.Duration `env:"SESSION_TTL"       envDefault:"168h"`
	RefreshThreshold time.Duration `env:"REFRESH_THRESHOLD" envDefault:"72h"`
	ChallengeTTL     time.Duration `env:"CHALLENGE_TTL"     envDefault:"10m"`
	GrantTTL         time.Duration `env:"GRANT_TTL"         envDefault:"60s"`
}

// UpstreamConfig describes the ticketing application behind the gateway.
type UpstreamConfig struct {
	URL             string        `env:"URL,required"`
	PrincipalSecret string        `env:"PRINCIPAL_SECRET,required"`
	PrincipalTTL    time.Duration `env:"PRINCIPAL_TTL"    envDefault:"60s"`
}

// OTelConfig controls tracing export.
type OTelConfig struct {
	Enabled     bool    `env:"ENABLED"      envDefault:"false"`
	Endpoint    string  `env:"ENDPOINT"     envDefault:"http://localhost:4318"`
	Insecure    bool    `env:"INSECURE"     envDefault:"true"`
	SampleRatio float64 `env:"SAMPLE_RATIO" envDefault:"1.0"`
}

// Config holds all configuration for the identity gateway
type Config struct {
	// Server
	Port        string `env:"PORT"      envDefault:"9500"`
	Host        string `env:"HOST"      envDefault:"0.0.0.0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"GO_ENV"    envDefault:"development"`
	Version     string `env:"VERSION"   envDefault:"dev"`
	// PublicBaseURL is the browser-facing origin, used to build reset links.
	PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`

	Database DatabaseConfig `envPrefix:"DB_"`
	Kratos   KratosConfig   `envPrefix:"KRATOS_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Cookie   CookieConfig   `envPrefix:"COOKIE_"`
	Upstream UpstreamConfig `envPrefix:"UPSTREAM_"`
	OTel     OTelConfig     `envPrefix:"OTEL_"`

	// RoutePolicyFile overrides the embedded route policy when set.
	RoutePolicyFile string `env:"ROUTE_POLICY_FILE"`

	// Auth endpoint rate limit, per client IP.
	AuthRatePerMinute float64 `env:"AUTH_RATE_PER_MINUTE" envDefault:"10"`
	AuthRateBurst     int     `env:"AUTH_RATE_BURST"      envDefault:"5"`

	// CORSAllowedOrigins may call the JSON API with credentials. Defaults to
	// PUBLIC_BASE_URL when empty.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Features
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadDatabase reads only the DB_ variables. The migrator uses it so it can run
// without the gateway's secrets.
func LoadDatabase() (*DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DB_"}); err != nil {
		return nil, fmt.Errorf("failed to parse database environment: %w", err)
	}
	if cfg.ConnectTimeout < time.Second {
		return nil, fmt.Errorf("database connect timeout must be at least 1s, got: %v", cfg.ConnectTimeout)
	}
	return &cfg, nil
}

// LoadKratos reads only the KRATOS_ variables, for tools that talk to the
// identity provider without serving traffic.
func LoadKratos() (*KratosConfig, error) {
	var cfg KratosConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "KRATOS_"}); err != nil {
		return nil, fmt.Errorf("failed to parse kratos environment: %w", err)
	}
	if !isValidURL(cfg.PublicURL) || !isValidURL(cfg.AdminURL) {
		return nil, fmt.Errorf("invalid kratos urls: %q, %q", cfg.PublicURL, cfg.AdminURL)
	}
	return &cfg, nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	for name, raw := range map[string]string{
		"PUBLIC_BASE_URL":   c.PublicBaseURL,
		"KRATOS_PUBLIC_URL": c.Kratos.PublicURL,
		"KRATOS_ADMIN_URL":  c.Kratos.AdminURL,
		"UPSTREAM_URL":      c.Upstream.URL,
	} {
		if !isValidURL(raw) {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}

	if len(c.Cookie.HashKey) < 32 {
		return fmt.Errorf("cookie hash key must be at least 32 bytes, got: %d", len(c.Cookie.HashKey))
	}
	switch len(c.Cookie.BlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("cookie block key must be 16, 24 or 32 bytes, got: %d", len(c.Cookie.BlockKey))
	}

	if len(c.Upstream.PrincipalSecret) < 32 {
		return fmt.Errorf("upstream principal secret must be at least 32 bytes")
	}

	if c.Cookie.SessionTTL < time.Hour {
		return fmt.Errorf("session TTL must be at least 1 hour, got: %v", c.Cookie.SessionTTL)
	}
	if c.Cookie.RefreshThreshold <= 0 || c.Cookie.RefreshThreshold >= c.Cookie.SessionTTL {
		return fmt.Errorf("refresh threshold must be positive and below the session TTL, got: %v", c.Cookie.RefreshThreshold)
	}
	if c.Cookie.ChallengeTTL < time.Minute || c.Cookie.ChallengeTTL > time.Hour {
		return fmt.Errorf("challenge TTL must be between 1 minute and 1 hour, got: %v", c.Cookie.ChallengeTTL)
	}
	if c.Cookie.GrantTTL <= 0 || c.Cookie.GrantTTL > c.Cookie.ChallengeTTL {
		return fmt.Errorf("grant TTL must be positive and not exceed the challenge TTL, got: %v", c.Cookie.GrantTTL)
	}

	if c.Database.ConnectTimeout < time.Second {
		return fmt.Errorf("database connect timeout must be at least 1s, got: %v", c.Database.ConnectTimeout)
	}

	if c.Kratos.Timeout <= 0 {
		return fmt.Errorf("kratos timeout must be positive, got: %v", c.Kratos.Timeout)
	}

	if c.AuthRatePerMinute <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("auth rate limit must be positive")
	}

	return nil
}

// Helper functions

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
