package kratos

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	kratosclient "github.com/ory/kratos-client-go"

	"github.com/sua-a1/cram-app-sub001/app/config"
)

// Client represents a Kratos client wrapper
type Client struct {
	publicAPI *kratosclient.APIClient
	adminAPI  *kratosclient.APIClient
	publicURL string
	adminURL  string
	schemaID  string
	logger    *slog.Logger
}

// NewClient creates a new Kratos client
func NewClient(cfg config.KratosConfig, logger *slog.Logger) (*Client, error) {
	if !isValidURL(cfg.PublicURL) {
		return nil, fmt.Errorf("invalid Kratos public URL: %s", cfg.PublicURL)
	}
	if !isValidURL(cfg.AdminURL) {
		return nil, fmt.Errorf("invalid Kratos admin URL: %s", cfg.AdminURL)
	}

	newAPI := func(serverURL string) *kratosclient.APIClient {
		c := kratosclient.NewConfiguration()
		c.Servers = []kratosclient.ServerConfiguration{{URL: serverURL}}
		c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		c.DefaultHeader = map[string]string{"Accept": "application/json"}
		return kratosclient.NewAPIClient(c)
	}

	schemaID := cfg.SchemaID
	if schemaID == "" {
		schemaID = "default"
	}

	logger.Info("Kratos client initialized",
		"public_url", cfg.PublicURL,
		"admin_url", cfg.AdminURL,
		"timeout", cfg.Timeout)

	return &Client{
		publicAPI: newAPI(cfg.PublicURL),
		adminAPI:  newAPI(cfg.AdminURL),
		publicURL: cfg.PublicURL,
		adminURL:  cfg.AdminURL,
		schemaID:  schemaID,
		logger:    logger,
	}, nil
}

// PublicAPI returns the public API client
func (c *Client) PublicAPI() *kratosclient.APIClient {
	return c.publicAPI
}

// AdminAPI returns the admin API client
func (c *Client) AdminAPI() *kratosclient.APIClient {
	return c.adminAPI
}

// HealthCheck checks that both Kratos APIs answer.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, response, err := c.publicAPI.MetadataAPI.GetVersion(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to connect to Kratos public API: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("Kratos public API returned status %d", response.StatusCode)
	}

	_, response, err = c.adminAPI.MetadataAPI.GetVersion(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to connect to Kratos admin API: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("Kratos admin API returned status %d", response.StatusCode)
	}

	return nil
}

// isValidURL validates if a URL is properly formatted
func isValidURL(urlStr string) bool {
	if urlStr == "" {
		return false
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	return parsedURL.Scheme != "" && parsedURL.Host != ""
}
