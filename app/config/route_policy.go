package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

//go:embed route_policy.yaml
var defaultRoutePolicy []byte

type routePolicyFile struct {
	Public         []string `yaml:"public"`
	PublicPrefixes []string `yaml:"public_prefixes"`
	SessionOnly    []string `yaml:"session_only"`
	APIPrefix      string   `yaml:"api_prefix"`
	TenantScope    struct {
		Prefix string   `yaml:"prefix"`
		Exempt []string `yaml:"exempt"`
	} `yaml:"tenant_scope"`
	Rules []struct {
		Prefix string   `yaml:"prefix"`
		Roles  []string `yaml:"roles"`
	} `yaml:"rules"`
}

// LoadRoutePolicy reads the policy table from path, or the embedded default
// when path is empty.
func LoadRoutePolicy(path string) (*domain.RoutePolicy, error) {
	data := defaultRoutePolicy
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read route policy %s: %w", path, err)
		}
		data = raw
	}
	return ParseRoutePolicy(data)
}

// ParseRoutePolicy decodes and validates a YAML policy table. Unknown roles
// are rejected.
func ParseRoutePolicy(data []byte) (*domain.RoutePolicy, error) {
	var file routePolicyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode route policy: %w", err)
	}

	policy := domain.RoutePolicy{
		Public:         file.Public,
		PublicPrefixes: file.PublicPrefixes,
		SessionOnly:    file.SessionOnly,
		APIPrefix:      file.APIPrefix,
		TenantScope: domain.TenantScope{
			Prefix: file.TenantScope.Prefix,
			Exempt: file.TenantScope.Exempt,
		},
	}

	for _, path := range append(append([]string{}, file.Public...), file.SessionOnly...) {
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("route policy path must start with '/': %q", path)
		}
	}

	seen := make(map[string]bool, len(file.Rules))
	for _, r := range file.Rules {
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("rule prefix must start with '/': %q", r.Prefix)
		}
		if seen[r.Prefix] {
			return nil, fmt.Errorf("duplicate rule prefix: %q", r.Prefix)
		}
		seen[r.Prefix] = true

		if len(r.Roles) == 0 {
			return nil, fmt.Errorf("rule %q allows no roles", r.Prefix)
		}
		roles := make([]domain.Role, 0, len(r.Roles))
		for _, raw := range r.Roles {
			role, err := domain.ParseRole(raw)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Prefix, err)
			}
			roles = append(roles, role)
		}
		policy.Rules = append(policy.Rules, domain.RouteRule{Prefix: r.Prefix, Roles: roles})
	}

	return domain.NewRoutePolicy(policy), nil
}
