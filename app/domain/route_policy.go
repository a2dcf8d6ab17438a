package domain

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DecisionKind is a terminal state of the route guard.
type DecisionKind int

const (
	DecisionForward DecisionKind = iota
	DecisionRedirect
	DecisionReject
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionForward:
		return "forward"
	case DecisionRedirect:
		return "redirect"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Reasons attached to guard decisions. They double as metric labels.
const (
	ReasonPublic         = "public"
	ReasonNoSession      = "no_session"
	ReasonSessionOnly    = "session_only"
	ReasonProfileMissing = "profile_missing"
	ReasonUnknownRole    = "unknown_role"
	ReasonRoleDenied     = "role_denied"
	ReasonTenantRequired = "tenant_required"
	ReasonTenantMismatch = "tenant_mismatch"
	ReasonAllowed        = "allowed"
	ReasonUnmapped       = "unmapped"
	ReasonError          = "error"
)

// Decision is the outcome of evaluating one request.
type Decision struct {
	Kind     DecisionKind
	Location string
	Status   int
	Reason   string
}

// Forward builds a forwarding decision.
func Forward(reason string) Decision {
	return Decision{Kind: DecisionForward, Reason: reason}
}

// Redirect builds a 302 decision.
func Redirect(location, reason string) Decision {
	return Decision{Kind: DecisionRedirect, Location: location, Status: http.StatusFound, Reason: reason}
}

// Reject builds a status-only decision.
func Reject(status int, reason string) Decision {
	return Decision{Kind: DecisionReject, Status: status, Reason: reason}
}

// RouteRule restricts a path prefix to a set of roles.
type RouteRule struct {
	Prefix string
	Roles  []Role
}

// Allows reports whether role may enter the rule's prefix.
func (r RouteRule) Allows(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// TenantScope marks a subtree that requires tenant membership.
type TenantScope struct {
	Prefix string
	Exempt []string
}

// RoutePolicy is the single path -> role/tenant table consulted by the guard.
type RoutePolicy struct {
	Public         []string
	PublicPrefixes []string
	SessionOnly    []string
	APIPrefix      string
	TenantScope    TenantScope
	Rules          []RouteRule
}

// NewRoutePolicy normalizes the rules so that longer prefixes are matched first.
func NewRoutePolicy(p RoutePolicy) *RoutePolicy {
	rules := make([]RouteRule, len(p.Rules))
	copy(rules, p.Rules)
	for i := range rules {
		rules[i].Prefix = normalizePrefix(rules[i].Prefix)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Prefix) > len(rules[j].Prefix)
	})
	p.Rules = rules
	return &p
}

// IsPublic reports whether path bypasses the guard entirely.
func (p *RoutePolicy) IsPublic(path string) bool {
	for _, public := range p.Public {
		if path == public {
			return true
		}
	}
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsAPI reports whether path answers with statuses instead of redirects.
func (p *RoutePolicy) IsAPI(path string) bool {
	return p.APIPrefix != "" && strings.HasPrefix(path, p.APIPrefix)
}

// IsSessionOnly reports whether path only needs a session, not a profile.
func (p *RoutePolicy) IsSessionOnly(path string) bool {
	for _, s := range p.SessionOnly {
		if path == s {
			return true
		}
	}
	return false
}

// MatchRule returns the longest rule whose prefix covers path.
func (p *RoutePolicy) MatchRule(path string) (RouteRule, bool) {
	for _, rule := range p.Rules {
		if hasSegmentPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return RouteRule{}, false
}

// IsTenantScoped reports whether path lives under the tenant subtree.
func (p *RoutePolicy) IsTenantScoped(path string) bool {
	if p.TenantScope.Prefix == "" || !strings.HasPrefix(path, p.TenantScope.Prefix) {
		return false
	}
	for _, exempt := range p.TenantScope.Exempt {
		if strings.HasPrefix(path, exempt) {
			return false
		}
	}
	return true
}

// Decide evaluates one request. principal is nil for NoSession. rawQuery is
// carried into the returnUrl of sign-in redirects.
func (p *RoutePolicy) Decide(path, rawQuery string, principal *Principal) Decision {
	api := p.IsAPI(path)

	if p.IsPublic(path) {
		return Forward(ReasonPublic)
	}

	if principal == nil {
		if api {
			return Reject(http.StatusUnauthorized, ReasonNoSession)
		}
		return Redirect(signInRedirect(path, rawQuery), ReasonNoSession)
	}

	if p.IsSessionOnly(path) {
		return Forward(ReasonSessionOnly)
	}

	if principal.Profile == nil {
		if api {
			return Reject(http.StatusForbidden, ReasonProfileMissing)
		}
		return Redirect(SurfaceForPath(path).OnboardingPath(), ReasonProfileMissing)
	}

	profile := principal.Profile
	if !profile.Role.Valid() {
		return p.failClosed(api, ReasonUnknownRole)
	}

	rule, mapped := p.MatchRule(path)
	if mapped && !rule.Allows(profile.Role) {
		if api {
			return Reject(http.StatusForbidden, ReasonRoleDenied)
		}
		return Redirect(PathUnauthorized, ReasonRoleDenied)
	}

	if p.IsTenantScoped(path) {
		if !profile.HasTenant() {
			if api {
				return Reject(http.StatusForbidden, ReasonTenantRequired)
			}
			return Redirect(PathOrgAccess, ReasonTenantRequired)
		}
		if pathTenant, inner, ok := p.tenantInPath(path); ok {
			if pathTenant != *profile.TenantID {
				if api {
					return Reject(http.StatusForbidden, ReasonTenantMismatch)
				}
				return Redirect(PathUnauthorized, ReasonTenantMismatch)
			}
			// Pages under a tenant follow the same rules as the top-level
			// paths, so /org/{id}/admin is admin only like /admin.
			if innerRule, ok := p.MatchRule(inner); ok && !innerRule.Allows(profile.Role) {
				if api {
					return Reject(http.StatusForbidden, ReasonRoleDenied)
				}
				return Redirect(PathUnauthorized, ReasonRoleDenied)
			}
		}
	}

	if !mapped {
		return Forward(ReasonUnmapped)
	}
	return Forward(ReasonAllowed)
}

// Failure is the fail-closed decision for unexpected errors.
func (p *RoutePolicy) Failure(path string) Decision {
	return p.failClosed(p.IsAPI(path), ReasonError)
}

func (p *RoutePolicy) failClosed(api bool, reason string) Decision {
	if api {
		return Reject(http.StatusInternalServerError, reason)
	}
	return Redirect(PathError, reason)
}

// tenantInPath extracts the tenant id from /org/{tenantId}/... paths along
// with the remainder of the path after it.
func (p *RoutePolicy) tenantInPath(path string) (uuid.UUID, string, bool) {
	rest := strings.TrimPrefix(path, p.TenantScope.Prefix)
	segment, inner, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	id, err := uuid.Parse(segment)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, "/" + inner, true
}

func signInRedirect(path, rawQuery string) string {
	returnURL := path
	if rawQuery != "" {
		returnURL += "?" + rawQuery
	}
	return SurfaceForPath(path).SignInPath() + "?returnUrl=" + url.QueryEscape(returnURL)
}

func normalizePrefix(prefix string) string {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return prefix
}

func hasSegmentPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
