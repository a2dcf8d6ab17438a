package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// HeaderName carries the signed principal to the upstream application.
const HeaderName = "X-Cram-Principal"

const issuer = "cram-identity-gateway"

// PrincipalClaims is the payload of the principal assertion.
type PrincipalClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalSigner issues short-lived HS256 assertions of the resolved principal.
type PrincipalSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewPrincipalSigner(secret string, ttl time.Duration) *PrincipalSigner {
	return &PrincipalSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign encodes the principal. Principals without a profile carry no role.
func (s *PrincipalSigner) Sign(p *domain.Principal) (string, error) {
	if p == nil {
		return "", errors.New("principal is nil")
	}

	now := s.now()
	claims := PrincipalClaims{
		Email: p.Identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if p.Profile != nil {
		claims.Role = p.Profile.Role.String()
		if p.Profile.TenantID != nil {
			claims.TenantID = p.Profile.TenantID.String()
		}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign principal: %w", err)
	}
	return signed, nil
}

// Verify parses an assertion. The upstream uses the same logic; the gateway
// uses it in tests and in the session endpoint.
func (s *PrincipalSigner) Verify(raw string) (*PrincipalClaims, error) {
	claims := &PrincipalClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid principal assertion: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid principal subject: %w", err)
	}
	return claims, nil
}
