package port

//go:generate mockgen -source=session_port.go -destination=../mocks/mock_session_port.go

import (
	"context"
	"net/http"
	"time"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// CookieAdapter is the single cookie codec shared by the resolver, the
// challenge store and the handlers. Read returns domain.ErrCookieNotFound or
// domain.ErrCookieInvalid.
type CookieAdapter interface {
	Read(r *http.Request, name string, dst interface{}) error
	Write(w http.ResponseWriter, name string, value interface{}, maxAge time.Duration) error
	Clear(w http.ResponseWriter, name string)
}

// ChallengeLedger tracks open sign-in attempts so a verifier is usable once.
type ChallengeLedger interface {
	Open(ctx context.Context, attemptID string, ttl time.Duration) error
	// Close reports whether the attempt was still open.
	Close(ctx context.Context, attemptID string) (bool, error)
}

// GrantStore holds one-time authorization codes.
type GrantStore interface {
	Save(ctx context.Context, grant *domain.AuthGrant, ttl time.Duration) error
	// Redeem returns and deletes the grant, or domain.ErrGrantNotFound.
	Redeem(ctx context.Context, code string) (*domain.AuthGrant, error)
}

// ChallengeStore issues and consumes PKCE verifiers bound to the browser.
type ChallengeStore interface {
	Begin(ctx context.Context, r *http.Request, w http.ResponseWriter) (domain.Challenge, error)
	Consume(ctx context.Context, r *http.Request, w http.ResponseWriter) (string, error)
}

// SessionResolver turns request cookies into a principal. A nil principal and
// nil error means there is no session.
type SessionResolver interface {
	Resolve(ctx context.Context, r *http.Request, w http.ResponseWriter) (*domain.Principal, error)
	// Establish writes a fresh session cookie.
	Establish(w http.ResponseWriter, session *domain.Session) error
	// Clear removes the session cookie.
	Clear(w http.ResponseWriter)
}
