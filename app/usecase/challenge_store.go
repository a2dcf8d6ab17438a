package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// ChallengeMethodS256 is the only challenge method issued.
const ChallengeMethodS256 = "S256"

// ChallengeStore implements port.ChallengeStore. The verifier lives in a
// sealed cookie; the attempt id is tracked in the ledger so each cookie can be
// consumed once.
type ChallengeStore struct {
	cookies    port.CookieAdapter
	ledger     port.ChallengeLedger
	cookieName string
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewChallengeStore creates a new challenge store
func NewChallengeStore(cookies port.CookieAdapter, ledger port.ChallengeLedger, cookieName string, ttl time.Duration, logger *slog.Logger) *ChallengeStore {
	return &ChallengeStore{
		cookies:    cookies,
		ledger:     ledger,
		cookieName: cookieName,
		ttl:        ttl,
		logger:     logger.With("component", "challenge_store"),
		now:        time.Now,
	}
}

// Begin issues a new verifier. An attempt already in the request's cookie is
// closed first so its verifier can no longer be consumed.
func (s *ChallengeStore) Begin(ctx context.Context, r *http.Request, w http.ResponseWriter) (domain.Challenge, error) {
	var previous domain.Challenge
	if err := s.cookies.Read(r, s.cookieName, &previous); err == nil && previous.AttemptID != "" {
		if _, err := s.ledger.Close(ctx, previous.AttemptID); err != nil {
			return domain.Challenge{}, fmt.Errorf("failed to close previous sign-in attempt: %w", err)
		}
	}

	verifier := oauth2.GenerateVerifier()
	challenge := domain.Challenge{
		AttemptID: uuid.NewString(),
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
		Method:    ChallengeMethodS256,
		CreatedAt: s.now().UTC(),
	}

	if err := s.ledger.Open(ctx, challenge.AttemptID, s.ttl); err != nil {
		return domain.Challenge{}, fmt.Errorf("failed to open sign-in attempt: %w", err)
	}

	if err := s.cookies.Write(w, s.cookieName, challenge, s.ttl); err != nil {
		return domain.Challenge{}, fmt.Errorf("failed to write challenge cookie: %w", err)
	}

	return challenge, nil
}

// Consume returns the verifier of the current attempt. The cookie is cleared
// whatever the outcome.
func (s *ChallengeStore) Consume(ctx context.Context, r *http.Request, w http.ResponseWriter) (string, error) {
	var challenge domain.Challenge
	readErr := s.cookies.Read(r, s.cookieName, &challenge)
	s.cookies.Clear(w, s.cookieName)

	if readErr != nil {
		if !errors.Is(readErr, domain.ErrCookieNotFound) {
			s.logger.Warn("undecodable challenge cookie", "error", readErr)
		}
		return "", domain.ErrChallengeMissing
	}
	if challenge.AttemptID == "" || challenge.Verifier == "" {
		return "", domain.ErrChallengeMissing
	}

	if s.now().After(challenge.CreatedAt.Add(s.ttl)) {
		if _, err := s.ledger.Close(ctx, challenge.AttemptID); err != nil {
			s.logger.Warn("failed to close expired sign-in attempt", "attempt_id", challenge.AttemptID, "error", err)
		}
		return "", domain.ErrChallengeExpired
	}

	open, err := s.ledger.Close(ctx, challenge.AttemptID)
	if err != nil {
		return "", fmt.Errorf("failed to close sign-in attempt: %w", err)
	}
	if !open {
		s.logger.Warn("challenge replayed or already consumed", "attempt_id", challenge.AttemptID)
		return "", domain.ErrChallengeMissing
	}

	return challenge.Verifier, nil
}

// VerifyChallenge reports whether verifier hashes to challenge under S256.
func VerifyChallenge(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	return constantTimeEqual(oauth2.S256ChallengeFromVerifier(verifier), challenge)
}
