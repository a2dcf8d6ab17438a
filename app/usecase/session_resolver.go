package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
	apptrace "github.com/sua-a1/cram-app-sub001/app/utils/otel"
)

// Session resolution results, used as metric labels.
const (
	resolutionNoCookie      = "no_cookie"
	resolutionInvalidCookie = "invalid_cookie"
	resolutionRejected      = "rejected"
	resolutionRefreshed     = "refreshed"
	resolutionNoProfile     = "no_profile"
	resolutionResolved      = "resolved"
	resolutionError         = "error"
)

// SessionResolver implements port.SessionResolver.
type SessionResolver struct {
	cookies    port.CookieAdapter
	idp        port.IdentityProvider
	profiles   port.ProfileRepository
	cookieName string
	ttl        time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewSessionResolver creates a new session resolver
func NewSessionResolver(
	cookies port.CookieAdapter,
	idp port.IdentityProvider,
	profiles port.ProfileRepository,
	cookieName string,
	ttl time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SessionResolver {
	return &SessionResolver{
		cookies:    cookies,
		idp:        idp,
		profiles:   profiles,
		cookieName: cookieName,
		ttl:        ttl,
		metrics:    m,
		logger:     logger.With("component", "session_resolver"),
	}
}

// Resolve turns the session cookie into a principal. Provider failures mean
// no session; only profile lookup failures are returned.
func (s *SessionResolver) Resolve(ctx context.Context, r *http.Request, w http.ResponseWriter) (*domain.Principal, error) {
	ctx, span := apptrace.Tracer().Start(ctx, "session.resolve")
	defer span.End()

	var envelope domain.Session
	if err := s.cookies.Read(r, s.cookieName, &envelope); err != nil {
		if errors.Is(err, domain.ErrCookieNotFound) {
			s.metrics.SessionResolution(resolutionNoCookie)
			return nil, nil
		}
		s.logger.Warn("clearing undecodable session cookie", "error", err)
		s.cookies.Clear(w, s.cookieName)
		s.metrics.SessionResolution(resolutionInvalidCookie)
		return nil, nil
	}

	if envelope.Token == "" {
		s.cookies.Clear(w, s.cookieName)
		s.metrics.SessionResolution(resolutionInvalidCookie)
		return nil, nil
	}

	session, err := s.idp.RefreshSession(ctx, envelope.Token)
	if err != nil {
		s.logger.Warn("session rejected by identity provider",
			"session_id", envelope.ID,
			"identity_id", envelope.IdentityID,
			"error", err)
		s.cookies.Clear(w, s.cookieName)
		s.metrics.SessionResolution(resolutionRejected)
		return nil, nil
	}

	if session.ExpiresAt.After(envelope.ExpiresAt) {
		if err := s.Establish(w, session); err != nil {
			s.logger.Warn("failed to rotate session cookie", "session_id", session.ID, "error", err)
		} else {
			s.metrics.SessionResolution(resolutionRefreshed)
		}
	}

	span.SetAttributes(attribute.String("identity.id", session.IdentityID.String()))

	identity := domain.Identity{ID: session.IdentityID}
	if session.Identity != nil {
		identity = *session.Identity
	}
	principal := &domain.Principal{Identity: identity, Session: *session}

	profile, err := s.profiles.GetProfile(ctx, session.IdentityID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		s.metrics.SessionResolution(resolutionNoProfile)
		return principal, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile lookup failed")
		s.metrics.SessionResolution(resolutionError)
		return nil, fmt.Errorf("failed to load profile for identity %s: %w", session.IdentityID, err)
	}

	principal.Profile = profile
	if identity.Email == "" {
		principal.Identity.Email = profile.Email
	}
	if identity.DisplayName == "" {
		principal.Identity.DisplayName = profile.DisplayName
	}

	s.metrics.SessionResolution(resolutionResolved)
	return principal, nil
}

// Establish writes the session envelope.
func (s *SessionResolver) Establish(w http.ResponseWriter, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrSessionInvalid
	}
	return s.cookies.Write(w, s.cookieName, session, s.ttl)
}

// Clear removes the session cookie.
func (s *SessionResolver) Clear(w http.ResponseWriter) {
	s.cookies.Clear(w, s.cookieName)
}
