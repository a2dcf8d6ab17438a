package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// AuthConfig holds the credential exchange settings.
type AuthConfig struct {
	GrantTTL time.Duration
	// PublicBaseURL is the browser-facing origin used in reset links.
	PublicBaseURL string
}

// AuthUseCase implements port.AuthUsecase
type AuthUseCase struct {
	idp      port.IdentityProvider
	profiles port.ProfileRepository
	grants   port.GrantStore
	cfg      AuthConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthUseCase creates a new AuthUseCase instance
func NewAuthUseCase(idp port.IdentityProvider, profiles port.ProfileRepository, grants port.GrantStore, cfg AuthConfig, logger *slog.Logger) *AuthUseCase {
	return &AuthUseCase{
		idp:      idp,
		profiles: profiles,
		grants:   grants,
		cfg:      cfg,
		logger:   logger.With("component", "auth_usecase"),
		now:      time.Now,
	}
}

// SignIn verifies credentials and parks the new session behind a one-time
// code bound to the attempt's challenge.
func (uc *AuthUseCase) SignIn(ctx context.Context, req domain.SignInRequest, challenge domain.Challenge) (string, error) {
	if challenge.Challenge == "" {
		return "", domain.ErrChallengeMissing
	}

	email := normalizeEmail(req.Email)
	session, err := uc.idp.VerifyCredentials(ctx, email, req.Password)
	if err != nil {
		return "", err
	}

	if req.Surface == domain.SurfaceOrganization {
		if err := uc.requireOrgMember(ctx, session); err != nil {
			return "", err
		}
	}

	grant := &domain.AuthGrant{
		Challenge: challenge.Challenge,
		Surface:   req.Surface,
		Session:   *session,
		Identity:  session.Identity,
		Email:     email,
		ReturnURL: domain.SafeReturnURL(req.ReturnURL),
		IssuedAt:  uc.now().UTC(),
	}
	if err := uc.grants.Save(ctx, grant, uc.cfg.GrantTTL); err != nil {
		uc.revokeQuietly(ctx, session)
		return "", fmt.Errorf("failed to issue authorization code: %w", err)
	}

	uc.logger.Info("credentials verified", "surface", req.Surface, "identity_id", session.IdentityID)
	return req.Surface.CallbackPath() + "?code=" + url.QueryEscape(grant.Code), nil
}

// requireOrgMember rejects accounts whose profile is not admin or employee.
// Accounts without a profile pass; the callback creates one.
func (uc *AuthUseCase) requireOrgMember(ctx context.Context, session *domain.Session) error {
	profile, err := uc.profiles.GetProfile(ctx, session.IdentityID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return nil
	case err != nil:
		uc.revokeQuietly(ctx, session)
		return fmt.Errorf("failed to load profile: %w", err)
	case !profile.Role.IsOrgMember():
		uc.logger.Warn("non-organization account attempted org sign-in", "identity_id", session.IdentityID, "role", profile.Role)
		uc.revokeQuietly(ctx, session)
		return domain.ErrNotOrganizationAccount
	}
	return nil
}

// CompleteSignIn redeems the code against the verifier and makes sure the
// identity has a profile.
func (uc *AuthUseCase) CompleteSignIn(ctx context.Context, surface domain.Surface, code, verifier string) (*domain.CallbackResult, error) {
	if code == "" {
		return nil, domain.ErrGrantNotFound
	}

	grant, err := uc.grants.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}

	if grant.Surface != surface || !VerifyChallenge(verifier, grant.Challenge) {
		uc.logger.Warn("authorization code presented with the wrong verifier", "identity_id", grant.Session.IdentityID)
		uc.revokeQuietly(ctx, &grant.Session)
		return nil, domain.ErrChallengeMismatch
	}

	session := grant.Session
	identity := domain.Identity{ID: session.IdentityID, Email: grant.Email}
	switch {
	case grant.Identity != nil:
		identity = *grant.Identity
	case session.Identity != nil:
		identity = *session.Identity
	}

	profile, err := uc.ensureProfile(ctx, surface, identity)
	if err != nil {
		uc.revokeQuietly(ctx, &session)
		return nil, err
	}

	redirect, err := domain.LandingPathForProfile(profile, surface)
	if err != nil {
		uc.revokeQuietly(ctx, &session)
		return nil, err
	}
	// Org members without a tenant must finish onboarding first.
	onboarding := profile.Role.IsOrgMember() && !profile.HasTenant()
	if grant.ReturnURL != "" && !onboarding {
		redirect = grant.ReturnURL
	}

	return &domain.CallbackResult{
		Principal: &domain.Principal{Identity: identity, Session: session, Profile: profile},
		Redirect:  redirect,
	}, nil
}

// ensureProfile returns the identity's profile, creating it when the sign-up
// never finished. Org identities get their role from provider metadata.
func (uc *AuthUseCase) ensureProfile(ctx context.Context, surface domain.Surface, identity domain.Identity) (*domain.Profile, error) {
	profile, err := uc.profiles.GetProfile(ctx, identity.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	role := domain.RoleCustomer
	if surface == domain.SurfaceOrganization {
		role = domain.RoleEmployee
		if hinted, err := domain.ParseRole(identity.RoleHint); err == nil && hinted.IsOrgMember() {
			role = hinted
		}
	}

	profile, err = domain.NewProfile(identity.ID, identity.Email, displayNameFor(identity), role, nil)
	if err != nil {
		return nil, err
	}

	if err := uc.profiles.InsertProfile(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			// A concurrent callback won the insert.
			return uc.profiles.GetProfile(ctx, identity.ID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	uc.logger.Info("profile created at sign-in", "identity_id", identity.ID, "role", role)
	return profile, nil
}

// SignOut revokes the provider session.
func (uc *AuthUseCase) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return nil
	}
	if err := uc.idp.RevokeSession(ctx, session.Token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	uc.logger.Info("signed out", "identity_id", session.IdentityID)
	return nil
}

// RequestPasswordReset mails a recovery code that leads back to the surface's
// update-password page.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, surface domain.Surface, email string) error {
	redirect := strings.TrimSuffix(uc.cfg.PublicBaseURL, "/") + surface.UpdatePasswordPath()
	return uc.idp.SendPasswordReset(ctx, normalizeEmail(email), redirect)
}

// UpdatePassword changes the password of the signed-in identity.
func (uc *AuthUseCase) UpdatePassword(ctx context.Context, session *domain.Session, newPassword string) error {
	if session == nil || session.Token == "" {
		return domain.ErrSessionInvalid
	}
	if err := uc.idp.UpdatePassword(ctx, session.Token, newPassword); err != nil {
		return err
	}
	uc.logger.Info("password updated", "identity_id", session.IdentityID)
	return nil
}

func (uc *AuthUseCase) revokeQuietly(ctx context.Context, session *domain.Session) {
	if session == nil || session.Token == "" {
		return
	}
	if err := uc.idp.RevokeSession(context.WithoutCancel(ctx), session.Token); err != nil {
		uc.logger.Warn("failed to revoke session", "identity_id", session.IdentityID, "error", err)
	}
}
