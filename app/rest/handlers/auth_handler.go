package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/rest/middleware"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
)

// AuthHandler handles the credential exchange and session endpoints of both surfaces.
type AuthHandler struct {
	auth       port.AuthUsecase
	challenges port.ChallengeStore
	sessions   port.SessionResolver
	logger     *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth port.AuthUsecase, challenges port.ChallengeStore, sessions port.SessionResolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		challenges: challenges,
		sessions:   sessions,
		logger:     logger.With("component", "auth_handler"),
	}
}

type resetPasswordForm struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type updatePasswordForm struct {
	Password string `json:"password" form:"password" validate:"required,password"`
}

// SessionResponse describes the signed-in principal.
type SessionResponse struct {
	IdentityID  uuid.UUID   `json:"identity_id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name,omitempty"`
	Role        domain.Role `json:"role,omitempty"`
	TenantID    *uuid.UUID  `json:"tenant_id,omitempty"`
	Landing     string      `json:"landing"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// SignIn verifies credentials and redirects to the surface callback with a one-time code.
// @Summary Sign in
// @Tags authentication
// @Accept x-www-form-urlencoded,json
// @Success 302 "Redirect to the callback"
// @Router /auth/signin [post]
// @Router /org/org-auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	surface := domain.SurfaceForPath(c.Request().URL.Path)

	var req domain.SignInRequest
	if err := c.Bind(&req); err != nil {
		return formError(c, surface.SignInPath(), err)
	}
	req.Surface = surface

	origin := surface.SignInPath()
	if ret := domain.SafeReturnURL(req.ReturnURL); ret != "" {
		origin = withQuery(origin, "returnUrl", ret)
	}

	if err := c.Validate(&req); err != nil {
		return formError(c, origin, err)
	}

	challenge, err := h.challenges.Begin(ctx, c.Request(), c.Response())
	if err != nil {
		h.logger.Error("failed to begin sign-in attempt", "surface", surface, "error", err)
		return formError(c, origin, err)
	}

	location, err := h.auth.SignIn(ctx, req, challenge)
	if err != nil {
		h.logger.Info("sign-in failed", "surface", surface, "code", domain.ErrorCode(err))
		return formError(c, origin, err)
	}

	return redirect(c, location)
}

// Callback exchanges the one-time code for the session cookie.
// @Summary Sign-in callback
// @Tags authentication
// @Param code query string true "One-time code"
// @Success 302 "Redirect to the landing page"
// @Router /auth/callback [get]
// @Router /org/org-auth/callback [get]
// @Router /api/auth/callback [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	surface := domain.SurfaceForPath(c.Request().URL.Path)
	origin := surface.SignInPath()

	verifier, err := h.challenges.Consume(ctx, c.Request(), c.Response())
	if err != nil {
		h.logger.Info("sign-in callback without a valid challenge", "surface", surface, "error", err)
		return formError(c, origin, err)
	}

	result, err := h.auth.CompleteSignIn(ctx, surface, c.QueryParam("code"), verifier)
	if err != nil {
		return formError(c, origin, err)
	}

	if err := h.sessions.Establish(c.Response(), &result.Principal.Session); err != nil {
		h.logger.Error("failed to write session cookie", "identity_id", result.Principal.Identity.ID, "error", err)
		return formError(c, origin, err)
	}
	middleware.SetPrincipal(c, result.Principal)

	h.logger.Info("signed in", "surface", surface, "identity_id", result.Principal.Identity.ID)
	return redirect(c, result.Redirect)
}

// SignOut revokes the session and clears the cookie.
// @Summary Sign out
// @Tags authentication
// @Success 302 "Redirect to sign-in"
// @Router /auth/signout [post]
// @Router /org/org-auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	ctx := c.Request().Context()
	surface := domain.SurfaceForPath(c.Request().URL.Path)

	principal, err := middleware.ResolvePrincipal(c, h.sessions)
	if err != nil {
		h.logger.Warn("signing out without a resolvable session", "error", err)
	}
	if principal != nil {
		if err := h.auth.SignOut(ctx, &principal.Session); err != nil {
			h.logger.Warn("failed to revoke session at sign-out", "identity_id", principal.Identity.ID, "error", err)
		}
	}

	h.sessions.Clear(c.Response())
	middleware.SetPrincipal(c, nil)
	return redirect(c, surface.SignInPath())
}

// ResetPassword mails a recovery code.
// @Summary Request a password reset
// @Tags authentication
// @Success 302 "Redirect back with ?sent=1"
// @Router /auth/reset-password [post]
// @Router /org/org-auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	origin := c.Request().URL.Path
	surface := domain.SurfaceForPath(origin)

	var form resetPasswordForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}
	if err := c.Validate(&form); err != nil {
		return formError(c, origin, err)
	}

	if err := h.auth.RequestPasswordReset(ctx, surface, form.Email); err != nil {
		return formError(c, origin, err)
	}
	return redirect(c, withQuery(origin, "sent", "1"))
}

// UpdatePassword sets a new password for the signed-in identity.
// @Summary Update password
// @Tags authentication
// @Success 302 "Redirect to sign-in"
// @Failure 401 {object} apperrors.AppError
// @Router /auth/update-password [post]
// @Router /org/org-auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	origin := c.Request().URL.Path
	surface := domain.SurfaceForPath(origin)

	principal, err := middleware.ResolvePrincipal(c, h.sessions)
	if err != nil {
		return err
	}
	if principal == nil {
		return apperrors.NewUnauthorized("sign in to change your password")
	}

	var form updatePasswordForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}
	if err := c.Validate(&form); err != nil {
		return formError(c, origin, err)
	}

	if err := h.auth.UpdatePassword(ctx, &principal.Session, form.Password); err != nil {
		return formError(c, origin, err)
	}
	return redirect(c, withQuery(surface.SignInPath(), "updated", "1"))
}

// Session returns the resolved principal.
// @Summary Current session
// @Tags authentication
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} apperrors.AppError
// @Router /api/auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	principal, err := middleware.ResolvePrincipal(c, h.sessions)
	if err != nil {
		return err
	}
	if principal == nil {
		return apperrors.NewUnauthorized("no session")
	}

	surface := domain.SurfaceCustomer
	resp := SessionResponse{
		IdentityID:  principal.Identity.ID,
		Email:       principal.Identity.Email,
		DisplayName: principal.Identity.DisplayName,
		ExpiresAt:   principal.Session.ExpiresAt,
	}
	if principal.Profile != nil {
		resp.Role = principal.Profile.Role
		resp.TenantID = principal.Profile.TenantID
		if principal.Profile.Role.IsOrgMember() {
			surface = domain.SurfaceOrganization
		}
	}

	landing, err := domain.LandingPathForProfile(principal.Profile, surface)
	if err != nil {
		return apperrors.FromDomain(err)
	}
	resp.Landing = landing

	return c.JSON(http.StatusOK, resp)
}
