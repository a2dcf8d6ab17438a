package handlers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/rest/middleware"
	apperrors "github.com/sua-a1/cram-app-sub001/app/utils/errors"
)

// AccountHandler handles sign-up and onboarding.
type AccountHandler struct {
	provision  port.ProvisionUsecase
	membership port.MembershipUsecase
	sessions   port.SessionResolver
	logger     *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(provision port.ProvisionUsecase, membership port.MembershipUsecase, sessions port.SessionResolver, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		provision:  provision,
		membership: membership,
		sessions:   sessions,
		logger:     logger.With("component", "account_handler"),
	}
}

type orgSignUpForm struct {
	Email              string `json:"email" form:"email"`
	Password           string `json:"password" form:"password"`
	DisplayName        string `json:"display_name" form:"display_name"`
	Role               string `json:"role" form:"role"`
	TenantID           string `json:"tenant_id" form:"tenant_id"`
	OrganizationName   string `json:"organization_name" form:"organization_name"`
	OrganizationDomain string `json:"organization_domain" form:"organization_domain"`
}

type registerForm struct {
	OrganizationName   string `json:"organization_name" form:"organization_name"`
	OrganizationDomain string `json:"organization_domain" form:"organization_domain"`
}

type onboardingForm struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"omitempty,displayname"`
}

type accessForm struct {
	TenantID string `json:"tenant_id" form:"tenant_id" validate:"required,uuid"`
}

// CustomerSignUp provisions a customer account.
// @Summary Customer sign-up
// @Tags accounts
// @Success 302 "Redirect to /auth/verify"
// @Router /auth/signup [post]
func (h *AccountHandler) CustomerSignUp(c echo.Context) error {
	origin := domain.PathCustomerSignUp

	var req domain.CustomerSignup
	if err := c.Bind(&req); err != nil {
		return formError(c, origin, err)
	}
	if err := c.Validate(&req); err != nil {
		return formError(c, origin, err)
	}

	if _, err := h.provision.ProvisionCustomer(c.Request().Context(), req); err != nil {
		h.logger.Info("customer sign-up failed", "code", domain.ErrorCode(err))
		return formError(c, origin, err)
	}
	return redirect(c, domain.PathCustomerVerify)
}

// OrgSignUp registers a new organization with its founder, or an org member
// when no organization name is given.
// @Summary Organization sign-up
// @Tags accounts
// @Success 302 "Redirect to the org sign-in"
// @Router /org/org-auth/signup [post]
func (h *AccountHandler) OrgSignUp(c echo.Context) error {
	ctx := c.Request().Context()
	origin := domain.PathOrgSignUp

	var form orgSignUpForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}

	account := domain.NewAccount{
		Email:       form.Email,
		Password:    form.Password,
		DisplayName: form.DisplayName,
	}

	if name := strings.TrimSpace(form.OrganizationName); name != "" {
		reg := domain.TenantRegistration{
			Name:    name,
			Domain:  optional(form.OrganizationDomain),
			Founder: domain.Founder{NewAccount: &account},
		}
		if err := c.Validate(&reg); err != nil {
			return formError(c, origin, err)
		}
		tenant, err := h.provision.RegisterTenant(ctx, reg)
		if err != nil {
			h.logger.Info("organization sign-up failed", "code", domain.ErrorCode(err))
			return formError(c, origin, err)
		}
		h.logger.Info("organization registered", "tenant_id", tenant.ID)
		return redirect(c, withQuery(domain.PathOrgSignIn, "registered", "1"))
	}

	req := domain.OrgSignup{
		Email:       account.Email,
		Password:    account.Password,
		DisplayName: account.DisplayName,
		Role:        domain.Role(strings.TrimSpace(form.Role)),
	}
	if raw := strings.TrimSpace(form.TenantID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return formError(c, origin, apperrors.NewValidationError("tenant_id must be a valid id"))
		}
		req.TenantID = &id
	}
	if err := c.Validate(&req); err != nil {
		return formError(c, origin, err)
	}

	if _, err := h.provision.ProvisionOrgUser(ctx, req); err != nil {
		h.logger.Info("organization member sign-up failed", "code", domain.ErrorCode(err))
		return formError(c, origin, err)
	}
	return redirect(c, withQuery(domain.PathOrgSignIn, "registered", "1"))
}

// RegisterOrganization creates a tenant owned by the signed-in identity.
// @Summary Register an organization
// @Tags accounts
// @Success 302 "Redirect to the admin dashboard of the new tenant"
// @Router /org/org-auth/register [post]
func (h *AccountHandler) RegisterOrganization(c echo.Context) error {
	origin := domain.PathOrgRegister

	principal, err := h.principal(c)
	if err != nil {
		return err
	}

	var form registerForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}

	identityID := principal.Identity.ID
	reg := domain.TenantRegistration{
		Name:    strings.TrimSpace(form.OrganizationName),
		Domain:  optional(form.OrganizationDomain),
		Founder: domain.Founder{IdentityID: &identityID},
	}
	if err := c.Validate(&reg); err != nil {
		return formError(c, origin, err)
	}

	tenant, err := h.provision.RegisterTenant(c.Request().Context(), reg)
	if err != nil {
		return formError(c, origin, err)
	}

	landing, err := domain.LandingPath(domain.RoleAdmin, &tenant.ID)
	if err != nil {
		return formError(c, origin, err)
	}
	h.logger.Info("organization registered by signed-in founder", "tenant_id", tenant.ID, "identity_id", identityID)
	return redirect(c, landing)
}

// CompleteOnboarding creates the missing customer profile.
// @Summary Finish customer onboarding
// @Tags accounts
// @Success 302 "Redirect to the landing page"
// @Router /auth/onboarding [post]
func (h *AccountHandler) CompleteOnboarding(c echo.Context) error {
	origin := domain.PathCustomerOnboarding

	principal, err := h.principal(c)
	if err != nil {
		return err
	}

	var form onboardingForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}
	if err := c.Validate(&form); err != nil {
		return formError(c, origin, err)
	}

	profile, err := h.membership.CompleteCustomerProfile(c.Request().Context(), principal, form.DisplayName)
	if err != nil {
		return formError(c, origin, err)
	}
	return h.land(c, origin, profile, domain.SurfaceCustomer)
}

// JoinOrganization links the signed-in identity to an existing tenant.
// @Summary Join an organization
// @Tags accounts
// @Success 302 "Redirect to the tenant dashboard"
// @Router /org/org-auth/access [post]
func (h *AccountHandler) JoinOrganization(c echo.Context) error {
	origin := domain.PathOrgAccess

	principal, err := h.principal(c)
	if err != nil {
		return err
	}

	var form accessForm
	if err := c.Bind(&form); err != nil {
		return formError(c, origin, err)
	}
	if err := c.Validate(&form); err != nil {
		return formError(c, origin, err)
	}
	tenantID, err := uuid.Parse(form.TenantID)
	if err != nil {
		return formError(c, origin, fmt.Errorf("%w: tenant_id", domain.ErrInvalidInput))
	}

	profile, err := h.membership.JoinTenant(c.Request().Context(), principal, tenantID)
	if err != nil {
		return formError(c, origin, err)
	}
	return h.land(c, origin, profile, domain.SurfaceOrganization)
}

func (h *AccountHandler) principal(c echo.Context) (*domain.Principal, error) {
	principal, err := middleware.ResolvePrincipal(c, h.sessions)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, apperrors.NewUnauthorized("sign in required")
	}
	return principal, nil
}

func (h *AccountHandler) land(c echo.Context, origin string, profile *domain.Profile, surface domain.Surface) error {
	landing, err := domain.LandingPathForProfile(profile, surface)
	if err != nil {
		return formError(c, origin, err)
	}
	return redirect(c, landing)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
