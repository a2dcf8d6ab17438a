package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
	"github.com/sua-a1/cram-app-sub001/app/utils/metrics"
	apptrace "github.com/sua-a1/cram-app-sub001/app/utils/otel"
)

// Provisioning outcomes, used as metric labels.
const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomePartial = "partial"
)

// Provisioner implements port.ProvisionUsecase. Every flow is one saga across
// the identity provider and the profile store.
type Provisioner struct {
	idp      port.IdentityProvider
	profiles port.ProfileRepository
	tenants  port.TenantRepository
	failures port.ProvisionFailureRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewProvisioner creates a new provisioner
func NewProvisioner(
	idp port.IdentityProvider,
	profiles port.ProfileRepository,
	tenants port.TenantRepository,
	failures port.ProvisionFailureRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Provisioner {
	return &Provisioner{
		idp:      idp,
		profiles: profiles,
		tenants:  tenants,
		failures: failures,
		metrics:  m,
		logger:   logger.With("component", "provisioner"),
		now:      time.Now,
	}
}

// provisionState collects what the steps created, for compensation and for
// the failure record.
type provisionState struct {
	flow     domain.ProvisionFlow
	email    string
	identity *domain.Identity
	tenant   *domain.Tenant
	profile  *domain.Profile
	// createdIdentity is false when the saga works on an existing identity.
	createdIdentity bool
}

// identityID returns the identity created by this saga, if any.
func (s *provisionState) identityID() *uuid.UUID {
	if s.identity == nil || !s.createdIdentity {
		return nil
	}
	id := s.identity.ID
	return &id
}

func (s *provisionState) tenantID() *uuid.UUID {
	if s.tenant == nil {
		return nil
	}
	id := s.tenant.ID
	return &id
}

func (s *provisionState) principal() *domain.Principal {
	return &domain.Principal{Identity: *s.identity, Profile: s.profile}
}

// ProvisionCustomer creates a customer identity and its profile.
func (p *Provisioner) ProvisionCustomer(ctx context.Context, req domain.CustomerSignup) (*domain.Principal, error) {
	state := &provisionState{flow: domain.ProvisionFlowCustomer, email: normalizeEmail(req.Email)}

	s := newSaga(state.flow, p.logger)
	p.createIdentityStep(s, state, req.Password, domain.IdentityMetadata{
		DisplayName: req.DisplayName,
		Role:        domain.RoleCustomer,
	})
	p.insertProfileStep(s, state, req.DisplayName, domain.RoleCustomer, nil)

	if err := p.execute(ctx, s, state); err != nil {
		return nil, err
	}
	return state.principal(), nil
}

// ProvisionOrgUser creates an admin or employee, optionally inside an
// existing active tenant.
func (p *Provisioner) ProvisionOrgUser(ctx context.Context, req domain.OrgSignup) (*domain.Principal, error) {
	if !req.Role.IsOrgMember() {
		return nil, fmt.Errorf("%w: role %q cannot sign up as an organization member", domain.ErrInvalidInput, req.Role)
	}

	state := &provisionState{flow: domain.ProvisionFlowOrgUser, email: normalizeEmail(req.Email)}
	s := newSaga(state.flow, p.logger)

	if req.TenantID != nil {
		tenantID := *req.TenantID
		s.step(domain.StepCheckTenant, func(ctx context.Context) error {
			tenant, err := p.tenants.GetTenant(ctx, tenantID)
			if err != nil {
				return err
			}
			if !tenant.IsActive() {
				return domain.ErrTenantInactive
			}
			return nil
		}, nil)
	}

	p.createIdentityStep(s, state, req.Password, domain.IdentityMetadata{
		DisplayName: req.DisplayName,
		Role:        req.Role,
		TenantID:    req.TenantID,
	})
	p.insertProfileStep(s, state, req.DisplayName, req.Role, req.TenantID)

	if err := p.execute(ctx, s, state); err != nil {
		return nil, err
	}
	return state.principal(), nil
}

// RegisterTenant creates a tenant and makes its founder an admin. The founder
// is either a new account or an existing identity without a tenant.
func (p *Provisioner) RegisterTenant(ctx context.Context, req domain.TenantRegistration) (*domain.Tenant, error) {
	tenant, err := domain.NewTenant(req.Name, req.Domain)
	if err != nil {
		return nil, err
	}

	state := &provisionState{flow: domain.ProvisionFlowTenant}
	s := newSaga(state.flow, p.logger)
	tenantID := tenant.ID

	switch {
	case req.Founder.NewAccount != nil:
		founder := req.Founder.NewAccount
		state.email = normalizeEmail(founder.Email)

		p.createIdentityStep(s, state, founder.Password, domain.IdentityMetadata{
			DisplayName: founder.DisplayName,
			Role:        domain.RoleAdmin,
			TenantID:    &tenantID,
		})
		p.insertTenantStep(s, state, tenant)
		p.insertProfileStep(s, state, founder.DisplayName, domain.RoleAdmin, &tenantID)

	case req.Founder.IdentityID != nil:
		existing, err := p.profiles.GetProfile(ctx, *req.Founder.IdentityID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, domain.ErrProfileMissing
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load founder profile: %w", err)
		}
		if existing.HasTenant() {
			return nil, domain.ErrAlreadyInTenant
		}

		state.email = existing.Email
		state.identity = &domain.Identity{ID: existing.IdentityID, Email: existing.Email, DisplayName: existing.DisplayName}

		p.insertTenantStep(s, state, tenant)
		p.linkProfileStep(s, state, existing, &tenantID)

	default:
		return nil, fmt.Errorf("%w: founder is required", domain.ErrInvalidInput)
	}

	if err := p.execute(ctx, s, state); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (p *Provisioner) createIdentityStep(s *saga, state *provisionState, password string, meta domain.IdentityMetadata) {
	s.step(domain.StepCreateIdentity,
		func(ctx context.Context) error {
			identity, err := p.idp.CreateIdentity(ctx, state.email, password, meta)
			if err != nil {
				return err
			}
			state.identity = identity
			state.createdIdentity = true
			return nil
		},
		func(ctx context.Context) error {
			return p.idp.DeleteIdentity(ctx, state.identity.ID)
		})
}

func (p *Provisioner) insertTenantStep(s *saga, state *provisionState, tenant *domain.Tenant) {
	s.step(domain.StepInsertTenant,
		func(ctx context.Context) error {
			if err := p.tenants.InsertTenant(ctx, tenant); err != nil {
				return err
			}
			state.tenant = tenant
			return nil
		},
		func(ctx context.Context) error {
			return p.tenants.DeleteTenant(ctx, tenant.ID)
		})
}

func (p *Provisioner) insertProfileStep(s *saga, state *provisionState, displayName string, role domain.Role, tenantID *uuid.UUID) {
	s.step(domain.StepInsertProfile,
		func(ctx context.Context) error {
			if displayName == "" {
				displayName = fallbackDisplayName(state.email)
			}
			profile, err := domain.NewProfile(state.identity.ID, state.email, displayName, role, tenantID)
			if err != nil {
				return err
			}
			if err := p.profiles.InsertProfile(ctx, profile); err != nil {
				return err
			}
			state.profile = profile
			return nil
		}, nil)
}

func (p *Provisioner) linkProfileStep(s *saga, state *provisionState, previous *domain.Profile, tenantID *uuid.UUID) {
	admin := domain.RoleAdmin
	s.step(domain.StepLinkProfile,
		func(ctx context.Context) error {
			profile, err := p.profiles.UpdateProfile(ctx, previous.IdentityID, domain.ProfilePatch{
				Role:     &admin,
				TenantID: tenantID,
			})
			if err != nil {
				return err
			}
			state.profile = profile
			return nil
		},
		func(ctx context.Context) error {
			role := previous.Role
			patch := domain.ProfilePatch{Role: &role, TenantID: previous.TenantID}
			if previous.TenantID == nil {
				patch.ClearTenant = true
			}
			_, err := p.profiles.UpdateProfile(ctx, previous.IdentityID, patch)
			return err
		})
}

// execute runs the saga and turns a failed compensation into a
// PartialProvisionFailure that is logged, counted and recorded.
func (p *Provisioner) execute(ctx context.Context, s *saga, state *provisionState) error {
	ctx, span := apptrace.Tracer().Start(ctx, "provision."+string(state.flow))
	defer span.End()

	result := s.run(ctx)
	if result.cause == nil {
		p.metrics.ProvisionOutcome(string(state.flow), outcomeSuccess)
		if id := state.identityID(); id != nil {
			span.SetAttributes(attribute.String("identity.id", id.String()))
			p.logger.Info("account provisioned", "flow", state.flow, "identity_id", *id)
		}
		return nil
	}

	span.RecordError(result.cause)
	span.SetStatus(codes.Error, string(result.failedStep)+" failed")

	if result.compensationErr == nil {
		p.metrics.ProvisionOutcome(string(state.flow), outcomeFailed)
		return result.cause
	}

	failure := &domain.PartialProvisionFailure{
		FailureID:       uuid.New(),
		Flow:            state.flow,
		IdentityID:      state.identityID(),
		TenantID:        state.tenantID(),
		Email:           state.email,
		Step:            result.failedStep,
		Cause:           result.cause,
		CompensationErr: result.compensationErr,
	}

	p.metrics.ProvisionOutcome(string(state.flow), outcomePartial)
	p.logger.Error("partial provision failure",
		"failure_id", failure.FailureID,
		"flow", failure.Flow,
		"identity_id", failure.IdentityID,
		"tenant_id", failure.TenantID,
		"step", failure.Step,
		"error", failure.Cause,
		"compensation_error", failure.CompensationErr)

	record := &domain.ProvisionFailure{
		ID:         failure.FailureID,
		Flow:       failure.Flow,
		IdentityID: failure.IdentityID,
		TenantID:   failure.TenantID,
		Email:      failure.Email,
		Step:       failure.Step,
		Error:      failure.Error(),
		CreatedAt:  p.now().UTC(),
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := p.failures.Record(recordCtx, record); err != nil {
		p.logger.Error("failed to record partial provision failure",
			"failure_id", failure.FailureID,
			"identity_id", failure.IdentityID,
			"error", err)
	}

	return failure
}
