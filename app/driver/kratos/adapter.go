package kratos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	kratosclient "github.com/ory/kratos-client-go"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// Trait and metadata keys of the identity schema.
const (
	traitEmail      = "email"
	traitName       = "name"
	metaRole        = "role"
	metaTenantID    = "tenant_id"
	metaDisplayName = "display_name"
	transientReturn = "return_to"
	methodPassword  = "password"
	methodCode      = "code"
)

// KratosClientAdapter implements port.KratosClient
type KratosClientAdapter struct {
	client *Client
	logger *slog.Logger
}

// NewKratosClientAdapter creates a new Kratos client adapter
func NewKratosClientAdapter(client *Client, logger *slog.Logger) port.KratosClient {
	return &KratosClientAdapter{
		client: client,
		logger: logger.With("component", "kratos_adapter"),
	}
}

// VerifyPassword runs a native login flow and returns the created session.
func (a *KratosClientAdapter) VerifyPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, a.transformKratosError(err, httpResp, "create_login_flow")
	}

	body := kratosclient.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&kratosclient.UpdateLoginFlowWithPasswordMethod{
		Identifier: email,
		Method:     methodPassword,
		Password:   password,
	})

	login, httpResp, err := a.client.PublicAPI().FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.GetId()).
		UpdateLoginFlowBody(body).
		Execute()
	if err != nil {
		mapped := a.transformKratosError(err, httpResp, "update_login_flow")
		// A rejected password comes back as a 400 flow with a UI message.
		if errors.Is(mapped, domain.ErrInvalidInput) || errors.Is(mapped, domain.ErrSessionInvalid) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, mapped
	}

	session := login.GetSession()
	return toDomainSession(&session, login.GetSessionToken())
}

// ToSession validates a session token.
func (a *KratosClientAdapter) ToSession(ctx context.Context, sessionToken string) (*domain.Session, error) {
	session, httpResp, err := a.client.PublicAPI().FrontendAPI.ToSession(ctx).
		XSessionToken(sessionToken).
		Execute()
	if err != nil {
		mapped := a.transformKratosError(err, httpResp, "to_session")
		if errors.Is(mapped, errNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, mapped
	}

	if session.Active != nil && !session.GetActive() {
		return nil, domain.ErrSessionInvalid
	}

	return toDomainSession(session, sessionToken)
}

// ExtendSession pushes the session expiry forward. Kratos may answer 204; a
// nil session with a nil error means the caller must re-read the session.
func (a *KratosClientAdapter) ExtendSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, httpResp, err := a.client.AdminAPI().IdentityAPI.ExtendSession(ctx, sessionID).Execute()
	if err != nil {
		mapped := a.transformKratosError(err, httpResp, "extend_session")
		if errors.Is(mapped, errNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, mapped
	}

	if session == nil || session.GetId() == "" {
		return nil, nil
	}

	return toDomainSession(session, "")
}

// RevokeSession logs a native session out.
func (a *KratosClientAdapter) RevokeSession(ctx context.Context, sessionToken string) error {
	httpResp, err := a.client.PublicAPI().FrontendAPI.PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratosclient.NewPerformNativeLogoutBody(sessionToken)).
		Execute()
	if err != nil {
		mapped := a.transformKratosError(err, httpResp, "perform_native_logout")
		// Unknown or already revoked tokens are fine.
		if errors.Is(mapped, errNotFound) || errors.Is(mapped, domain.ErrSessionInvalid) ||
			errors.Is(mapped, domain.ErrInvalidInput) {
			return nil
		}
		return mapped
	}
	return nil
}

// CreateIdentity creates a password identity with the gateway metadata.
func (a *KratosClientAdapter) CreateIdentity(ctx context.Context, email, password string, meta domain.IdentityMetadata) (*domain.Identity, error) {
	traits := map[string]interface{}{traitEmail: email}
	if meta.DisplayName != "" {
		traits[traitName] = meta.DisplayName
	}

	metadata := map[string]interface{}{
		metaRole:        meta.Role.String(),
		metaDisplayName: meta.DisplayName,
	}
	if meta.TenantID != nil {
		metadata[metaTenantID] = meta.TenantID.String()
	}

	body := kratosclient.NewCreateIdentityBody(a.client.schemaID, traits)
	body.SetMetadataPublic(metadata)
	body.SetCredentials(kratosclient.IdentityWithCredentials{
		Password: &kratosclient.IdentityWithCredentialsPassword{
			Config: &kratosclient.IdentityWithCredentialsPasswordConfig{
				Password: &password,
			},
		},
	})

	identity, httpResp, err := a.client.AdminAPI().IdentityAPI.CreateIdentity(ctx).
		CreateIdentityBody(*body).
		Execute()
	if err != nil {
		return nil, a.transformKratosError(err, httpResp, "create_identity")
	}

	a.logger.Info("identity created", "identity_id", identity.GetId(), "role", meta.Role)

	return toDomainIdentity(identity)
}

// DeleteIdentity removes an identity. A missing identity is not an error.
func (a *KratosClientAdapter) DeleteIdentity(ctx context.Context, identityID uuid.UUID) error {
	httpResp, err := a.client.AdminAPI().IdentityAPI.DeleteIdentity(ctx, identityID.String()).Execute()
	if err != nil {
		mapped := a.transformKratosError(err, httpResp, "delete_identity")
		if errors.Is(mapped, errNotFound) {
			return nil
		}
		return mapped
	}

	a.logger.Info("identity deleted", "identity_id", identityID)
	return nil
}

// SendRecovery starts a recovery flow that mails a code to email. returnTo is
// passed to the courier templates as transient payload.
func (a *KratosClientAdapter) SendRecovery(ctx context.Context, email, returnTo string) error {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return a.transformKratosError(err, httpResp, "create_recovery_flow")
	}

	method := &kratosclient.UpdateRecoveryFlowWithCodeMethod{
		Email:  &email,
		Method: methodCode,
	}
	if returnTo != "" {
		method.TransientPayload = map[string]interface{}{transientReturn: returnTo}
	}

	_, httpResp, err = a.client.PublicAPI().FrontendAPI.UpdateRecoveryFlow(ctx).
		Flow(flow.GetId()).
		UpdateRecoveryFlowBody(kratosclient.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(method)).
		Execute()
	if err != nil {
		return a.transformKratosError(err, httpResp, "update_recovery_flow")
	}

	return nil
}

// UpdatePassword changes the password of the session's identity through a
// settings flow.
func (a *KratosClientAdapter) UpdatePassword(ctx context.Context, sessionToken, newPassword string) error {
	flow, httpResp, err := a.client.PublicAPI().FrontendAPI.CreateNativeSettingsFlow(ctx).
		XSessionToken(sessionToken).
		Execute()
	if err != nil {
		return a.transformKratosError(err, httpResp, "create_settings_flow")
	}

	body := kratosclient.UpdateSettingsFlowWithPasswordMethodAsUpdateSettingsFlowBody(&kratosclient.UpdateSettingsFlowWithPasswordMethod{
		Method:   methodPassword,
		Password: newPassword,
	})

	_, httpResp, err = a.client.PublicAPI().FrontendAPI.UpdateSettingsFlow(ctx).
		Flow(flow.GetId()).
		XSessionToken(sessionToken).
		UpdateSettingsFlowBody(body).
		Execute()
	if err != nil {
		return a.transformKratosError(err, httpResp, "update_settings_flow")
	}

	return nil
}

// HealthCheck checks Kratos connectivity
func (a *KratosClientAdapter) HealthCheck(ctx context.Context) error {
	return a.client.HealthCheck(ctx)
}

func toDomainSession(s *kratosclient.Session, token string) (*domain.Session, error) {
	if s == nil {
		return nil, domain.ErrSessionInvalid
	}

	session := &domain.Session{
		ID:        s.GetId(),
		Token:     token,
		IssuedAt:  s.GetIssuedAt(),
		ExpiresAt: s.GetExpiresAt(),
	}
	if session.IssuedAt.IsZero() {
		session.IssuedAt = s.GetAuthenticatedAt()
	}

	if s.Identity != nil {
		identity, err := toDomainIdentity(s.Identity)
		if err != nil {
			return nil, err
		}
		session.Identity = identity
		session.IdentityID = identity.ID
	}

	if session.IdentityID == uuid.Nil {
		return nil, fmt.Errorf("kratos session %s has no identity: %w", session.ID, domain.ErrSessionInvalid)
	}

	return session, nil
}

func toDomainIdentity(i *kratosclient.Identity) (*domain.Identity, error) {
	id, err := uuid.Parse(i.GetId())
	if err != nil {
		return nil, fmt.Errorf("invalid kratos identity id %q: %w", i.GetId(), err)
	}

	identity := &domain.Identity{ID: id}
	if i.CreatedAt != nil {
		identity.CreatedAt = i.GetCreatedAt()
	} else {
		identity.CreatedAt = time.Now().UTC()
	}

	if traits, ok := i.GetTraits().(map[string]interface{}); ok {
		identity.Email = strings.ToLower(stringValue(traits, traitEmail))
		identity.DisplayName = stringValue(traits, traitName)
	}

	if meta, ok := i.GetMetadataPublic().(map[string]interface{}); ok {
		identity.RoleHint = stringValue(meta, metaRole)
		if identity.DisplayName == "" {
			identity.DisplayName = stringValue(meta, metaDisplayName)
		}
	}

	return identity, nil
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
