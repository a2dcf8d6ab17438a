package domain

import "github.com/google/uuid"

// CustomerSignup is the input of the customer provisioning flow.
type CustomerSignup struct {
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,password"`
	DisplayName string `json:"display_name" form:"display_name" validate:"required,displayname"`
}

// OrgSignup is the input of the organization member provisioning flow.
type OrgSignup struct {
	Email       string     `json:"email" form:"email" validate:"required,email"`
	Password    string     `json:"password" form:"password" validate:"required,password"`
	DisplayName string     `json:"display_name" form:"display_name" validate:"required,displayname"`
	Role        Role       `json:"role" form:"role" validate:"required,oneof=admin employee"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty" form:"tenant_id"`
}

// NewAccount carries the credentials of a founder that does not exist yet.
type NewAccount struct {
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,password"`
	DisplayName string `json:"display_name" form:"display_name" validate:"required,displayname"`
}

// Founder is either a new account or an existing signed-in identity.
type Founder struct {
	NewAccount *NewAccount
	IdentityID *uuid.UUID
}

// TenantRegistration is the input of the tenant registration flow.
type TenantRegistration struct {
	Name    string  `validate:"required,min=2,max=100"`
	Domain  *string `validate:"omitempty,fqdn"`
	Founder Founder
}

// SignInRequest is a credential submission on either surface.
type SignInRequest struct {
	Email     string  `json:"email" form:"email" validate:"required,email"`
	Password  string  `json:"password" form:"password" validate:"required,min=6"`
	ReturnURL string  `json:"returnUrl" form:"returnUrl"`
	Surface   Surface `json:"-"`
}

// CallbackResult is what a successful code exchange produces.
type CallbackResult struct {
	Principal *Principal
	Redirect  string
}
