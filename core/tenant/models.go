package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/escolaria/escolaria/core"
)

// Tenant types
const (
	TypeSchool      = "SCHOOL"
	TypeIndependent = "INDEPENDENT" // single independent teacher workspace
)

type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Member links a user to a tenant with the role they hold inside it.
type Member struct {
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewTenant contains information needed to create a new Tenant.
type NewTenant struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=SCHOOL INDEPENDENT"`
}

func (nt *NewTenant) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	return validate.Struct(nt)
}

type SwitchTenant struct {
	TenantID string `json:"tenant_id" validate:"required,uuid4"`
}

func (st SwitchTenant) Validate(validate *validator.Validate) error {
	return validate.Struct(st)
}
