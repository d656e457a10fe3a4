package tenant

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
)

var (
	ErrNotFound  = errors.New("tenant not found")
	ErrNotMember = errors.New("user is not a member of this tenant")
)

type (
	Repository interface {
		CreateTenant(ctx context.Context, t Tenant) (Tenant, error)
		GetTenantByID(ctx context.Context, id string) (Tenant, error)
		QueryAllTenants(ctx context.Context) ([]Tenant, error)
		QueryTenantsByUserID(ctx context.Context, userID string) ([]Tenant, error)
		AddMember(ctx context.Context, m Member) error
		GetMember(ctx context.Context, tenantID, userID string) (Member, error)
		// SetActiveTenant points the user's profile at a new active workspace.
		SetActiveTenant(ctx context.Context, userID, tenantID string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nt NewTenant, ownerID, ownerRole string) (Tenant, error)
		GetByID(ctx context.Context, id string) (Tenant, error)
		QueryMine(ctx context.Context, userID string) ([]Tenant, error)
		// QueryAll is the cross-tenant listing; callers must gate it to owners.
		QueryAll(ctx context.Context) ([]Tenant, error)
		Switch(ctx context.Context, userID, tenantID string) (Tenant, error)
		RoleIn(ctx context.Context, tenantID, userID string) (string, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nt NewTenant, ownerID, ownerRole string) (Tenant, error) {
	now := time.Now().UTC()
	t := Tenant{
		Name:      nt.Name,
		Type:      nt.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t, err := svc.repo.CreateTenant(ctx, t)
	if err != nil {
		return Tenant{}, err
	}

	// creator joins their own workspace; sequential, no compensation
	if err = svc.repo.AddMember(ctx, Member{TenantID: t.ID, UserID: ownerID, Role: ownerRole, CreatedAt: now}); err != nil {
		return Tenant{}, errors.Wrap(err, "adding owner membership")
	}
	return t, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Tenant, error) {
	return svc.repo.GetTenantByID(ctx, id)
}

func (svc *service) QueryMine(ctx context.Context, userID string) ([]Tenant, error) {
	return svc.repo.QueryTenantsByUserID(ctx, userID)
}

func (svc *service) QueryAll(ctx context.Context) ([]Tenant, error) {
	return svc.repo.QueryAllTenants(ctx)
}

// Switch activates one of the user's workspaces after checking membership.
func (svc *service) Switch(ctx context.Context, userID, tenantID string) (Tenant, error) {
	t, err := svc.repo.GetTenantByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, err
	}
	if _, err = svc.repo.GetMember(ctx, tenantID, userID); err != nil {
		if errors.Cause(err) == ErrNotMember {
			return Tenant{}, core.NewValidationError(ErrNotMember)
		}
		return Tenant{}, err
	}
	if err = svc.repo.SetActiveTenant(ctx, userID, tenantID); err != nil {
		return Tenant{}, errors.Wrap(err, "setting active tenant")
	}
	return t, nil
}

func (svc *service) RoleIn(ctx context.Context, tenantID, userID string) (string, error) {
	m, err := svc.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		return "", err
	}
	return m.Role, nil
}
