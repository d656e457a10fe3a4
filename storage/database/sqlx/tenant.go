package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core/tenant"
)

type tenantRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Type      string    `db:"type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r tenantRow) toTenant() tenant.Tenant {
	return tenant.Tenant{
		ID:        r.ID,
		Name:      r.Name,
		Type:      r.Type,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type memberRow struct {
	TenantID  string    `db:"tenant_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

var tenantColumns = []string{"id", "name", "type", "created_at", "updated_at"}

type tenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*tenantRepository)(nil) // interface compliance check

func NewTenantRepository(db *sqlx.DB) *tenantRepository {
	return &tenantRepository{db: db}
}

func (repo tenantRepository) CreateTenant(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	t.ID = uuid.New().String()
	query, args, err := psql.Insert("tenants").
		Columns(tenantColumns...).
		Values(t.ID, t.Name, t.Type, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "building tenant insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "inserting tenant")
	}
	return t, nil
}

func (repo tenantRepository) GetTenantByID(ctx context.Context, id string) (tenant.Tenant, error) {
	query, args, err := psql.Select(tenantColumns...).From("tenants").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "building tenant query")
	}
	var row tenantRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return tenant.Tenant{}, tenant.ErrNotFound
		}
		return tenant.Tenant{}, errors.Wrap(err, "getting tenant")
	}
	return row.toTenant(), nil
}

func (repo tenantRepository) QueryAllTenants(ctx context.Context) ([]tenant.Tenant, error) {
	query, args, err := psql.Select(tenantColumns...).From("tenants").OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building tenants query")
	}
	var rows []tenantRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(rows))
	for _, r := range rows {
		tenants = append(tenants, r.toTenant())
	}
	return tenants, nil
}

func (repo tenantRepository) QueryTenantsByUserID(ctx context.Context, userID string) ([]tenant.Tenant, error) {
	query, args, err := psql.
		Select("t.id", "t.name", "t.type", "t.created_at", "t.updated_at").
		From("tenants t").
		Join("tenant_members m ON m.tenant_id = t.id").
		Where(sq.Eq{"m.user_id": userID}).
		OrderBy("m.created_at ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building user tenants query")
	}
	var rows []tenantRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying user tenants")
	}
	tenants := make([]tenant.Tenant, 0, len(rows))
	for _, r := range rows {
		tenants = append(tenants, r.toTenant())
	}
	return tenants, nil
}

func (repo tenantRepository) AddMember(ctx context.Context, m tenant.Member) error {
	query, args, err := psql.Insert("tenant_members").
		Columns("tenant_id", "user_id", "role", "created_at").
		Values(m.TenantID, m.UserID, m.Role, m.CreatedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building member insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "inserting member")
	}
	return nil
}

func (repo tenantRepository) GetMember(ctx context.Context, tenantID, userID string) (tenant.Member, error) {
	query, args, err := psql.Select("tenant_id", "user_id", "role", "created_at").
		From("tenant_members").
		Where(sq.Eq{"tenant_id": tenantID, "user_id": userID}).
		ToSql()
	if err != nil {
		return tenant.Member{}, errors.Wrap(err, "building member query")
	}
	var row memberRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return tenant.Member{}, tenant.ErrNotMember
		}
		return tenant.Member{}, errors.Wrap(err, "getting member")
	}
	return tenant.Member{
		TenantID:  row.TenantID,
		UserID:    row.UserID,
		Role:      row.Role,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (repo tenantRepository) SetActiveTenant(ctx context.Context, userID, tenantID string) error {
	query, args, err := psql.Update("users").
		Set("tenant_id", tenantID).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building active tenant update")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "setting active tenant")
	}
	return nil
}
