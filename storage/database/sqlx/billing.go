package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core/billing"
)

type subscriptionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TenantID  string    `db:"tenant_id"`
	PlanType  string    `db:"plan_type"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type licenseLimitsRow struct {
	PlanType            string `db:"plan_type"`
	MaxGroups           int    `db:"max_groups"`
	MaxStudentsPerGroup int    `db:"max_students_per_group"`
	PriceAnnual         int    `db:"price_annual"`
}

type billingRepository struct {
	db *sqlx.DB
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db *sqlx.DB) *billingRepository {
	return &billingRepository{db: db}
}

func (repo billingRepository) GetSubscriptionByUserID(ctx context.Context, userID string) (billing.Subscription, error) {
	query, args, err := psql.Select("id", "user_id", "tenant_id", "plan_type", "status", "created_at", "updated_at").
		From("subscriptions").
		Where(sq.Eq{"user_id": userID, "status": billing.SubscriptionActive}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return billing.Subscription{}, errors.Wrap(err, "building subscription query")
	}
	var row subscriptionRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return billing.Subscription{}, billing.ErrNoSubscription
		}
		return billing.Subscription{}, errors.Wrap(err, "getting subscription")
	}
	return billing.Subscription{
		ID:        row.ID,
		UserID:    row.UserID,
		TenantID:  row.TenantID,
		PlanType:  row.PlanType,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo billingRepository) GetLicenseLimits(ctx context.Context, planType string) (billing.LicenseLimits, error) {
	query, args, err := psql.Select("plan_type", "max_groups", "max_students_per_group", "price_annual").
		From("license_limits").
		Where(sq.Eq{"plan_type": planType}).
		ToSql()
	if err != nil {
		return billing.LicenseLimits{}, errors.Wrap(err, "building license limits query")
	}
	var row licenseLimitsRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return billing.LicenseLimits{}, billing.ErrNoLimits
		}
		return billing.LicenseLimits{}, errors.Wrap(err, "getting license limits")
	}
	return billing.LicenseLimits{
		PlanType:            row.PlanType,
		MaxGroups:           row.MaxGroups,
		MaxStudentsPerGroup: row.MaxStudentsPerGroup,
		PriceAnnual:         row.PriceAnnual,
	}, nil
}

func (repo billingRepository) UpsertSubscription(ctx context.Context, sub billing.Subscription) (billing.Subscription, error) {
	now := time.Now().UTC()
	if sub.ID == "" {
		sub.ID = uuid.New().String()
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	query, args, err := psql.Insert("subscriptions").
		Columns("id", "user_id", "tenant_id", "plan_type", "status", "created_at", "updated_at").
		Values(sub.ID, sub.UserID, sub.TenantID, sub.PlanType, sub.Status, sub.CreatedAt, sub.UpdatedAt).
		Suffix("ON CONFLICT (user_id, tenant_id) DO UPDATE SET plan_type = EXCLUDED.plan_type, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return billing.Subscription{}, errors.Wrap(err, "building subscription upsert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return billing.Subscription{}, errors.Wrap(err, "upserting subscription")
	}
	return sub, nil
}
