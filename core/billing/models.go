package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Plan types
const (
	PlanBasic = "basic"
	PlanPro   = "pro"
)

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionPending   = "pending"
	SubscriptionCancelled = "cancelled"
)

// defaults applied when a tenant has no subscription or limits row yet
const (
	DefaultMaxGroups           = 2
	DefaultMaxStudentsPerGroup = 50
	DefaultPriceAnnual         = 399
)

// LicenseLimits is a per-plan row of the license_limits table.
type LicenseLimits struct {
	PlanType            string `json:"plan_type"`
	MaxGroups           int    `json:"max_groups"`
	MaxStudentsPerGroup int    `json:"max_students_per_group"`
	PriceAnnual         int    `json:"price_annual"`
}

type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TenantID  string    `json:"tenant_id"`
	PlanType  string    `json:"plan_type"`
	Status    string    `json:"status"` // active | pending | cancelled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionLimits is the evaluated view the UI gates on: the plan's
// ceilings against the tenant's current usage.
type SubscriptionLimits struct {
	PlanType            string `json:"plan_type"`
	MaxGroups           int    `json:"max_groups"`
	MaxStudentsPerGroup int    `json:"max_students_per_group"`
	PriceAnnual         int    `json:"price_annual"`
	CurrentGroups       int    `json:"current_groups"`
	CanAddGroup         bool   `json:"can_add_group"`
}

// CanAddStudent reports whether one more student fits in a group that
// currently holds `current`.
func (l SubscriptionLimits) CanAddStudent(current int) bool {
	return current < l.MaxStudentsPerGroup
}

// CheckoutRequest starts a hosted-checkout flow for a plan.
type CheckoutRequest struct {
	PlanType string `json:"plan_type" validate:"required,oneof=basic pro"`
}

func (cr CheckoutRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(cr)
}

// CheckoutPreference is the gateway's answer: an id for the embedded widget
// and a redirect URL for the hosted flow.
type CheckoutPreference struct {
	PreferenceID string `json:"preferenceId"`
	InitPoint    string `json:"init_point"`
}
