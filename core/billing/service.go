package billing

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoSubscription = errors.New("subscription not found")
	ErrNoLimits       = errors.New("license limits not found")
)

type (
	Repository interface {
		GetSubscriptionByUserID(ctx context.Context, userID string) (Subscription, error)
		GetLicenseLimits(ctx context.Context, planType string) (LicenseLimits, error)
		UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	}

	// GroupCounter reports a tenant's current group count; implemented by the
	// school repository.
	GroupCounter interface {
		CountGroups(ctx context.Context, tenantID string) (int, error)
	}

	// PreferenceCreator creates a checkout preference at the payment gateway.
	// One attempt; failures surface as-is.
	PreferenceCreator interface {
		CreatePreference(ctx context.Context, pref PreferenceRequest) (CheckoutPreference, error)
	}

	// PreferenceRequest is the gateway's fixed request contract.
	PreferenceRequest struct {
		Title    string  `json:"title"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		UserID   string  `json:"userId"`
		TenantID string  `json:"tenantId"`
		PlanType string  `json:"planType"`
		Email    string  `json:"email"`
	}

	ServiceInterface interface {
		LimitsFor(ctx context.Context, userID, tenantID string) (SubscriptionLimits, error)
		CanAddGroup(ctx context.Context, userID, tenantID string) (bool, error)
		CanAddStudent(ctx context.Context, userID, tenantID string, currentStudents int) (bool, error)
		Checkout(ctx context.Context, userID, tenantID, email, planType string) (CheckoutPreference, error)
	}

	service struct {
		repo   Repository
		groups GroupCounter
		prefs  PreferenceCreator
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, groups GroupCounter, prefs PreferenceCreator) *service {
	return &service{repo: repo, groups: groups, prefs: prefs}
}

// LimitsFor evaluates the user's plan against the tenant's usage. Missing
// subscription or limits rows fall back to the basic-plan defaults rather
// than failing; only the group count is load-bearing.
func (svc *service) LimitsFor(ctx context.Context, userID, tenantID string) (SubscriptionLimits, error) {
	planType := PlanBasic
	if sub, err := svc.repo.GetSubscriptionByUserID(ctx, userID); err == nil && sub.PlanType != "" {
		planType = sub.PlanType
	} else if err != nil && errors.Cause(err) != ErrNoSubscription {
		return SubscriptionLimits{}, errors.Wrap(err, "getting subscription")
	}

	limits := LicenseLimits{
		PlanType:            planType,
		MaxGroups:           DefaultMaxGroups,
		MaxStudentsPerGroup: DefaultMaxStudentsPerGroup,
		PriceAnnual:         DefaultPriceAnnual,
	}
	if row, err := svc.repo.GetLicenseLimits(ctx, planType); err == nil {
		limits = row
	} else if errors.Cause(err) != ErrNoLimits {
		return SubscriptionLimits{}, errors.Wrap(err, "getting license limits")
	}

	current, err := svc.groups.CountGroups(ctx, tenantID)
	if err != nil {
		return SubscriptionLimits{}, errors.Wrap(err, "counting groups")
	}

	return SubscriptionLimits{
		PlanType:            planType,
		MaxGroups:           limits.MaxGroups,
		MaxStudentsPerGroup: limits.MaxStudentsPerGroup,
		PriceAnnual:         limits.PriceAnnual,
		CurrentGroups:       current,
		CanAddGroup:         current < limits.MaxGroups,
	}, nil
}

// CanAddGroup and CanAddStudent evaluate the calling user's own plan, so an
// upgraded subscription takes effect on growth checks immediately.
func (svc *service) CanAddGroup(ctx context.Context, userID, tenantID string) (bool, error) {
	limits, err := svc.LimitsFor(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return limits.CanAddGroup, nil
}

func (svc *service) CanAddStudent(ctx context.Context, userID, tenantID string, currentStudents int) (bool, error) {
	limits, err := svc.LimitsFor(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return limits.CanAddStudent(currentStudents), nil
}

// Checkout creates a payment preference for an annual plan purchase.
func (svc *service) Checkout(ctx context.Context, userID, tenantID, email, planType string) (CheckoutPreference, error) {
	limits := LicenseLimits{PlanType: planType, PriceAnnual: DefaultPriceAnnual}
	if row, err := svc.repo.GetLicenseLimits(ctx, planType); err == nil {
		limits = row
	} else if errors.Cause(err) != ErrNoLimits {
		return CheckoutPreference{}, errors.Wrap(err, "getting license limits")
	}

	pref, err := svc.prefs.CreatePreference(ctx, PreferenceRequest{
		Title:    fmt.Sprintf("Licencia anual %s", planType),
		Price:    float64(limits.PriceAnnual),
		Quantity: 1,
		UserID:   userID,
		TenantID: tenantID,
		PlanType: planType,
		Email:    email,
	})
	if err != nil {
		return CheckoutPreference{}, errors.Wrap(err, "creating payment preference")
	}
	return pref, nil
}
