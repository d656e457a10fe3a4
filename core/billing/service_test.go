package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	subUserID string // owner of sub; other user ids get ErrNoSubscription
	sub       Subscription
	subErr    error
	limits    LicenseLimits
	limitsErr error
}

func (r *stubRepo) GetSubscriptionByUserID(ctx context.Context, userID string) (Subscription, error) {
	if r.subErr != nil {
		return Subscription{}, r.subErr
	}
	if userID != r.subUserID {
		return Subscription{}, ErrNoSubscription
	}
	return r.sub, nil
}
func (r *stubRepo) GetLicenseLimits(ctx context.Context, planType string) (LicenseLimits, error) {
	return r.limits, r.limitsErr
}
func (r *stubRepo) UpsertSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	return sub, nil
}

type stubCounter struct{ n int }

func (c stubCounter) CountGroups(ctx context.Context, tenantID string) (int, error) {
	return c.n, nil
}

type stubPrefs struct{ got PreferenceRequest }

func (p *stubPrefs) CreatePreference(ctx context.Context, pref PreferenceRequest) (CheckoutPreference, error) {
	p.got = pref
	return CheckoutPreference{PreferenceID: "pref-123", InitPoint: "https://pay.example.com/pref-123"}, nil
}

func TestLimitsFor(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		repo          *stubRepo
		currentGroups int
		wantPlan      string
		wantMaxGroups int
		wantCanAdd    bool
	}{
		{
			name:          "no subscription falls back to basic defaults",
			repo:          &stubRepo{subErr: ErrNoSubscription, limitsErr: ErrNoLimits},
			currentGroups: 0,
			wantPlan:      PlanBasic,
			wantMaxGroups: DefaultMaxGroups,
			wantCanAdd:    true,
		},
		{
			name:          "at the ceiling",
			repo:          &stubRepo{subErr: ErrNoSubscription, limitsErr: ErrNoLimits},
			currentGroups: DefaultMaxGroups,
			wantPlan:      PlanBasic,
			wantMaxGroups: DefaultMaxGroups,
			wantCanAdd:    false,
		},
		{
			name:          "over the ceiling stays blocked",
			repo:          &stubRepo{subErr: ErrNoSubscription, limitsErr: ErrNoLimits},
			currentGroups: DefaultMaxGroups + 1,
			wantPlan:      PlanBasic,
			wantMaxGroups: DefaultMaxGroups,
			wantCanAdd:    false,
		},
		{
			name: "pro plan uses its own row",
			repo: &stubRepo{
				subUserID: "user-1",
				sub:       Subscription{PlanType: PlanPro, Status: "active"},
				limits:    LicenseLimits{PlanType: PlanPro, MaxGroups: 10, MaxStudentsPerGroup: 50, PriceAnnual: 799},
			},
			currentGroups: 5,
			wantPlan:      PlanPro,
			wantMaxGroups: 10,
			wantCanAdd:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo, stubCounter{n: tt.currentGroups}, nil)
			limits, err := svc.LimitsFor(ctx, "user-1", "tenant-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPlan, limits.PlanType)
			assert.Equal(t, tt.wantMaxGroups, limits.MaxGroups)
			assert.Equal(t, tt.currentGroups, limits.CurrentGroups)
			assert.Equal(t, tt.wantCanAdd, limits.CanAddGroup)
		})
	}
}

func TestCanAddStudent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&stubRepo{subErr: ErrNoSubscription, limitsErr: ErrNoLimits}, stubCounter{}, nil)

	ok, err := svc.CanAddStudent(ctx, "user-1", "tenant-1", DefaultMaxStudentsPerGroup-1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAddStudent(ctx, "user-1", "tenant-1", DefaultMaxStudentsPerGroup)
	require.NoError(t, err)
	assert.False(t, ok)
}

// The growth checks evaluate the calling user's subscription, not the basic
// defaults. A pro upgrade must unlock groups past the default ceiling.
func TestGrowthChecksUseCallerSubscription(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepo{
		subUserID: "user-pro",
		sub:       Subscription{PlanType: PlanPro, Status: "active"},
		limits:    LicenseLimits{PlanType: PlanPro, MaxGroups: 10, MaxStudentsPerGroup: 100, PriceAnnual: 799},
	}
	svc := NewService(repo, stubCounter{n: DefaultMaxGroups}, nil)

	ok, err := svc.CanAddGroup(ctx, "user-pro", "tenant-1")
	require.NoError(t, err)
	assert.True(t, ok, "pro subscriber should be able to add a group past the basic ceiling")

	ok, err = svc.CanAddStudent(ctx, "user-pro", "tenant-1", DefaultMaxStudentsPerGroup)
	require.NoError(t, err)
	assert.True(t, ok, "pro subscriber should be able to enroll past the basic ceiling")
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	prefs := &stubPrefs{}
	repo := &stubRepo{limits: LicenseLimits{PlanType: PlanBasic, PriceAnnual: 399}}
	svc := NewService(repo, stubCounter{}, prefs)

	pref, err := svc.Checkout(ctx, "user-1", "tenant-1", "owner@school.mx", PlanBasic)
	require.NoError(t, err)
	assert.Equal(t, "pref-123", pref.PreferenceID)
	assert.Equal(t, "https://pay.example.com/pref-123", pref.InitPoint)

	assert.Equal(t, "Licencia anual basic", prefs.got.Title)
	assert.Equal(t, float64(399), prefs.got.Price)
	assert.Equal(t, 1, prefs.got.Quantity)
	assert.Equal(t, "user-1", prefs.got.UserID)
	assert.Equal(t, "tenant-1", prefs.got.TenantID)
	assert.Equal(t, "owner@school.mx", prefs.got.Email)
}
