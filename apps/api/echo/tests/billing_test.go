package tests

import (
	"net/http"
	"testing"

	"github.com/escolaria/escolaria/core/billing"
)

func Test_billingApi_limits(t *testing.T) {
	teacher := seedTeacher(t)
	billingRepo.reset()
	groups.count = 1
	token := getToken(t, teacher)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/billing/limits", "")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("defaults without a subscription", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/billing/limits", token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantData: marchallObj(t, billing.SubscriptionLimits{
			PlanType:            billing.PlanBasic,
			MaxGroups:           billing.DefaultMaxGroups,
			MaxStudentsPerGroup: billing.DefaultMaxStudentsPerGroup,
			PriceAnnual:         billing.DefaultPriceAnnual,
			CurrentGroups:       1,
			CanAddGroup:         true,
		})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("pro subscription with limits row", func(t *testing.T) {
		billingRepo.subs = map[string]billing.Subscription{
			teacher.ID: {UserID: teacher.ID, TenantID: testTenant, PlanType: billing.PlanPro, Status: billing.SubscriptionActive},
		}
		billingRepo.limits = map[string]billing.LicenseLimits{
			billing.PlanPro: {PlanType: billing.PlanPro, MaxGroups: 10, MaxStudentsPerGroup: 50, PriceAnnual: 799},
		}
		groups.count = 10

		req, rec := newAuthRequest(http.MethodGet, "/v1/billing/limits", token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantData: marchallObj(t, billing.SubscriptionLimits{
			PlanType:            billing.PlanPro,
			MaxGroups:           10,
			MaxStudentsPerGroup: 50,
			PriceAnnual:         799,
			CurrentGroups:       10,
			CanAddGroup:         false,
		})}
		checkCodeAndData(t, tt, rec)
	})
}

func Test_billingApi_checkout(t *testing.T) {
	teacher := seedTeacher(t)
	billingRepo.reset()
	groups.count = 0
	token := getToken(t, teacher)

	t.Run("plan type is validated", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/checkout", token, []byte(`{"plan_type": "platinum"}`))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("creates a payment preference", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/billing/checkout", token, []byte(`{"plan_type": "pro"}`))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantData: marchallObj(t, billing.CheckoutPreference{
			PreferenceID: "pref-123",
			InitPoint:    "https://pay.test/init/pref-123",
		})}
		checkCodeAndData(t, tt, rec)

		got := prefs.lastRequest
		if got.UserID != teacher.ID || got.TenantID != testTenant || got.Email != teacher.Email {
			t.Errorf("unexpected preference request: %+v", got)
		}
		if got.Title != "Licencia anual pro" || got.Quantity != 1 {
			t.Errorf("unexpected preference request: %+v", got)
		}
		if got.Price != float64(billing.DefaultPriceAnnual) {
			t.Errorf("price = %v, want %v", got.Price, billing.DefaultPriceAnnual)
		}
	})
}
