package main

import (
	"context"

	"github.com/escolaria/escolaria/core/billing"
)

// grantLicense activates a subscription for the user, bypassing the payment
// gateway. Useful for manual sales and support.
func (cli *commandLine) grantLicense(uname, tenantID, planType string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if tenantID == "" {
		tenantID = usr.TenantID
	}

	_, err = cli.billingRepo.UpsertSubscription(ctx, billing.Subscription{
		UserID:   usr.ID,
		TenantID: tenantID,
		PlanType: planType,
		Status:   billing.SubscriptionActive,
	})
	return err
}
