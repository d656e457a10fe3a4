package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core/billing"
	"github.com/escolaria/escolaria/core/user"
)

type billingApi struct {
	svc      billing.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerBillingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc billing.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := billingApi{svc: svc, usrSvc: usrSvc, validate: validate}

	bg := g.Group("/billing", jwt)
	bg.GET("/limits", api.limits)
	bg.POST("/checkout", api.checkout)
}

func (api *billingApi) limits(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	limits, err := api.svc.LimitsFor(ctx.Request().Context(), ctxUsr.ID, ctxUsr.TenantID)
	if err != nil {
		return errors.Wrap(err, "evaluating limits")
	}
	return ctx.JSON(http.StatusOK, limits)
}

func (api *billingApi) checkout(ctx echo.Context) error {
	var data billing.CheckoutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckoutRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pref, err := api.svc.Checkout(ctx.Request().Context(), ctxUsr.ID, ctxUsr.TenantID, ctxUsr.Email, data.PlanType)
	if err != nil {
		return errors.Wrap(err, "creating checkout preference")
	}
	return ctx.JSON(http.StatusOK, pref)
}
