package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core/tenant"
	"github.com/escolaria/escolaria/core/user"
)

type tenantApi struct {
	svc      tenant.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerTenantAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tenant.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := tenantApi{svc: svc, usrSvc: usrSvc, validate: validate}

	tg := g.Group("/tenants", jwt)
	tg.POST("", api.create)
	tg.GET("", api.queryMine)
	tg.POST("/switch", api.switchTenant)
	tg.GET("/all", api.queryAll, ownerMiddleware())
}

func (api *tenantApi) create(ctx echo.Context) error {
	var data tenant.NewTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTenant")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// independent teachers own their solo workspace; school creators direct it
	ownerRole := user.RoleAdminDirector
	if data.Type == tenant.TypeIndependent {
		ownerRole = user.RoleTeacherIndependent
	}

	t, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr.ID, ownerRole)
	if err != nil {
		return errors.Wrap(err, "creating tenant")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tenantApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	tenants, err := api.svc.QueryMine(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) queryAll(ctx echo.Context) error {
	tenants, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying all tenants")
	}
	if tenants == nil {
		tenants = []tenant.Tenant{}
	}
	return ctx.JSON(http.StatusOK, tenants)
}

func (api *tenantApi) switchTenant(ctx echo.Context) error {
	var data tenant.SwitchTenant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwitchTenant")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.Switch(ctx.Request().Context(), ctxUsr.ID, data.TenantID)
	if err != nil {
		if errors.Cause(err) == tenant.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "switching tenant")
	}
	return ctx.JSON(http.StatusOK, t)
}
