package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/planning"
	"github.com/escolaria/escolaria/core/user"
)

type planningApi struct {
	svc      planning.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerPlanningAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc planning.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := planningApi{svc: svc, usrSvc: usrSvc, validate: validate}

	pg := g.Group("/plans", jwt, teacherOrAdminMiddleware())
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.DELETE("/:id", api.destroy)
	pg.POST("/substitutes", api.generateSubstitutes)
}

func (api *planningApi) create(ctx echo.Context) error {
	var data planning.NewLessonPlan
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonPlan")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	plan, err := api.svc.Create(ctx.Request().Context(), ctxUsr.TenantID, ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating plan")
	}
	return ctx.JSON(http.StatusCreated, plan)
}

// query returns plans overlapping ?from=&to= (YYYY-MM-DD); both are required.
func (api *planningApi) query(ctx echo.Context) error {
	from, to := ctx.QueryParam("from"), ctx.QueryParam("to")
	if from == "" || to == "" {
		return core.NewValidationError(errors.New("from and to are required"))
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	plans, err := api.svc.QueryOverlapping(ctx.Request().Context(), ctxUsr.TenantID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	if plans == nil {
		plans = []planning.LessonPlan{}
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *planningApi) retrieve(ctx echo.Context) error {
	plan, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == planning.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting plan")
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *planningApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *planningApi) generateSubstitutes(ctx echo.Context) error {
	var data planning.SubstituteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubstituteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	activities, err := api.svc.GenerateSubstitutes(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating substitute activities")
	}
	if activities == nil {
		activities = []planning.GeneratedActivity{}
	}
	return ctx.JSON(http.StatusOK, activities)
}
