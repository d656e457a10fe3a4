package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/assignment"
	"github.com/escolaria/escolaria/core/user"
)

type assignmentApi struct {
	svc      assignment.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc assignment.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := assignmentApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/assignments", jwt, teacherOrAdminMiddleware())
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.DELETE("/:id", api.destroy)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Create(ctx.Request().Context(), ctxUsr.TenantID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// query returns assignments due within ?from=&to= (RFC3339); defaults to the
// current month.
func (api *assignmentApi) query(ctx echo.Context) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	if f := ctx.QueryParam("from"); f != "" {
		t, err := time.Parse(time.RFC3339, f)
		if err != nil {
			return core.NewValidationError(errors.New("invalid from date"))
		}
		from = t
	}
	if tp := ctx.QueryParam("to"); tp != "" {
		t, err := time.Parse(time.RFC3339, tp)
		if err != nil {
			return core.NewValidationError(errors.New("invalid to date"))
		}
		to = t
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	assignments, err := api.svc.QueryByDueRange(ctx.Request().Context(), ctxUsr.TenantID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
