package echoapi

import (
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolaria/escolaria/core"
	"github.com/escolaria/escolaria/core/agenda"
	"github.com/escolaria/escolaria/core/user"
)

type agendaApi struct {
	svc      agenda.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerAgendaAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc agenda.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := agendaApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/agenda", jwt)
	ag.GET("", api.monthEvents)
	ag.GET("/day", api.dailyEvents)
	ag.POST("/import", api.importICS, adminMiddleware())
	ag.POST("/events", api.createSchoolEvent, adminMiddleware())
	ag.POST("/personal", api.createPersonalEvent, teacherOrAdminMiddleware())
	ag.DELETE("/:type/:id", api.destroyEvent)
}

// bindMonth reads ?year=&month=, defaulting to the current month.
func bindMonth(ctx echo.Context) (int, time.Month, error) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if y := ctx.QueryParam("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return 0, 0, core.NewValidationError(errors.New("invalid year"))
		}
		year = n
	}
	if m := ctx.QueryParam("month"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, core.NewValidationError(errors.New("invalid month"))
		}
		month = time.Month(n)
	}
	return year, month, nil
}

func (api *agendaApi) monthEvents(ctx echo.Context) error {
	year, month, err := bindMonth(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	events, err := api.svc.MonthEvents(ctx.Request().Context(), ctxUsr.TenantID, ctxUsr.ID, year, month)
	if err != nil {
		return errors.Wrap(err, "querying month events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *agendaApi) dailyEvents(ctx echo.Context) error {
	date := ctx.QueryParam("date")
	if date == "" {
		return core.NewValidationError(errors.New("date is required"))
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.NewValidationError(errors.New("invalid date"))
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	events, err := api.svc.MonthEvents(ctx.Request().Context(), ctxUsr.TenantID, ctxUsr.ID, day.Year(), day.Month())
	if err != nil {
		return errors.Wrap(err, "querying month events")
	}
	return ctx.JSON(http.StatusOK, agenda.DailyEvents(events, date))
}

func (api *agendaApi) importICS(ctx echo.Context) error {
	direction, _ := strconv.ParseBool(ctx.QueryParam("direction"))

	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading import payload")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	count, err := api.svc.ImportICS(ctx.Request().Context(), ctxUsr.TenantID, string(body), direction)
	if err != nil {
		return errors.Wrap(err, "importing calendar")
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: count})
}

func (api *agendaApi) createSchoolEvent(ctx echo.Context) error {
	var data agenda.NewSchoolEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchoolEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	entry, err := api.svc.CreateSchoolEvent(ctx.Request().Context(), ctxUsr.TenantID, data)
	if err != nil {
		return errors.Wrap(err, "creating school event")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *agendaApi) createPersonalEvent(ctx echo.Context) error {
	var data agenda.NewPersonalEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPersonalEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ev, err := api.svc.CreatePersonalEvent(ctx.Request().Context(), ctxUsr.TenantID, ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating personal event")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

// destroyEvent deletes an agenda source record. Institutional entries are
// reserved for admins and independent teachers and are scoped to the caller's
// tenant; personal events are scoped to the calling teacher, so deleting
// someone else's event comes back as not found.
func (api *agendaApi) destroyEvent(ctx echo.Context) error {
	eventType := agenda.EventType(ctx.Param("type"))

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	switch eventType {
	case agenda.TypeSEP, agenda.TypeDirection:
		if !ctxUsr.IsAdmin() && !ctxUsr.RoleStartsWith(user.RoleTeacherIndependent) {
			return errHttpForbidden
		}
	case agenda.TypePersonal:
		if !ctxUsr.IsTeacher() && !ctxUsr.IsAdmin() {
			return errHttpForbidden
		}
	}

	if err := api.svc.DeleteEvent(ctx.Request().Context(), ctxUsr.TenantID, ctxUsr.ID, eventType, ctx.Param("id")); err != nil {
		if errors.Cause(err) == agenda.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type ImportResponse struct {
	Imported int `json:"imported"`
}
