package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/calendar"
)

var (
	startDateParam    = "startDate"
	endDateParam      = "endDate"
	deleteTypeParam   = "deleteType"
	instanceDateParam = "instanceDate"
)

type calendarApi struct {
	svc      calendar.Service
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc calendar.Service, validate *validator.Validate) {
	api := calendarApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/calendar", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staffMiddleware())

	dg := cg.Group("/:id", staffMiddleware())
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *calendarApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	from, to, err := bindWindow(ctx)
	if err != nil {
		return err
	}

	occurrences, err := api.svc.Query(ctx.Request().Context(), claims.OrgID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if occurrences == nil {
		occurrences = []calendar.Occurrence{}
	}
	return ctx.JSON(http.StatusOK, EventsResponse{Events: occurrences})
}

func (api *calendarApi) create(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	evt, err := api.svc.Create(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *calendarApi) update(ctx echo.Context) error {
	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	evt, err := api.svc.Update(ctx.Request().Context(), claims.OrgID, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == calendar.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) destroy(ctx echo.Context) error {
	scope, err := calendar.ParseScope(ctx.QueryParam(deleteTypeParam))
	if err != nil {
		return err
	}

	var instanceDate time.Time
	if raw := ctx.QueryParam(instanceDateParam); raw != "" {
		instanceDate, err = parseDateParam(raw, instanceDateParam)
		if err != nil {
			return err
		}
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.OrgID, ctx.Param("id"), scope, instanceDate); err != nil {
		if errors.Cause(err) == calendar.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting event")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Event has been deleted."})
}

// bindWindow parses the query window; it defaults to the current month.
func bindWindow(ctx echo.Context) (from, to time.Time, err error) {
	now := time.Now().UTC()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0)

	if raw := ctx.QueryParam(startDateParam); raw != "" {
		if from, err = parseDateParam(raw, startDateParam); err != nil {
			return
		}
	}
	if raw := ctx.QueryParam(endDateParam); raw != "" {
		if to, err = parseDateParam(raw, endDateParam); err != nil {
			return
		}
	}
	if !to.After(from) {
		err = core.NewValidationError(nil, core.FieldError{Field: endDateParam, Error: "must be after " + startDateParam})
	}
	return
}

// parseDateParam accepts RFC 3339 timestamps and plain dates.
func parseDateParam(raw, param string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: param, Error: "invalid date"})
}

type EventsResponse struct {
	Events []calendar.Occurrence `json:"events"`
}
