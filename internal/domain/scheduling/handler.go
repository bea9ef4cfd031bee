package scheduling

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/slotwise/slotwise/internal/platform/auth"
	"github.com/slotwise/slotwise/internal/platform/availability"
	"github.com/slotwise/slotwise/internal/platform/fhir"
	"github.com/slotwise/slotwise/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	// Read endpoints – any authenticated scheduling role
	readGroup := api.Group("", auth.RequireRole("admin", "scheduler", "frontdesk"))
	readGroup.GET("/schedules", h.ListSchedules)
	readGroup.GET("/schedules/:id", h.GetSchedule)
	readGroup.GET("/slots", h.ListSlots)
	readGroup.GET("/slots/:id", h.GetSlot)

	// Write endpoints – admin and scheduler only
	writeGroup := api.Group("", auth.RequireRole("admin", "scheduler"))
	writeGroup.POST("/schedules", h.CreateSchedule)
	writeGroup.PUT("/schedules/:id", h.UpdateSchedule)
	writeGroup.DELETE("/schedules/:id", h.DeleteSchedule)
	writeGroup.POST("/slots", h.CreateSlot)
	writeGroup.PUT("/slots/:id", h.UpdateSlot)
	writeGroup.DELETE("/slots/:id", h.DeleteSlot)

	// FHIR endpoints
	fhirRead := fhirGroup.Group("", auth.RequireRole("admin", "scheduler", "frontdesk"))
	fhirRead.GET("/Schedule", h.SearchSchedulesFHIR)
	fhirRead.GET("/Schedule/:id", h.GetScheduleFHIR)
	fhirRead.GET("/Schedule/:id/$find", h.FindAppointmentOptionsFHIR)
	fhirRead.GET("/Slot", h.SearchSlotsFHIR)
	fhirRead.GET("/Slot/:id", h.GetSlotFHIR)

	fhirWrite := fhirGroup.Group("", auth.RequireRole("admin", "scheduler"))
	fhirWrite.POST("/Schedule", h.CreateScheduleFHIR)
	fhirWrite.POST("/Slot", h.CreateSlotFHIR)
}

// -- Schedule Handlers --

func (h *Handler) CreateSchedule(c echo.Context) error {
	var sched Schedule
	if err := c.Bind(&sched); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSchedule(c.Request().Context(), &sched); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sched)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sched, err := h.svc.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule not found")
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	pg := pagination.FromContext(c)
	if practID := c.QueryParam("practitioner_id"); practID != "" {
		pid, err := uuid.Parse(practID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid practitioner_id")
		}
		items, total, err := h.svc.ListSchedulesByPractitioner(c.Request().Context(), pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.SearchSchedules(c.Request().Context(), nil, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var sched Schedule
	if err := c.Bind(&sched); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sched.ID = id
	if err := h.svc.UpdateSchedule(c.Request().Context(), &sched); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSchedule(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Slot Handlers --

func (h *Handler) CreateSlot(c echo.Context) error {
	var sl Slot
	if err := c.Bind(&sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSlot(c.Request().Context(), &sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sl)
}

func (h *Handler) GetSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sl, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "slot not found")
	}
	return c.JSON(http.StatusOK, sl)
}

func (h *Handler) ListSlots(c echo.Context) error {
	pg := pagination.FromContext(c)
	if schedID := c.QueryParam("schedule_id"); schedID != "" {
		sid, err := uuid.Parse(schedID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid schedule_id")
		}
		items, total, err := h.svc.ListSlotsBySchedule(c.Request().Context(), sid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	items, total, err := h.svc.SearchSlots(c.Request().Context(), nil, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var sl Slot
	if err := c.Bind(&sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sl.ID = id
	if err := h.svc.UpdateSlot(c.Request().Context(), &sl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sl)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- FHIR Endpoints --

func (h *Handler) SearchSchedulesFHIR(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, k := range []string{"practitioner", "active"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}
	items, total, err := h.svc.SearchSchedules(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}
	resources := make([]interface{}, len(items))
	for i, item := range items {
		resources[i] = item.ToFHIR()
	}
	bundle := fhir.NewSearchBundle(resources, total, "/fhir/Schedule")
	bundle.Link = searchLinks(pg, "/fhir/Schedule", total)
	return c.JSON(http.StatusOK, bundle)
}

func (h *Handler) GetScheduleFHIR(c echo.Context) error {
	sched, err := h.svc.GetScheduleByFHIRID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("Schedule", c.Param("id")))
	}
	return c.JSON(http.StatusOK, sched.ToFHIR())
}

func (h *Handler) CreateScheduleFHIR(c echo.Context) error {
	var sched Schedule
	if err := c.Bind(&sched); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if err := h.svc.CreateSchedule(c.Request().Context(), &sched); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	c.Response().Header().Set("Location", "/fhir/Schedule/"+sched.FHIRID)
	return c.JSON(http.StatusCreated, sched.ToFHIR())
}

func (h *Handler) SearchSlotsFHIR(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, k := range []string{"schedule", "status", "start"} {
		if v := c.QueryParam(k); v != "" {
			params[k] = v
		}
	}
	items, total, err := h.svc.SearchSlots(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}
	resources := make([]interface{}, len(items))
	for i, item := range items {
		resources[i] = item.ToFHIR()
	}
	bundle := fhir.NewSearchBundle(resources, total, "/fhir/Slot")
	bundle.Link = searchLinks(pg, "/fhir/Slot", total)
	return c.JSON(http.StatusOK, bundle)
}

func (h *Handler) GetSlotFHIR(c echo.Context) error {
	sl, err := h.svc.GetSlotByFHIRID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("Slot", c.Param("id")))
	}
	return c.JSON(http.StatusOK, sl.ToFHIR())
}

func (h *Handler) CreateSlotFHIR(c echo.Context) error {
	var sl Slot
	if err := c.Bind(&sl); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if err := h.svc.CreateSlot(c.Request().Context(), &sl); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	c.Response().Header().Set("Location", "/fhir/Slot/"+sl.FHIRID)
	return c.JSON(http.StatusCreated, sl.ToFHIR())
}

// FindAppointmentOptionsFHIR handles GET /fhir/Schedule/:id/$find. It returns
// a searchset Bundle of proposed free Slot resources; nothing is persisted.
func (h *Handler) FindAppointmentOptionsFHIR(c echo.Context) error {
	scheduleID := c.Param("id")

	start, err := parseInstantParam(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ValidationOutcome("start", err.Error()))
	}
	end, err := parseInstantParam(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ValidationOutcome("end", err.Error()))
	}

	req := FindRequest{
		ScheduleFHIRID: scheduleID,
		Range:          availability.Interval{Start: start, End: end},
		Timezone:       c.QueryParam("timezone"),
		ServiceTypes:   parseServiceTypeParams(c.QueryParams()["service-type"]),
		MaxCount:       pagination.FromContext(c).Limit,
	}

	options, err := h.svc.FindAppointmentOptions(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}

	resources := make([]interface{}, len(options))
	for i, opt := range options {
		resources[i] = ProposedSlotFHIR(scheduleID, opt, req.ServiceTypes)
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, len(options), "/fhir/Schedule/"+scheduleID+"/$find"))
}

func parseInstantParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("parameter is required")
	}
	return time.Parse(time.RFC3339, v)
}

// searchLinks converts pagination links into Bundle links.
func searchLinks(pg pagination.Params, basePath string, total int) []fhir.BundleLink {
	links := pg.Links(basePath, total)
	out := make([]fhir.BundleLink, len(links))
	for i, l := range links {
		out[i] = fhir.BundleLink{Relation: l.Relation, URL: l.URL}
	}
	return out
}

// parseServiceTypeParams decodes repeated service-type token parameters in
// the system|code form; a bare value is treated as a code without a system.
func parseServiceTypeParams(values []string) []fhir.Coding {
	var codings []fhir.Coding
	for _, v := range values {
		if v == "" {
			continue
		}
		if system, code, ok := strings.Cut(v, "|"); ok {
			codings = append(codings, fhir.Coding{System: system, Code: code})
		} else {
			codings = append(codings, fhir.Coding{Code: v})
		}
	}
	return codings
}
