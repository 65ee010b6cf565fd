package alarm

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// EchoHandler is a REST based handler for managing local alarms.
type EchoHandler struct {
	svc *Service
}

func NewEchoHandler(service *Service) *EchoHandler {
	return &EchoHandler{
		svc: service,
	}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.POST("/alarms", h.CreateAlarm, middleware...)
	g.GET("/alarms", h.ListAlarms, middleware...)
	g.GET("/alarms/upcoming", h.ListUpcoming, middleware...)
	g.GET("/alarms/export", h.Export, middleware...)
	g.GET("/alarms/:id", h.GetAlarm, middleware...)
	g.DELETE("/alarms/:id", h.DeleteAlarm, middleware...)
	g.POST("/debug/alarms", h.DebugAlarm, middleware...)
}

type CreateAlarmRequest struct {
	ID              int       `json:"id"`
	Message         string    `json:"message"`
	Time            time.Time `json:"time"`
	RepeatDaily     bool      `json:"repeat_daily"`
	IntervalSeconds int       `json:"interval_seconds"`
	MaxMisses       int       `json:"max_misses"`
}

func (h *EchoHandler) CreateAlarm(c echo.Context) error {
	var req CreateAlarmRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, err := h.svc.CreateAlarm(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

type ListAlarmsRequest struct {
	Status string `query:"status" json:"-"`
}

type ListAlarmsResponse struct {
	Alarms []Record `json:"alarms"`
}

func (h *EchoHandler) ListAlarms(c echo.Context) error {
	var req ListAlarmsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	res, err := h.svc.ListAlarms(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EchoHandler) ListUpcoming(c echo.Context) error {
	res, err := h.svc.ListUpcoming(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EchoHandler) Export(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.Export(c.Request().Context(), c.Response())
}

type AlarmIDRequest struct {
	ID int `param:"id" json:"-"`
}

func (h *EchoHandler) GetAlarm(c echo.Context) error {
	var req AlarmIDRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, err := h.svc.GetAlarm(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *EchoHandler) DeleteAlarm(c echo.Context) error {
	var req AlarmIDRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.svc.DeleteAlarm(c.Request().Context(), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DebugAlarmRequest schedules a test alarm DelaySeconds from now, 60 when
// unset. A zero id is replaced by a generated one.
type DebugAlarmRequest struct {
	ID           int    `json:"id"`
	Message      string `json:"message"`
	DelaySeconds *int   `json:"delay_seconds"`
}

func (h *EchoHandler) DebugAlarm(c echo.Context) error {
	var req DebugAlarmRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	rec, err := h.svc.DebugAlarm(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}
