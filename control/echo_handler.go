package control

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apphttp "github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/protocol"
	"github.com/oppamcare/oppam/status"
)

type PresenceReader interface {
	Snapshot(ctx context.Context, phone string) status.Snapshot
}

// EchoHandler exposes the caregiver commands and the counterpart's presence.
type EchoHandler struct {
	commander   *Commander
	presence    PresenceReader
	counterpart string
}

func NewEchoHandler(commander *Commander, presence PresenceReader, counterpart string) *EchoHandler {
	return &EchoHandler{
		commander:   commander,
		presence:    presence,
		counterpart: counterpart,
	}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	if h.commander != nil {
		g.POST("/caregiver/reminders", h.SendReminder, middleware...)
		g.POST("/caregiver/alarms", h.SendAlarm, middleware...)
	}
	g.GET("/presence", h.Presence, middleware...)
}

type SendReminderRequest struct {
	Message string `json:"message"`
}

func (h *EchoHandler) SendReminder(c echo.Context) error {
	var req SendReminderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	v := apphttp.NewRequestValidator()
	v.Field("message").When(strings.TrimSpace(req.Message) == "").Message("Must not be blank")
	if err := v.Error(); err != nil {
		return err
	}
	if err := h.commander.SendInstant(c.Request().Context(), req.Message); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// SendAlarmRequest sets either Time (epoch millis) or At ("HH:MM", next
// occurrence).
type SendAlarmRequest struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
	Time    int64  `json:"time"`
	At      string `json:"at"`
}

type SendAlarmResponse struct {
	ID      int       `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

func (h *EchoHandler) SendAlarm(c echo.Context) error {
	var req SendAlarmRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	v := apphttp.NewRequestValidator()
	v.Field("message").When(strings.TrimSpace(req.Message) == "").Message("Must not be blank")
	v.Field("message").When(strings.Contains(req.Message, "|")).Message("Must not contain '|'")
	v.Field("id").When(req.ID < 0).Message("Must not be negative")
	v.Field("time").When(req.Time <= 0 && req.At == "").Message("Either time or at is required")
	v.Field("time").When(req.Time > 0 && req.At != "").Message("Must not be set together with at")
	hour, minute, clockErr := 0, 0, error(nil)
	if req.At != "" {
		hour, minute, clockErr = ParseClock(req.At)
	}
	v.Field("at").When(clockErr != nil).Message("Must be HH:MM")
	if err := v.Error(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		sent protocol.ScheduleAlarm
		err  error
	)
	if req.At != "" {
		sent, err = h.commander.SendDaily(ctx, req.ID, req.Message, hour, minute)
	} else {
		sent, err = h.commander.SendSchedule(ctx, req.ID, req.Message, time.UnixMilli(req.Time))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusAccepted, SendAlarmResponse{
		ID:      sent.ID,
		Time:    sent.Time,
		Message: sent.Text,
	})
}

func (h *EchoHandler) Presence(c echo.Context) error {
	return c.JSON(http.StatusOK, h.presence.Snapshot(c.Request().Context(), h.counterpart))
}
