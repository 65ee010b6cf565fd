package schedule

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// EchoHandler lists the armed timers.
type EchoHandler struct {
	scheduler *Scheduler
}

func NewEchoHandler(scheduler *Scheduler) *EchoHandler {
	return &EchoHandler{
		scheduler: scheduler,
	}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.GET("/schedule", h.ListPending, middleware...)
}

type ListPendingResponse struct {
	Pending []Registration `json:"pending"`
}

func (h *EchoHandler) ListPending(c echo.Context) error {
	return c.JSON(http.StatusOK, ListPendingResponse{Pending: h.scheduler.Pending()})
}
