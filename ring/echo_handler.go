package ring

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apphttp "github.com/oppamcare/oppam/http"
)

// EchoHandler exposes live activations and accepts the yes or no answer.
type EchoHandler struct {
	manager *Manager
}

func NewEchoHandler(manager *Manager) *EchoHandler {
	return &EchoHandler{
		manager: manager,
	}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.GET("/activations", h.ListActivations, middleware...)
	g.POST("/activations/:activation_id/respond", h.Respond, middleware...)
}

type ListActivationsResponse struct {
	Activations []Activation `json:"activations"`
}

func (h *EchoHandler) ListActivations(c echo.Context) error {
	return c.JSON(http.StatusOK, ListActivationsResponse{Activations: h.manager.Active()})
}

type RespondRequest struct {
	ActivationID string `param:"activation_id" json:"-"`
	Answer       string `json:"answer"`
}

func (h *EchoHandler) Respond(c echo.Context) error {
	var req RespondRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	answer := strings.ToLower(strings.TrimSpace(req.Answer))
	id, idErr := uuid.Parse(req.ActivationID)
	v := apphttp.NewRequestValidator()
	v.Field("activation_id").When(idErr != nil).Message("Must be a valid UUID")
	v.Field("answer").When(answer != "yes" && answer != "no").Message("Must be yes or no")
	if err := v.Error(); err != nil {
		return err
	}

	ok, err := h.manager.Respond(c.Request().Context(), id, Answer(answer == "yes"))
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "activation is no longer waiting for an answer")
	}
	return c.NoContent(http.StatusNoContent)
}
