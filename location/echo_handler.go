package location

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	apphttp "github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/status"
)

type LocationGetter interface {
	Get() (status.Location, bool)
}

// EchoHandler shares this device's position and reports the counterpart's
// last known one.
type EchoHandler struct {
	transmitter Transmitter
	cache       LocationGetter
	clock       clockwork.Clock
}

func NewEchoHandler(transmitter Transmitter, cache LocationGetter, clock clockwork.Clock) *EchoHandler {
	return &EchoHandler{transmitter: transmitter, cache: cache, clock: clock}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.POST("/location", h.Share, middleware...)
	g.GET("/location", h.Last, middleware...)
}

type ShareRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float32 `json:"accuracy"`
	// Time is epoch millis; zero means now.
	Time int64 `json:"time"`
}

type ShareResponse struct {
	Location status.Location `json:"location"`
}

func (h *EchoHandler) Share(c echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validateShareReq(req); err != nil {
		return err
	}
	loc := status.Location{
		Lat:      req.Lat,
		Lng:      req.Lng,
		Accuracy: req.Accuracy,
		Time:     h.clock.Now().UTC(),
	}
	if req.Time > 0 {
		loc.Time = time.UnixMilli(req.Time).UTC()
	}
	if err := h.transmitter.Transmit(c.Request().Context(), loc); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, ShareResponse{Location: loc})
}

type LastResponse struct {
	Location status.Location `json:"location"`
	Text     string          `json:"text"`
}

func (h *EchoHandler) Last(c echo.Context) error {
	loc, ok := h.cache.Get()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, status.ErrNoLocation.Error())
	}
	return c.JSON(http.StatusOK, LastResponse{Location: loc, Text: loc.Text()})
}

func validateShareReq(req ShareRequest) error {
	v := apphttp.NewRequestValidator()
	v.Field("lat").When(req.Lat < -90 || req.Lat > 90).Message("Must be between -90 and 90")
	v.Field("lng").When(req.Lng < -180 || req.Lng > 180).Message("Must be between -180 and 180")
	v.Field("accuracy").When(req.Accuracy < 0).Message("Must not be negative")
	v.Field("time").When(req.Time < 0).Message("Must not be negative")
	return v.Error()
}
