package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apphttp "github.com/oppamcare/oppam/http"
	"github.com/oppamcare/oppam/sms"
)

type Receiver interface {
	Receive(ctx context.Context, msg sms.Message) sms.Verdict
	ReceiveBatch(ctx context.Context, segs []sms.Segment) sms.Verdict
	ReceiveSegment(ctx context.Context, seg sms.Segment) sms.Verdict
}

// EchoHandler is the webhook the gateway calls for every inbound text.
type EchoHandler struct {
	receiver Receiver
}

func NewEchoHandler(receiver Receiver) *EchoHandler {
	return &EchoHandler{receiver: receiver}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.POST("/sms/inbound", h.Inbound, middleware...)
}

// InboundRequest carries one text. A gateway that already joined multipart
// texts sends Body; one that forwards all parts at once sends Parts; one that
// forwards each part separately sends Body with Ref, Part and Total.
type InboundRequest struct {
	From  string   `json:"from"`
	Body  string   `json:"body"`
	Parts []string `json:"parts"`
	Ref   string   `json:"ref"`
	Part  int      `json:"part"`
	Total int      `json:"total"`
}

type InboundResponse struct {
	Verdict sms.Verdict `json:"verdict"`
}

func (h *EchoHandler) Inbound(c echo.Context) error {
	var req InboundRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validateInboundReq(req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var verdict sms.Verdict
	switch {
	case len(req.Parts) > 0:
		segs := make([]sms.Segment, len(req.Parts))
		for i, p := range req.Parts {
			segs[i] = sms.Segment{From: req.From, Part: i + 1, Total: len(req.Parts), Body: p}
		}
		verdict = h.receiver.ReceiveBatch(ctx, segs)
	case req.Total > 1:
		verdict = h.receiver.ReceiveSegment(ctx, sms.Segment{
			From:  req.From,
			Ref:   req.Ref,
			Part:  req.Part,
			Total: req.Total,
			Body:  req.Body,
		})
	default:
		verdict = h.receiver.Receive(ctx, sms.Message{From: req.From, Body: req.Body})
	}

	status := http.StatusOK
	switch verdict {
	case sms.VerdictPending:
		status = http.StatusAccepted
	case sms.VerdictRejected:
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, InboundResponse{Verdict: verdict})
}

func validateInboundReq(req InboundRequest) error {
	v := apphttp.NewRequestValidator()
	v.Field("from").When(strings.TrimSpace(req.From) == "").Message("Must not be blank")
	if req.Total > 1 {
		v.Field("ref").When(req.Ref == "").Message("Must not be blank for a multipart segment")
		v.Field("part").When(req.Part < 1 || req.Part > req.Total).Messagef("Must be between 1 and %d", req.Total)
		v.Field("parts").When(len(req.Parts) > 0).Message("Must be empty for a multipart segment")
	}
	return v.Error()
}

// maxPeekBody bounds how much of an inbound body the rate limiter reads to
// find the sender.
const maxPeekBody = 64 << 10

// EchoRequestSenderGetter keys inbound rate limiting on the sender phone in
// the request body. The body is restored for the handler. It reports false
// when no sender can be read.
func EchoRequestSenderGetter(c echo.Context) (string, bool) {
	req := c.Request()
	if req.Body == nil {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxPeekBody))
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), req.Body))
	if err != nil {
		return "", false
	}
	var peek struct {
		From string `json:"from"`
	}
	if err = json.Unmarshal(body, &peek); err != nil {
		return "", false
	}
	from := strings.TrimSpace(peek.From)
	return from, from != ""
}
