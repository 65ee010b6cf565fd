package sms

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const defaultInboxLimit, maxInboxLimit = 50, 500

// EchoHandler exposes the visible inbox.
type EchoHandler struct {
	inbox Inbox
}

func NewEchoHandler(inbox Inbox) *EchoHandler {
	return &EchoHandler{inbox: inbox}
}

func (h *EchoHandler) Register(g *echo.Group, middleware ...echo.MiddlewareFunc) {
	g.GET("/inbox", h.ListInbox, middleware...)
}

type ListInboxRequest struct {
	Limit int `query:"limit"`
}

type ListInboxResponse struct {
	Messages []Message `json:"messages"`
}

func (h *EchoHandler) ListInbox(c echo.Context) error {
	var req ListInboxRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Limit <= 0 {
		req.Limit = defaultInboxLimit
	} else if req.Limit > maxInboxLimit {
		req.Limit = maxInboxLimit
	}
	msgs, err := h.inbox.List(c.Request().Context(), req.Limit)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return c.JSON(http.StatusOK, ListInboxResponse{Messages: msgs})
}
