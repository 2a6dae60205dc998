package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NotificationHandler lets sellers read their moderation notifications.
type NotificationHandler struct {
	Moderation ModerationAPI
	Log        *zap.Logger
}

func NewNotificationHandler(m ModerationAPI, log *zap.Logger) *NotificationHandler {
	if m == nil {
		panic("nil moderation service passed to NewNotificationHandler")
	}
	return &NotificationHandler{Moderation: m, Log: orNopLogger(log)}
}

// List handles GET /v1/seller/notifications.  ?unread=true limits the
// result to unread notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	unread := false
	if v := c.QueryParam("unread"); v != "" {
		if unread, err = strconv.ParseBool(v); err != nil {
			return badRequest(c, "unread must be a boolean")
		}
	}
	page, err := pageFrom(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	items, total, err := h.Moderation.ListNotifications(c.Request().Context(), sellerID, unread, page)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      page.Number,
		"page_size": page.Size,
	})
}

// MarkRead handles POST /v1/seller/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.Moderation.MarkNotificationRead(c.Request().Context(), sellerID, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
