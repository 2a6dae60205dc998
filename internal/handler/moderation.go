package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/service"
)

// ModerationAPI is the part of the moderation engine the HTTP layer needs.
type ModerationAPI interface {
	Apply(ctx context.Context, action model.ModerationActionType, in service.ModerationInput) (service.ModerationResult, error)
	History(ctx context.Context, f repository.ModerationHistoryFilter) ([]model.ModerationAction, int64, error)
	ListNotifications(ctx context.Context, sellerID uint64, unreadOnly bool, page repository.Page) ([]model.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, sellerID, notificationID uint64) error
}

// AdminHandler exposes the moderation actions to administrators.
type AdminHandler struct {
	Moderation ModerationAPI
	Log        *zap.Logger
}

func NewAdminHandler(m ModerationAPI, log *zap.Logger) *AdminHandler {
	if m == nil {
		panic("nil moderation service passed to NewAdminHandler")
	}
	return &AdminHandler{Moderation: m, Log: orNopLogger(log)}
}

type moderationRequest struct {
	Justification string  `json:"justification"`
	InternalNotes *string `json:"internal_notes"`
}

// action returns an echo handler applying one moderation action to the
// service or seller named by :id.
func (h *AdminHandler) action(a model.ModerationActionType) echo.HandlerFunc {
	return func(c echo.Context) error {
		adminID, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		target, ok := pathID(c, "id")
		if !ok {
			return badRequest(c, "invalid target id")
		}
		var req moderationRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		res, err := h.Moderation.Apply(c.Request().Context(), a, service.ModerationInput{
			AdminID:       adminID,
			TargetID:      target,
			Justification: req.Justification,
			Notes:         req.InternalNotes,
		})
		if err != nil {
			return writeError(c, h.Log, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

// ApproveService handles POST /v1/admin/services/:id/approve.
func (h *AdminHandler) ApproveService(c echo.Context) error {
	return h.action(model.ActionApproveService)(c)
}

// DeleteService handles POST /v1/admin/services/:id/delete.
func (h *AdminHandler) DeleteService(c echo.Context) error {
	return h.action(model.ActionDeleteService)(c)
}

// SuspendSeller handles POST /v1/admin/sellers/:id/suspend.
func (h *AdminHandler) SuspendSeller(c echo.Context) error {
	return h.action(model.ActionSuspendSeller)(c)
}

// ReinstateSeller handles POST /v1/admin/sellers/:id/reinstate.
func (h *AdminHandler) ReinstateSeller(c echo.Context) error {
	return h.action(model.ActionReinstateSeller)(c)
}

// DeleteSeller handles DELETE /v1/admin/sellers/:id.
func (h *AdminHandler) DeleteSeller(c echo.Context) error {
	return h.action(model.ActionDeleteSeller)(c)
}

// History handles GET /v1/admin/moderation-actions with optional
// seller_id, service_id, action, page and page_size filters.
func (h *AdminHandler) History(c echo.Context) error {
	var (
		f   repository.ModerationHistoryFilter
		err error
	)
	if f.SellerID, err = queryUint(c, "seller_id"); err != nil {
		return writeError(c, h.Log, err)
	}
	if f.ServiceID, err = queryUint(c, "service_id"); err != nil {
		return writeError(c, h.Log, err)
	}
	f.Action = model.ModerationActionType(c.QueryParam("action"))
	if f.Page, err = pageFrom(c); err != nil {
		return writeError(c, h.Log, err)
	}
	items, total, err := h.Moderation.History(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      f.Page.Number,
		"page_size": f.Page.Size,
	})
}
