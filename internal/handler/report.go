package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/service"
)

// ReportAPI files content reports.
type ReportAPI interface {
	Create(ctx context.Context, serviceID uint64, in service.ReportInput) (model.ContentReport, error)
}

type ReportHandler struct {
	Reports ReportAPI
	Log     *zap.Logger
}

func NewReportHandler(reports ReportAPI, log *zap.Logger) *ReportHandler {
	if reports == nil {
		panic("nil report service passed to NewReportHandler")
	}
	return &ReportHandler{Reports: reports, Log: orNopLogger(log)}
}

// Create handles POST /v1/services/:id/reports.
func (h *ReportHandler) Create(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	var in service.ReportInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	rep, err := h.Reports.Create(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, rep)
}
