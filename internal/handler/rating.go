package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/repository"
	"github.com/iliyamo/service-marketplace/internal/service"
)

// RatingAPI is the part of the rating service the HTTP layer needs.
type RatingAPI interface {
	InspectToken(ctx context.Context, token string) (service.TokenInfo, error)
	CreateFromToken(ctx context.Context, in service.RatingInput) (model.Rating, error)
	ByService(ctx context.Context, serviceID uint64, page repository.Page) (service.RatingList, error)
	BySeller(ctx context.Context, sellerID uint64, page repository.Page) (service.RatingList, error)
	SellerStats(ctx context.Context, sellerID uint64) (model.SellerStats, error)
}

// RatingHandler serves the public rating endpoints.
type RatingHandler struct {
	Ratings RatingAPI
	Log     *zap.Logger
}

func NewRatingHandler(ratings RatingAPI, log *zap.Logger) *RatingHandler {
	if ratings == nil {
		panic("nil rating service passed to NewRatingHandler")
	}
	return &RatingHandler{Ratings: ratings, Log: orNopLogger(log)}
}

type inspectRequest struct {
	Token string `json:"token"`
}

// Inspect handles POST /v1/ratings/inspect so the rating form can show
// what is being rated before the client submits.  The token travels in the
// body to keep it out of URLs and access logs.
func (h *RatingHandler) Inspect(c echo.Context) error {
	var req inspectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Token) == "" {
		return badRequest(c, "missing token")
	}
	info, err := h.Ratings.InspectToken(c.Request().Context(), req.Token)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, info)
}

// Create handles POST /v1/ratings.
func (h *RatingHandler) Create(c echo.Context) error {
	var in service.RatingInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	r, err := h.Ratings.CreateFromToken(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ByService handles GET /v1/services/:id/ratings.
func (h *RatingHandler) ByService(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	page, err := pageFrom(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	list, err := h.Ratings.ByService(c.Request().Context(), id, page)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// BySeller handles GET /v1/sellers/:id/ratings.
func (h *RatingHandler) BySeller(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid seller id")
	}
	page, err := pageFrom(c)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	list, err := h.Ratings.BySeller(c.Request().Context(), id, page)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// SellerStats handles GET /v1/sellers/:id/stats.
func (h *RatingHandler) SellerStats(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid seller id")
	}
	st, err := h.Ratings.SellerStats(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
