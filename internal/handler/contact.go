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

// ContactAPI is the part of the contact service the HTTP layer needs.
type ContactAPI interface {
	Create(ctx context.Context, serviceID uint64, info model.ClientInfo) (model.ContactRequest, error)
	Transition(ctx context.Context, contactID, sellerID uint64, target model.Status) (service.Transitioned, error)
	List(ctx context.Context, f repository.ContactRequestFilter) (service.ContactList, error)
	Get(ctx context.Context, contactID, sellerID uint64) (model.ContactRequest, error)
}

// ContactHandler exposes the public contact form and the seller inbox.
type ContactHandler struct {
	Contacts ContactAPI
	Log      *zap.Logger
}

func NewContactHandler(contacts ContactAPI, log *zap.Logger) *ContactHandler {
	if contacts == nil {
		panic("nil contact service passed to NewContactHandler")
	}
	return &ContactHandler{Contacts: contacts, Log: orNopLogger(log)}
}

// Create handles POST /v1/services/:id/contact.
func (h *ContactHandler) Create(c echo.Context) error {
	serviceID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid service id")
	}
	var info model.ClientInfo
	if err := c.Bind(&info); err != nil {
		return badRequest(c, "invalid request body")
	}
	created, err := h.Contacts.Create(c.Request().Context(), serviceID, info)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// List handles GET /v1/seller/contact-requests.  Supported query
// parameters: status (comma separated or repeated), created_from,
// created_to, q, sort_by, sort_order, page, page_size.
func (h *ContactHandler) List(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f := repository.ContactRequestFilter{
		SellerID:  sellerID,
		Search:    strings.TrimSpace(c.QueryParam("q")),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	for _, raw := range c.QueryParams()["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, model.Status(strings.ToUpper(s)))
			}
		}
	}
	if f.CreatedFrom, err = queryTime(c, "created_from"); err != nil {
		return writeError(c, h.Log, err)
	}
	if f.CreatedTo, err = queryTime(c, "created_to"); err != nil {
		return writeError(c, h.Log, err)
	}
	if f.Page, err = pageFrom(c); err != nil {
		return writeError(c, h.Log, err)
	}

	list, err := h.Contacts.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/seller/contact-requests/:id.
func (h *ContactHandler) Get(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid contact request id")
	}
	cr, err := h.Contacts.Get(c.Request().Context(), id, sellerID)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cr)
}

type transitionRequest struct {
	Status string `json:"status"`
}

// Transition handles PATCH /v1/seller/contact-requests/:id/status.  The
// rating token issued on completion goes to the client through the
// notification pipeline and is never part of this response.
func (h *ContactHandler) Transition(c echo.Context) error {
	sellerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid contact request id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	target := model.Status(strings.ToUpper(strings.TrimSpace(req.Status)))

	out, err := h.Contacts.Transition(c.Request().Context(), id, sellerID, target)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"contact_request":     out.Request,
		"from":                out.Plan.From,
		"to":                  out.Plan.To,
		"rating_token_issued": out.IssuedToken != "",
	})
}
