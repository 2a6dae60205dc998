package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace/internal/handler"
	"github.com/iliyamo/service-marketplace/internal/middleware"
	"github.com/iliyamo/service-marketplace/internal/model"
)

// RegisterSeller registers seller-scoped endpoints under /v1/seller.  All
// routes require a valid JWT and the SELLER role; ownership of individual
// contact requests and notifications is checked by the services.
func RegisterSeller(e *echo.Echo, contact *handler.ContactHandler, notif *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/seller",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSeller),
	)
	g.GET("/contact-requests", contact.List)
	g.GET("/contact-requests/:id", contact.Get)
	g.PATCH("/contact-requests/:id/status", contact.Transition)

	g.GET("/notifications", notif.List)
	g.POST("/notifications/:id/read", notif.MarkRead)
}
