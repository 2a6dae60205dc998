package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace/internal/handler"
	"github.com/iliyamo/service-marketplace/internal/middleware"
	"github.com/iliyamo/service-marketplace/internal/model"
)

// RegisterAdmin registers the moderation endpoints.  All routes require a
// valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Services ----
	g.POST("/services/:id/approve", a.ApproveService)
	g.POST("/services/:id/delete", a.DeleteService)

	// ---- Sellers ----
	g.POST("/sellers/:id/suspend", a.SuspendSeller)
	g.POST("/sellers/:id/reinstate", a.ReinstateSeller)
	g.DELETE("/sellers/:id", a.DeleteSeller)

	// ---- Audit ----
	g.GET("/moderation-actions", a.History)
}
