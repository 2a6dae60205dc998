package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace/internal/handler"
	"github.com/iliyamo/service-marketplace/internal/model"
	"github.com/iliyamo/service-marketplace/internal/utils"
)

const secret = "router-secret"

// The embedded interfaces are nil; these tests only reach the middleware.
type contacts struct{ handler.ContactAPI }
type ratings struct{ handler.RatingAPI }
type moderation struct{ handler.ModerationAPI }
type reports struct{ handler.ReportAPI }

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newServer() *echo.Echo {
	e := echo.New()
	ch := handler.NewContactHandler(contacts{}, nil)
	rh := handler.NewRatingHandler(ratings{}, nil)
	RegisterRoutes(e, okPinger{})
	RegisterPublic(e, ch, rh, handler.NewReportHandler(reports{}, nil), PublicMiddleware{})
	RegisterSeller(e, ch, handler.NewNotificationHandler(moderation{}, nil), secret)
	RegisterAdmin(e, handler.NewAdminHandler(moderation{}, nil), secret)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
		"POST /v1/services/:id/contact",
		"POST /v1/services/:id/reports",
		"POST /v1/ratings/inspect",
		"POST /v1/ratings",
		"GET /v1/services/:id/ratings",
		"GET /v1/sellers/:id/ratings",
		"GET /v1/sellers/:id/stats",
		"GET /v1/seller/contact-requests",
		"GET /v1/seller/contact-requests/:id",
		"PATCH /v1/seller/contact-requests/:id/status",
		"GET /v1/seller/notifications",
		"POST /v1/seller/notifications/:id/read",
		"POST /v1/admin/services/:id/approve",
		"POST /v1/admin/services/:id/delete",
		"POST /v1/admin/sellers/:id/suspend",
		"POST /v1/admin/sellers/:id/reinstate",
		"DELETE /v1/admin/sellers/:id",
		"GET /v1/admin/moderation-actions",
	} {
		assert.True(t, got[want], want)
	}
}

func TestProtectedRoutesCheckRole(t *testing.T) {
	e := newServer()
	sellerTok, err := utils.NewAccessToken(secret, 5, model.RoleSeller, time.Hour)
	require.NoError(t, err)
	adminTok, err := utils.NewAccessToken(secret, 1, model.RoleAdmin, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/v1/seller/contact-requests", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/seller/contact-requests", adminTok.Token, http.StatusForbidden},
		{http.MethodPost, "/v1/admin/sellers/5/suspend", sellerTok.Token, http.StatusForbidden},
		{http.MethodGet, "/v1/admin/moderation-actions", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.method+" "+tc.path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
