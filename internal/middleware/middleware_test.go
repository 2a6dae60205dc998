package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/service-marketplace/internal/config"
	"github.com/iliyamo/service-marketplace/internal/utils"
)

const testSecret = "test-secret"

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "role": c.Get(CtxRole)})
	}, JWTAuth(testSecret), RequireRole(roles...))
	return e
}

func bearer(t *testing.T, secret string, id uint64, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, ttl)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthAndRole(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad signature", bearer(t, "other", 7, "SELLER", time.Hour), http.StatusUnauthorized},
		{"expired", bearer(t, testSecret, 7, "SELLER", -time.Minute), http.StatusUnauthorized},
		{"wrong role", bearer(t, testSecret, 7, "ADMIN", time.Hour), http.StatusForbidden},
		{"ok", bearer(t, testSecret, 7, "SELLER", time.Hour), http.StatusOK},
	}
	e := protected("SELLER")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"role":"SELLER"}`, rec.Body.String())
			}
		})
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/ratings", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/ratings")

	cfg := config.RateLimitConfig{Prefix: "mkt:rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "mkt:rl:ip:10.0.0.1:route:POST /v1/ratings", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "mkt:rl:user:guest", buildRateKey(cfg, c))

	c.Set(CtxUserID, uint64(42))
	assert.Equal(t, "mkt:rl:user:42", buildRateKey(cfg, c))

	cfg.KeyStrategy = "unknown"
	assert.Equal(t, "mkt:rl:ip:10.0.0.1:user:42:route:POST /v1/ratings", buildRateKey(cfg, c))
}

func TestParseBucketResult(t *testing.T) {
	allowed, remaining, retry, ok := parseBucketResult([]any{int64(1), int64(4), int64(0)})
	require.True(t, ok)
	assert.True(t, allowed)
	assert.EqualValues(t, 4, remaining)
	assert.Zero(t, retry)

	allowed, _, retry, ok = parseBucketResult([]any{"0", "0", "2500"})
	require.True(t, ok)
	assert.False(t, allowed)
	assert.EqualValues(t, 2500, retry)
	assert.Equal(t, 3, retryAfterSeconds(retry))

	_, _, _, ok = parseBucketResult("nope")
	assert.False(t, ok)
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"items":[]}`, string(body))

	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
}

func TestCacheKeyDependsOnPathAndQuery(t *testing.T) {
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		return cacheKeyFrom(config.CacheConfig{Prefix: "mkt:cache"}, c)
	}
	a := key("/v1/services/1/ratings?page=1")
	assert.True(t, strings.HasPrefix(a, "mkt:cache:"))
	assert.Equal(t, a, key("/v1/services/1/ratings?page=1"))
	assert.NotEqual(t, a, key("/v1/services/2/ratings?page=1"))
	assert.NotEqual(t, a, key("/v1/services/1/ratings?page=2"))
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflowed)
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.overflowed)
	assert.Zero(t, cw.buf.Len())
	assert.Equal(t, "abcdef", rec.Body.String())
}
