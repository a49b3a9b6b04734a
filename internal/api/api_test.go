package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scango/pkg/config"
	"scango/pkg/shopify"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(CORSOptions{
		AllowedOrigins:       []string{"https://scan-go.example.app"},
		AllowedMethods:       []string{"POST", "OPTIONS"},
		AllowedHeaders:       []string{"Content-Type", "X-Device-Key"},
		MaxAgeSeconds:        86400,
		RejectUnknownOrigins: true,
	})(okHandler)

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://scan-go.example.app")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://scan-go.example.app", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin blocked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no origin passes without cors headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimitByIP(t *testing.T) {
	h := RateLimitByIP(2)(okHandler)

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	assert.Equal(t, "192.168.1.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.2")
	assert.Equal(t, "203.0.113.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
	assert.Equal(t, "203.0.113.1", ClientIP(req))
}

func TestSessionAuth(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cfg := config.Config{
		AppEnv: "prod",
		Shopify: config.ShopifyConfig{
			Shop:      "till-shop.myshopify.com",
			APIKey:    "key",
			APISecret: "s3cret",
		},
	}

	var seen *shopify.VerifiedSession
	h := SessionAuth(cfg, func() time.Time { return now })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	sign := func(dest string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, shopify.SessionTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  []string{"key"},
				Subject:   "7",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			Dest: dest,
		})
		s, err := tok.SignedString([]byte("s3cret"))
		require.NoError(t, err)
		return s
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign("https://till-shop.myshopify.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "7", seen.UserID)
	})

	t.Run("token for another shop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign("https://else.myshopify.com"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("dev header ignored in prod", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Shop-Domain", "till-shop.myshopify.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("dev header accepted outside prod", func(t *testing.T) {
		devCfg := cfg
		devCfg.AppEnv = "dev"
		dev := SessionAuth(devCfg, nil)(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Shop-Domain", "till-shop.myshopify.com")
		rec := httptest.NewRecorder()
		dev.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
