package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scango/pkg/config"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:             "dev",
		AppURL:             "https://scan-go.example.app",
		BasketTTL:          time.Hour,
		AllowedOrigins:     []string{"https://dev.shopify.com"},
		RateLimitPerMinute: 1000,
		Shopify: config.ShopifyConfig{
			Shop:       "r0x6ms-5d.myshopify.com",
			APIKey:     "client-id",
			APISecret:  "client-secret",
			Scopes:     []string{"read_products", "write_orders"},
			APIVersion: "2024-10",
		},
	}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := NewRouter(Dependencies{Cfg: testConfig()})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_InstallRedirects(t *testing.T) {
	h := NewRouter(Dependencies{Cfg: testConfig()})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/auth/install", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://r0x6ms-5d.myshopify.com/admin/oauth/authorize?"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "oauth_state=")
}

func TestRouter_OrdersCORS(t *testing.T) {
	h := NewRouter(Dependencies{Cfg: testConfig()})

	req := httptest.NewRequest(http.MethodOptions, "/v1/orders/create-unpaid", nil)
	req.Header.Set("Origin", "https://dev.shopify.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dev.shopify.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodPost, "/v1/orders/create-unpaid", strings.NewReader(`{}`))
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(h, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No Origin: a device. Admin credentials are missing in this config.
	rec = serve(h, httptest.NewRequest(http.MethodPost, "/v1/orders/create-unpaid", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_BasketToTill(t *testing.T) {
	h := NewRouter(Dependencies{Cfg: testConfig()})

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/v1/baskets",
		strings.NewReader(`{"items":[{"barcode":"5012345678900","price":"1.50","quantity":2}]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/v1/till/baskets/"+created.Code, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/till/baskets/"+strings.ToLower(created.Code), nil)
	req.Header.Set("X-Shop-Domain", "r0x6ms-5d.myshopify.com")
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"3.00"`)
}

func TestRouter_CallbackWithoutParams(t *testing.T) {
	h := NewRouter(Dependencies{Cfg: testConfig()})
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/auth/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
