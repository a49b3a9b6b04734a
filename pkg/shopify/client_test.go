package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return Client{
		ShopDomain:  "r0x6ms-5d.myshopify.com",
		AccessToken: "shpat_test",
		APIVersion:  "2024-10",
		BaseURL:     srv.URL,
	}
}

func TestProductByBarcode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, `barcode:"5012345678900"`, body.Variables["query"])

		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[{"node":{
			"id":"gid://shopify/ProductVariant/4455","title":"500g","barcode":"5012345678900",
			"price":"3.49","inventoryQuantity":7,
			"product":{"id":"gid://shopify/Product/11","title":"Coffee beans"}}}]}}}`))
	})

	p, err := c.ProductByBarcode(context.Background(), "5012345678900")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Coffee beans", p.Title)
	assert.Equal(t, "gid://shopify/ProductVariant/4455", p.VariantID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("3.49")))
	require.NotNil(t, p.Stock)
	assert.Equal(t, 7, *p.Stock)
	assert.True(t, p.InStock())
}

func TestProductByBarcode_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[]}}}`))
	})

	p, err := c.ProductByBarcode(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductByBarcode_GraphQLErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Access denied for productVariants field."}]}`))
	})

	_, err := c.ProductByBarcode(context.Background(), "000")
	require.ErrorContains(t, err, "Access denied")
}

func TestProductByBarcode_UpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
	})

	_, err := c.ProductByBarcode(context.Background(), "000")
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.Status)
}

func TestCreateUnpaidOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/orders.json", r.URL.Path)

		var req OrderCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pending", req.Order.FinancialStatus)
		assert.Equal(t, "scan-and-go,unpaid,device:dev-1", req.Order.Tags)
		assert.Equal(t, "Created by Scan & Go (scan-and-go) | deviceId=dev-1", req.Order.Note)
		assert.Equal(t, []OrderLineItem{{VariantID: 4455, Quantity: 2}}, req.Order.LineItems)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"id":820982911946154500,"name":"#3612"}}`))
	})

	o, err := c.CreateUnpaidOrder(context.Background(), UnpaidOrder{
		LineItems: []OrderLineItem{{VariantID: 4455, Quantity: 2}},
		DeviceID:  "dev-1",
		Source:    "scan-and-go",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(820982911946154500), o.ID)
	assert.Equal(t, "#3612", o.Name)
}

func TestVariantNumericID(t *testing.T) {
	id, err := VariantNumericID("gid://shopify/ProductVariant/4455")
	require.NoError(t, err)
	assert.Equal(t, int64(4455), id)

	_, err = VariantNumericID("gid://shopify/Product/11")
	require.Error(t, err)
}

func TestAdminOrderURL(t *testing.T) {
	assert.Equal(t, "https://admin.shopify.com/store/r0x6ms-5d/orders/99", AdminOrderURL("r0x6ms-5d.myshopify.com", 99))
}

func TestWebhookAddress(t *testing.T) {
	assert.Equal(t, "https://app.example/v1/webhooks/shopify/orders_paid", WebhookAddress("https://app.example/", "orders/paid"))
}

func TestProduct_InStock(t *testing.T) {
	n := func(v int) *int { return &v }
	cases := []struct {
		name  string
		stock *int
		want  bool
	}{
		{"untracked", nil, true},
		{"sold out", n(0), false},
		{"oversold", n(-2), false},
		{"available", n(3), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Product{Stock: tc.stock}.InStock())
		})
	}
}
