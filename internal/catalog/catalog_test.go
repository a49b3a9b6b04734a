package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scango/pkg/config"
	"scango/pkg/shopify"
)

type fakeFinder map[string]*shopify.Product

func (f fakeFinder) ProductByBarcode(_ context.Context, barcode string) (*shopify.Product, error) {
	if barcode == "boom" {
		return nil, errors.New("connection reset")
	}
	return f[barcode], nil
}

func TestResolveLineItems(t *testing.T) {
	finder := fakeFinder{
		"111": {VariantID: "gid://shopify/ProductVariant/41"},
		"222": {VariantID: "gid://shopify/ProductVariant/42"},
		"bad": {VariantID: "gid://shopify/Product/9"},
	}

	got, err := ResolveLineItems(context.Background(), finder, []Line{{"111", 2}, {"222", 1}})
	require.NoError(t, err)
	assert.Equal(t, []shopify.OrderLineItem{{VariantID: 41, Quantity: 2}, {VariantID: 42, Quantity: 1}}, got)

	_, err = ResolveLineItems(context.Background(), finder, []Line{{"111", 1}, {"999", 1}})
	require.ErrorIs(t, err, ErrUnknownBarcode)
	assert.ErrorContains(t, err, "999")

	_, err = ResolveLineItems(context.Background(), finder, []Line{{"bad", 1}})
	require.ErrorIs(t, err, ErrUnknownBarcode)

	_, err = ResolveLineItems(context.Background(), finder, []Line{{"boom", 1}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownBarcode)
}

func testHandlers(t *testing.T, upstream http.HandlerFunc) Handlers {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	return Handlers{
		Cfg: config.Config{Shopify: config.ShopifyConfig{
			Shop:       "r0x6ms-5d.myshopify.com",
			AdminToken: "shpat_test",
			APIVersion: "2024-10",
		}},
		AdminBaseURL: srv.URL,
	}
}

func lookup(h Handlers, query string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ByBarcode(rec, httptest.NewRequest(http.MethodGet, "/v1/products/by-barcode"+query, nil))
	return rec
}

func TestByBarcode_Found(t *testing.T) {
	h := testHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[{"node":{
			"id":"gid://shopify/ProductVariant/4455","title":"500g","barcode":"5012345678900",
			"price":"3.49","inventoryQuantity":0,
			"product":{"id":"gid://shopify/Product/11","title":"Coffee beans"}}}]}}}`))
	})

	rec := lookup(h, "?barcode=5012345678900")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Found   bool `json:"found"`
		Product struct {
			Title   string `json:"title"`
			Price   string `json:"price"`
			Stock   *int   `json:"stock"`
			InStock bool   `json:"inStock"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Found)
	assert.Equal(t, "Coffee beans", body.Product.Title)
	assert.Equal(t, "3.49", body.Product.Price)
	require.NotNil(t, body.Product.Stock)
	assert.False(t, body.Product.InStock)
}

func TestByBarcode_NotFound(t *testing.T) {
	h := testHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"productVariants":{"edges":[]}}}`))
	})

	rec := lookup(h, "?barcode=000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"found":false}`, rec.Body.String())
}

func TestByBarcode_Errors(t *testing.T) {
	h := testHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":"missing read_products scope"}`))
	})

	rec := lookup(h, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = lookup(h, "?barcode=5012345678900")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing read_products scope")

	h.Cfg.Shopify.AdminToken = ""
	rec = lookup(h, "?barcode=5012345678900")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_CONFIGURATION")
}
