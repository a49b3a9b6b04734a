package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"scango/internal/api"
	"scango/pkg/config"
	"scango/pkg/shopify"
)

type Handlers struct {
	Cfg config.Config

	// AdminBaseURL replaces https://{shop} for Admin API calls (tests).
	AdminBaseURL string
}

type productJSON struct {
	ProductID    string          `json:"productId"`
	Title        string          `json:"title"`
	VariantID    string          `json:"variantId"`
	VariantTitle string          `json:"variantTitle"`
	Barcode      string          `json:"barcode"`
	Price        decimal.Decimal `json:"price"`
	Stock        *int            `json:"stock"`
	InStock      bool            `json:"inStock"`
}

type lookupResponse struct {
	Found   bool         `json:"found"`
	Product *productJSON `json:"product,omitempty"`
}

func (h Handlers) ByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(r.URL.Query().Get("barcode"))
	if barcode == "" {
		api.WriteError(w, http.StatusBadRequest, "MISSING_PARAMETER", "Missing barcode")
		return
	}
	if !h.Cfg.Shopify.AdminReady() {
		api.WriteError(w, http.StatusInternalServerError, "MISSING_CONFIGURATION", ErrNotConfigured.Error())
		return
	}

	c := shopify.Client{
		ShopDomain:  h.Cfg.Shopify.Shop,
		AccessToken: h.Cfg.Shopify.AdminToken,
		APIVersion:  h.Cfg.Shopify.APIVersion,
		BaseURL:     h.AdminBaseURL,
	}
	p, err := c.ProductByBarcode(r.Context(), barcode)
	if err != nil {
		zap.L().Warn("product lookup failed", zap.String("barcode", barcode), zap.Error(err))
		var upErr *shopify.UpstreamError
		if errors.As(err, &upErr) {
			api.WriteError(w, http.StatusInternalServerError, "UPSTREAM_ERROR", "Shopify error: "+upErr.Body)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "UPSTREAM_ERROR", "Shopify error: "+err.Error())
		return
	}
	if p == nil {
		lookups.WithLabelValues("not_found").Inc()
		api.WriteJSON(w, http.StatusOK, lookupResponse{Found: false})
		return
	}

	lookups.WithLabelValues("found").Inc()
	api.WriteJSON(w, http.StatusOK, lookupResponse{
		Found: true,
		Product: &productJSON{
			ProductID:    p.ProductID,
			Title:        p.Title,
			VariantID:    p.VariantID,
			VariantTitle: p.VariantTitle,
			Barcode:      p.Barcode,
			Price:        p.Price,
			Stock:        p.Stock,
			InStock:      p.InStock(),
		},
	})
}
