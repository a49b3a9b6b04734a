package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scango/internal/api"
	"scango/internal/catalog"
	"scango/pkg/config"
	"scango/pkg/shopify"
)

type Handlers struct {
	Cfg    config.Config
	Ledger Ledger

	// AdminBaseURL replaces https://{shop} for Admin API calls (tests).
	AdminBaseURL string
}

// NewService builds the order service from configuration. Admin is left nil when
// credentials are missing so Submit reports it.
func NewService(cfg config.Config, ledger Ledger, adminBaseURL string) Service {
	s := Service{Shop: cfg.Shopify.Shop, Ledger: ledger}
	if cfg.Shopify.AdminReady() {
		s.Admin = shopify.Client{
			ShopDomain:  cfg.Shopify.Shop,
			AccessToken: cfg.Shopify.AdminToken,
			APIVersion:  cfg.Shopify.APIVersion,
			BaseURL:     adminBaseURL,
		}
	}
	return s
}

type createItem struct {
	Barcode  string      `json:"barcode"`
	Quantity json.Number `json:"quantity"`
}

type createRequest struct {
	Items    []createItem `json:"items"`
	DeviceID string       `json:"deviceId"`
	Source   string       `json:"source"`
}

type createResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	OrderID   int64  `json:"orderId"`
	OrderName string `json:"orderName"`
	AdminURL  string `json:"adminUrl"`
	DeviceID  string `json:"deviceId"`
	Source    string `json:"source"`
}

// normalizeLines trims barcodes and checks quantities are whole and positive.
func normalizeLines(items []createItem) ([]catalog.Line, error) {
	if len(items) == 0 {
		return nil, errors.New("body must include items: [{ barcode, quantity }]")
	}
	lines := make([]catalog.Line, 0, len(items))
	for i, it := range items {
		barcode := strings.TrimSpace(it.Barcode)
		if barcode == "" {
			return nil, fmt.Errorf("item %d must include a barcode string", i)
		}
		qty, err := it.Quantity.Float64()
		if err != nil || qty <= 0 || qty > math.MaxInt32 || qty != math.Trunc(qty) {
			return nil, fmt.Errorf("item %d must include a positive whole quantity", i)
		}
		lines = append(lines, catalog.Line{Barcode: barcode, Quantity: int(qty)})
	}
	return lines, nil
}

func (h Handlers) CreateUnpaid(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("handler", "orders.create_unpaid"))

	if !h.Cfg.Shopify.AdminReady() {
		log.Error("order requested without SHOPIFY_SHOP and SHOPIFY_ADMIN_TOKEN configured")
		api.WriteError(w, http.StatusInternalServerError, "MISSING_CONFIGURATION", catalog.ErrNotConfigured.Error())
		return
	}

	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid JSON body")
		return
	}
	lines, err := normalizeLines(req.Items)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	res, err := NewService(h.Cfg, h.Ledger, h.AdminBaseURL).Submit(r.Context(), Request{
		Lines:    lines,
		DeviceID: strings.TrimSpace(req.DeviceID),
		Source:   strings.TrimSpace(req.Source),
	})
	if err != nil {
		status, code, msg := StatusFor(err)
		log.Warn("unpaid order failed", zap.Int("status", status), zap.Error(err))
		api.WriteError(w, status, code, msg)
		return
	}

	log.Info("unpaid order created", zap.Int64("order_id", res.OrderID), zap.String("device_id", res.DeviceID), zap.String("source", res.Source))
	api.WriteJSON(w, http.StatusOK, createResponse{
		OK:        true,
		Message:   "Unpaid order created",
		OrderID:   res.OrderID,
		OrderName: res.OrderName,
		AdminURL:  res.AdminURL,
		DeviceID:  res.DeviceID,
		Source:    res.Source,
	})
}

// StatusFor maps a Submit failure to its response. Resolution problems are the
// caller's (400); order creation problems are the platform's (502).
func StatusFor(err error) (int, string, string) {
	var upErr *shopify.UpstreamError
	switch {
	case errors.Is(err, catalog.ErrNotConfigured):
		return http.StatusInternalServerError, "MISSING_CONFIGURATION", err.Error()
	case errors.Is(err, ErrUnresolved):
		return http.StatusBadRequest, "UNKNOWN_BARCODE", strings.TrimPrefix(err.Error(), ErrUnresolved.Error()+": ")
	case errors.As(err, &upErr):
		return http.StatusBadGateway, "UPSTREAM_ERROR", "Shopify order create failed: " + upErr.Body
	case errors.Is(err, shopify.ErrMalformedResponse):
		return http.StatusBadGateway, "UPSTREAM_PARSE_ERROR", "Shopify returned no order id"
	default:
		return http.StatusBadGateway, "UPSTREAM_ERROR", fmt.Sprintf("Shopify request error: %v", err)
	}
}
