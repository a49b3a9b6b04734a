package till

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"scango/internal/api"
	"scango/internal/basket"
	"scango/internal/catalog"
	"scango/internal/order"
)

const source = "till"

// Handlers serve staff at the till. Routes are expected behind api.SessionAuth.
type Handlers struct {
	Baskets basket.Service
	Orders  order.Service
}

type basketResponse struct {
	OK            bool          `json:"ok"`
	Code          string        `json:"code"`
	Items         []basket.Item `json:"items"`
	ItemCount     int           `json:"itemCount"`
	Total         string        `json:"total"`
	UnpricedLines int           `json:"unpricedLines"`
	ExpiresAt     time.Time     `json:"expiresAt"`
}

type orderResponse struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	BasketCode string `json:"basketCode"`
	OrderID    int64  `json:"orderId"`
	OrderName  string `json:"orderName"`
	AdminURL   string `json:"adminUrl"`
}

func (h Handlers) load(w http.ResponseWriter, r *http.Request) (basket.Basket, bool) {
	b, err := h.Baskets.Get(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, basket.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "basket not found or expired")
		return basket.Basket{}, false
	}
	if err != nil {
		zap.L().Error("till load basket", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return basket.Basket{}, false
	}
	return b, true
}

// GetBasket shows a parked basket with a server-side total. Prices are the ones the
// shopper's device saw; lines without a price are counted, not guessed.
func (h Handlers) GetBasket(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	total, unpriced := b.Total()
	api.WriteJSON(w, http.StatusOK, basketResponse{
		OK:            true,
		Code:          b.Code,
		Items:         b.Items,
		ItemCount:     b.ItemCount(),
		Total:         total.StringFixed(2),
		UnpricedLines: unpriced,
		ExpiresAt:     b.ExpiresAt,
	})
}

// CreateOrder turns a parked basket into an unpaid order and closes the basket.
// The basket is left in place when the order cannot be created.
func (h Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("handler", "till.create_order"))

	b, ok := h.load(w, r)
	if !ok {
		return
	}

	deviceID := source
	if s := api.SessionFromContext(r.Context()); s != nil && s.UserID != "" {
		deviceID = "staff-" + s.UserID
	}

	lines := make([]catalog.Line, 0, len(b.Items))
	for _, it := range b.Items {
		lines = append(lines, catalog.Line{Barcode: it.Barcode, Quantity: it.Quantity})
	}

	res, err := h.Orders.Submit(r.Context(), order.Request{
		Lines:      lines,
		DeviceID:   deviceID,
		Source:     source,
		BasketCode: b.Code,
	})
	if err != nil {
		status, code, msg := order.StatusFor(err)
		log.Warn("till order failed", zap.String("basket", b.Code), zap.Int("status", status), zap.Error(err))
		api.WriteError(w, status, code, msg)
		return
	}

	if err := h.Baskets.Close(r.Context(), b.Code); err != nil {
		log.Error("close basket after order", zap.String("basket", b.Code), zap.Error(err))
	}

	log.Info("till order created", zap.String("basket", b.Code), zap.Int64("order_id", res.OrderID))
	api.WriteJSON(w, http.StatusOK, orderResponse{
		OK:         true,
		Message:    "Unpaid order created",
		BasketCode: b.Code,
		OrderID:    res.OrderID,
		OrderName:  res.OrderName,
		AdminURL:   res.AdminURL,
	})
}
