package basket

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one scanned line. Price is optional: the shopper's page may park a basket
// before every lookup has returned.
type Item struct {
	Barcode   string           `json:"barcode"`
	Title     string           `json:"title,omitempty"`
	VariantID string           `json:"variantId,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  int              `json:"quantity"`
}

type Basket struct {
	Code      string    `json:"code"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MaxItems bounds a single basket.
const MaxItems = 200

// NormalizeItems trims and validates items. Nothing is coerced: a missing barcode or a
// non-positive quantity is an error, not a default.
func NormalizeItems(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, ValidationError{Code: "BASKET_EMPTY", Message: "body must include items: [{ barcode, quantity }]"}
	}
	if len(items) > MaxItems {
		return nil, ValidationError{Code: "BASKET_TOO_LARGE", Message: fmt.Sprintf("a basket holds at most %d lines", MaxItems)}
	}

	out := make([]Item, 0, len(items))
	for i, it := range items {
		it.Barcode = strings.TrimSpace(it.Barcode)
		it.Title = strings.TrimSpace(it.Title)
		if it.Barcode == "" {
			return nil, ValidationError{Code: "ITEM_BARCODE_MISSING", Message: fmt.Sprintf("item %d must include a barcode string", i)}
		}
		if it.Quantity <= 0 {
			return nil, ValidationError{Code: "ITEM_QUANTITY_INVALID", Message: fmt.Sprintf("item %d must include a positive quantity", i)}
		}
		if it.Price != nil && it.Price.IsNegative() {
			return nil, ValidationError{Code: "ITEM_PRICE_INVALID", Message: fmt.Sprintf("item %d price must not be negative", i)}
		}
		out = append(out, it)
	}
	return out, nil
}

// Total sums priced lines; Unpriced counts lines that could not be included.
func (b Basket) Total() (total decimal.Decimal, unpriced int) {
	total = decimal.Zero
	for _, it := range b.Items {
		if it.Price == nil {
			unpriced++
			continue
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2), unpriced
}

// ItemCount is the number of units across all lines.
func (b Basket) ItemCount() int {
	n := 0
	for _, it := range b.Items {
		n += it.Quantity
	}
	return n
}
