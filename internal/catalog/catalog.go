package catalog

import (
	"context"
	"errors"
	"fmt"

	"scango/pkg/shopify"
)

var (
	// ErrNotConfigured means SHOPIFY_SHOP or SHOPIFY_ADMIN_TOKEN is missing.
	ErrNotConfigured  = errors.New("missing Shopify credentials")
	ErrUnknownBarcode = errors.New("no product found for barcode")
)

type ProductFinder interface {
	ProductByBarcode(ctx context.Context, barcode string) (*shopify.Product, error)
}

// Line is a scanned barcode and how many units of it.
type Line struct {
	Barcode  string
	Quantity int
}

// ResolveLineItems turns scanned lines into order line items, one lookup per line,
// in order. The first unknown barcode or failed lookup stops resolution.
func ResolveLineItems(ctx context.Context, finder ProductFinder, lines []Line) ([]shopify.OrderLineItem, error) {
	out := make([]shopify.OrderLineItem, 0, len(lines))
	for _, l := range lines {
		p, err := finder.ProductByBarcode(ctx, l.Barcode)
		if err != nil {
			return nil, fmt.Errorf("barcode lookup failed (%s): %w", l.Barcode, err)
		}
		if p == nil || p.VariantID == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBarcode, l.Barcode)
		}
		id, err := shopify.VariantNumericID(p.VariantID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownBarcode, l.Barcode, err)
		}
		out = append(out, shopify.OrderLineItem{VariantID: id, Quantity: l.Quantity})
	}
	return out, nil
}
