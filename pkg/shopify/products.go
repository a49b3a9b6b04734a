package shopify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID    string
	Title        string
	VariantID    string
	VariantTitle string
	Barcode      string
	Price        decimal.Decimal
	// Stock is nil when the variant's inventory is not tracked.
	Stock *int
}

// InStock treats untracked inventory (nil Stock) as available.
func (p Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}

const productByBarcodeQuery = `
query ProductByBarcode($query: String!) {
  productVariants(first: 1, query: $query) {
    edges {
      node {
        id
        title
        barcode
        price
        inventoryQuantity
        product {
          id
          title
        }
      }
    }
  }
}
`

// ProductByBarcode resolves a scanned barcode to its first matching variant.
// It returns (nil, nil) when nothing matches.
func (c Client) ProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("missing barcode")
	}

	var data struct {
		ProductVariants struct {
			Edges []struct {
				Node struct {
					ID                string `json:"id"`
					Title             string `json:"title"`
					Barcode           string `json:"barcode"`
					Price             string `json:"price"`
					InventoryQuantity *int   `json:"inventoryQuantity"`
					Product           struct {
						ID    string `json:"id"`
						Title string `json:"title"`
					} `json:"product"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"productVariants"`
	}

	err := c.graphql(ctx, "product_by_barcode", productByBarcodeQuery, map[string]any{
		"query": "barcode:" + strconv.Quote(barcode),
	}, &data)
	if err != nil {
		return nil, err
	}
	if len(data.ProductVariants.Edges) == 0 {
		return nil, nil
	}

	n := data.ProductVariants.Edges[0].Node
	price, err := decimal.NewFromString(n.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: variant %s price %q", ErrMalformedResponse, n.ID, n.Price)
	}
	return &Product{
		ProductID:    n.Product.ID,
		Title:        n.Product.Title,
		VariantID:    n.ID,
		VariantTitle: n.Title,
		Barcode:      n.Barcode,
		Price:        price,
		Stock:        n.InventoryQuantity,
	}, nil
}

var variantGIDRe = regexp.MustCompile(`ProductVariant/(\d+)`)

// VariantNumericID converts gid://shopify/ProductVariant/123 into 123 for the REST API.
func VariantNumericID(gid string) (int64, error) {
	m := variantGIDRe.FindStringSubmatch(gid)
	if len(m) != 2 {
		return 0, fmt.Errorf("could not parse numeric variant id from %q", gid)
	}
	return strconv.ParseInt(m[1], 10, 64)
}
