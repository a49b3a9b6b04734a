package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type OrderCreateRequest struct {
	Order OrderPayload `json:"order"`
}

type OrderPayload struct {
	LineItems       []OrderLineItem `json:"line_items"`
	FinancialStatus string          `json:"financial_status"`
	Tags            string          `json:"tags,omitempty"`
	Note            string          `json:"note,omitempty"`
}

type OrderLineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type OrderCreateResponse struct {
	Order Order `json:"order"`
}

type Order struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnpaidOrder describes an order staff will collect payment for at the till.
type UnpaidOrder struct {
	LineItems []OrderLineItem
	DeviceID  string
	Source    string
}

// OrderNote is the staff-facing note attached to every Scan & Go order.
// The deviceId=... token is read back by the orders/paid webhook.
func OrderNote(source, deviceID string) string {
	return fmt.Sprintf("Created by Scan & Go (%s) | deviceId=%s", source, deviceID)
}

// CreateUnpaidOrder creates a regular (non-draft) order with financial_status=pending.
func (c Client) CreateUnpaidOrder(ctx context.Context, in UnpaidOrder) (*Order, error) {
	if len(in.LineItems) == 0 {
		return nil, fmt.Errorf("order has no line items")
	}

	req := OrderCreateRequest{
		Order: OrderPayload{
			LineItems:       in.LineItems,
			FinancialStatus: "pending",
			// Tagged so staff can filter these in the admin.
			Tags: "scan-and-go,unpaid,device:" + in.DeviceID,
			Note: OrderNote(in.Source, in.DeviceID),
		},
	}

	var resp OrderCreateResponse
	if _, err := c.doJSON(ctx, "order_create", http.MethodPost, "/orders.json", req, &resp); err != nil {
		return nil, err
	}
	if resp.Order.ID == 0 {
		return nil, fmt.Errorf("%w: order create returned no order id", ErrMalformedResponse)
	}
	return &resp.Order, nil
}

// AdminOrderURL is a best-effort deep link into the admin for staff.
func AdminOrderURL(shopDomain string, orderID int64) string {
	handle := strings.TrimSuffix(shopDomain, ".myshopify.com")
	return "https://admin.shopify.com/store/" + handle + "/orders/" + strconv.FormatInt(orderID, 10)
}
