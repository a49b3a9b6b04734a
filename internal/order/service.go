package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"scango/internal/audit"
	"scango/internal/catalog"
	"scango/pkg/shopify"
)

const (
	DefaultDeviceID = "unknown-device"
	DefaultSource   = "scan-and-go"
)

// ErrUnresolved wraps any failure to turn scanned lines into line items.
var ErrUnresolved = errors.New("line items could not be resolved")

type AdminAPI interface {
	catalog.ProductFinder
	CreateUnpaidOrder(ctx context.Context, in shopify.UnpaidOrder) (*shopify.Order, error)
}

// Ledger records created orders. A nil Ledger records nothing.
type Ledger interface {
	Record(ctx context.Context, s audit.Submission) (audit.Submission, error)
}

type Request struct {
	Lines    []catalog.Line
	DeviceID string
	Source   string
	// BasketCode links a till order to the basket it was built from.
	BasketCode string
}

type Result struct {
	OrderID   int64
	OrderName string
	AdminURL  string
	DeviceID  string
	Source    string
}

type Service struct {
	Shop   string
	Admin  AdminAPI
	Ledger Ledger
}

// Submit resolves every line, then creates one unpaid order. Nothing is created when
// any line fails to resolve.
func (s Service) Submit(ctx context.Context, req Request) (Result, error) {
	if s.Admin == nil || s.Shop == "" {
		return Result{}, catalog.ErrNotConfigured
	}
	if req.DeviceID == "" {
		req.DeviceID = DefaultDeviceID
	}
	if req.Source == "" {
		req.Source = DefaultSource
	}

	lineItems, err := catalog.ResolveLineItems(ctx, s.Admin, req.Lines)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnresolved, err)
	}

	o, err := s.Admin.CreateUnpaidOrder(ctx, shopify.UnpaidOrder{
		LineItems: lineItems,
		DeviceID:  req.DeviceID,
		Source:    req.Source,
	})
	if err != nil {
		ordersCreated.WithLabelValues(sourceLabel(req.Source), "failed").Inc()
		return Result{}, err
	}
	ordersCreated.WithLabelValues(sourceLabel(req.Source), "created").Inc()

	if s.Ledger != nil {
		units := 0
		for _, li := range lineItems {
			units += li.Quantity
		}
		// The order exists upstream already; a ledger failure must not turn it into an error.
		if _, err := s.Ledger.Record(ctx, audit.Submission{
			ShopifyOrderID: o.ID,
			OrderName:      o.Name,
			DeviceID:       req.DeviceID,
			Source:         req.Source,
			ItemCount:      units,
			BasketCode:     req.BasketCode,
		}); err != nil {
			zap.L().Error("record order submission", zap.Int64("order_id", o.ID), zap.Error(err))
		}
	}

	return Result{
		OrderID:   o.ID,
		OrderName: o.Name,
		AdminURL:  shopify.AdminOrderURL(s.Shop, o.ID),
		DeviceID:  req.DeviceID,
		Source:    req.Source,
	}, nil
}
