package api

import (
	"context"

	"scango/pkg/shopify"
)

type ctxKey string

const ctxKeySession ctxKey = "staff_session"

func WithSession(ctx context.Context, s *shopify.VerifiedSession) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the staff session attached by SessionAuth, or nil.
func SessionFromContext(ctx context.Context) *shopify.VerifiedSession {
	s, _ := ctx.Value(ctxKeySession).(*shopify.VerifiedSession)
	return s
}
