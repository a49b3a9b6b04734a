package api

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"scango/pkg/config"
	"scango/pkg/shopify"
)

// SessionAuth guards staff (till) endpoints with embedded admin session tokens.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// The token must be signed with the app secret and issued for the configured shop.
// Outside prod, a missing Authorization header may be replaced by X-Shop-Domain naming the
// configured shop to keep local testing simple.
func SessionAuth(cfg config.Config, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				vs, err := shopify.VerifySessionTokenForShop(token, cfg.Shopify.APIKey, cfg.Shopify.APISecret, cfg.Shopify.Shop, now())
				if err != nil {
					zap.L().Warn("staff session rejected", zap.String("path", r.URL.Path), zap.Error(err))
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), vs)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				shopDomain := strings.TrimSpace(r.Header.Get("X-Shop-Domain"))
				if shopDomain != "" && cfg.Shopify.Shop != "" && strings.EqualFold(shopDomain, cfg.Shopify.Shop) {
					vs := &shopify.VerifiedSession{ShopDomain: cfg.Shopify.Shop, UserID: "dev"}
					next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), vs)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}
