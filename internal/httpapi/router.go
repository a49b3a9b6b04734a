package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"scango/internal/api"
	"scango/internal/audit"
	"scango/internal/auth"
	"scango/internal/basket"
	"scango/internal/catalog"
	"scango/internal/order"
	"scango/internal/till"
	"scango/internal/webhook"
	"scango/pkg/config"
)

type Dependencies struct {
	Cfg    config.Config
	Logger *zap.Logger

	// DB is optional; without it orders are not recorded and webhooks are not deduplicated.
	DB *pgxpool.Pool

	// Baskets defaults to an in-process store.
	Baskets basket.Store
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Baskets == nil {
		deps.Baskets = basket.NewMemoryStore(nil)
	}

	var ledger order.Ledger
	webhookHandler := webhook.Handler{Cfg: deps.Cfg}
	if deps.DB != nil {
		ledger = audit.NewRepository(deps.DB)
		webhookHandler.DB = deps.DB
	}

	baskets := basket.Service{Store: deps.Baskets, TTL: deps.Cfg.BasketTTL}
	authHandlers := auth.NewHandlers(deps.Cfg)
	catalogHandlers := catalog.Handlers{Cfg: deps.Cfg}
	orderHandlers := order.Handlers{Cfg: deps.Cfg, Ledger: ledger}
	basketHandlers := basket.Handlers{Baskets: baskets}
	tillHandlers := till.Handlers{
		Baskets: baskets,
		Orders:  order.NewService(deps.Cfg, ledger, ""),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(api.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// v1
	r.Route("/v1", func(r chi.Router) {
		r.Get("/auth/install", authHandlers.Install)
		r.Get("/auth/callback", authHandlers.Callback)

		// Shopper-facing endpoints, called from phones in the store.
		r.Group(func(r chi.Router) {
			r.Use(api.RateLimitByIP(deps.Cfg.RateLimitPerMinute))

			r.Get("/products/by-barcode", catalogHandlers.ByBarcode)
			r.Post("/baskets", basketHandlers.Create)
			r.Get("/baskets/{code}", basketHandlers.Get)

			r.Route("/orders", func(r chi.Router) {
				// Devices send no Origin and always pass; browsers must be on the allowlist.
				r.Use(api.CORSMiddleware(api.CORSOptions{
					AllowedOrigins:       deps.Cfg.AllowedOrigins,
					AllowedMethods:       []string{"POST", "OPTIONS"},
					AllowedHeaders:       []string{"Content-Type", "X-Device-Key"},
					MaxAgeSeconds:        86400,
					RejectUnknownOrigins: true,
				}))
				r.Post("/create-unpaid", orderHandlers.CreateUnpaid)
			})
		})

		// Staff at the till, from the embedded admin.
		r.Route("/till", func(r chi.Router) {
			r.Use(api.SessionAuth(deps.Cfg, nil))
			r.Get("/baskets/{code}", tillHandlers.GetBasket)
			r.Post("/baskets/{code}/order", tillHandlers.CreateOrder)
		})

		r.Post("/webhooks/shopify/{topic}", webhookHandler.ServeHTTP)
	})

	return r
}
