package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"scango/internal/api"
	"scango/pkg/config"
	"scango/pkg/shopify"
)

const (
	StateCookieName = "oauth_state"
	stateCookieTTL  = 300
)

type Handlers struct {
	Cfg       config.Config
	Exchanger TokenExchanger

	// AdminBaseURL replaces https://{shop} for webhook registration (tests).
	AdminBaseURL string
}

// NewHandlers wires the token exchanger from configuration.
func NewHandlers(cfg config.Config) Handlers {
	return Handlers{
		Cfg: cfg,
		Exchanger: shopify.OAuthExchanger{
			APIKey:    cfg.Shopify.APIKey,
			APISecret: cfg.Shopify.APISecret,
			Timeout:   cfg.Shopify.TokenExchangeTimeout,
		},
	}
}

func (h Handlers) Install(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("handler", "auth.install"))

	if !h.Cfg.InstallReady() {
		installRedirects.WithLabelValues("config_missing").Inc()
		log.Error("install requested without SHOPIFY_SHOP, SHOPIFY_API_KEY, SHOPIFY_SCOPES and APP_URL configured")
		api.WriteError(w, http.StatusInternalServerError, "MISSING_CONFIGURATION", "missing env vars")
		return
	}

	// Single-shop deployment: a shop hint is tolerated only when it names the configured shop.
	if hint := strings.TrimSpace(r.URL.Query().Get("shop")); hint != "" && !strings.EqualFold(hint, h.Cfg.Shopify.Shop) {
		installRedirects.WithLabelValues("shop_mismatch").Inc()
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "unknown shop")
		return
	}

	state, err := NewNonce()
	if err != nil {
		installRedirects.WithLabelValues("nonce_failed").Inc()
		log.Error("generate oauth state", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	u, err := shopify.BuildInstallURL(h.Cfg.Shopify.Shop, h.Cfg.Shopify.APIKey, h.Cfg.Shopify.Scopes, h.Cfg.CallbackURL(), state)
	if err != nil {
		installRedirects.WithLabelValues("config_missing").Inc()
		api.WriteError(w, http.StatusInternalServerError, "MISSING_CONFIGURATION", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	installRedirects.WithLabelValues("issued").Inc()
	log.Info("install redirect issued", zap.String("shop", h.Cfg.Shopify.Shop))
	http.Redirect(w, r, u.String(), http.StatusFound)
}

type callbackResponse struct {
	OK          bool   `json:"ok"`
	Shop        string `json:"shop"`
	Scope       string `json:"scope"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
}

func (h Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("handler", "auth.callback"))

	var expectedState string
	if c, err := r.Cookie(StateCookieName); err == nil {
		expectedState = c.Value
	}
	// The state cookie is single-use whatever the outcome.
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	cb := Callbacks{
		Shopify:   h.Cfg.Shopify,
		Exchanger: h.Exchanger,
		OnStage: func(s Stage) {
			log.Debug("callback stage", zap.String("stage", string(s)))
		},
	}

	q, err := ParseCallbackQuery(r.URL.RawQuery)
	var res CallbackResult
	if err == nil {
		res, err = cb.Handle(r.Context(), q, expectedState)
	}
	outcome := Outcome(err)
	callbackOutcomes.WithLabelValues(outcome).Inc()

	if err != nil {
		log.Warn("callback rejected", zap.String("shop", q.Shop), zap.String("outcome", outcome), zap.Error(err))
		status, code, msg := statusFor(err)
		api.WriteError(w, status, code, msg)
		return
	}
	log.Info("callback reported", zap.String("shop", res.Shop), zap.String("scope", res.Scope))

	if h.Cfg.Shopify.RegisterWebhooks && h.Cfg.AppURL != "" {
		h.registerWebhooks(r.Context(), log, res)
	}

	resp := callbackResponse{
		OK:      true,
		Shop:    res.Shop,
		Scope:   res.Scope,
		Message: "Scan & Go successfully authorised. You can close this tab.",
	}
	if h.Cfg.RevealsAccessToken() {
		resp.AccessToken = res.AccessToken
		resp.Message = "Scan & Go successfully authorised. Copy access_token into SHOPIFY_ADMIN_TOKEN now; it is not stored and will not be shown again."
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h Handlers) registerWebhooks(ctx context.Context, log *zap.Logger, res CallbackResult) {
	c := shopify.Client{
		ShopDomain:  res.Shop,
		AccessToken: res.AccessToken,
		APIVersion:  h.Cfg.Shopify.APIVersion,
		BaseURL:     h.AdminBaseURL,
	}
	for _, topic := range shopify.InstallWebhookTopics {
		if err := c.CreateWebhook(ctx, topic, shopify.WebhookAddress(h.Cfg.AppURL, topic)); err != nil {
			log.Warn("webhook register failed", zap.String("shop", res.Shop), zap.String("topic", topic), zap.Error(err))
		}
	}
}

// statusFor maps a callback failure to its response. Upstream bodies are passed through
// for diagnosis; the exchanger has already redacted the client secret from them.
func statusFor(err error) (int, string, string) {
	var upErr *shopify.UpstreamError
	switch {
	case errors.Is(err, ErrMissingParameter):
		return http.StatusBadRequest, "MISSING_PARAMETER", "Missing shop or code"
	case errors.Is(err, ErrMissingConfiguration):
		return http.StatusInternalServerError, "MISSING_CONFIGURATION", "Missing env vars"
	case errors.Is(err, ErrSignatureMismatch):
		return http.StatusUnauthorized, "SIGNATURE_MISMATCH", "HMAC verification failed"
	case errors.Is(err, ErrStateMismatch):
		return http.StatusBadRequest, "STATE_MISMATCH", "Invalid oauth state; restart the install"
	case errors.Is(err, ErrShopMismatch):
		return http.StatusBadRequest, "STATE_MISMATCH", "Callback for an unexpected shop"
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, "UPSTREAM_ERROR", "Token exchange failed: " + upErr.Body
	case errors.Is(err, shopify.ErrMalformedResponse):
		return http.StatusInternalServerError, "UPSTREAM_PARSE_ERROR", "Token exchange returned an unreadable response"
	default:
		return http.StatusInternalServerError, "UPSTREAM_ERROR", "Token exchange failed"
	}
}
