package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AccessToken is what the platform grants after a successful code exchange.
type AccessToken struct {
	Token string
	Scope string
}

// BuildInstallURL composes the authorization URL the installer is redirected to.
// The outbound leg is unsigned; every parameter is percent-encoded individually.
func BuildInstallURL(shopHost, clientID string, scopes []string, redirectURI, state string) (*url.URL, error) {
	shopHost = strings.TrimSpace(shopHost)
	if shopHost == "" || clientID == "" || len(scopes) == 0 || redirectURI == "" || state == "" {
		return nil, fmt.Errorf("install url: shop, client id, scopes, redirect uri and state are required")
	}

	u := &url.URL{
		Scheme: "https",
		Host:   shopHost,
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", clientID)
	q.Set("scope", strings.Join(scopes, ","))
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u, nil
}

type OAuthExchanger struct {
	HTTPClient *http.Client
	APIKey     string
	APISecret  string

	// Timeout bounds the exchange when HTTPClient is nil.
	Timeout time.Duration

	// BaseURL replaces https://{shop} when set.
	BaseURL string
}

type accessTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCodeForToken trades the one-time authorization code for an offline access token.
// A non-2xx answer is returned as *UpstreamError with the client secret redacted from the body.
// Nothing is retried.
func (o OAuthExchanger) ExchangeCodeForToken(ctx context.Context, shopDomain, code string) (tok AccessToken, err error) {
	const op = "token_exchange"
	start := time.Now()
	defer func() { observe(op, start, err) }()

	if o.HTTPClient == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		o.HTTPClient = &http.Client{Timeout: timeout}
	}

	body, err := json.Marshal(accessTokenRequest{
		ClientID:     o.APIKey,
		ClientSecret: o.APISecret,
		Code:         code,
	})
	if err != nil {
		return AccessToken{}, err
	}

	origin := "https://" + shopDomain
	if o.BaseURL != "" {
		origin = strings.TrimRight(o.BaseURL, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, origin+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return AccessToken{}, fmt.Errorf("shopify token exchange: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return AccessToken{}, fmt.Errorf("shopify token exchange: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AccessToken{}, &UpstreamError{Op: op, Status: resp.StatusCode, Body: o.redact(strings.TrimSpace(string(raw)))}
	}

	var r accessTokenResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return AccessToken{}, fmt.Errorf("%w: token exchange: %v", ErrMalformedResponse, err)
	}
	if r.AccessToken == "" {
		return AccessToken{}, fmt.Errorf("%w: token exchange returned empty access_token", ErrMalformedResponse)
	}
	return AccessToken{Token: r.AccessToken, Scope: r.Scope}, nil
}

func (o OAuthExchanger) redact(s string) string {
	if o.APISecret == "" {
		return s
	}
	return strings.ReplaceAll(s, o.APISecret, "[redacted]")
}
