package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"scango/internal/auth"
	"scango/pkg/config"
)

// signcallback prints (and optionally sends) an OAuth callback URL signed the way the
// platform signs it, for exercising /v1/auth/callback without a real install.
func main() {
	cfg := config.Load()

	var (
		base   = flag.String("url", "", "callback url (defaults to http://localhost<HTTP_ADDR>/v1/auth/callback)")
		shop   = flag.String("shop", cfg.Shopify.Shop, "shop host")
		code   = flag.String("code", "dev-code", "authorization code")
		state  = flag.String("state", "", "state nonce; also sent as the oauth_state cookie with -send (default: random)")
		secret = flag.String("secret", cfg.Shopify.APISecret, "SHOPIFY_API_SECRET")
		send   = flag.Bool("send", false, "GET the url with the matching state cookie and print the response")
		check  = flag.String("check", "", "verify the hmac of a callback url copied from the browser instead of signing one")
	)
	flag.Parse()

	if *check != "" {
		os.Exit(checkURL(*check, *secret))
	}
	if *shop == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -shop or -secret (or SHOPIFY_SHOP / SHOPIFY_API_SECRET in env/.env)")
		os.Exit(2)
	}
	if *base == "" {
		*base = defaultCallbackURL(cfg.HTTPAddr)
	}
	if *state == "" {
		n, err := auth.NewNonce()
		if err != nil {
			fmt.Fprintf(os.Stderr, "nonce: %v\n", err)
			os.Exit(1)
		}
		*state = n
	}

	values := url.Values{
		"code":      {*code},
		"host":      {hostParam(*shop)},
		"shop":      {*shop},
		"state":     {*state},
		"timestamp": {strconv.FormatInt(time.Now().Unix(), 10)},
	}
	values.Set("hmac", auth.Sign(auth.ParamsFromValues(values), *secret))
	target := *base + "?" + values.Encode()
	fmt.Println(target)

	if !*send {
		return
	}

	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.AddCookie(&http.Cookie{Name: auth.StateCookieName, Value: *state})

	c := &http.Client{
		Timeout: 15 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}

// checkURL reports whether rawURL carries a valid callback hmac and returns the exit code.
func checkURL(rawURL, secret string) int {
	if secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or SHOPIFY_API_SECRET in env/.env)")
		return 2
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse url: %v\n", err)
		return 2
	}
	params, err := auth.ParseParams(u.RawQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse query: %v\n", err)
		return 2
	}
	if !auth.VerifyOAuthHMAC(params, secret) {
		fmt.Printf("hmac INVALID\nsigned message: %s\n", auth.Canonicalize(params))
		return 1
	}
	fmt.Println("hmac ok")
	return 0
}

// hostParam mimics the base64 admin host the platform adds to callbacks.
func hostParam(shop string) string {
	handle := strings.TrimSuffix(shop, ".myshopify.com")
	return base64.RawURLEncoding.EncodeToString([]byte("admin.shopify.com/store/" + handle))
}

func defaultCallbackURL(httpAddr string) string {
	if strings.HasPrefix(httpAddr, ":") {
		return "http://localhost" + httpAddr + "/v1/auth/callback"
	}
	return "http://localhost:8081/v1/auth/callback"
}
