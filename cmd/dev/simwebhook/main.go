package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"scango/pkg/config"
	"scango/pkg/shopify"
)

// simwebhook posts a signed platform webhook to a local server. Without -payload it
// sends an orders/paid event for a Scan & Go order.
func main() {
	cfg := config.Load()

	var (
		url       = flag.String("url", "", "webhook endpoint url (defaults to http://localhost<HTTP_ADDR>/v1/webhooks/shopify/<topic>)")
		topic     = flag.String("topic", "orders/paid", "shopify topic header value")
		shop      = flag.String("shop", cfg.Shopify.Shop, "X-Shopify-Shop-Domain")
		secret    = flag.String("secret", cfg.Shopify.WebhookSigningSecret(), "webhook signing secret")
		payload   = flag.String("payload", "", "path to json payload file")
		orderID   = flag.Int64("order-id", time.Now().Unix(), "order id for the generated orders/paid payload")
		deviceID  = flag.String("device-id", "dev-device", "deviceId written into the generated order note")
		webhookID = flag.String("id", "", "webhook id header value (default: random uuid)")
	)
	flag.Parse()

	if *url == "" {
		*url = defaultWebhookURL(cfg.HTTPAddr, *topic)
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or SHOPIFY_WEBHOOK_SECRET / SHOPIFY_API_SECRET in env/.env)")
		os.Exit(2)
	}
	if *webhookID == "" {
		*webhookID = uuid.NewString()
	}

	var b []byte
	var err error
	if *payload != "" {
		b, err = os.ReadFile(*payload)
	} else {
		b, err = json.Marshal(map[string]any{
			"id":               *orderID,
			"name":             "#dev",
			"financial_status": "paid",
			"processed_at":     time.Now().UTC().Format(time.RFC3339),
			"note":             shopify.OrderNote("scan-and-go", *deviceID),
		})
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "payload: %v\n", err)
		os.Exit(2)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Topic", *topic)
	req.Header.Set("X-Shopify-Shop-Domain", *shop)
	req.Header.Set("X-Shopify-Hmac-Sha256", sign(b, *secret))
	req.Header.Set("X-Shopify-Webhook-Id", *webhookID)

	c := &http.Client{Timeout: 10 * time.Second}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d webhook_id=%s\n%s\n", resp.StatusCode, *webhookID, string(body))
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func defaultWebhookURL(httpAddr, topic string) string {
	path := "/v1/webhooks/shopify/" + strings.ReplaceAll(topic, "/", "_")
	if strings.HasPrefix(httpAddr, ":") {
		return "http://localhost" + httpAddr + path
	}
	return "http://localhost:8081" + path
}
