package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type webhookCreateRequest struct {
	Webhook webhookPayload `json:"webhook"`
}

type webhookPayload struct {
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format"`
}

type webhookCreateResponse struct {
	Webhook struct {
		ID int64 `json:"id"`
	} `json:"webhook"`
}

// InstallWebhookTopics are subscribed right after a successful install.
var InstallWebhookTopics = []string{"orders/paid", "app/uninstalled"}

func (c Client) CreateWebhook(ctx context.Context, topic string, address string) error {
	topic = strings.TrimSpace(topic)
	address = strings.TrimSpace(address)
	if topic == "" || address == "" {
		return fmt.Errorf("missing topic or address")
	}

	req := webhookCreateRequest{
		Webhook: webhookPayload{
			Topic:   topic,
			Address: address,
			Format:  "json",
		},
	}
	var resp webhookCreateResponse
	if _, err := c.doJSON(ctx, "webhook_create", http.MethodPost, "/webhooks.json", req, &resp); err != nil {
		return err
	}
	if resp.Webhook.ID == 0 {
		return fmt.Errorf("%w: webhook create returned no id", ErrMalformedResponse)
	}
	return nil
}

// WebhookAddress maps a topic like "orders/paid" to {base}/v1/webhooks/shopify/orders_paid.
func WebhookAddress(base, topic string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(topic), "/", "_")
	return strings.TrimRight(base, "/") + "/v1/webhooks/shopify/" + slug
}
