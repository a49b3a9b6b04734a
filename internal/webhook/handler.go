package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"scango/internal/api"
	"scango/internal/audit"
	"scango/pkg/config"
	"scango/pkg/db"
)

const maxBodyBytes = 1 << 20

var errDuplicateEvent = errors.New("webhook event already processed")

type Handler struct {
	Cfg config.Config
	// DB is optional. Without it events are verified and logged but neither
	// deduplicated nor applied to the submissions ledger.
	DB db.TxBeginner
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Prefer Shopify's topic header; fall back to route param.
	topic := strings.TrimSpace(r.Header.Get("X-Shopify-Topic"))
	if topic == "" {
		topic = chi.URLParam(r, "topic")
	}
	topic = NormalizeTopic(topic)

	shopDomain := strings.TrimSpace(r.Header.Get("X-Shopify-Shop-Domain"))
	hmacHeader := strings.TrimSpace(r.Header.Get("X-Shopify-Hmac-Sha256"))
	eventID := strings.TrimSpace(r.Header.Get("X-Shopify-Webhook-Id"))
	if eventID == "" {
		eventID = strings.TrimSpace(r.Header.Get("X-Shopify-Event-Id"))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	if !VerifyShopifyWebhook(body, hmacHeader, h.Cfg.Shopify.WebhookSigningSecret()) {
		received.WithLabelValues(topicLabel(topic), "bad_signature").Inc()
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	log := zap.L().With(zap.String("topic", topic), zap.String("shop", shopDomain), zap.String("event_id", eventID))

	// Single-shop deployment: acknowledge anything else so the platform stops retrying.
	if h.Cfg.Shopify.Shop != "" && !strings.EqualFold(shopDomain, h.Cfg.Shopify.Shop) {
		received.WithLabelValues(topicLabel(topic), "foreign_shop").Inc()
		log.Warn("webhook for unexpected shop ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.DB == nil {
		received.WithLabelValues(topicLabel(topic), "logged").Inc()
		h.logOnly(log, topic, body)
		w.WriteHeader(http.StatusOK)
		return
	}

	payloadHash := sha256Hex(body)
	if eventID == "" {
		// Fallback idempotency key when webhook-id header isn't present.
		eventID = payloadHash
	}

	// Idempotency gate + handler execution in one tx.
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		if err := insertWebhookEvent(r.Context(), tx, eventID, topic, shopDomain, payloadHash); err != nil {
			if isUniqueViolation(err) {
				// The failed insert aborted the tx; roll back and acknowledge.
				return errDuplicateEvent
			}
			return err
		}

		switch topic {
		case TopicOrdersPaid:
			return h.handleOrdersPaid(r.Context(), tx, log, body)
		case TopicAppUninstalled:
			log.Warn("app uninstalled; SHOPIFY_ADMIN_TOKEN is no longer valid")
			return nil
		default:
			// Unknown topic: accept (no retries).
			return nil
		}
	})
	switch {
	case errors.Is(err, errDuplicateEvent):
		received.WithLabelValues(topicLabel(topic), "duplicate").Inc()
		log.Debug("webhook already processed")
	case err != nil:
		// Nothing was committed, so a 5xx lets the platform redeliver.
		received.WithLabelValues(topicLabel(topic), "failed").Inc()
		log.Error("webhook tx error", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "webhook not processed")
		return
	default:
		received.WithLabelValues(topicLabel(topic), "applied").Inc()
	}

	// Shopify expects a 200 quickly.
	w.WriteHeader(http.StatusOK)
}

func (h Handler) logOnly(log *zap.Logger, topic string, body []byte) {
	switch topic {
	case TopicOrdersPaid:
		var p orderPaidPayload
		if err := json.Unmarshal(body, &p); err == nil {
			log.Info("order paid", zap.Int64("order_id", p.ID), zap.String("device_id", ParseKeyFromNote(p.Note, "deviceId")))
		}
	case TopicAppUninstalled:
		log.Warn("app uninstalled; SHOPIFY_ADMIN_TOKEN is no longer valid")
	default:
		log.Debug("webhook ignored")
	}
}

func (h Handler) handleOrdersPaid(ctx context.Context, tx pgx.Tx, log *zap.Logger, body []byte) error {
	var payload orderPaidPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.ID == 0 {
		return nil
	}

	// Orders not created by Scan & Go carry no device token and are left alone.
	deviceID := ParseKeyFromNote(payload.Note, "deviceId")
	if deviceID == "" {
		return nil
	}

	paidAt := time.Now().UTC()
	if payload.ProcessedAt != nil {
		paidAt = payload.ProcessedAt.UTC()
	}
	matched, err := audit.MarkPaid(ctx, tx, payload.ID, paidAt)
	if err != nil {
		return err
	}
	log.Info("order paid", zap.Int64("order_id", payload.ID), zap.String("device_id", deviceID), zap.Bool("ledger_matched", matched))
	return nil
}

func insertWebhookEvent(ctx context.Context, tx pgx.Tx, eventID, topic, shopDomain, payloadHash string) error {
	const q = `
INSERT INTO webhook_events (event_id, topic, shop_domain, payload_hash, processed_at)
VALUES ($1, $2, $3, $4, NOW())
`
	_, err := tx.Exec(ctx, q, eventID, topic, shopDomain, payloadHash)
	return err
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if ok := errors.As(err, &pgErr); ok {
		return pgErr.Code == "23505"
	}
	return false
}

type orderPaidPayload struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Note        string     `json:"note"`
	ProcessedAt *time.Time `json:"processed_at"`
}
