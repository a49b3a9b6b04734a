package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Submission is one order created through Scan & Go. Nothing secret is stored here.
type Submission struct {
	ID             uuid.UUID
	ShopifyOrderID int64
	OrderName      string
	DeviceID       string
	Source         string
	ItemCount      int
	// BasketCode is set when the order came from a parked basket at the till.
	BasketCode string
	CreatedAt  time.Time
	PaidAt     *time.Time
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Record inserts s and returns it with ID and CreatedAt filled in.
func (r *Repository) Record(ctx context.Context, s Submission) (Submission, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	var basketCode *string
	if s.BasketCode != "" {
		basketCode = &s.BasketCode
	}
	const q = `
INSERT INTO order_submissions (id, shopify_order_id, order_name, device_id, source, item_count, basket_code)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at
`
	err := r.db.QueryRow(ctx, q, s.ID, s.ShopifyOrderID, s.OrderName, s.DeviceID, s.Source, s.ItemCount, basketCode).Scan(&s.CreatedAt)
	return s, err
}

// MarkPaid stamps paid_at on the submission for a platform order. It reports false
// when no unpaid submission matched.
func MarkPaid(ctx context.Context, tx pgx.Tx, shopifyOrderID int64, paidAt time.Time) (bool, error) {
	const q = `
UPDATE order_submissions
SET paid_at = $2
WHERE shopify_order_id = $1 AND paid_at IS NULL
`
	tag, err := tx.Exec(ctx, q, shopifyOrderID, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
