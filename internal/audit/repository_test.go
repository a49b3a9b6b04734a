package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO order_submissions").
		WithArgs(pgxmock.AnyArg(), int64(5550001), "#1001", "pixel-7", "scan-and-go", 3, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	got, err := NewRepository(mock).Record(context.Background(), Submission{
		ShopifyOrderID: 5550001,
		OrderName:      "#1001",
		DeviceID:       "pixel-7",
		Source:         "scan-and-go",
		ItemCount:      3,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordKeepsBasketCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.MustParse("0b7f6c1e-3a43-4d7e-9a57-4c1f1d2b8e10")
	mock.ExpectQuery("INSERT INTO order_submissions").
		WithArgs(id, int64(5550002), "#1002", "staff-42", "till", 1, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))

	got, err := NewRepository(mock).Record(context.Background(), Submission{
		ID:             id,
		ShopifyOrderID: 5550002,
		OrderName:      "#1002",
		DeviceID:       "staff-42",
		Source:         "till",
		ItemCount:      1,
		BasketCode:     "SG-12345",
	})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "SG-12345", got.BasketCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)

	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"unpaid submission", 1, true},
		{"unknown or already paid", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE order_submissions").
				WithArgs(int64(5550001), paidAt).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			tx, err := mock.Begin(context.Background())
			require.NoError(t, err)
			matched, err := MarkPaid(context.Background(), tx, 5550001, paidAt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, matched)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
