package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{Repository: base.NewRepository(pool)}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (booking_id, payer_id, amount, currency, status, gateway_reference, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		payment.BookingID,
		payment.PayerID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.GatewayReference,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, booking_id, payer_id, amount, currency, status, gateway_reference, paid_at, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var payment model.Payment
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.PayerID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.GatewayReference,
		&payment.PaidAt,
		&payment.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by booking: %w", err)
	}

	return &payment, nil
}
