package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID               uuid.UUID     `json:"id"`
	BookingID        uuid.UUID     `json:"booking_id"`
	PayerID          uuid.UUID     `json:"payer_id"`
	Amount           int64         `json:"amount"`
	Currency         string        `json:"currency"`
	Status           PaymentStatus `json:"status"`
	GatewayReference string        `json:"gateway_reference"`
	PaidAt           *time.Time    `json:"paid_at"`
	CreatedAt        time.Time     `json:"created_at"`
}
