package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

const bookingColumns = `
	id, client_id, expert_id, service_type, problem_statement, duration_minutes,
	scheduled_start, scheduled_end, status, amount, currency, meeting_room_id,
	completed_by_expert, completed_by_client, responded_at, completed_at,
	cancelled_at, cancelled_by, cancellation_reason, created_at, updated_at
`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.ExpertID,
		&b.ServiceType,
		&b.ProblemStatement,
		&b.DurationMinutes,
		&b.ScheduledStart,
		&b.ScheduledEnd,
		&b.Status,
		&b.Amount,
		&b.Currency,
		&b.MeetingRoomID,
		&b.CompletedByExpert,
		&b.CompletedByClient,
		&b.RespondedAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.CancelledBy,
		&b.CancellationReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			client_id, expert_id, service_type, problem_statement, duration_minutes,
			scheduled_start, scheduled_end, status, amount, currency, meeting_room_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ClientID,
		booking.ExpertID,
		booking.ServiceType,
		booking.ProblemStatement,
		booking.DurationMinutes,
		booking.ScheduledStart,
		booking.ScheduledEnd,
		booking.Status,
		booking.Amount,
		booking.Currency,
		booking.MeetingRoomID,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1,
		    amount = $2,
		    completed_by_expert = $3,
		    completed_by_client = $4,
		    responded_at = $5,
		    completed_at = $6,
		    cancelled_at = $7,
		    cancelled_by = $8,
		    cancellation_reason = $9,
		    updated_at = now()
		WHERE id = $10
	`

	affected, err := r.ExecAffected(
		ctx, query,
		booking.Status,
		booking.Amount,
		booking.CompletedByExpert,
		booking.CompletedByClient,
		booking.RespondedAt,
		booking.CompletedAt,
		booking.CancelledAt,
		booking.CancelledBy,
		booking.CancellationReason,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM bookings WHERE id = $1`

	if _, err := r.ExecAffected(ctx, query, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	return nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	return r.queryBookings(ctx, query, clientID)
}

func (r *BookingRepository) ListByExpert(ctx context.Context, expertID uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE expert_id = $1
		ORDER BY created_at DESC
	`

	return r.queryBookings(ctx, query, expertID)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}
