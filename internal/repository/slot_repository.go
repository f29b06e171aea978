package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

// CreateIfAbsent inserts the slot unless one already exists for the same
// expert and start time. The unique index on (expert_id, start_time) makes
// repeated generation runs idempotent without ever touching existing rows.
func (r *SlotRepository) CreateIfAbsent(ctx context.Context, slot *model.Slot) (bool, error) {
	query := `
		INSERT INTO slots (expert_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (expert_id, start_time) DO NOTHING
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.ExpertID,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			// Conflict: a slot for this start already exists.
			return false, nil
		}
		return false, fmt.Errorf("create slot: %w", err)
	}

	return true, nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, expert_id, start_time, end_time, status, booking_id, created_at
		FROM slots
		WHERE id = $1
	`

	var slot model.Slot
	err := r.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.ExpertID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.BookingID,
		&slot.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return &slot, nil
}

// GetRun fetches the expert's slots with start times inside
// [start, start + n*30m), ascending. The caller decides whether the run is
// complete and contiguous.
func (r *SlotRepository) GetRun(ctx context.Context, expertID uuid.UUID, start time.Time, n int) ([]*model.Slot, error) {
	end := start.Add(time.Duration(n) * model.SlotDuration)

	query := `
		SELECT id, expert_id, start_time, end_time, status, booking_id, created_at
		FROM slots
		WHERE expert_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`

	return r.querySlots(ctx, query, expertID, start, end)
}

func (r *SlotRepository) ListAvailable(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT id, expert_id, start_time, end_time, status, booking_id, created_at
		FROM slots
		WHERE expert_id = $1
		  AND status = 'available'
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`

	return r.querySlots(ctx, query, expertID, from, to)
}

func (r *SlotRepository) ListByExpert(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT id, expert_id, start_time, end_time, status, booking_id, created_at
		FROM slots
		WHERE expert_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`

	return r.querySlots(ctx, query, expertID, from, to)
}

func (r *SlotRepository) querySlots(ctx context.Context, query string, args ...interface{}) ([]*model.Slot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		var slot model.Slot
		err := rows.Scan(
			&slot.ID,
			&slot.ExpertID,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Status,
			&slot.BookingID,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}

// Reserve marks every listed slot booked in one statement. The CTE locks the
// still-available rows; the update applies only when all of them were locked,
// so a competing reservation that already took any slot makes the whole
// attempt a no-op.
func (r *SlotRepository) Reserve(ctx context.Context, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	if len(slotIDs) == 0 {
		return false, nil
	}

	query := `
		WITH locked AS (
			SELECT id FROM slots
			WHERE id = ANY($1) AND status = 'available'
			FOR UPDATE
		)
		UPDATE slots
		SET status = 'booked', booking_id = $2
		WHERE id IN (SELECT id FROM locked)
		  AND (SELECT count(*) FROM locked) = $3
	`

	affected, err := r.ExecAffected(ctx, query, slotIDs, bookingID, len(slotIDs))
	if err != nil {
		return false, fmt.Errorf("reserve slots: %w", err)
	}

	return affected == int64(len(slotIDs)), nil
}

// ReleaseByBooking returns every slot held by the booking to available.
// Releasing a booking that holds nothing affects zero rows.
func (r *SlotRepository) ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	query := `
		UPDATE slots
		SET status = 'available', booking_id = NULL
		WHERE booking_id = $1 AND status = 'booked'
	`

	affected, err := r.ExecAffected(ctx, query, bookingID)
	if err != nil {
		return 0, fmt.Errorf("release slots: %w", err)
	}

	return affected, nil
}

// BlockAvailableOnDate flips the date's still-available slots to blocked.
// Booked slots keep their status; their bookings are handled separately.
func (r *SlotRepository) BlockAvailableOnDate(ctx context.Context, expertID uuid.UUID, date time.Time) (int64, error) {
	next := date.AddDate(0, 0, 1)

	query := `
		UPDATE slots
		SET status = 'blocked'
		WHERE expert_id = $1
		  AND status = 'available'
		  AND start_time >= $2
		  AND start_time < $3
	`

	affected, err := r.ExecAffected(ctx, query, expertID, date, next)
	if err != nil {
		return 0, fmt.Errorf("block slots on date: %w", err)
	}

	return affected, nil
}
