package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration is the fixed bookable unit. All rule windows are sliced into
// units of this size; remainders under one unit are never offered.
const SlotDuration = 30 * time.Minute

const SlotMinutes = 30

// DefaultHorizonDays is the rolling window slots are materialized over.
const DefaultHorizonDays = 30

// AvailabilityRule is a weekly recurring template: "this expert is available
// every <weekday> between <start> and <end>". Times are minutes since midnight
// in the platform timezone; slots are materialized in the server clock's
// location.
type AvailabilityRule struct {
	ID          uuid.UUID `json:"id"`
	ExpertID    uuid.UUID `json:"expert_id"`
	DayOfWeek   int       `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// SlotCount returns how many full 30-minute slots the rule window yields.
func (r *AvailabilityRule) SlotCount() int {
	if r.EndMinute <= r.StartMinute {
		return 0
	}
	return (r.EndMinute - r.StartMinute) / SlotMinutes
}

// DateException marks a calendar date as fully unavailable, overriding any
// rule-derived slots for that date.
type DateException struct {
	ID        uuid.UUID `json:"id"`
	ExpertID  uuid.UUID `json:"expert_id"`
	Date      time.Time `json:"date"` // midnight, date component only
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
)

type Slot struct {
	ID        uuid.UUID  `json:"id"`
	ExpertID  uuid.UUID  `json:"expert_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	BookingID *uuid.UUID `json:"booking_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func (s *Slot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

// Window is a contiguous run of slots offered as one bookable period.
type Window struct {
	AnchorSlotID uuid.UUID `json:"anchor_slot_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}
