package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusInSession BookingStatus = "in_session"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusDisputed  BookingStatus = "disputed"
)

type ServiceType string

const (
	ServiceTypeConsultation ServiceType = "consultation"
	ServiceTypeResearch     ServiceType = "research"
	ServiceTypeAdvisory     ServiceType = "advisory"
)

// bookingTransitions is the single source of truth for lifecycle legality.
// Guards beyond structural legality (actor, both-party completion, payment)
// live in the booking service.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusDraft:     {BookingStatusRequested, BookingStatusCancelled},
	BookingStatusRequested: {BookingStatusAccepted, BookingStatusCancelled},
	BookingStatusAccepted:  {BookingStatusScheduled, BookingStatusInSession, BookingStatusCancelled},
	BookingStatusScheduled: {BookingStatusInSession, BookingStatusCancelled, BookingStatusDisputed},
	BookingStatusInSession: {BookingStatusInSession, BookingStatusCompleted, BookingStatusDisputed},
	BookingStatusCompleted: {BookingStatusDisputed},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transitions are possible.
// Disputed bookings are frozen for manual resolution.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusDisputed
}

// HoldsSlots reports whether a booking in this status still owns its reserved
// slots. Slots are released exactly when a booking leaves this set for
// cancelled; completed bookings keep their slots forever.
func (s BookingStatus) HoldsSlots() bool {
	switch s {
	case BookingStatusRequested, BookingStatusAccepted, BookingStatusScheduled, BookingStatusInSession:
		return true
	}
	return false
}

type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	ClientID           uuid.UUID     `json:"client_id"`
	ExpertID           uuid.UUID     `json:"expert_id"` // expert profile id
	ServiceType        ServiceType   `json:"service_type"`
	ProblemStatement   string        `json:"problem_statement"`
	DurationMinutes    int           `json:"duration_minutes"`
	ScheduledStart     *time.Time    `json:"scheduled_start"`
	ScheduledEnd       *time.Time    `json:"scheduled_end"`
	Status             BookingStatus `json:"status"`
	Amount             int64         `json:"amount"` // minor units, set by admin pricing
	Currency           string        `json:"currency"`
	MeetingRoomID      string        `json:"meeting_room_id"`
	CompletedByExpert  bool          `json:"completed_by_expert"`
	CompletedByClient  bool          `json:"completed_by_client"`
	RespondedAt        *time.Time    `json:"responded_at"`
	CompletedAt        *time.Time    `json:"completed_at"`
	CancelledAt        *time.Time    `json:"cancelled_at"`
	CancelledBy        *uuid.UUID    `json:"cancelled_by"`
	CancellationReason string        `json:"cancellation_reason"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	Expert *ExpertProfile `json:"expert,omitempty"`
	Client *User          `json:"client,omitempty"`
}

// SlotsNeeded returns how many consecutive 30-minute slots the booking consumes.
func (b *Booking) SlotsNeeded() int {
	return b.DurationMinutes / SlotMinutes
}
