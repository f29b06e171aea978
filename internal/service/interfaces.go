package service

import (
	"context"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
)

// Repository contracts the services operate against. The pgx implementations
// live in internal/repository; tests substitute in-memory fakes.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateClientStatus(ctx context.Context, id uuid.UUID, status model.ClientStatus) error
}

type ExpertRepository interface {
	Create(ctx context.Context, profile *model.ExpertProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExpertProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.ExpertProfile, error)
	ListActive(ctx context.Context) ([]*model.ExpertProfile, error)
	UpdateVerification(ctx context.Context, profile *model.ExpertProfile) error
	UpdateRatingStats(ctx context.Context, id uuid.UUID, average float64, total int) error
	// AccrueCompletion bumps the consultation counter and lifetime earnings in
	// one statement.
	AccrueCompletion(ctx context.Context, id uuid.UUID, earnings int64) error
	// AttachTag links an expertise tag to the profile; duplicates are ignored.
	AttachTag(ctx context.Context, profileID, tagID uuid.UUID) error
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.ExpertiseTag) error
	List(ctx context.Context) ([]*model.ExpertiseTag, error)
	GetBySlug(ctx context.Context, slug string) (*model.ExpertiseTag, error)
}

type AvailabilityRuleRepository interface {
	Create(ctx context.Context, rule *model.AvailabilityRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error)
	GetByExpertID(ctx context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error)
	ListActiveByExpert(ctx context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error)
	Exists(ctx context.Context, expertID uuid.UUID, day, startMinute, endMinute int) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DateExceptionRepository interface {
	Create(ctx context.Context, exc *model.DateException) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.DateException, error)
	GetByExpertAndDate(ctx context.Context, expertID uuid.UUID, date time.Time) (*model.DateException, error)
	ListByExpertRange(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.DateException, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SlotRepository interface {
	// CreateIfAbsent inserts the slot unless one already exists for the same
	// expert and start time. It never touches an existing row's status.
	CreateIfAbsent(ctx context.Context, slot *model.Slot) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// GetRun fetches the slots of one expert with start times inside
	// [start, start + n*30m), ascending.
	GetRun(ctx context.Context, expertID uuid.UUID, start time.Time, n int) ([]*model.Slot, error)
	ListAvailable(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error)
	ListByExpert(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error)
	// Reserve atomically marks every listed slot booked with the booking
	// back-reference. Either all rows flip or none do; it returns false when
	// any slot was not available at commit time.
	Reserve(ctx context.Context, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error)
	// ReleaseByBooking returns every slot held by the booking to available and
	// clears the back-reference. Releasing twice is a harmless no-op.
	ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	// BlockAvailableOnDate flips the date's still-available slots to blocked.
	BlockAvailableOnDate(ctx context.Context, expertID uuid.UUID, date time.Time) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error)
	ListByExpert(ctx context.Context, expertID uuid.UUID) ([]*model.Booking, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.ClientRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ClientRequest, error)
	Update(ctx context.Context, req *model.ClientRequest) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.ClientRequest, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]*model.ClientRequest, error)
}

type MatchRepository interface {
	Create(ctx context.Context, match *model.ExpertMatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExpertMatch, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.ExpertMatch, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.MatchStatus) error
}

type ProgressEventRepository interface {
	// Append inserts one trail entry. There is deliberately no update or
	// delete on this repository.
	Append(ctx context.Context, event *model.ProgressEvent) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.ProgressEvent, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error)
	AggregateForReviewee(ctx context.Context, revieweeID uuid.UUID) (average float64, total int, err error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error)
}

type ThreadRepository interface {
	Create(ctx context.Context, thread *model.MessageThread) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.MessageThread, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]*model.Message, error)
	MarkRead(ctx context.Context, threadID, readerID uuid.UUID) error
}

type AuditRepository interface {
	Record(ctx context.Context, entry *model.AuditEntry) error
}

// Notifier delivers best-effort notifications. Implementations must never be
// load-bearing: services log and swallow any error.
type Notifier interface {
	Notify(ctx context.Context, recipient, template string, data map[string]any) error
}

// Charger invokes the payment gateway. It returns the gateway reference of the
// completed charge; any error leaves the booking in its prior state.
type Charger interface {
	Charge(ctx context.Context, booking *model.Booking) (string, error)
}
