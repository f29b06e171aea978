package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingConfig is the explicit configuration the booking workflow needs.
// It is passed in at construction time rather than read ambiently.
type BookingConfig struct {
	PaymentsEnabled bool
	DefaultCurrency string
}

type BookingService struct {
	cfg         BookingConfig
	userRepo    UserRepository
	expertRepo  ExpertRepository
	slotRepo    SlotRepository
	bookingRepo BookingRepository
	paymentRepo PaymentRepository
	threadRepo  ThreadRepository
	auditRepo   AuditRepository
	notifier    Notifier
	charger     Charger
	logger      *zap.Logger
	now         func() time.Time
}

func NewBookingService(
	cfg BookingConfig,
	userRepo UserRepository,
	expertRepo ExpertRepository,
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	paymentRepo PaymentRepository,
	threadRepo ThreadRepository,
	auditRepo AuditRepository,
	notifier Notifier,
	charger Charger,
	logger *zap.Logger,
) *BookingService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "GBP"
	}
	return &BookingService{
		cfg:         cfg,
		userRepo:    userRepo,
		expertRepo:  expertRepo,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		threadRepo:  threadRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		charger:     charger,
		logger:      logger,
		now:         time.Now,
	}
}

// checkRun verifies that slots form the full contiguous run of n 30-minute
// units starting at anchorStart, all available.
func checkRun(slots []*model.Slot, anchorStart time.Time, n int) bool {
	if len(slots) != n {
		return false
	}
	for i, slot := range slots {
		expected := anchorStart.Add(time.Duration(i) * model.SlotDuration)
		if !slot.StartTime.Equal(expected) {
			return false
		}
		if slot.Status != model.SlotStatusAvailable {
			return false
		}
	}
	return true
}

func validDuration(durationMinutes int) error {
	if durationMinutes <= 0 || durationMinutes%model.SlotMinutes != 0 {
		return NewValidationError("duration_minutes", "must be a positive multiple of 30")
	}
	return nil
}

// FindAvailableWindows scans the expert's available slots in ascending start
// order and returns every window where a full contiguous run of the requested
// duration exists. Each anchor slot yields at most one window.
func (s *BookingService) FindAvailableWindows(ctx context.Context, expertID uuid.UUID, from, to time.Time, durationMinutes int) ([]model.Window, error) {
	if err := validDuration(durationMinutes); err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.ListAvailable(ctx, expertID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	n := durationMinutes / model.SlotMinutes
	var windows []model.Window

	for i, anchor := range slots {
		if i+n > len(slots) {
			break
		}
		if checkRun(slots[i:i+n], anchor.StartTime, n) {
			windows = append(windows, model.Window{
				AnchorSlotID: anchor.ID,
				Start:        anchor.StartTime,
				End:          anchor.StartTime.Add(time.Duration(durationMinutes) * time.Minute),
			})
		}
	}

	return windows, nil
}

// CreateBooking reserves a contiguous run of slots starting at the anchor and
// creates the booking in requested state. The reserve step is a single atomic
// compare-and-swap over the whole run: under concurrent attempts on
// overlapping slots exactly one booking wins and the rest fail with
// ErrSlotUnavailable, leaving no partial reservation behind.
func (s *BookingService) CreateBooking(ctx context.Context, clientID, expertID, anchorSlotID uuid.UUID, durationMinutes int, serviceType model.ServiceType, problemStatement string) (*model.Booking, error) {
	if err := validDuration(durationMinutes); err != nil {
		return nil, err
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, ErrNotFound
	}

	expert, err := s.expertRepo.GetByID(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if expert == nil {
		return nil, ErrNotFound
	}
	if !expert.IsBookable() {
		return nil, NewValidationError("expert", "expert is not accepting bookings")
	}

	anchor, err := s.slotRepo.GetByID(ctx, anchorSlotID)
	if err != nil {
		return nil, fmt.Errorf("get anchor slot: %w", err)
	}
	if anchor == nil {
		return nil, ErrNotFound
	}
	if anchor.ExpertID != expertID {
		return nil, NewValidationError("slot", "slot does not belong to this expert")
	}
	if anchor.StartTime.Before(s.now()) {
		return nil, NewValidationError("slot", "slot is in the past")
	}

	n := durationMinutes / model.SlotMinutes
	run, err := s.slotRepo.GetRun(ctx, expertID, anchor.StartTime, n)
	if err != nil {
		return nil, fmt.Errorf("get slot run: %w", err)
	}
	if !checkRun(run, anchor.StartTime, n) {
		return nil, ErrSlotUnavailable
	}

	start := anchor.StartTime
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	booking := &model.Booking{
		ClientID:         clientID,
		ExpertID:         expertID,
		ServiceType:      serviceType,
		ProblemStatement: problemStatement,
		DurationMinutes:  durationMinutes,
		ScheduledStart:   &start,
		ScheduledEnd:     &end,
		Status:           model.BookingStatusDraft,
		Currency:         s.cfg.DefaultCurrency,
		MeetingRoomID:    "expertbridge-" + uuid.NewString(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	slotIDs := make([]uuid.UUID, len(run))
	for i, slot := range run {
		slotIDs[i] = slot.ID
	}

	reserved, err := s.slotRepo.Reserve(ctx, slotIDs, booking.ID)
	if err != nil {
		_ = s.bookingRepo.Delete(ctx, booking.ID)
		return nil, fmt.Errorf("reserve slots: %w", err)
	}
	if !reserved {
		// Lost the race: discard the draft, nothing was mutated.
		_ = s.bookingRepo.Delete(ctx, booking.ID)
		return nil, ErrSlotUnavailable
	}

	booking.Status = model.BookingStatusRequested
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		// Hand the run back: a draft that failed to become requested must not
		// keep its slots.
		if _, relErr := s.slotRepo.ReleaseByBooking(ctx, booking.ID); relErr != nil {
			s.logger.Error("Failed to release slots for dead draft",
				zap.Error(relErr),
				zap.String("booking_id", booking.ID.String()))
		}
		_ = s.bookingRepo.Delete(ctx, booking.ID)
		return nil, fmt.Errorf("update booking: %w", err)
	}

	if err := s.threadRepo.Create(ctx, &model.MessageThread{BookingID: booking.ID}); err != nil {
		s.logger.Warn("Failed to create message thread", zap.Error(err))
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("expert_id", expertID.String()),
		zap.Time("scheduled_start", start),
		zap.Int("duration_minutes", durationMinutes),
	)

	s.audit(ctx, &clientID, model.AuditBookingCreated,
		fmt.Sprintf("Booking created with expert %s", expertID),
		map[string]any{"booking_id": booking.ID.String()})
	s.notifyExpert(ctx, expert, "booking_requested", map[string]any{
		"booking_id": booking.ID.String(),
		"client":     client.FullName(),
		"start":      start,
	})

	return booking, nil
}

// SetPricing records the admin-set engagement amount on a booking that has
// not yet been scheduled.
func (s *BookingService) SetPricing(ctx context.Context, bookingID, actorID uuid.UUID, amount int64) error {
	if amount < 0 {
		return NewValidationError("amount", "must not be negative")
	}

	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	switch booking.Status {
	case model.BookingStatusRequested, model.BookingStatusAccepted:
	default:
		return ErrInvalidTransition
	}

	booking.Amount = amount
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	s.audit(ctx, &actorID, model.AuditAdminAction, "Booking priced",
		map[string]any{"booking_id": bookingID.String(), "amount": amount})

	return nil
}

// Accept moves a requested booking to accepted. Only the assigned expert may
// accept; the response timestamp is recorded.
func (s *BookingService) Accept(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return nil, err
	}
	if expert.UserID != actorID {
		return nil, ErrNotAuthorized
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusAccepted) {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	booking.Status = model.BookingStatusAccepted
	booking.RespondedAt = &now
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.logger.Info("Booking accepted",
		zap.String("booking_id", bookingID.String()),
		zap.String("expert_id", booking.ExpertID.String()),
	)

	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Booking accepted",
		map[string]any{"booking_id": bookingID.String()})
	s.notifyClient(ctx, booking.ClientID, "booking_accepted", map[string]any{
		"booking_id": bookingID.String(),
	})

	return booking, nil
}

// Decline is the expert's rejection of a requested booking. The consumed
// slots return to available as one unit.
func (s *BookingService) Decline(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return err
	}
	if expert.UserID != actorID {
		return ErrNotAuthorized
	}

	if booking.Status != model.BookingStatusRequested {
		return ErrInvalidTransition
	}

	if reason == "" {
		reason = "Declined by expert"
	}

	now := s.now()
	booking.Status = model.BookingStatusCancelled
	booking.RespondedAt = &now
	booking.CancelledAt = &now
	booking.CancelledBy = &actorID
	booking.CancellationReason = reason
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if _, err := s.slotRepo.ReleaseByBooking(ctx, bookingID); err != nil {
		return fmt.Errorf("release slots: %w", err)
	}

	s.logger.Info("Booking declined",
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", reason),
	)

	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Booking declined",
		map[string]any{"booking_id": bookingID.String(), "reason": reason})
	s.notifyClient(ctx, booking.ClientID, "booking_declined", map[string]any{
		"booking_id": bookingID.String(),
		"reason":     reason,
	})

	return nil
}

// Schedule confirms an accepted booking. When payments are enabled and the
// booking is priced, the gateway is charged first; a failed charge leaves the
// booking accepted so the caller can retry.
func (s *BookingService) Schedule(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != actorID && !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusScheduled) {
		return nil, ErrInvalidTransition
	}

	if s.cfg.PaymentsEnabled && booking.Amount > 0 {
		// A completed payment from an earlier attempt means the charge already
		// went through and only the status flip needs retrying.
		existing, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("get payment: %w", err)
		}
		if existing == nil || existing.Status != model.PaymentStatusCompleted {
			reference, err := s.charger.Charge(ctx, booking)
			if err != nil {
				return nil, fmt.Errorf("charge booking: %w", err)
			}

			now := s.now()
			payment := &model.Payment{
				BookingID:        booking.ID,
				PayerID:          booking.ClientID,
				Amount:           booking.Amount,
				Currency:         booking.Currency,
				Status:           model.PaymentStatusCompleted,
				GatewayReference: reference,
				PaidAt:           &now,
			}
			if err := s.paymentRepo.Create(ctx, payment); err != nil {
				s.logger.Error("Failed to record payment", zap.Error(err),
					zap.String("booking_id", bookingID.String()))
			}
			s.audit(ctx, &actorID, model.AuditPaymentRecorded, "Payment captured",
				map[string]any{"booking_id": bookingID.String(), "reference": reference})
		}
	}

	booking.Status = model.BookingStatusScheduled
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.logger.Info("Booking scheduled", zap.String("booking_id", bookingID.String()))
	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Booking scheduled",
		map[string]any{"booking_id": bookingID.String()})

	return booking, nil
}

// StartSession moves an accepted or scheduled booking into session once the
// scheduled start has been reached. Re-entering an in-session booking is a
// no-op.
func (s *BookingService) StartSession(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.requireParty(ctx, booking, actorID); err != nil {
		return nil, err
	}

	if booking.Status == model.BookingStatusInSession {
		return booking, nil
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusInSession) {
		return nil, ErrInvalidTransition
	}
	if booking.ScheduledStart != nil && s.now().Before(*booking.ScheduledStart) {
		return nil, ErrInvalidTransition
	}

	booking.Status = model.BookingStatusInSession
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	s.logger.Info("Session started", zap.String("booking_id", bookingID.String()))
	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Session started",
		map[string]any{"booking_id": bookingID.String()})

	return booking, nil
}

// MarkComplete records one party's completion flag. The booking transitions
// to completed only when both parties have marked it, at which point the
// expert's earnings accrue and the review window opens.
func (s *BookingService) MarkComplete(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return nil, err
	}

	switch actorID {
	case booking.ClientID:
		booking.CompletedByClient = true
	case expert.UserID:
		booking.CompletedByExpert = true
	default:
		return nil, ErrNotAuthorized
	}

	if booking.Status != model.BookingStatusInSession {
		return nil, ErrInvalidTransition
	}

	if booking.CompletedByExpert && booking.CompletedByClient {
		now := s.now()
		booking.Status = model.BookingStatusCompleted
		booking.CompletedAt = &now

		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return nil, fmt.Errorf("update booking: %w", err)
		}

		if err := s.expertRepo.AccrueCompletion(ctx, booking.ExpertID, booking.Amount); err != nil {
			s.logger.Error("Failed to accrue expert earnings", zap.Error(err),
				zap.String("booking_id", bookingID.String()))
		}

		s.logger.Info("Booking completed",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("amount", booking.Amount),
		)
		s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Session completed",
			map[string]any{"booking_id": bookingID.String()})
		s.notifyClient(ctx, booking.ClientID, "booking_completed", map[string]any{
			"booking_id": bookingID.String(),
		})

		return booking, nil
	}

	// Only one side has marked so far; status stays unchanged.
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	return booking, nil
}

// Cancel terminates a booking before completion and releases its slots as one
// unit. Cancelling an already-cancelled booking is a no-op.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return err
	}

	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return err
	}
	if booking.ClientID != actorID && expert.UserID != actorID && !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	if booking.Status == model.BookingStatusCancelled {
		return nil
	}
	if !booking.Status.CanTransitionTo(model.BookingStatusCancelled) {
		return ErrInvalidTransition
	}

	now := s.now()
	booking.Status = model.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = &actorID
	booking.CancellationReason = reason
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	released, err := s.slotRepo.ReleaseByBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("release slots: %w", err)
	}

	s.logger.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("actor_id", actorID.String()),
		zap.Int64("slots_released", released),
	)

	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Booking cancelled",
		map[string]any{"booking_id": bookingID.String(), "reason": reason})

	return nil
}

// Dispute freezes a booking for manual resolution. Admin only.
func (s *BookingService) Dispute(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusDisputed) {
		return ErrInvalidTransition
	}

	booking.Status = model.BookingStatusDisputed
	booking.CancellationReason = reason
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	s.logger.Warn("Booking disputed",
		zap.String("booking_id", bookingID.String()),
		zap.String("reason", reason),
	)
	s.audit(ctx, &actorID, model.AuditBookingStatusChange, "Booking disputed",
		map[string]any{"booking_id": bookingID.String(), "reason": reason})

	return nil
}

func (s *BookingService) GetByID(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	actor, err := s.requireUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != actorID && expert.UserID != actorID && !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	booking.Expert = expert
	return booking, nil
}

func (s *BookingService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	return s.bookingRepo.ListByClient(ctx, clientID)
}

func (s *BookingService) ListForExpert(ctx context.Context, expertID uuid.UUID) ([]*model.Booking, error) {
	return s.bookingRepo.ListByExpert(ctx, expertID)
}

func (s *BookingService) requireUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *BookingService) requireBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (s *BookingService) requireExpert(ctx context.Context, id uuid.UUID) (*model.ExpertProfile, error) {
	expert, err := s.expertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if expert == nil {
		return nil, ErrNotFound
	}
	return expert, nil
}

func (s *BookingService) requireParty(ctx context.Context, booking *model.Booking, actorID uuid.UUID) error {
	if booking.ClientID == actorID {
		return nil
	}
	expert, err := s.requireExpert(ctx, booking.ExpertID)
	if err != nil {
		return err
	}
	if expert.UserID == actorID {
		return nil
	}
	return ErrNotAuthorized
}

// audit writes a best-effort log entry; failures are logged and swallowed.
func (s *BookingService) audit(ctx context.Context, actorID *uuid.UUID, eventType model.AuditEventType, description string, metadata map[string]any) {
	entry := &model.AuditEntry{
		ActorID:     actorID,
		EventType:   eventType,
		Description: description,
		Metadata:    metadata,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}
}

func (s *BookingService) notifyExpert(ctx context.Context, expert *model.ExpertProfile, template string, data map[string]any) {
	user, err := s.userRepo.GetByID(ctx, expert.UserID)
	if err != nil || user == nil {
		s.logger.Warn("Failed to resolve expert user for notification",
			zap.String("expert_id", expert.ID.String()))
		return
	}
	if err := s.notifier.Notify(ctx, user.Email, template, data); err != nil {
		s.logger.Warn("Notification failed", zap.Error(err), zap.String("template", template))
	}
}

func (s *BookingService) notifyClient(ctx context.Context, clientID uuid.UUID, template string, data map[string]any) {
	user, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil || user == nil {
		s.logger.Warn("Failed to resolve client for notification",
			zap.String("client_id", clientID.String()))
		return
	}
	if err := s.notifier.Notify(ctx, user.Email, template, data); err != nil {
		s.logger.Warn("Notification failed", zap.Error(err), zap.String("template", template))
	}
}
