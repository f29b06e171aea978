package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	ruleRepo   AvailabilityRuleRepository
	exceptRepo DateExceptionRepository
	slotRepo   SlotRepository
	expertRepo ExpertRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewAvailabilityService(
	ruleRepo AvailabilityRuleRepository,
	exceptRepo DateExceptionRepository,
	slotRepo SlotRepository,
	expertRepo ExpertRepository,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		ruleRepo:   ruleRepo,
		exceptRepo: exceptRepo,
		slotRepo:   slotRepo,
		expertRepo: expertRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRule adds a weekly availability rule and extends the slot horizon so
// the new window becomes bookable immediately.
func (s *AvailabilityService) CreateRule(ctx context.Context, expertID uuid.UUID, dayOfWeek, startMinute, endMinute int, horizonDays int) (*model.AvailabilityRule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, NewValidationError("day_of_week", "must be between 0 and 6")
	}
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return nil, NewValidationError("start_time", "start must be before end within one day")
	}

	exists, err := s.ruleRepo.Exists(ctx, expertID, dayOfWeek, startMinute, endMinute)
	if err != nil {
		return nil, fmt.Errorf("check rule exists: %w", err)
	}
	if exists {
		return nil, NewValidationError("rule", "an identical availability rule already exists")
	}

	rule := &model.AvailabilityRule{
		ExpertID:    expertID,
		DayOfWeek:   dayOfWeek,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		IsActive:    true,
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.logger.Info("Availability rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("expert_id", expertID.String()),
		zap.Int("day_of_week", dayOfWeek),
	)

	count, err := s.GenerateSlots(ctx, expertID, horizonDays)
	if err != nil {
		// The rule itself is persisted; slot materialization will be retried
		// by the daily horizon task.
		s.logger.Error("Failed to generate slots for new rule", zap.Error(err))
		return rule, nil
	}

	s.logger.Info("Slots generated for new rule",
		zap.String("rule_id", rule.ID.String()),
		zap.Int("count", count),
	)

	return rule, nil
}

func (s *AvailabilityService) ListRules(ctx context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error) {
	return s.ruleRepo.GetByExpertID(ctx, expertID)
}

func (s *AvailabilityService) SetRuleActive(ctx context.Context, expertID, ruleID uuid.UUID, active bool) error {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("get rule: %w", err)
	}
	if rule == nil {
		return ErrNotFound
	}
	if rule.ExpertID != expertID {
		return ErrNotAuthorized
	}
	return s.ruleRepo.SetActive(ctx, ruleID, active)
}

func (s *AvailabilityService) DeleteRule(ctx context.Context, expertID, ruleID uuid.UUID) error {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("get rule: %w", err)
	}
	if rule == nil {
		return ErrNotFound
	}
	if rule.ExpertID != expertID {
		return ErrNotAuthorized
	}

	// Already-materialized slots stay: generation never deletes, removal only
	// stops future materialization.
	return s.ruleRepo.Delete(ctx, ruleID)
}

// GenerateSlots materializes 30-minute slots for the expert over the rolling
// horizon. Dates with an exception are skipped entirely; past start times are
// skipped; existing slots are left untouched whatever their status, so the
// operation is idempotent and never downgrades a booked slot.
func (s *AvailabilityService) GenerateSlots(ctx context.Context, expertID uuid.UUID, horizonDays int) (int, error) {
	if horizonDays < 1 {
		return 0, NewValidationError("horizon_days", "must be at least 1")
	}

	rules, err := s.ruleRepo.ListActiveByExpert(ctx, expertID)
	if err != nil {
		return 0, fmt.Errorf("list active rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	now := s.now()
	location := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)

	exceptions, err := s.exceptRepo.ListByExpertRange(ctx, expertID, today, today.AddDate(0, 0, horizonDays))
	if err != nil {
		return 0, fmt.Errorf("list date exceptions: %w", err)
	}
	excepted := make(map[string]struct{}, len(exceptions))
	for _, exc := range exceptions {
		excepted[exc.Date.Format("2006-01-02")] = struct{}{}
	}

	rulesByDay := make(map[int][]*model.AvailabilityRule)
	for _, rule := range rules {
		rulesByDay[rule.DayOfWeek] = append(rulesByDay[rule.DayOfWeek], rule)
	}

	created := 0
	for offset := 0; offset < horizonDays; offset++ {
		date := today.AddDate(0, 0, offset)
		if _, ok := excepted[date.Format("2006-01-02")]; ok {
			continue
		}

		for _, rule := range rulesByDay[int(date.Weekday())] {
			// Slice the rule window into full 30-minute units; a trailing
			// remainder below one unit is dropped.
			for m := rule.StartMinute; m+model.SlotMinutes <= rule.EndMinute; m += model.SlotMinutes {
				start := date.Add(time.Duration(m) * time.Minute)
				if start.Before(now) {
					continue
				}

				slot := &model.Slot{
					ExpertID:  expertID,
					StartTime: start,
					EndTime:   start.Add(model.SlotDuration),
					Status:    model.SlotStatusAvailable,
				}

				inserted, err := s.slotRepo.CreateIfAbsent(ctx, slot)
				if err != nil {
					s.logger.Warn("Failed to create slot",
						zap.Error(err),
						zap.Time("start_time", start),
					)
					continue
				}
				if inserted {
					created++
				}
			}
		}
	}

	return created, nil
}

// GenerateSlotsForAllExperts extends the horizon for every active expert. The
// background scheduler calls this daily.
func (s *AvailabilityService) GenerateSlotsForAllExperts(ctx context.Context, horizonDays int) error {
	experts, err := s.expertRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active experts: %w", err)
	}

	total := 0
	for _, expert := range experts {
		count, err := s.GenerateSlots(ctx, expert.ID, horizonDays)
		if err != nil {
			s.logger.Error("Failed to generate slots for expert",
				zap.Error(err),
				zap.String("expert_id", expert.ID.String()),
			)
			continue
		}
		total += count
	}

	s.logger.Info("Slot horizon extended",
		zap.Int("experts", len(experts)),
		zap.Int("slots_created", total),
	)

	return nil
}

// BlockDate records a date exception and reconciles already-materialized
// slots: every still-available slot on that date flips to blocked. Booked
// slots are left alone; their bookings must be cancelled individually.
func (s *AvailabilityService) BlockDate(ctx context.Context, expertID uuid.UUID, date time.Time, reason string) (*model.DateException, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	existing, err := s.exceptRepo.GetByExpertAndDate(ctx, expertID, day)
	if err != nil {
		return nil, fmt.Errorf("get date exception: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("date", "date is already blocked")
	}

	exc := &model.DateException{
		ExpertID: expertID,
		Date:     day,
		Reason:   reason,
	}
	if err := s.exceptRepo.Create(ctx, exc); err != nil {
		return nil, fmt.Errorf("create date exception: %w", err)
	}

	blocked, err := s.slotRepo.BlockAvailableOnDate(ctx, expertID, day)
	if err != nil {
		return nil, fmt.Errorf("block slots on date: %w", err)
	}

	s.logger.Info("Date blocked",
		zap.String("expert_id", expertID.String()),
		zap.Time("date", day),
		zap.Int64("slots_blocked", blocked),
	)

	return exc, nil
}

// UnblockDate removes the expert's own exception. Already-blocked slots stay
// blocked until the generator materializes over the date again on a later run.
func (s *AvailabilityService) UnblockDate(ctx context.Context, expertID, exceptionID uuid.UUID) error {
	exc, err := s.exceptRepo.GetByID(ctx, exceptionID)
	if err != nil {
		return fmt.Errorf("get date exception: %w", err)
	}
	if exc == nil {
		return ErrNotFound
	}
	if exc.ExpertID != expertID {
		return ErrNotAuthorized
	}
	return s.exceptRepo.Delete(ctx, exceptionID)
}

func (s *AvailabilityService) ListExceptions(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.DateException, error) {
	return s.exceptRepo.ListByExpertRange(ctx, expertID, from, to)
}

// Schedule returns all of an expert's slots in the range, any status, for the
// calendar view.
func (s *AvailabilityService) Schedule(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	return s.slotRepo.ListByExpert(ctx, expertID, from, to)
}
