package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpertService owns expert profiles and the admin vetting workflow. Only
// active experts are bookable; the verification table in the model package
// decides which moves are legal.
type ExpertService struct {
	expertRepo ExpertRepository
	tagRepo    TagRepository
	userRepo   UserRepository
	auditRepo  AuditRepository
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewExpertService(
	expertRepo ExpertRepository,
	tagRepo TagRepository,
	userRepo UserRepository,
	auditRepo AuditRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ExpertService {
	return &ExpertService{
		expertRepo: expertRepo,
		tagRepo:    tagRepo,
		userRepo:   userRepo,
		auditRepo:  auditRepo,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

type ApplyInput struct {
	Headline        string
	Bio             string
	Timezone        string
	YearsExperience int
	HourlyRate      int64
	Currency        string
}

// Apply creates the expert profile in applied state. One profile per user.
func (s *ExpertService) Apply(ctx context.Context, userID uuid.UUID, input ApplyInput) (*model.ExpertProfile, error) {
	if input.Headline == "" {
		return nil, NewValidationError("headline", "must not be empty")
	}
	if input.HourlyRate < 0 {
		return nil, NewValidationError("hourly_rate", "must not be negative")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	existing, err := s.expertRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("profile", "an expert profile already exists for this user")
	}

	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	if input.Currency == "" {
		input.Currency = "GBP"
	}

	profile := &model.ExpertProfile{
		UserID:             userID,
		Headline:           input.Headline,
		Bio:                input.Bio,
		Timezone:           input.Timezone,
		YearsExperience:    input.YearsExperience,
		HourlyRate:         input.HourlyRate,
		Currency:           input.Currency,
		VerificationStatus: model.VerificationStatusApplied,
	}
	if err := s.expertRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("Expert application received",
		zap.String("profile_id", profile.ID.String()),
		zap.String("user_id", userID.String()),
	)

	return profile, nil
}

func (s *ExpertService) GetByID(ctx context.Context, id uuid.UUID) (*model.ExpertProfile, error) {
	profile, err := s.expertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (s *ExpertService) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.ExpertProfile, error) {
	profile, err := s.expertRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ListBookable returns the active experts for the public directory.
func (s *ExpertService) ListBookable(ctx context.Context) ([]*model.ExpertProfile, error) {
	return s.expertRepo.ListActive(ctx)
}

// Vet moves an application to vetted after screening.
func (s *ExpertService) Vet(ctx context.Context, profileID, adminID uuid.UUID, notes string) error {
	return s.setVerification(ctx, profileID, adminID, model.VerificationStatusVetted, notes)
}

// Activate makes a vetted expert bookable.
func (s *ExpertService) Activate(ctx context.Context, profileID, adminID uuid.UUID) error {
	return s.setVerification(ctx, profileID, adminID, model.VerificationStatusActive, "")
}

// RequestChanges sends the profile back to the expert with notes. The expert
// re-applies once the changes are in.
func (s *ExpertService) RequestChanges(ctx context.Context, profileID, adminID uuid.UUID, notes string) error {
	if notes == "" {
		return NewValidationError("notes", "must describe the required changes")
	}
	return s.setVerification(ctx, profileID, adminID, model.VerificationStatusNeedsChanges, notes)
}

// Reject permanently declines the application.
func (s *ExpertService) Reject(ctx context.Context, profileID, adminID uuid.UUID, notes string) error {
	return s.setVerification(ctx, profileID, adminID, model.VerificationStatusRejected, notes)
}

// Reapply lets the expert resubmit after needs_changes.
func (s *ExpertService) Reapply(ctx context.Context, profileID, actorID uuid.UUID) error {
	profile, err := s.expertRepo.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return ErrNotFound
	}
	if profile.UserID != actorID {
		return ErrNotAuthorized
	}
	if !profile.VerificationStatus.CanTransitionTo(model.VerificationStatusApplied) {
		return ErrInvalidTransition
	}

	profile.VerificationStatus = model.VerificationStatusApplied
	profile.ReviewedBy = nil
	profile.ReviewedAt = nil
	if err := s.expertRepo.UpdateVerification(ctx, profile); err != nil {
		return fmt.Errorf("update verification: %w", err)
	}

	s.logger.Info("Expert reapplied", zap.String("profile_id", profileID.String()))
	return nil
}

func (s *ExpertService) setVerification(ctx context.Context, profileID, adminID uuid.UUID, next model.VerificationStatus, notes string) error {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return ErrNotFound
	}
	if !admin.IsAdmin() {
		return ErrNotAuthorized
	}

	profile, err := s.expertRepo.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return ErrNotFound
	}

	if !profile.VerificationStatus.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	prev := profile.VerificationStatus
	now := s.now()
	profile.VerificationStatus = next
	profile.ReviewedBy = &adminID
	profile.ReviewedAt = &now
	if notes != "" {
		profile.VerificationNotes = notes
	}
	if err := s.expertRepo.UpdateVerification(ctx, profile); err != nil {
		return fmt.Errorf("update verification: %w", err)
	}

	s.logger.Info("Expert verification changed",
		zap.String("profile_id", profileID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)

	entry := &model.AuditEntry{
		ActorID:     &adminID,
		EventType:   model.AuditVerificationChange,
		Description: fmt.Sprintf("Expert verification %s -> %s", prev, next),
		Metadata:    map[string]any{"profile_id": profileID.String()},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}

	if user, err := s.userRepo.GetByID(ctx, profile.UserID); err == nil && user != nil {
		if err := s.notifier.Notify(ctx, user.Email, "verification_changed", map[string]any{
			"status": string(next),
			"notes":  notes,
		}); err != nil {
			s.logger.Warn("Notification failed", zap.Error(err))
		}
	}

	return nil
}

// CreateTag adds an expertise tag to the shared taxonomy. Admin only.
func (s *ExpertService) CreateTag(ctx context.Context, adminID uuid.UUID, name string, tagType model.TagType) (*model.ExpertiseTag, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	if !admin.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "must not be empty")
	}
	switch tagType {
	case model.TagTypeDiscipline, model.TagTypeIndustry:
	default:
		return nil, NewValidationError("tag_type", "must be discipline or industry")
	}

	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	existing, err := s.tagRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get tag by slug: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("name", "a tag with this name already exists")
	}

	tag := &model.ExpertiseTag{Name: name, Slug: slug, TagType: tagType}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	return tag, nil
}

func (s *ExpertService) ListTags(ctx context.Context) ([]*model.ExpertiseTag, error) {
	return s.tagRepo.List(ctx)
}

// TagExpert attaches a taxonomy tag to a profile. The owning expert or an
// admin may tag.
func (s *ExpertService) TagExpert(ctx context.Context, profileID, actorID uuid.UUID, slug string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return ErrNotFound
	}

	profile, err := s.expertRepo.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return ErrNotFound
	}
	if profile.UserID != actorID && !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	tag, err := s.tagRepo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("get tag by slug: %w", err)
	}
	if tag == nil {
		return ErrNotFound
	}

	if err := s.expertRepo.AttachTag(ctx, profileID, tag.ID); err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}

	return nil
}
