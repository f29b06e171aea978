package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration, credential checks and the admin
// side of client verification.
type UserService struct {
	userRepo  UserRepository
	auditRepo AuditRepository
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewUserService(userRepo UserRepository, auditRepo AuditRepository, notifier Notifier, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
}

// Register creates an account with a bcrypt-hashed password. Client accounts
// start unverified; admin accounts are never self-registered.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return nil, NewValidationError("email", "must not be empty")
	}
	if len(input.Password) < 8 {
		return nil, NewValidationError("password", "must be at least 8 characters")
	}
	switch input.Role {
	case model.RoleClient, model.RoleExpert:
	case "":
		input.Role = model.RoleClient
	default:
		return nil, NewValidationError("role", "must be client or expert")
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("email", "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         input.Role,
		ClientStatus: model.ClientStatusPending,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	entry := &model.AuditEntry{
		ActorID:     &user.ID,
		EventType:   model.AuditUserRegistered,
		Description: "User registered",
		Metadata:    map[string]any{"role": string(user.Role)},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}

	if err := s.notifier.Notify(ctx, user.Email, "welcome", map[string]any{
		"first_name": user.FirstName,
	}); err != nil {
		s.logger.Warn("Notification failed", zap.Error(err))
	}

	return user, nil
}

// Authenticate verifies the credentials and returns the account. Disabled
// accounts fail the same way as bad credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrNotAuthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SetClientStatus is the admin verification decision for a client account.
func (s *UserService) SetClientStatus(ctx context.Context, userID, adminID uuid.UUID, status model.ClientStatus) error {
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

	switch status {
	case model.ClientStatusVerified, model.ClientStatusRejected, model.ClientStatusPending:
	default:
		return NewValidationError("status", "unknown client status")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}

	if err := s.userRepo.UpdateClientStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("update client status: %w", err)
	}

	s.logger.Info("Client status changed",
		zap.String("user_id", userID.String()),
		zap.String("status", string(status)),
	)

	entry := &model.AuditEntry{
		ActorID:     &adminID,
		EventType:   model.AuditAdminAction,
		Description: fmt.Sprintf("Client status set to %s", status),
		Metadata:    map[string]any{"user_id": userID.String()},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}

	if err := s.notifier.Notify(ctx, user.Email, "client_status_changed", map[string]any{
		"status": string(status),
	}); err != nil {
		s.logger.Warn("Notification failed", zap.Error(err))
	}

	return nil
}
