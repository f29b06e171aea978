package service

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessagingService is the per-booking conversation between client and expert.
type MessagingService struct {
	threadRepo  ThreadRepository
	messageRepo MessageRepository
	bookingRepo BookingRepository
	expertRepo  ExpertRepository
	logger      *zap.Logger
}

func NewMessagingService(threadRepo ThreadRepository, messageRepo MessageRepository, bookingRepo BookingRepository, expertRepo ExpertRepository, logger *zap.Logger) *MessagingService {
	return &MessagingService{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		bookingRepo: bookingRepo,
		expertRepo:  expertRepo,
		logger:      logger,
	}
}

// Post appends a message to the booking's thread, creating the thread lazily
// if booking creation did not. Only the two parties may post.
func (s *MessagingService) Post(ctx context.Context, bookingID, senderID uuid.UUID, content string) (*model.Message, error) {
	if content == "" {
		return nil, NewValidationError("content", "must not be empty")
	}

	booking, err := s.requireParty(ctx, bookingID, senderID)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, NewValidationError("booking", "conversation is closed")
	}

	thread, err := s.threadRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		thread = &model.MessageThread{BookingID: bookingID}
		if err := s.threadRepo.Create(ctx, thread); err != nil {
			return nil, fmt.Errorf("create thread: %w", err)
		}
	}

	message := &model.Message{
		ThreadID: thread.ID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	return message, nil
}

// List returns the thread's messages oldest first and marks the other side's
// messages as read by the caller.
func (s *MessagingService) List(ctx context.Context, bookingID, readerID uuid.UUID) ([]*model.Message, error) {
	if _, err := s.requireParty(ctx, bookingID, readerID); err != nil {
		return nil, err
	}

	thread, err := s.threadRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return []*model.Message{}, nil
	}

	messages, err := s.messageRepo.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if err := s.messageRepo.MarkRead(ctx, thread.ID, readerID); err != nil {
		s.logger.Warn("Failed to mark messages read", zap.Error(err),
			zap.String("thread_id", thread.ID.String()))
	}

	return messages, nil
}

func (s *MessagingService) requireParty(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.ClientID == actorID {
		return booking, nil
	}

	expert, err := s.expertRepo.GetByID(ctx, booking.ExpertID)
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if expert != nil && expert.UserID == actorID {
		return booking, nil
	}
	return nil, ErrNotAuthorized
}
