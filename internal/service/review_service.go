package service

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService records post-session ratings and keeps the expert's aggregate
// stats in step.
type ReviewService struct {
	reviewRepo  ReviewRepository
	bookingRepo BookingRepository
	expertRepo  ExpertRepository
	logger      *zap.Logger
}

func NewReviewService(reviewRepo ReviewRepository, bookingRepo BookingRepository, expertRepo ExpertRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		expertRepo:  expertRepo,
		logger:      logger,
	}
}

// Submit records the client's review of a completed booking. One review per
// booking, client side only.
func (s *ReviewService) Submit(ctx context.Context, bookingID, reviewerID uuid.UUID, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, NewValidationError("rating", "must be between 1 and 5")
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.ClientID != reviewerID {
		return nil, ErrNotAuthorized
	}
	if booking.Status != model.BookingStatusCompleted {
		return nil, NewValidationError("booking", "only completed bookings can be reviewed")
	}

	existing, err := s.reviewRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if existing != nil {
		return nil, NewValidationError("booking", "this booking has already been reviewed")
	}

	review := &model.Review{
		BookingID:  bookingID,
		ReviewerID: reviewerID,
		RevieweeID: booking.ExpertID,
		Rating:     rating,
		Comment:    comment,
		IsPublic:   true,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	average, total, err := s.reviewRepo.AggregateForReviewee(ctx, booking.ExpertID)
	if err != nil {
		s.logger.Error("Failed to aggregate reviews", zap.Error(err),
			zap.String("expert_id", booking.ExpertID.String()))
		return review, nil
	}
	if err := s.expertRepo.UpdateRatingStats(ctx, booking.ExpertID, average, total); err != nil {
		s.logger.Error("Failed to update rating stats", zap.Error(err),
			zap.String("expert_id", booking.ExpertID.String()))
	}

	s.logger.Info("Review submitted",
		zap.String("booking_id", bookingID.String()),
		zap.Int("rating", rating),
	)

	return review, nil
}

func (s *ReviewService) GetForBooking(ctx context.Context, bookingID uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrNotFound
	}
	return review, nil
}
