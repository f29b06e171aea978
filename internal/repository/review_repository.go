package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	*base.Repository
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{Repository: base.NewRepository(pool)}
}

func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (booking_id, reviewer_id, reviewee_id, rating, comment, is_public)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		review.BookingID,
		review.ReviewerID,
		review.RevieweeID,
		review.Rating,
		review.Comment,
		review.IsPublic,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error) {
	query := `
		SELECT id, booking_id, reviewer_id, reviewee_id, rating, comment, is_public, created_at
		FROM reviews
		WHERE booking_id = $1
	`

	var review model.Review
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&review.ID,
		&review.BookingID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.Rating,
		&review.Comment,
		&review.IsPublic,
		&review.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review by booking: %w", err)
	}

	return &review, nil
}

func (r *ReviewRepository) AggregateForReviewee(ctx context.Context, revieweeID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE reviewee_id = $1
	`

	var average float64
	var total int
	err := r.QueryRow(ctx, query, revieweeID).Scan(&average, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate reviews: %w", err)
	}

	return average, total, nil
}
