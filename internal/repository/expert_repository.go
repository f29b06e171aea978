package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpertRepository struct {
	*base.Repository
}

func NewExpertRepository(pool *pgxpool.Pool) *ExpertRepository {
	return &ExpertRepository{Repository: base.NewRepository(pool)}
}

const expertColumns = `
	id, user_id, headline, bio, timezone, years_experience, hourly_rate, currency,
	verification_status, reviewed_by, reviewed_at, verification_notes,
	average_rating, total_reviews, total_consultations, total_earnings,
	created_at, updated_at
`

func (r *ExpertRepository) scanProfile(row interface{ Scan(...any) error }) (*model.ExpertProfile, error) {
	var p model.ExpertProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Headline,
		&p.Bio,
		&p.Timezone,
		&p.YearsExperience,
		&p.HourlyRate,
		&p.Currency,
		&p.VerificationStatus,
		&p.ReviewedBy,
		&p.ReviewedAt,
		&p.VerificationNotes,
		&p.AverageRating,
		&p.TotalReviews,
		&p.TotalConsultations,
		&p.TotalEarnings,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ExpertRepository) Create(ctx context.Context, profile *model.ExpertProfile) error {
	query := `
		INSERT INTO expert_profiles (user_id, headline, bio, timezone, years_experience, hourly_rate, currency, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		profile.UserID,
		profile.Headline,
		profile.Bio,
		profile.Timezone,
		profile.YearsExperience,
		profile.HourlyRate,
		profile.Currency,
		profile.VerificationStatus,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create expert profile: %w", err)
	}

	return nil
}

func (r *ExpertRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExpertProfile, error) {
	query := `SELECT ` + expertColumns + ` FROM expert_profiles WHERE id = $1`

	profile, err := r.scanProfile(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expert by id: %w", err)
	}

	if err := r.loadTags(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

func (r *ExpertRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.ExpertProfile, error) {
	query := `SELECT ` + expertColumns + ` FROM expert_profiles WHERE user_id = $1`

	profile, err := r.scanProfile(r.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expert by user id: %w", err)
	}

	if err := r.loadTags(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

func (r *ExpertRepository) ListActive(ctx context.Context) ([]*model.ExpertProfile, error) {
	query := `
		SELECT ` + expertColumns + `
		FROM expert_profiles
		WHERE verification_status = 'active'
		ORDER BY average_rating DESC, total_reviews DESC
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active experts: %w", err)
	}
	defer rows.Close()

	var profiles []*model.ExpertProfile
	for rows.Next() {
		profile, err := r.scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expert profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func (r *ExpertRepository) UpdateVerification(ctx context.Context, profile *model.ExpertProfile) error {
	query := `
		UPDATE expert_profiles
		SET verification_status = $1,
		    reviewed_by = $2,
		    reviewed_at = $3,
		    verification_notes = $4,
		    updated_at = now()
		WHERE id = $5
	`

	affected, err := r.ExecAffected(
		ctx, query,
		profile.VerificationStatus,
		profile.ReviewedBy,
		profile.ReviewedAt,
		profile.VerificationNotes,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expert profile not found")
	}

	return nil
}

func (r *ExpertRepository) UpdateRatingStats(ctx context.Context, id uuid.UUID, average float64, total int) error {
	query := `
		UPDATE expert_profiles
		SET average_rating = $1, total_reviews = $2, updated_at = now()
		WHERE id = $3
	`

	if _, err := r.ExecAffected(ctx, query, average, total, id); err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}

	return nil
}

func (r *ExpertRepository) AccrueCompletion(ctx context.Context, id uuid.UUID, earnings int64) error {
	query := `
		UPDATE expert_profiles
		SET total_consultations = total_consultations + 1,
		    total_earnings = total_earnings + $1,
		    updated_at = now()
		WHERE id = $2
	`

	if _, err := r.ExecAffected(ctx, query, earnings, id); err != nil {
		return fmt.Errorf("accrue completion: %w", err)
	}

	return nil
}

// AttachTag links an expertise tag to the profile; duplicates are ignored.
func (r *ExpertRepository) AttachTag(ctx context.Context, profileID, tagID uuid.UUID) error {
	query := `
		INSERT INTO expert_profile_tags (profile_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.ExecAffected(ctx, query, profileID, tagID); err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}

	return nil
}

type TagRepository struct {
	*base.Repository
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{Repository: base.NewRepository(pool)}
}

func (r *TagRepository) Create(ctx context.Context, tag *model.ExpertiseTag) error {
	query := `
		INSERT INTO expertise_tags (name, slug, tag_type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, tag.Name, tag.Slug, tag.TagType).Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}

	return nil
}

func (r *TagRepository) List(ctx context.Context) ([]*model.ExpertiseTag, error) {
	query := `
		SELECT id, name, slug, tag_type, created_at
		FROM expertise_tags
		ORDER BY tag_type, name
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []*model.ExpertiseTag
	for rows.Next() {
		var tag model.ExpertiseTag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.TagType, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}

	return tags, nil
}

func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*model.ExpertiseTag, error) {
	query := `
		SELECT id, name, slug, tag_type, created_at
		FROM expertise_tags
		WHERE slug = $1
	`

	var tag model.ExpertiseTag
	err := r.QueryRow(ctx, query, slug).Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.TagType, &tag.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag by slug: %w", err)
	}

	return &tag, nil
}

func (r *ExpertRepository) loadTags(ctx context.Context, profile *model.ExpertProfile) error {
	query := `
		SELECT t.id, t.name, t.slug, t.tag_type, t.created_at
		FROM expertise_tags t
		JOIN expert_profile_tags pt ON pt.tag_id = t.id
		WHERE pt.profile_id = $1
		ORDER BY t.name
	`

	rows, err := r.Query(ctx, query, profile.ID)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag model.ExpertiseTag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.TagType, &tag.CreatedAt); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		profile.Tags = append(profile.Tags, &tag)
	}

	return nil
}
