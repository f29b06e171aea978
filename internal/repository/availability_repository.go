package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRuleRepository struct {
	*base.Repository
}

func NewAvailabilityRuleRepository(pool *pgxpool.Pool) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{Repository: base.NewRepository(pool)}
}

func (r *AvailabilityRuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (expert_id, day_of_week, start_minute, end_minute, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		rule.ExpertID,
		rule.DayOfWeek,
		rule.StartMinute,
		rule.EndMinute,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)

	if err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}

	return nil
}

func (r *AvailabilityRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	query := `
		SELECT id, expert_id, day_of_week, start_minute, end_minute, is_active, created_at
		FROM availability_rules
		WHERE id = $1
	`

	var rule model.AvailabilityRule
	err := r.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.ExpertID,
		&rule.DayOfWeek,
		&rule.StartMinute,
		&rule.EndMinute,
		&rule.IsActive,
		&rule.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rule by id: %w", err)
	}

	return &rule, nil
}

func (r *AvailabilityRuleRepository) GetByExpertID(ctx context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, expert_id, day_of_week, start_minute, end_minute, is_active, created_at
		FROM availability_rules
		WHERE expert_id = $1
		ORDER BY day_of_week, start_minute
	`

	return r.queryRules(ctx, query, expertID)
}

func (r *AvailabilityRuleRepository) ListActiveByExpert(ctx context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, expert_id, day_of_week, start_minute, end_minute, is_active, created_at
		FROM availability_rules
		WHERE expert_id = $1 AND is_active
		ORDER BY day_of_week, start_minute
	`

	return r.queryRules(ctx, query, expertID)
}

func (r *AvailabilityRuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]*model.AvailabilityRule, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		err := rows.Scan(
			&rule.ID,
			&rule.ExpertID,
			&rule.DayOfWeek,
			&rule.StartMinute,
			&rule.EndMinute,
			&rule.IsActive,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, &rule)
	}

	return rules, nil
}

func (r *AvailabilityRuleRepository) Exists(ctx context.Context, expertID uuid.UUID, day, startMinute, endMinute int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM availability_rules
			WHERE expert_id = $1 AND day_of_week = $2 AND start_minute = $3 AND end_minute = $4
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, expertID, day, startMinute, endMinute).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check rule exists: %w", err)
	}

	return exists, nil
}

func (r *AvailabilityRuleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE availability_rules
		SET is_active = $1
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set rule active: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

func (r *AvailabilityRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM availability_rules WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found")
	}

	return nil
}

type DateExceptionRepository struct {
	*base.Repository
}

func NewDateExceptionRepository(pool *pgxpool.Pool) *DateExceptionRepository {
	return &DateExceptionRepository{Repository: base.NewRepository(pool)}
}

func (r *DateExceptionRepository) Create(ctx context.Context, exc *model.DateException) error {
	query := `
		INSERT INTO date_exceptions (expert_id, date, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, exc.ExpertID, exc.Date, exc.Reason).Scan(&exc.ID, &exc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create date exception: %w", err)
	}

	return nil
}

func (r *DateExceptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DateException, error) {
	query := `
		SELECT id, expert_id, date, reason, created_at
		FROM date_exceptions
		WHERE id = $1
	`

	var exc model.DateException
	err := r.QueryRow(ctx, query, id).Scan(
		&exc.ID,
		&exc.ExpertID,
		&exc.Date,
		&exc.Reason,
		&exc.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get date exception: %w", err)
	}

	return &exc, nil
}

func (r *DateExceptionRepository) GetByExpertAndDate(ctx context.Context, expertID uuid.UUID, date time.Time) (*model.DateException, error) {
	query := `
		SELECT id, expert_id, date, reason, created_at
		FROM date_exceptions
		WHERE expert_id = $1 AND date = $2
	`

	var exc model.DateException
	err := r.QueryRow(ctx, query, expertID, date).Scan(
		&exc.ID,
		&exc.ExpertID,
		&exc.Date,
		&exc.Reason,
		&exc.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get date exception: %w", err)
	}

	return &exc, nil
}

func (r *DateExceptionRepository) ListByExpertRange(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.DateException, error) {
	query := `
		SELECT id, expert_id, date, reason, created_at
		FROM date_exceptions
		WHERE expert_id = $1 AND date >= $2 AND date < $3
		ORDER BY date
	`

	rows, err := r.Query(ctx, query, expertID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list date exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []*model.DateException
	for rows.Next() {
		var exc model.DateException
		err := rows.Scan(
			&exc.ID,
			&exc.ExpertID,
			&exc.Date,
			&exc.Reason,
			&exc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan date exception: %w", err)
		}
		exceptions = append(exceptions, &exc)
	}

	return exceptions, nil
}

func (r *DateExceptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM date_exceptions WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete date exception: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("date exception not found")
	}

	return nil
}
