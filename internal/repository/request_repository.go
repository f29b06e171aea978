package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRepository struct {
	*base.Repository
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{Repository: base.NewRepository(pool)}
}

const requestColumns = `
	id, client_id, organisation_name, engagement_type, urgency, brief,
	confidentiality_level, status, matched_expert_id, matched_by_id, matched_at,
	proposed_price, created_at, updated_at
`

func scanRequest(row interface{ Scan(...any) error }) (*model.ClientRequest, error) {
	var req model.ClientRequest
	err := row.Scan(
		&req.ID,
		&req.ClientID,
		&req.OrganisationName,
		&req.EngagementType,
		&req.Urgency,
		&req.Brief,
		&req.Confidentiality,
		&req.Status,
		&req.MatchedExpertID,
		&req.MatchedByID,
		&req.MatchedAt,
		&req.ProposedPrice,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) Create(ctx context.Context, req *model.ClientRequest) error {
	query := `
		INSERT INTO client_requests (
			client_id, organisation_name, engagement_type, urgency, brief,
			confidentiality_level, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.ClientID,
		req.OrganisationName,
		req.EngagementType,
		req.Urgency,
		req.Brief,
		req.Confidentiality,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ClientRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM client_requests WHERE id = $1`

	req, err := scanRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request by id: %w", err)
	}

	return req, nil
}

func (r *RequestRepository) Update(ctx context.Context, req *model.ClientRequest) error {
	query := `
		UPDATE client_requests
		SET status = $1,
		    matched_expert_id = $2,
		    matched_by_id = $3,
		    matched_at = $4,
		    proposed_price = $5,
		    updated_at = now()
		WHERE id = $6
	`

	affected, err := r.ExecAffected(
		ctx, query,
		req.Status,
		req.MatchedExpertID,
		req.MatchedByID,
		req.MatchedAt,
		req.ProposedPrice,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request not found")
	}

	return nil
}

func (r *RequestRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*model.ClientRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM client_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	return r.queryRequests(ctx, query, clientID)
}

func (r *RequestRepository) ListByStatus(ctx context.Context, status model.RequestStatus) ([]*model.ClientRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM client_requests
		WHERE status = $1
		ORDER BY created_at
	`

	return r.queryRequests(ctx, query, status)
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]*model.ClientRequest, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.ClientRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, nil
}

type MatchRepository struct {
	*base.Repository
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{Repository: base.NewRepository(pool)}
}

func (r *MatchRepository) Create(ctx context.Context, match *model.ExpertMatch) error {
	query := `
		INSERT INTO expert_matches (request_id, expert_id, proposed_by_id, status, note_to_client)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		match.RequestID,
		match.ExpertID,
		match.ProposedByID,
		match.Status,
		match.NoteToClient,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExpertMatch, error) {
	query := `
		SELECT id, request_id, expert_id, proposed_by_id, status, note_to_client, created_at, updated_at
		FROM expert_matches
		WHERE id = $1
	`

	var match model.ExpertMatch
	err := r.QueryRow(ctx, query, id).Scan(
		&match.ID,
		&match.RequestID,
		&match.ExpertID,
		&match.ProposedByID,
		&match.Status,
		&match.NoteToClient,
		&match.CreatedAt,
		&match.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get match by id: %w", err)
	}

	return &match, nil
}

func (r *MatchRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.ExpertMatch, error) {
	query := `
		SELECT id, request_id, expert_id, proposed_by_id, status, note_to_client, created_at, updated_at
		FROM expert_matches
		WHERE request_id = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []*model.ExpertMatch
	for rows.Next() {
		var match model.ExpertMatch
		err := rows.Scan(
			&match.ID,
			&match.RequestID,
			&match.ExpertID,
			&match.ProposedByID,
			&match.Status,
			&match.NoteToClient,
			&match.CreatedAt,
			&match.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, &match)
	}

	return matches, nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MatchStatus) error {
	query := `
		UPDATE expert_matches
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("match not found")
	}

	return nil
}

type ProgressEventRepository struct {
	*base.Repository
}

func NewProgressEventRepository(pool *pgxpool.Pool) *ProgressEventRepository {
	return &ProgressEventRepository{Repository: base.NewRepository(pool)}
}

// Append inserts one trail entry. The trail is append-only: this repository
// has no update or delete.
func (r *ProgressEventRepository) Append(ctx context.Context, event *model.ProgressEvent) error {
	query := `
		INSERT INTO progress_events (request_id, actor_id, event_type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		event.RequestID,
		event.ActorID,
		event.EventType,
		event.Message,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		return fmt.Errorf("append progress event: %w", err)
	}

	return nil
}

func (r *ProgressEventRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*model.ProgressEvent, error) {
	query := `
		SELECT id, request_id, actor_id, event_type, message, created_at
		FROM progress_events
		WHERE request_id = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list progress events: %w", err)
	}
	defer rows.Close()

	var events []*model.ProgressEvent
	for rows.Next() {
		var event model.ProgressEvent
		err := rows.Scan(
			&event.ID,
			&event.RequestID,
			&event.ActorID,
			&event.EventType,
			&event.Message,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan progress event: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}
