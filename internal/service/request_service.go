package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService runs the concierge matching workflow: clients submit
// engagement requests, admins review and shortlist experts, and every status
// change leaves an append-only progress event behind.
type RequestService struct {
	requestRepo RequestRepository
	matchRepo   MatchRepository
	eventRepo   ProgressEventRepository
	userRepo    UserRepository
	expertRepo  ExpertRepository
	auditRepo   AuditRepository
	notifier    Notifier
	logger      *zap.Logger
	now         func() time.Time
}

func NewRequestService(
	requestRepo RequestRepository,
	matchRepo MatchRepository,
	eventRepo ProgressEventRepository,
	userRepo UserRepository,
	expertRepo ExpertRepository,
	auditRepo AuditRepository,
	notifier Notifier,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		matchRepo:   matchRepo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		expertRepo:  expertRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

type SubmitRequestInput struct {
	OrganisationName string
	EngagementType   model.EngagementType
	Urgency          model.UrgencyLevel
	Brief            string
	Confidentiality  model.ConfidentialityLevel
}

// SubmitRequest opens a new engagement request in submitted state. Any active
// client may submit, verified or not; verification only gates what they can
// see later.
func (s *RequestService) SubmitRequest(ctx context.Context, clientID uuid.UUID, input SubmitRequestInput) (*model.ClientRequest, error) {
	if input.Brief == "" {
		return nil, NewValidationError("brief", "must not be empty")
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, ErrNotFound
	}
	if !client.IsActive {
		return nil, ErrNotAuthorized
	}

	if input.EngagementType == "" {
		input.EngagementType = model.EngagementTypeConsultation
	}
	if input.Urgency == "" {
		input.Urgency = model.UrgencyStandard
	}
	if input.Confidentiality == "" {
		input.Confidentiality = model.ConfidentialityStandard
	}

	req := &model.ClientRequest{
		ClientID:         clientID,
		OrganisationName: input.OrganisationName,
		EngagementType:   input.EngagementType,
		Urgency:          input.Urgency,
		Brief:            input.Brief,
		Confidentiality:  input.Confidentiality,
		Status:           model.RequestStatusSubmitted,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.appendEvent(ctx, req.ID, &clientID, model.EventRequestSubmitted, "Request submitted")

	s.logger.Info("Client request submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("engagement_type", string(req.EngagementType)),
	)

	return req, nil
}

// StartReview pulls a submitted request into admin review.
func (s *RequestService) StartReview(ctx context.Context, requestID, adminID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, req, model.RequestStatusInReview, &adminID, model.EventRequestInReview, "Review started"); err != nil {
		return err
	}
	return nil
}

// ShortlistExpert proposes an expert for the request. The request moves to
// shortlisted (re-shortlisting more experts keeps it there) and the match is
// recorded as proposed, pending the expert's response.
func (s *RequestService) ShortlistExpert(ctx context.Context, requestID, adminID, expertID uuid.UUID, noteToClient string) (*model.ExpertMatch, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	expert, err := s.expertRepo.GetByID(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if expert == nil {
		return nil, ErrNotFound
	}
	if !expert.IsVerified() {
		return nil, NewValidationError("expert", "expert has not passed vetting")
	}

	existing, err := s.matchRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	for _, m := range existing {
		if m.ExpertID == expertID && m.Status != model.MatchStatusDeclined && m.Status != model.MatchStatusExpired {
			return nil, NewValidationError("expert", "expert is already shortlisted for this request")
		}
	}

	if err := s.transition(ctx, req, model.RequestStatusShortlisted, &adminID, model.EventExpertShortlisted,
		fmt.Sprintf("Expert %s shortlisted", expertID)); err != nil {
		return nil, err
	}

	match := &model.ExpertMatch{
		RequestID:    requestID,
		ExpertID:     expertID,
		ProposedByID: &adminID,
		Status:       model.MatchStatusProposed,
		NoteToClient: noteToClient,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.notifyExpertUser(ctx, expert, "match_proposed", map[string]any{
		"request_id": requestID.String(),
	})

	return match, nil
}

// RespondToMatch records the shortlisted expert's acceptance or refusal.
func (s *RequestService) RespondToMatch(ctx context.Context, matchID, actorID uuid.UUID, accept bool) error {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if match == nil {
		return ErrNotFound
	}

	expert, err := s.expertRepo.GetByID(ctx, match.ExpertID)
	if err != nil {
		return fmt.Errorf("get expert: %w", err)
	}
	if expert == nil {
		return ErrNotFound
	}
	if expert.UserID != actorID {
		return ErrNotAuthorized
	}

	if match.Status != model.MatchStatusProposed {
		return ErrInvalidTransition
	}

	status := model.MatchStatusDeclined
	eventType := model.EventExpertDeclined
	message := "Expert declined the match"
	if accept {
		status = model.MatchStatusAccepted
		eventType = model.EventExpertAccepted
		message = "Expert accepted the match"
	}

	if err := s.matchRepo.UpdateStatus(ctx, matchID, status); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}

	s.appendEvent(ctx, match.RequestID, &actorID, eventType, message)

	s.logger.Info("Match response recorded",
		zap.String("match_id", matchID.String()),
		zap.String("status", string(status)),
	)

	return nil
}

// SendProposal moves a shortlisted request to proposal_sent, pinning the
// accepted expert and the proposed engagement price onto the request.
func (s *RequestService) SendProposal(ctx context.Context, requestID, adminID, matchID uuid.UUID, proposedPrice int64) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if proposedPrice < 0 {
		return NewValidationError("proposed_price", "must not be negative")
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}

	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if match == nil || match.RequestID != requestID {
		return ErrNotFound
	}
	if match.Status != model.MatchStatusAccepted {
		return NewValidationError("match", "expert has not accepted this match")
	}

	now := s.now()
	req.MatchedExpertID = &match.ExpertID
	req.MatchedByID = &adminID
	req.MatchedAt = &now
	req.ProposedPrice = proposedPrice

	if err := s.transition(ctx, req, model.RequestStatusProposalSent, &adminID, model.EventProposalSent, "Proposal sent to client"); err != nil {
		return err
	}

	s.notifyRequestClient(ctx, req, "proposal_sent", map[string]any{
		"request_id": requestID.String(),
		"price":      proposedPrice,
	})

	return nil
}

// Confirm is the owning client's acceptance of the proposal.
func (s *RequestService) Confirm(ctx context.Context, requestID, actorID uuid.UUID) error {
	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ClientID != actorID {
		return ErrNotAuthorized
	}

	return s.transition(ctx, req, model.RequestStatusConfirmed, &actorID, model.EventClientConfirmed, "Client confirmed the proposal")
}

// StartWork marks the engagement as underway.
func (s *RequestService) StartWork(ctx context.Context, requestID, adminID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.transition(ctx, req, model.RequestStatusInProgress, &adminID, model.EventWorkStarted, "Engagement started")
}

// CompleteWork closes out an in-progress engagement.
func (s *RequestService) CompleteWork(ctx context.Context, requestID, adminID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.transition(ctx, req, model.RequestStatusCompleted, &adminID, model.EventWorkCompleted, "Engagement completed")
}

// Cancel terminates the request. The owning client or an admin may cancel from
// any non-terminal status.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID uuid.UUID, reason string) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return ErrNotFound
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ClientID != actorID && !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	message := "Request cancelled"
	if reason != "" {
		message = "Request cancelled: " + reason
	}
	return s.transition(ctx, req, model.RequestStatusCancelled, &actorID, model.EventRequestCancelled, message)
}

// Expire retires a request nobody acted on. Admin and the background task use
// this; confirmed and later statuses never expire.
func (s *RequestService) Expire(ctx context.Context, requestID, adminID uuid.UUID) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.transition(ctx, req, model.RequestStatusExpired, &adminID, model.EventRequestExpired, "Request expired")
}

func (s *RequestService) GetByID(ctx context.Context, requestID, actorID uuid.UUID) (*model.ClientRequest, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return nil, ErrNotFound
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actorID && !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	return req, nil
}

func (s *RequestService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*model.ClientRequest, error) {
	return s.requestRepo.ListByClient(ctx, clientID)
}

// ListByStatus is the admin review queue.
func (s *RequestService) ListByStatus(ctx context.Context, adminID uuid.UUID, status model.RequestStatus) ([]*model.ClientRequest, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.requestRepo.ListByStatus(ctx, status)
}

// VisibleMatches returns the shortlist as the actor is allowed to see it.
// Admins see everything. The owning client sees matches only once verified
// and once the request has reached shortlisted; before the gate the list is
// empty rather than an error, so the client UI can poll the same endpoint
// throughout.
func (s *RequestService) VisibleMatches(ctx context.Context, requestID, actorID uuid.UUID) ([]*model.ExpertMatch, error) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return nil, ErrNotFound
	}

	req, err := s.requireRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.IsAdmin() {
		return s.matchRepo.ListByRequest(ctx, requestID)
	}

	if req.ClientID != actorID {
		return nil, ErrNotAuthorized
	}
	if !actor.IsVerifiedClient() {
		return nil, ErrNotAuthorized
	}
	if !req.Status.PastShortlistGate() {
		return []*model.ExpertMatch{}, nil
	}

	matches, err := s.matchRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	for _, match := range matches {
		expert, err := s.expertRepo.GetByID(ctx, match.ExpertID)
		if err == nil && expert != nil {
			match.Expert = expert
		}
	}
	return matches, nil
}

// ProgressTrail returns the append-only event history, oldest first.
func (s *RequestService) ProgressTrail(ctx context.Context, requestID, actorID uuid.UUID) ([]*model.ProgressEvent, error) {
	if _, err := s.GetByID(ctx, requestID, actorID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByRequest(ctx, requestID)
}

// transition applies one status change with table validation, persists it and
// appends the matching trail event.
func (s *RequestService) transition(ctx context.Context, req *model.ClientRequest, next model.RequestStatus, actorID *uuid.UUID, eventType model.ProgressEventType, message string) error {
	if !req.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	prev := req.Status
	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		req.Status = prev
		return fmt.Errorf("update request: %w", err)
	}

	s.appendEvent(ctx, req.ID, actorID, eventType, message)

	s.logger.Info("Request status changed",
		zap.String("request_id", req.ID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)

	entry := &model.AuditEntry{
		ActorID:     actorID,
		EventType:   model.AuditRequestStatusChange,
		Description: message,
		Metadata: map[string]any{
			"request_id": req.ID.String(),
			"from":       string(prev),
			"to":         string(next),
		},
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}

	return nil
}

func (s *RequestService) appendEvent(ctx context.Context, requestID uuid.UUID, actorID *uuid.UUID, eventType model.ProgressEventType, message string) {
	event := &model.ProgressEvent{
		RequestID: requestID,
		ActorID:   actorID,
		EventType: eventType,
		Message:   message,
	}
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Warn("Failed to append progress event",
			zap.Error(err),
			zap.String("request_id", requestID.String()),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (s *RequestService) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("get actor: %w", err)
	}
	if actor == nil {
		return ErrNotFound
	}
	if !actor.IsAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

func (s *RequestService) requireRequest(ctx context.Context, id uuid.UUID) (*model.ClientRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

func (s *RequestService) notifyExpertUser(ctx context.Context, expert *model.ExpertProfile, template string, data map[string]any) {
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

func (s *RequestService) notifyRequestClient(ctx context.Context, req *model.ClientRequest, template string, data map[string]any) {
	user, err := s.userRepo.GetByID(ctx, req.ClientID)
	if err != nil || user == nil {
		s.logger.Warn("Failed to resolve client for notification",
			zap.String("request_id", req.ID.String()))
		return
	}
	if err := s.notifier.Notify(ctx, user.Email, template, data); err != nil {
		s.logger.Warn("Notification failed", zap.Error(err), zap.String("template", template))
	}
}
