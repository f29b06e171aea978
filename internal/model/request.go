package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusSubmitted    RequestStatus = "submitted"
	RequestStatusInReview     RequestStatus = "in_review"
	RequestStatusShortlisted  RequestStatus = "shortlisted"
	RequestStatusProposalSent RequestStatus = "proposal_sent"
	RequestStatusConfirmed    RequestStatus = "confirmed"
	RequestStatusInProgress   RequestStatus = "in_progress"
	RequestStatusCompleted    RequestStatus = "completed"
	RequestStatusCancelled    RequestStatus = "cancelled"
	RequestStatusExpired      RequestStatus = "expired"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusSubmitted:    {RequestStatusInReview, RequestStatusCancelled, RequestStatusExpired},
	RequestStatusInReview:     {RequestStatusShortlisted, RequestStatusCancelled, RequestStatusExpired},
	RequestStatusShortlisted:  {RequestStatusShortlisted, RequestStatusProposalSent, RequestStatusCancelled, RequestStatusExpired},
	RequestStatusProposalSent: {RequestStatusConfirmed, RequestStatusShortlisted, RequestStatusCancelled, RequestStatusExpired},
	RequestStatusConfirmed:    {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress:   {RequestStatusCompleted, RequestStatusCancelled},
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled || s == RequestStatusExpired
}

// PastShortlistGate reports whether the request has progressed far enough for
// the owning client to see proposed experts.
func (s RequestStatus) PastShortlistGate() bool {
	switch s {
	case RequestStatusShortlisted, RequestStatusProposalSent, RequestStatusConfirmed,
		RequestStatusInProgress, RequestStatusCompleted:
		return true
	}
	return false
}

type EngagementType string

const (
	EngagementTypeConsultation EngagementType = "consultation"
	EngagementTypeResearch     EngagementType = "research"
	EngagementTypeAdvisory     EngagementType = "advisory"
)

type UrgencyLevel string

const (
	UrgencyStandard UrgencyLevel = "standard"
	UrgencyUrgent   UrgencyLevel = "urgent"
)

type ConfidentialityLevel string

const (
	ConfidentialityStandard   ConfidentialityLevel = "standard"
	ConfidentialityRestricted ConfidentialityLevel = "restricted"
)

type ClientRequest struct {
	ID               uuid.UUID            `json:"id"`
	ClientID         uuid.UUID            `json:"client_id"`
	OrganisationName string               `json:"organisation_name"`
	EngagementType   EngagementType       `json:"engagement_type"`
	Urgency          UrgencyLevel         `json:"urgency"`
	Brief            string               `json:"brief"`
	Confidentiality  ConfidentialityLevel `json:"confidentiality_level"`
	Status           RequestStatus        `json:"status"`
	MatchedExpertID  *uuid.UUID           `json:"matched_expert_id"`
	MatchedByID      *uuid.UUID           `json:"matched_by_id"`
	MatchedAt        *time.Time           `json:"matched_at"`
	ProposedPrice    int64                `json:"proposed_price"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type MatchStatus string

const (
	MatchStatusProposed MatchStatus = "proposed"
	MatchStatusDeclined MatchStatus = "declined"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusExpired  MatchStatus = "expired"
)

// ExpertMatch is an admin-proposed pairing of an expert with a client request.
type ExpertMatch struct {
	ID           uuid.UUID   `json:"id"`
	RequestID    uuid.UUID   `json:"request_id"`
	ExpertID     uuid.UUID   `json:"expert_id"`
	ProposedByID *uuid.UUID  `json:"proposed_by_id"`
	Status       MatchStatus `json:"status"`
	NoteToClient string      `json:"note_to_client"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Expert *ExpertProfile `json:"expert,omitempty"`
}

type ProgressEventType string

const (
	EventRequestSubmitted  ProgressEventType = "request_submitted"
	EventRequestInReview   ProgressEventType = "request_in_review"
	EventExpertShortlisted ProgressEventType = "expert_shortlisted"
	EventExpertAccepted    ProgressEventType = "expert_accepted"
	EventExpertDeclined    ProgressEventType = "expert_declined"
	EventProposalSent      ProgressEventType = "proposal_sent"
	EventClientConfirmed   ProgressEventType = "client_confirmed"
	EventWorkStarted       ProgressEventType = "work_started"
	EventWorkCompleted     ProgressEventType = "work_completed"
	EventRequestCancelled  ProgressEventType = "request_cancelled"
	EventRequestExpired    ProgressEventType = "request_expired"
	EventStatusChanged     ProgressEventType = "status_changed"
)

// ProgressEvent is one entry of the append-only trail attached to a client
// request. Rows are never updated or deleted.
type ProgressEvent struct {
	ID        uuid.UUID         `json:"id"`
	RequestID uuid.UUID         `json:"request_id"`
	ActorID   *uuid.UUID        `json:"actor_id"`
	EventType ProgressEventType `json:"event_type"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
