package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditEventType string

const (
	AuditUserRegistered      AuditEventType = "user_registered"
	AuditBookingCreated      AuditEventType = "booking_created"
	AuditBookingStatusChange AuditEventType = "booking_status_changed"
	AuditRequestStatusChange AuditEventType = "request_status_changed"
	AuditVerificationChange  AuditEventType = "verification_changed"
	AuditPaymentRecorded     AuditEventType = "payment_recorded"
	AuditAdminAction         AuditEventType = "admin_action"
)

// AuditEntry is an append-only operational log row. Writing it is always
// best-effort; no workflow depends on its success.
type AuditEntry struct {
	ID          uuid.UUID      `json:"id"`
	ActorID     *uuid.UUID     `json:"actor_id"`
	EventType   AuditEventType `json:"event_type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}
