package model

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationStatusApplied      VerificationStatus = "applied"
	VerificationStatusVetted       VerificationStatus = "vetted"
	VerificationStatusActive       VerificationStatus = "active"
	VerificationStatusNeedsChanges VerificationStatus = "needs_changes"
	VerificationStatusRejected     VerificationStatus = "rejected"
)

// verificationTransitions lists the allowed edges of the vetting workflow.
// Only admins drive it.
var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationStatusApplied:      {VerificationStatusVetted, VerificationStatusNeedsChanges, VerificationStatusRejected},
	VerificationStatusVetted:       {VerificationStatusActive, VerificationStatusNeedsChanges, VerificationStatusRejected},
	VerificationStatusNeedsChanges: {VerificationStatusApplied},
	VerificationStatusActive:       {VerificationStatusNeedsChanges, VerificationStatusRejected},
}

func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	for _, allowed := range verificationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TagType string

const (
	TagTypeDiscipline TagType = "discipline"
	TagTypeIndustry   TagType = "industry"
)

type ExpertiseTag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	TagType   TagType   `json:"tag_type"`
	CreatedAt time.Time `json:"created_at"`
}

type ExpertProfile struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	Headline           string             `json:"headline"`
	Bio                string             `json:"bio"`
	Timezone           string             `json:"timezone"`
	YearsExperience    int                `json:"years_experience"`
	HourlyRate         int64              `json:"hourly_rate"` // minor units
	Currency           string             `json:"currency"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	ReviewedBy         *uuid.UUID         `json:"reviewed_by"`
	ReviewedAt         *time.Time         `json:"reviewed_at"`
	VerificationNotes  string             `json:"-"`
	AverageRating      float64            `json:"average_rating"`
	TotalReviews       int                `json:"total_reviews"`
	TotalConsultations int                `json:"total_consultations"`
	TotalEarnings      int64              `json:"total_earnings"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	// Populated for presentation, not stored on this row.
	Tags []*ExpertiseTag `json:"tags,omitempty"`
	User *User           `json:"user,omitempty"`
}

// IsBookable reports whether clients may create bookings against this expert.
func (p *ExpertProfile) IsBookable() bool {
	return p.VerificationStatus == VerificationStatusActive
}

func (p *ExpertProfile) IsVerified() bool {
	return p.VerificationStatus == VerificationStatusVetted || p.VerificationStatus == VerificationStatusActive
}
