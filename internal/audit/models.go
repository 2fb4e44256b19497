package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a change recorded in a company's history.
type Action string

const (
	ActionCompanyCreated          Action = "company_created"
	ActionOnboardingPending       Action = "onboarding_pending"
	ActionOnboardingStatusChanged Action = "onboarding_status_changed"
)

// Event is one entry of a company's history. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EmpKey     int64     `json:"empkey" db:"empkey"`
	Action     Action    `json:"action" db:"action"`
	Actor      *string   `json:"actor" db:"actor"`
	Detail     string    `json:"detail" db:"detail"`
	Client     string    `json:"client" db:"client"`
	RequestID  string    `json:"request_id" db:"request_id"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
