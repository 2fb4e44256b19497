// Package models holds the company and onboarding records the wizard hands
// off to the onboarding stage.
package models

import (
	"strings"
	"time"

	dErrors "empresaflow/pkg/domain-errors"
)

// Company is a registered company keyed by its business key (empkey).
type Company struct {
	EmpKey         int64     `json:"empkey" db:"empkey"`
	RUT            string    `json:"rut" db:"rut"`
	Nombre         *string   `json:"nombre" db:"nombre"`
	NombreFantasia *string   `json:"nombre_fantasia" db:"nombre_fantasia"`
	Direccion      *string   `json:"direccion" db:"direccion"`
	Telefono       *string   `json:"telefono" db:"telefono"`
	Email          *string   `json:"email" db:"email"`
	CreatedBy      *string   `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// DisplayName returns the legal name, falling back to the RUT.
func (c Company) DisplayName() string {
	if c.Nombre != nil && *c.Nombre != "" {
		return *c.Nombre
	}
	return c.RUT
}

// OnboardingStatus is the stage of a company in the onboarding queue.
type OnboardingStatus string

const (
	StatusPending    OnboardingStatus = "pending"
	StatusInProgress OnboardingStatus = "in_progress"
	StatusCompleted  OnboardingStatus = "completed"
	StatusCancelled  OnboardingStatus = "cancelled"
)

var transitions = map[OnboardingStatus][]OnboardingStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// ParseOnboardingStatus validates a status string.
func ParseOnboardingStatus(s string) (OnboardingStatus, error) {
	st := OnboardingStatus(strings.TrimSpace(s))
	switch st {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown onboarding status %q", s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s OnboardingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OnboardingStatus) CanTransitionTo(next OnboardingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Onboarding tracks a company's progress through onboarding configuration.
type Onboarding struct {
	EmpKey    int64            `json:"empkey" db:"empkey"`
	Status    OnboardingStatus `json:"estado" db:"estado"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// Transition moves the record to next, stamping UpdatedAt.
func (o *Onboarding) Transition(next OnboardingStatus, at time.Time) error {
	if o.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "onboarding for empkey %d is already %s", o.EmpKey, o.Status)
	}
	if !o.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot move onboarding from %s to %s", o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = at
	return nil
}

// CompanyDetail is a company with its onboarding record, if any.
type CompanyDetail struct {
	Company    Company     `json:"empresa"`
	Onboarding *Onboarding `json:"onboarding"`
}

// QueueEntry is one row of the onboarding queue.
type QueueEntry struct {
	EmpKey    int64            `json:"empkey" db:"empkey"`
	RUT       string           `json:"rut" db:"rut"`
	Nombre    *string          `json:"nombre" db:"nombre"`
	Status    OnboardingStatus `json:"estado" db:"estado"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// QueueFilter narrows the onboarding queue. An empty Statuses means all.
type QueueFilter struct {
	Statuses []OnboardingStatus
	Limit    int
}
