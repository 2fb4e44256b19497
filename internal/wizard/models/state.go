package models

import (
	"encoding/json"
	"time"
)

// WizardState is the wizard's position plus the document being authored.
// CurrentStepIndex is always within [0, StepCount-1]; navigation outside the
// range is clamped, never rejected.
type WizardState struct {
	CurrentStepIndex int      `json:"currentStepIndex"`
	Document         Document `json:"document"`
}

// NewWizardState starts at the first step with an empty document.
func NewWizardState() WizardState {
	return WizardState{Document: NewDocument()}
}

func clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i > StepCount-1 {
		return StepCount - 1
	}
	return i
}

// Next advances one step. No per-step validation gates forward movement.
func (s *WizardState) Next() {
	s.CurrentStepIndex = clamp(s.CurrentStepIndex + 1)
}

// Previous goes back one step.
func (s *WizardState) Previous() {
	s.CurrentStepIndex = clamp(s.CurrentStepIndex - 1)
}

// GoTo jumps to index. Summary edit links use it for any step, reached or not.
func (s *WizardState) GoTo(index int) {
	s.CurrentStepIndex = clamp(index)
}

// CanJumpTo is the stepper's gate: only steps already reached are clickable.
func (s WizardState) CanJumpTo(index int) bool {
	return index >= 0 && index <= s.CurrentStepIndex
}

// CurrentStep returns the step at the current position.
func (s WizardState) CurrentStep() Step {
	return Steps[clamp(s.CurrentStepIndex)]
}

// IsLastStep reports whether the next action is submission.
func (s WizardState) IsLastStep() bool {
	return s.CurrentStepIndex == StepCount-1
}

// Update merges partial into topic.
func (s *WizardState) Update(t Topic, partial Section) error {
	doc, err := s.Document.Update(t, partial)
	if err != nil {
		return err
	}
	s.Document = doc
	return nil
}

// UnmarshalJSON clamps the stored index so older drafts cannot leave it out of range.
func (s *WizardState) UnmarshalJSON(data []byte) error {
	type plain WizardState
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Document.sections == nil {
		p.Document = NewDocument()
	}
	p.CurrentStepIndex = clamp(p.CurrentStepIndex)
	*s = WizardState(p)
	return nil
}

// Draft is a saved WizardState.
type Draft struct {
	SavedAt time.Time   `json:"savedAt"`
	State   WizardState `json:"state"`
}
