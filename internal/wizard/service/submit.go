package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"empresaflow/internal/audit"
	empresamodels "empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	wizardmetrics "empresaflow/internal/wizard/metrics"
	"empresaflow/internal/wizard/identity"
	"empresaflow/internal/wizard/models"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/platform/sentinel"
	"empresaflow/pkg/requestcontext"
)

var tracer = otel.Tracer("empresaflow/internal/wizard/service")

// Result is what a successful submission created.
type Result struct {
	Identity   identity.ResolvedIdentity `json:"identity"`
	Company    empresamodels.Company     `json:"empresa"`
	Onboarding empresamodels.Onboarding  `json:"onboarding"`
}

// Submit sends the owner's draft. Only the last step submits. Concurrent
// submits from the same owner share one execution and its result. A caller
// that goes away does not cancel the shared execution.
func (s *Service) Submit(ctx context.Context, owner string) (Result, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do("submit:"+owner, func() (any, error) {
		d, ok := s.load(ctx, owner)
		if !ok {
			return Result{}, dErrors.New(dErrors.CodeValidation, "there is no company draft to submit")
		}
		if !d.State.IsLastStep() {
			return Result{}, dErrors.Newf(dErrors.CodeValidation,
				"submission is only available from the last step (current step %d of %d)",
				d.State.CurrentStepIndex+1, models.StepCount)
		}
		res, err := s.SubmitDocument(ctx, d.State.Document)
		if err != nil {
			return Result{}, err
		}
		discardErr := s.drafts.Discard(ctx, owner)
		if discardErr != nil {
			s.logger.WarnContext(ctx, "submitted draft not discarded",
				"owner", owner,
				"empkey", res.Company.EmpKey,
				"error", discardErr,
			)
		}
		s.countDraft("discard", discardErr == nil, true)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// SubmitDocument resolves the company identity and writes the company record
// followed by its pending onboarding record in one store transaction. Nothing
// is written when identity resolution fails.
func (s *Service) SubmitDocument(ctx context.Context, doc models.Document) (res Result, err error) {
	began := time.Now()
	// Writes outlive the caller; only the submit timeout stops them.
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "wizard.Submit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	id, err := identity.Resolve(doc)
	if err != nil {
		s.countSubmission(wizardmetrics.OutcomeValidation, began)
		return Result{}, err
	}
	span.SetAttributes(attribute.Int64("empkey", id.BusinessKey), attribute.String("rut_source", id.Source))

	company := newCompany(ctx, id, identity.DisplayFields(doc), s.now().UTC())
	onboarding := empresamodels.Onboarding{
		EmpKey:    id.BusinessKey,
		Status:    empresamodels.StatusPending,
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.CreatedAt,
	}

	txCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	var (
		companyInserted bool
		onboardingErr   error
		events          []audit.Event
	)
	err = s.tx.RunInTx(txCtx, func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertCompany(ctx, company); err != nil {
			return err
		}
		companyInserted = true
		if err := repo.InsertOnboarding(ctx, onboarding); err != nil {
			onboardingErr = err
			return err
		}
		var err error
		events, err = s.recordHistory(ctx, company)
		return err
	})
	if err != nil {
		return Result{}, s.classify(ctx, id, began, companyInserted, onboardingErr, err)
	}

	if s.history != nil {
		s.history.Announce(ctx, events...)
	}
	s.countSubmission(wizardmetrics.OutcomeSubmitted, began)
	s.logger.InfoContext(ctx, "company submitted to onboarding",
		"empkey", id.BusinessKey,
		"rut", id.TaxID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return Result{Identity: id, Company: company, Onboarding: onboarding}, nil
}

func newCompany(ctx context.Context, id identity.ResolvedIdentity, f identity.Fields, now time.Time) empresamodels.Company {
	c := empresamodels.Company{
		EmpKey:         id.BusinessKey,
		RUT:            id.TaxID,
		Nombre:         f.Name,
		NombreFantasia: f.TradeName,
		Direccion:      f.Address,
		Telefono:       f.Phone,
		Email:          f.Email,
		CreatedAt:      now,
	}
	if userID := requestcontext.UserID(ctx); userID != "" {
		c.CreatedBy = &userID
	}
	return c
}

func (s *Service) recordHistory(ctx context.Context, c empresamodels.Company) ([]audit.Event, error) {
	if s.history == nil {
		return nil, nil
	}
	created, err := s.history.Emit(ctx, audit.Event{
		EmpKey: c.EmpKey,
		Action: audit.ActionCompanyCreated,
		Actor:  c.CreatedBy,
		Detail: fmt.Sprintf("%s (%s)", c.DisplayName(), c.RUT),
	})
	if err != nil {
		return nil, err
	}
	pending, err := s.history.Emit(ctx, audit.Event{
		EmpKey: c.EmpKey,
		Action: audit.ActionOnboardingPending,
		Actor:  c.CreatedBy,
		Detail: string(empresamodels.StatusPending),
	})
	if err != nil {
		return nil, err
	}
	return []audit.Event{created, pending}, nil
}

// classify maps a failed transaction to the error the caller sees. A failure
// of the onboarding insert after the company insert is always reported as a
// partial failure, whatever the backend did with the company row.
func (s *Service) classify(ctx context.Context, id identity.ResolvedIdentity, began time.Time, companyInserted bool, onboardingErr, err error) error {
	key := strconv.FormatInt(id.BusinessKey, 10)

	if companyInserted && onboardingErr != nil {
		s.countSubmission(wizardmetrics.OutcomePartialFailure, began)
		if s.metrics != nil {
			s.metrics.IncrementPartialFailure()
		}
		s.logger.ErrorContext(ctx, "onboarding insert failed after company insert",
			"empkey", id.BusinessKey,
			"rut", id.TaxID,
			"request_id", requestcontext.RequestID(ctx),
			"error", onboardingErr,
		)
		return dErrors.Wrap(onboardingErr, dErrors.CodePartialFailure,
			"company "+key+" was written but its onboarding record failed: "+backendMessage(onboardingErr))
	}

	var backend *store.BackendError
	switch {
	case errors.As(err, &backend) && !companyInserted:
		s.countSubmission(wizardmetrics.OutcomeConflict, began)
		return dErrors.Wrap(err, dErrors.CodeConflict, backend.Message)
	case errors.Is(err, context.DeadlineExceeded) || dErrors.HasCode(err, dErrors.CodeTimeout):
		s.countSubmission(wizardmetrics.OutcomeTimeout, began)
		return dErrors.Wrap(err, dErrors.CodeTimeout, "the storage backend did not answer in time")
	case errors.Is(err, sentinel.ErrUnavailable):
		s.countSubmission(wizardmetrics.OutcomeError, began)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "the storage backend is unavailable")
	default:
		s.countSubmission(wizardmetrics.OutcomeError, began)
		s.logger.ErrorContext(ctx, "submission failed",
			"empkey", id.BusinessKey,
			"company_inserted", companyInserted,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit company")
	}
}

func backendMessage(err error) string {
	var backend *store.BackendError
	if errors.As(err, &backend) {
		return backend.Message
	}
	return err.Error()
}

func (s *Service) countSubmission(outcome string, began time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementSubmission(outcome)
	s.metrics.ObserveSubmitDuration(began)
}
