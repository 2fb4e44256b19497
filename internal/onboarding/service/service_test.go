package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"empresaflow/internal/audit"
	auditmemory "empresaflow/internal/audit/store/memory"
	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store/memory"
	"empresaflow/internal/onboarding/service/mocks"
	"empresaflow/internal/platform/metrics"
	dErrors "empresaflow/pkg/domain-errors"
	"empresaflow/pkg/requestcontext"
)

var seededAt = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, st *memory.Store, empKey int64, name string, status models.OnboardingStatus, updated time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.InsertCompany(ctx, models.Company{
		EmpKey:    empKey,
		RUT:       "7654321-6",
		Nombre:    &name,
		CreatedAt: seededAt,
	}))
	require.NoError(t, st.InsertOnboarding(ctx, models.Onboarding{
		EmpKey:    empKey,
		Status:    status,
		CreatedAt: seededAt,
		UpdatedAt: updated,
	}))
}

type fixture struct {
	store   *memory.Store
	history *audit.Publisher
	metrics *metrics.Metrics
	outbox  chan audit.Event
	svc     *Service
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.New(),
		metrics: metrics.New(prometheus.NewRegistry()),
		outbox:  make(chan audit.Event, 8),
		now:     time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	f.history = audit.NewPublisher(auditmemory.NewInMemoryStore(), audit.WithOutbox(f.outbox))
	f.svc = New(f.store, f.history,
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func TestCompany(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, 7654321, "Panadería Ñuñoa", models.StatusPending, seededAt)

	t.Run("with onboarding", func(t *testing.T) {
		detail, err := f.svc.Company(context.Background(), 7654321)
		require.NoError(t, err)
		assert.Equal(t, "Panadería Ñuñoa", detail.Company.DisplayName())
		require.NotNil(t, detail.Onboarding)
		assert.Equal(t, models.StatusPending, detail.Onboarding.Status)
	})

	t.Run("without onboarding", func(t *testing.T) {
		name := "Sin Onboarding"
		require.NoError(t, f.store.InsertCompany(context.Background(), models.Company{EmpKey: 1, RUT: "1-9", Nombre: &name}))

		detail, err := f.svc.Company(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, detail.Onboarding)
	})

	t.Run("unknown company", func(t *testing.T) {
		_, err := f.svc.Company(context.Background(), 999)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestQueue(t *testing.T) {
	f := newFixture(t)
	seed(t, f.store, 1, "Panadería Ñuñoa", models.StatusPending, seededAt.Add(2*time.Hour))
	seed(t, f.store, 2, "Ferretería Central", models.StatusPending, seededAt.Add(time.Hour))
	seed(t, f.store, 3, "Panaderia Sur", models.StatusInProgress, seededAt)

	t.Run("status filter oldest first", func(t *testing.T) {
		entries, err := f.svc.Queue(context.Background(), QueueQuery{Statuses: []models.OnboardingStatus{models.StatusPending}})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(2), entries[0].EmpKey)
		assert.Equal(t, int64(1), entries[1].EmpKey)
	})

	t.Run("accent-insensitive search", func(t *testing.T) {
		entries, err := f.svc.Queue(context.Background(), QueueQuery{Search: "  PANADERIA "})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(3), entries[0].EmpKey)
		assert.Equal(t, int64(1), entries[1].EmpKey)
	})

	t.Run("search respects the limit", func(t *testing.T) {
		entries, err := f.svc.Queue(context.Background(), QueueQuery{Search: "panadería", Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("search by formatted rut", func(t *testing.T) {
		entries, err := f.svc.Queue(context.Background(), QueueQuery{Search: "7.654.321"})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestTransition(t *testing.T) {
	t.Run("pending to in_progress records history", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f.store, 7654321, "Empresa", models.StatusPending, seededAt)
		ctx := requestcontext.WithUserID(context.Background(), "exec-1")

		o, err := f.svc.Transition(ctx, 7654321, models.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, o.Status)
		assert.Equal(t, f.now, o.UpdatedAt)

		stored, err := f.store.FindOnboarding(ctx, 7654321)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, stored.Status)

		events, err := f.svc.History(ctx, 7654321)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionOnboardingStatusChanged, events[0].Action)
		assert.Equal(t, "pending -> in_progress", events[0].Detail)
		require.NotNil(t, events[0].Actor)
		assert.Equal(t, "exec-1", *events[0].Actor)

		select {
		case announced := <-f.outbox:
			assert.Equal(t, events[0].ID, announced.ID)
		default:
			t.Fatal("expected the change to be announced")
		}
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OnboardingTransitions.WithLabelValues("in_progress")))
	})

	t.Run("terminal states are immutable", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f.store, 5, "Empresa", models.StatusCompleted, seededAt)

		_, err := f.svc.Transition(context.Background(), 5, models.StatusCancelled)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("skipping a state is rejected", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f.store, 5, "Empresa", models.StatusPending, seededAt)

		_, err := f.svc.Transition(context.Background(), 5, models.StatusCompleted)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("unknown company", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Transition(context.Background(), 404, models.StatusInProgress)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("history failure leaves the status unchanged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		history := mocks.NewMockHistory(ctrl)
		st := memory.New()
		seed(t, st, 5, "Empresa", models.StatusPending, seededAt)
		svc := New(st, history)

		history.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(audit.Event{}, errors.New("history down"))

		_, err := svc.Transition(context.Background(), 5, models.StatusInProgress)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

		stored, err := st.FindOnboarding(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
	})
}

func TestHistoryRequiresCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.History(context.Background(), 404)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
