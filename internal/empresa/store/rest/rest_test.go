package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empresaflow/internal/audit"
	"empresaflow/internal/empresa/models"
	"empresaflow/internal/empresa/store"
	"empresaflow/internal/platform/logger"
	"empresaflow/pkg/platform/circuit"
	"empresaflow/pkg/platform/sentinel"
)

type call struct {
	Method string
	Path   string
	Query  string
	Body   string
	Header http.Header
}

// fakeBackend answers PostgREST requests from a table of canned responses
// keyed by "METHOD /table".
type fakeBackend struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body), Header: r.Header.Clone()})
	respond, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusCreated)
		return
	}
	respond(w, r)
}

func (f *fakeBackend) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method + " " + c.Path
	}
	return out
}

func newTestStore(t *testing.T, responses map[string]func(w http.ResponseWriter, r *http.Request)) (*Store, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{responses: responses}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL+"/rest/v1/", "anon-key", WithHTTPClient(srv.Client()))
	return New(client, WithLogger(logger.Discard())), backend
}

func jsonResponse(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func demoCompany() models.Company {
	name := "Empresa Demo"
	return models.Company{EmpKey: 12345678, RUT: "12345678-5", Nombre: &name}
}

func TestInsertCompanySendsRowAndCredentials(t *testing.T) {
	s, backend := newTestStore(t, nil)

	require.NoError(t, s.InsertCompany(context.Background(), demoCompany()))

	require.Len(t, backend.calls, 1)
	c := backend.calls[0]
	assert.Equal(t, "POST", c.Method)
	assert.Equal(t, "/rest/v1/empresas", c.Path)
	assert.Equal(t, "anon-key", c.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", c.Header.Get("Authorization"))
	assert.Equal(t, "return=minimal", c.Header.Get("Prefer"))

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Body), &row))
	assert.EqualValues(t, 12345678, row["empkey"])
	assert.Equal(t, "12345678-5", row["rut"])
	assert.Equal(t, "Empresa Demo", row["nombre"])
	assert.Nil(t, row["email"])
}

func TestDuplicateKeySurfacesBackendMessage(t *testing.T) {
	s, _ := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST /rest/v1/empresas": jsonResponse(http.StatusConflict,
			`{"code":"23505","message":"duplicate key value violates unique constraint \"empresas_pkey\"","details":"Key (empkey)=(12345678) already exists.","hint":null}`),
	})

	err := s.InsertCompany(context.Background(), demoCompany())
	require.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Equal(t, `duplicate key value violates unique constraint "empresas_pkey"`, err.Error())
}

func TestServerErrorIsUnavailable(t *testing.T) {
	s, _ := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/empresas": jsonResponse(http.StatusBadGateway, "upstream down"),
	})

	_, err := s.FindCompany(context.Background(), 1)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestOpenCircuitFailsFast(t *testing.T) {
	backend := &fakeBackend{responses: map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/empresas": jsonResponse(http.StatusServiceUnavailable, "maintenance"),
	}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL+"/rest/v1", "anon-key",
		WithHTTPClient(srv.Client()),
		WithBreaker(circuit.New("postgrest", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))),
	)
	s := New(client, WithLogger(logger.Discard()))

	for range 3 {
		_, err := s.FindCompany(context.Background(), 1)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
	assert.Len(t, backend.methods(), 2, "the third call never reaches the backend")
}

func TestRunInTxDeletesCompanyWhenOnboardingFails(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST /rest/v1/empresas_onboarding": jsonResponse(http.StatusBadRequest,
			`{"code":"23514","message":"new row violates check constraint"}`),
		"DELETE /rest/v1/empresas": jsonResponse(http.StatusNoContent, ""),
	})

	err := s.RunInTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertCompany(ctx, demoCompany()); err != nil {
			return err
		}
		return repo.InsertOnboarding(ctx, models.Onboarding{EmpKey: 12345678, Status: models.StatusPending})
	})

	require.ErrorIs(t, err, store.ErrRejected)
	assert.Equal(t, []string{
		"POST /rest/v1/empresas",
		"POST /rest/v1/empresas_onboarding",
		"DELETE /rest/v1/empresas",
	}, backend.methods())
	assert.Equal(t, "empkey=eq.12345678", backend.calls[2].Query)
}

func TestRunInTxUndoesAfterCancellation(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"DELETE /rest/v1/empresas": jsonResponse(http.StatusNoContent, ""),
	})
	ctx, cancel := context.WithCancel(context.Background())

	err := s.RunInTx(ctx, func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertCompany(ctx, demoCompany()); err != nil {
			return err
		}
		cancel()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"POST /rest/v1/empresas", "DELETE /rest/v1/empresas"}, backend.methods())
}

func TestRunInTxKeepsWritesOnSuccess(t *testing.T) {
	s, backend := newTestStore(t, nil)

	err := s.RunInTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertCompany(ctx, demoCompany()); err != nil {
			return err
		}
		return repo.InsertOnboarding(ctx, models.Onboarding{EmpKey: 12345678, Status: models.StatusPending})
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"POST /rest/v1/empresas", "POST /rest/v1/empresas_onboarding"}, backend.methods())
}

func TestRunInTxDeletesHistoryWrittenBeforeFailure(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"DELETE /rest/v1/empresa_history":     jsonResponse(http.StatusNoContent, ""),
		"DELETE /rest/v1/empresas_onboarding": jsonResponse(http.StatusNoContent, ""),
		"DELETE /rest/v1/empresas":            jsonResponse(http.StatusNoContent, ""),
	})
	history := NewHistoryStore(s.client)
	id := uuid.MustParse("6f1c0d7e-8a43-4f5e-9a61-0b6f3b1f2a10")
	boom := errors.New("second history append failed")

	err := s.RunInTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		if err := repo.InsertCompany(ctx, demoCompany()); err != nil {
			return err
		}
		if err := repo.InsertOnboarding(ctx, models.Onboarding{EmpKey: 12345678, Status: models.StatusPending}); err != nil {
			return err
		}
		if err := history.Append(ctx, audit.Event{ID: id, EmpKey: 12345678, Action: audit.ActionCompanyCreated}); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{
		"POST /rest/v1/empresas",
		"POST /rest/v1/empresas_onboarding",
		"POST /rest/v1/empresa_history",
		"DELETE /rest/v1/empresa_history",
		"DELETE /rest/v1/empresas_onboarding",
		"DELETE /rest/v1/empresas",
	}, backend.methods())
	assert.Equal(t, "id=eq."+id.String(), backend.calls[3].Query)
}

func TestHistoryAppendOutsideTxIsNotUndone(t *testing.T) {
	s, backend := newTestStore(t, nil)
	history := NewHistoryStore(s.client)

	require.NoError(t, history.Append(context.Background(), audit.Event{ID: uuid.New(), EmpKey: 7}))
	assert.Equal(t, []string{"POST /rest/v1/empresa_history"}, backend.methods())
}

func TestRunInTxRestoresUpdatedOnboarding(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/empresas_onboarding": jsonResponse(http.StatusOK,
			`[{"empkey":7,"estado":"pending","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}]`),
		"PATCH /rest/v1/empresas_onboarding": jsonResponse(http.StatusOK,
			`[{"empkey":7,"estado":"in_progress","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-02T00:00:00Z"}]`),
	})
	boom := errors.New("history append failed")

	err := s.RunInTx(context.Background(), func(ctx context.Context, repo store.Repository) error {
		o, err := repo.FindOnboarding(ctx, 7)
		if err != nil {
			return err
		}
		if err := o.Transition(models.StatusInProgress, time.Now()); err != nil {
			return err
		}
		if err := repo.UpdateOnboarding(ctx, o); err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	methods := backend.methods()
	require.Len(t, methods, 4)
	assert.Equal(t, "PATCH /rest/v1/empresas_onboarding", methods[3])
	assert.Contains(t, backend.calls[3].Body, `"estado":"pending"`)
}

func TestFindCompanyNotFound(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/empresas": jsonResponse(http.StatusOK, `[]`),
	})

	_, err := s.FindCompany(context.Background(), 42)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, "empkey=eq.42", backend.calls[0].Query)
}

func TestListOnboardingEmbedsCompany(t *testing.T) {
	s, backend := newTestStore(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /rest/v1/empresas_onboarding": jsonResponse(http.StatusOK,
			`[{"empkey":1,"estado":"pending","updated_at":"2026-01-01T00:00:00Z","empresas":{"rut":"1-9","nombre":"Uno"}}]`),
	})

	entries, err := s.ListOnboarding(context.Background(), models.QueueFilter{
		Statuses: []models.OnboardingStatus{models.StatusPending, models.StatusInProgress},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1-9", entries[0].RUT)
	require.NotNil(t, entries[0].Nombre)
	assert.Equal(t, "Uno", *entries[0].Nombre)

	q := backend.calls[0].Query
	assert.Contains(t, q, "estado=in.%28pending%2Cin_progress%29")
	assert.Contains(t, q, "limit=100")
}

func TestHistoryStore(t *testing.T) {
	backend := &fakeBackend{responses: map[string]func(http.ResponseWriter, *http.Request){
		"GET /empresa_history": jsonResponse(http.StatusOK,
			`[{"id":"6f1c0d7e-8a43-4f5e-9a61-0b6f3b1f2a10","empkey":7,"action":"company_created","actor":null,"detail":"","client":"","request_id":"r","occurred_at":"2026-01-01T00:00:00Z"}]`),
	}}
	srv := httptest.NewServer(backend)
	defer srv.Close()
	h := NewHistoryStore(NewClient(srv.URL, ""))

	require.NoError(t, h.Append(context.Background(), audit.Event{EmpKey: 7, Action: audit.ActionCompanyCreated}))
	events, err := h.ListByCompany(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionCompanyCreated, events[0].Action)
	assert.Contains(t, backend.calls[1].Query, "order=occurred_at.asc")
}
