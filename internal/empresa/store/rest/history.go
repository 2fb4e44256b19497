package rest

import (
	"context"

	"empresaflow/internal/audit"
)

const tableHistory = "empresa_history"

// HistoryStore is the audit.Store over the same PostgREST backend.
type HistoryStore struct {
	client *Client
}

func NewHistoryStore(client *Client) *HistoryStore {
	return &HistoryStore{client: client}
}

// Append inserts the event. Inside a Store.RunInTx the row is removed again
// if the transaction fails.
func (h *HistoryStore) Append(ctx context.Context, event audit.Event) error {
	if err := h.client.insert(ctx, tableHistory, event); err != nil {
		return err
	}
	if tx, ok := journalFrom(ctx); ok {
		id := event.ID
		tx.push(func(ctx context.Context) error {
			return h.client.delete(ctx, tableHistory, eq("id", id))
		})
	}
	return nil
}

func (h *HistoryStore) ListByCompany(ctx context.Context, empKey int64) ([]audit.Event, error) {
	query := eq("empkey", empKey)
	query["order"] = []string{"occurred_at.asc,id.asc"}

	var events []audit.Event
	if err := h.client.get(ctx, tableHistory, query, &events); err != nil {
		return nil, err
	}
	return events, nil
}

var _ audit.Store = (*HistoryStore)(nil)
