package audit

import (
	"context"
	"log/slog"
)

// Worker drains the outbox channel into a Sink. A failed publish is logged and
// the worker moves on to the next event.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "history event not forwarded",
					"action", event.Action,
					"empkey", event.EmpKey,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
