package worker

import (
	"context"
	"log/slog"

	audit "hostelgate/pkg/platform/audit"
)

// Worker drains audit events from a channel into a store. A failed append is
// logged and skipped; the audit trail never blocks the gate.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the inbox is closed or ctx is done. On a closed
// inbox every buffered event has been handled before Run returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"action", event.Action,
			"resident_id", event.ResidentID,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
