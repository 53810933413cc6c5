package worker

import (
	"context"
	"log/slog"

	audit "tenantgate/pkg/platform/audit"
)

// Worker consumes audit events from the emitter's inbox and fans them out to
// the configured sinks. A failing sink is logged and skipped; operational
// audit never takes the service down.
type Worker struct {
	sinks  []audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Store) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled, then drains whatever is left in the
// inbox before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Sinks get a fresh context; the run context is already cancelled.
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, event audit.Event) {
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			w.logger.Error("audit sink append failed",
				"action", string(event.Action),
				"error", err,
			)
		}
	}
}
