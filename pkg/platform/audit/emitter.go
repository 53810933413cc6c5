package audit

import (
	"context"
	"log/slog"

	"tenantgate/pkg/requestcontext"
)

// Emitter hands events to the background worker without blocking the
// request path. Audit is fail-open here: if the inbox is full the event is
// dropped and logged rather than failing the business operation.
type Emitter struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewEmitter(inbox chan<- Event, logger *slog.Logger) *Emitter {
	return &Emitter{inbox: inbox, logger: logger}
}

// Emit stamps the event with request-scoped time and correlation ID and
// enqueues it. Safe to call on a nil Emitter (audit disabled).
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	select {
	case e.inbox <- event:
	default:
		e.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", string(event.Action),
			"request_id", event.RequestID,
		)
	}
}
