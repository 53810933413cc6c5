package audit

import "context"

// Store persists audit events. Implementations: in-memory (tests, local dev),
// Postgres (durable trail), Kafka publisher (downstream consumers). The
// worker fans a single event out to every configured sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}
