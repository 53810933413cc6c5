package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "tenantgate/pkg/domain"
	audit "tenantgate/pkg/platform/audit"
)

// Store persists audit events to the audit_events table. Inserts are
// append-only; nothing in the service updates or deletes rows.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	// Category is always derived from the action; the eventCategories map is
	// the source of truth.
	category := event.Action.Category()

	query := `
		INSERT INTO audit_events (
			id, category, action, occurred_at, actor_id, owner_id,
			application_id, decision, reason, email, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		string(event.Action),
		event.Timestamp,
		nullableID(uuid.UUID(event.ActorID)),
		nullableID(uuid.UUID(event.OwnerID)),
		nullableID(uuid.UUID(event.ApplicationID)),
		nullable(event.Decision),
		nullable(event.Reason),
		nullable(event.Email),
		nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByApplication returns the trail for one application, oldest first.
func (s *Store) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]audit.Event, error) {
	query := `
		SELECT action, occurred_at, actor_id, owner_id, application_id,
		       decision, reason, email, request_id
		FROM audit_events
		WHERE application_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event            audit.Event
			action           string
			actorID, ownerID uuid.NullUUID
			applicationID    uuid.NullUUID
			decision, reason sql.NullString
			email, requestID sql.NullString
		)
		if err := rows.Scan(&action, &event.Timestamp, &actorID, &ownerID,
			&applicationID, &decision, &reason, &email, &requestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.AuditEvent(action)
		event.ActorID = id.UserID(actorID.UUID)
		event.OwnerID = id.UserID(ownerID.UUID)
		event.ApplicationID = id.ApplicationID(applicationID.UUID)
		event.Decision = decision.String
		event.Reason = reason.String
		event.Email = email.String
		event.RequestID = requestID.String
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
