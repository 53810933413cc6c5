package audit

import (
	"time"

	id "tenantgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention and routing downstream of the Kafka topic.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: the
	// verification decisions themselves and account creation/deletion.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such
	// as failed logins and token revocations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action    AuditEvent
	Timestamp time.Time
	// ActorID is who performed the action. For decisions this is the
	// reviewing admin, not the application owner.
	ActorID id.UserID
	// OwnerID is the applicant the action concerns, when applicable.
	OwnerID id.UserID
	// ApplicationID is set for lifecycle events.
	ApplicationID id.ApplicationID
	Decision      string
	Reason        string
	Email         string
	RequestID     string
}

type AuditEvent string

const (
	EventUserRegistered AuditEvent = "user_registered"
	EventUserLoggedIn   AuditEvent = "user_logged_in"
	EventUserLoggedOut  AuditEvent = "user_logged_out"
	EventLoginFailed    AuditEvent = "login_failed"
	EventProfileUpdated AuditEvent = "profile_updated"

	EventApplicationSubmitted AuditEvent = "application_submitted"
	EventApplicationApproved  AuditEvent = "application_approved"
	EventApplicationRejected  AuditEvent = "application_rejected"

	EventDocumentUploaded AuditEvent = "document_uploaded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered: CategoryCompliance,

	EventApplicationSubmitted: CategoryCompliance,
	EventApplicationApproved:  CategoryCompliance,
	EventApplicationRejected:  CategoryCompliance,

	EventLoginFailed:   CategorySecurity,
	EventUserLoggedOut: CategorySecurity,

	EventUserLoggedIn:     CategoryOperations,
	EventProfileUpdated:   CategoryOperations,
	EventDocumentUploaded: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
