package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

// Status is the lifecycle state of a verification application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsTerminal reports whether the status has no outbound transitions. A
// decision is final; re-application means a new record.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ParseStatus validates a status string from a query parameter.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", s)
	}
	return status, nil
}

// Event is a requested lifecycle transition.
type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// ParseEvent validates an event string from a request body.
func ParseEvent(s string) (Event, error) {
	event := Event(strings.ToLower(strings.TrimSpace(s)))
	if event != EventApprove && event != EventReject {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown event %q", s)
	}
	return event, nil
}

// Profile carries the applicant-supplied fields captured at submission.
// All fields are required and immutable after creation.
type Profile struct {
	FullName         string          `json:"full_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	CurrentAddress   string          `json:"current_address"`
	EmploymentStatus string          `json:"employment_status"`
	MonthlyIncome    decimal.Decimal `json:"monthly_income"`
}

// References carries the optional prior-landlord fields and free-text notes.
type References struct {
	LandlordName    string `json:"landlord_name,omitempty"`
	LandlordContact string `json:"landlord_contact,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Documents holds URLs of uploaded supporting documents. An empty field means
// the document was not provided; stores persist that as NULL, never as a
// placeholder string.
type Documents struct {
	IDDocumentURL    string `json:"id_document_url,omitempty"`
	IncomeProofURL   string `json:"income_proof_url,omitempty"`
	RentalHistoryURL string `json:"rental_history_url,omitempty"`
}

// Application is a single tenant-verification submission and its review
// state.
//
/// Invariants:
//   - Status is always one of pending, approved, rejected
//   - Status starts at pending and only moves via Approve/Reject guards
//   - Approved and rejected are terminal; no transition leaves them
//   - RejectionReason is set only by the Reject event
//   - OwnerID and CreatedAt never change after construction
//   - Profile fields are required and MonthlyIncome is never negative
type Application struct {
	ID      id.ApplicationID `json:"id"`
	OwnerID id.UserID        `json:"owner_id"`

	Profile    Profile    `json:"profile"`
	References References `json:"references"`
	Documents  Documents  `json:"documents"`

	Status          Status `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	DecidedBy id.UserID  `json:"decided_by,omitempty"`
}

// New validates the submission and returns a pending application.
func New(appID id.ApplicationID, ownerID id.UserID, profile Profile, refs References, docs Documents, now time.Time) (*Application, error) {
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if err := validateProfile(&profile); err != nil {
		return nil, err
	}

	return &Application{
		ID:         appID,
		OwnerID:    ownerID,
		Profile:    profile,
		References: trimReferences(refs),
		Documents:  trimDocuments(docs),
		Status:     StatusPending,
		CreatedAt:  now,
	}, nil
}

func validateProfile(p *Profile) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.CurrentAddress = strings.TrimSpace(p.CurrentAddress)
	p.EmploymentStatus = strings.TrimSpace(p.EmploymentStatus)

	required := []struct{ field, value string }{
		{"full_name", p.FullName},
		{"email", p.Email},
		{"phone", p.Phone},
		{"current_address", p.CurrentAddress},
		{"employment_status", p.EmploymentStatus},
	}
	for _, r := range required {
		if r.value == "" {
			return dErrors.Newf(dErrors.CodeValidation, "%s is required", r.field)
		}
	}
	if !strings.Contains(p.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	if p.MonthlyIncome.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "monthly_income cannot be negative")
	}
	return nil
}

func trimReferences(r References) References {
	return References{
		LandlordName:    strings.TrimSpace(r.LandlordName),
		LandlordContact: strings.TrimSpace(r.LandlordContact),
		Notes:           strings.TrimSpace(r.Notes),
	}
}

func trimDocuments(d Documents) Documents {
	return Documents{
		IDDocumentURL:    strings.TrimSpace(d.IDDocumentURL),
		IncomeProofURL:   strings.TrimSpace(d.IncomeProofURL),
		RentalHistoryURL: strings.TrimSpace(d.RentalHistoryURL),
	}
}

// CanApprove guards the Pending -> Approved transition.
func (a *Application) CanApprove() error {
	if a.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict,
			"cannot approve an application in state %q", a.Status)
	}
	return nil
}

// CanReject guards the Pending -> Rejected transition. The reason is part of
// the guard: an empty reason rejects the request and leaves state untouched.
func (a *Application) CanReject(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if a.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict,
			"cannot reject an application in state %q", a.Status)
	}
	return nil
}

// ApplyApproval commits the Approve transition. Callers must have checked
// CanApprove under the store's lock.
func (a *Application) ApplyApproval(actorID id.UserID, now time.Time) {
	a.Status = StatusApproved
	a.DecidedAt = &now
	a.DecidedBy = actorID
}

// ApplyRejection commits the Reject transition.
func (a *Application) ApplyRejection(actorID id.UserID, reason string, now time.Time) {
	a.Status = StatusRejected
	a.RejectionReason = strings.TrimSpace(reason)
	a.DecidedAt = &now
	a.DecidedBy = actorID
}
