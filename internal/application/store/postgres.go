package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tenantgate/internal/application/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// Postgres persists applications in the applications table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const appColumns = `id, owner_id, full_name, email, phone, current_address,
	employment_status, monthly_income, landlord_name, landlord_contact, notes,
	id_document_url, income_proof_url, rental_history_url,
	status, rejection_reason, created_at, decided_at, decided_by`

func (s *Postgres) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (` + appColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID), uuid.UUID(app.OwnerID),
		app.Profile.FullName, app.Profile.Email, app.Profile.Phone,
		app.Profile.CurrentAddress, app.Profile.EmploymentStatus,
		app.Profile.MonthlyIncome.String(),
		nullable(app.References.LandlordName), nullable(app.References.LandlordContact),
		nullable(app.References.Notes),
		nullable(app.Documents.IDDocumentURL), nullable(app.Documents.IncomeProofURL),
		nullable(app.Documents.RentalHistoryURL),
		string(app.Status), nullable(app.RejectionReason),
		app.CreatedAt, app.DecidedAt, nullableID(uuid.UUID(app.DecidedBy)),
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications WHERE id = $1`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(appID)))
}

// FindLatestByOwner returns the owner's most recent application. The ID
// tie-break makes ordering deterministic for identical timestamps.
func (s *Postgres) FindLatestByOwner(ctx context.Context, ownerID id.UserID) (*models.Application, error) {
	query := `
		SELECT ` + appColumns + `
		FROM applications
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(ownerID)))
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.Application, error) {
	query := `SELECT ` + appColumns + ` FROM applications`
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conds = append(conds, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Postgres) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'approved'),
			count(*) FILTER (WHERE status = 'rejected')
		FROM applications
	`
	var counts models.StatusCounts
	err := s.db.QueryRowContext(ctx, query).
		Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("count applications: %w", err)
	}
	return counts, nil
}

// Execute reads the application under SELECT ... FOR UPDATE, runs the guard,
// applies the mutation and writes the result, all in one transaction. Two
// concurrent decisions on the same application serialize on the row lock;
// the loser re-reads the decided state and its guard fails.
func (s *Postgres) Execute(
	ctx context.Context,
	appID id.ApplicationID,
	validate func(*models.Application) error,
	mutate func(*models.Application),
) (*models.Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + appColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	app, err := scanApplication(tx.QueryRowContext(ctx, query, uuid.UUID(appID)))
	if err != nil {
		return nil, err
	}

	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	update := `
		UPDATE applications
		SET status = $2, rejection_reason = $3, decided_at = $4, decided_by = $5
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		uuid.UUID(app.ID), string(app.Status), nullable(app.RejectionReason),
		app.DecidedAt, nullableID(uuid.UUID(app.DecidedBy)),
	)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app                models.Application
		rawID, rawOwner    uuid.UUID
		income             string
		landlord, contact  sql.NullString
		notes              sql.NullString
		idDoc, proof, hist sql.NullString
		status, reason     sql.NullString
		decidedAt          sql.NullTime
		decidedBy          uuid.NullUUID
	)
	err := row.Scan(&rawID, &rawOwner,
		&app.Profile.FullName, &app.Profile.Email, &app.Profile.Phone,
		&app.Profile.CurrentAddress, &app.Profile.EmploymentStatus, &income,
		&landlord, &contact, &notes,
		&idDoc, &proof, &hist,
		&status, &reason, &app.CreatedAt, &decidedAt, &decidedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	parsedIncome, err := decimal.NewFromString(income)
	if err != nil {
		return nil, fmt.Errorf("parse stored income %q: %w", income, err)
	}

	app.ID = id.ApplicationID(rawID)
	app.OwnerID = id.UserID(rawOwner)
	app.Profile.MonthlyIncome = parsedIncome
	app.References.LandlordName = landlord.String
	app.References.LandlordContact = contact.String
	app.References.Notes = notes.String
	app.Documents.IDDocumentURL = idDoc.String
	app.Documents.IncomeProofURL = proof.String
	app.Documents.RentalHistoryURL = hist.String
	app.Status = models.Status(status.String)
	app.RejectionReason = reason.String
	if decidedAt.Valid {
		t := decidedAt.Time
		app.DecidedAt = &t
	}
	app.DecidedBy = id.UserID(decidedBy.UUID)
	return &app, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
