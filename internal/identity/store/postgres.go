package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tenantgate/internal/identity/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// Postgres persists users in the users table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, name, email, password_hash, phone, address, avatar_url, role, created_at, updated_at`

// CreateIfEmailAvailable inserts the user, relying on the case-insensitive
// unique index to arbitrate concurrent registrations with the same email.
func (s *Postgres) CreateIfEmailAvailable(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name, user.Email, user.PasswordHash,
		nullable(user.Phone), nullable(user.Address), nullable(user.AvatarURL),
		string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Postgres) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, phone = $3, address = $4, avatar_url = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name,
		nullable(user.Phone), nullable(user.Address), nullable(user.AvatarURL),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user                      models.User
		rawID                     uuid.UUID
		role                      string
		phone, address, avatarURL sql.NullString
	)
	err := row.Scan(&rawID, &user.Name, &user.Email, &user.PasswordHash,
		&phone, &address, &avatarURL, &role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(rawID)
	user.Role = id.ParseRole(role)
	user.Phone = phone.String
	user.Address = address.String
	user.AvatarURL = avatarURL.String
	return &user, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
