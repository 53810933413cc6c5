package service

import (
	"context"
	"errors"
	"strings"
	"time"

	identitymetrics "tenantgate/internal/identity/metrics"
	"tenantgate/internal/identity/models"
	"tenantgate/internal/jwttoken"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/audit"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

// Store persists user accounts.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Revoker invalidates an access token until its natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service orchestrates registration, login and profile management.
type Service struct {
	users   Store
	tokens  *jwttoken.Service
	revoker Revoker
	audit   *audit.Emitter
	metrics *identitymetrics.Metrics

	accessTokenTTL time.Duration
}

type Option func(*Service)

func WithAudit(emitter *audit.Emitter) Option {
	return func(s *Service) { s.audit = emitter }
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(users Store, tokens *jwttoken.Service, revoker Revoker, accessTokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:          users,
		tokens:         tokens,
		revoker:        revoker,
		accessTokenTTL: accessTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterParams carries the registration form fields.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register creates a new account with the user role. Fails with a conflict
// when the email is already taken.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	hash, err := hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := models.NewUser(id.NewUserID(), params.Name, params.Email, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateIfEmailAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "user with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.EventUserRegistered,
		ActorID: user.ID,
		OwnerID: user.ID,
		Email:   user.Email,
	})
	s.metrics.IncrementUsersRegistered()
	return user, nil
}

// Login verifies credentials and returns a signed access token. Lookup and
// verification failures collapse into one unauthorized error so the response
// does not reveal which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordLoginFailure(ctx, email)
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if !verifyPassword(user.PasswordHash, password) {
		s.recordLoginFailure(ctx, email)
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Role, s.accessTokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.EventUserLoggedIn,
		ActorID: user.ID,
		OwnerID: user.ID,
		Email:   user.Email,
	})
	return token, user, nil
}

// Logout revokes the presented token for its remaining lifetime.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	ttl, err := s.tokens.RemainingTTL(tokenString)
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.JTI, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.EventUserLoggedOut,
		ActorID: claims.UserID,
		OwnerID: claims.UserID,
	})
	return nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	return user, nil
}

// UpdateProfile applies the mutable profile fields to the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, update models.ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.ApplyProfileUpdate(update, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.EventProfileUpdated,
		ActorID: user.ID,
		OwnerID: user.ID,
	})
	return user, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, email string) {
	s.audit.Emit(ctx, audit.Event{
		Action: audit.EventLoginFailed,
		Email:  email,
	})
	s.metrics.IncrementLoginFailures()
}
