package store

import (
	"context"
	"strings"
	"sync"

	"tenantgate/internal/identity/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres store for unit tests and local development.
// Email uniqueness is case-insensitive, matching the database index.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	copied := *user
	s.users[user.ID] = &copied
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.users[userID]
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}
