package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tenantgate/internal/application/models"
	id "tenantgate/pkg/domain"
	"tenantgate/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres store for unit tests and local development.
// Execute holds the store mutex across both callbacks, giving the same
// exactly-one-winner guarantee the Postgres store gets from FOR UPDATE.
type InMemory struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *app
	s.apps[app.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

// FindLatestByOwner returns the owner's most recent application, breaking
// creation-time ties by ID so the result is deterministic.
func (s *InMemory) FindLatestByOwner(_ context.Context, ownerID id.UserID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Application
	for _, app := range s.apps {
		if app.OwnerID != ownerID {
			continue
		}
		if latest == nil || newerThan(app, latest) {
			latest = app
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Application
	for _, app := range s.apps {
		if !matches(app, filter) {
			continue
		}
		copied := *app
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return newerThan(out[i], out[j]) })
	return out, nil
}

func (s *InMemory) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts models.StatusCounts
	for _, app := range s.apps {
		counts.Total++
		switch app.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

// Execute runs validate then mutate against the stored application while
// holding the write lock, so no concurrent Execute can interleave between
// the guard and the mutation.
func (s *InMemory) Execute(
	_ context.Context,
	appID id.ApplicationID,
	validate func(*models.Application) error,
	mutate func(*models.Application),
) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)
	copied := *app
	return &copied, nil
}

func newerThan(a, b *models.Application) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

func matches(app *models.Application, filter models.Filter) bool {
	if filter.Status != "" && app.Status != filter.Status {
		return false
	}
	if filter.Query != "" {
		q := strings.ToLower(filter.Query)
		name := strings.ToLower(app.Profile.FullName)
		email := strings.ToLower(app.Profile.Email)
		if !strings.Contains(name, q) && !strings.Contains(email, q) {
			return false
		}
	}
	return true
}
