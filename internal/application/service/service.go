package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	applicationmetrics "tenantgate/internal/application/metrics"
	"tenantgate/internal/application/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/audit"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
)

// Store persists applications and serializes review decisions.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindLatestByOwner(ctx context.Context, ownerID id.UserID) (*models.Application, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Application, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	Execute(
		ctx context.Context,
		appID id.ApplicationID,
		validate func(*models.Application) error,
		mutate func(*models.Application),
	) (*models.Application, error)
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID   id.UserID
	Role id.Role
}

// Service orchestrates submission and review of tenant applications.
type Service struct {
	store   Store
	audit   *audit.Emitter
	metrics *applicationmetrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithAudit(emitter *audit.Emitter) Option {
	return func(s *Service) { s.audit = emitter }
}

func WithMetrics(m *applicationmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tracer: otel.Tracer("tenantgate/application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitParams carries the application form fields.
type SubmitParams struct {
	Profile    models.Profile
	References models.References
	Documents  models.Documents
}

// Submit validates and stores a new pending application for the owner.
func (s *Service) Submit(ctx context.Context, ownerID id.UserID, params SubmitParams) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Submit")
	defer span.End()

	app, err := models.New(id.NewApplicationID(), ownerID,
		params.Profile, params.References, params.Documents, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "application already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store application")
	}
	span.SetAttributes(attribute.String("application.id", app.ID.String()))

	s.audit.Emit(ctx, audit.Event{
		Action:        audit.EventApplicationSubmitted,
		ActorID:       ownerID,
		OwnerID:       ownerID,
		ApplicationID: app.ID,
		Email:         app.Profile.Email,
	})
	s.metrics.IncrementSubmitted()
	return app, nil
}

// Decide applies an approve or reject event to a pending application. The
// store runs the guard and the mutation under one lock, so of two concurrent
// decisions exactly one wins and the other observes a terminal state.
func (s *Service) Decide(ctx context.Context, actor Actor, appID id.ApplicationID, event models.Event, reason string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Decide",
		trace.WithAttributes(
			attribute.String("application.id", appID.String()),
			attribute.String("application.event", string(event)),
		))
	defer span.End()

	validate := func(app *models.Application) error {
		if actor.Role != id.RoleAdmin {
			return dErrors.New(dErrors.CodeForbidden, "only admins can decide applications")
		}
		switch event {
		case models.EventApprove:
			return app.CanApprove()
		case models.EventReject:
			return app.CanReject(reason)
		default:
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown event %q", event)
		}
	}
	mutate := func(app *models.Application) {
		now := requestcontext.Now(ctx)
		if event == models.EventApprove {
			app.ApplyApproval(actor.ID, now)
		} else {
			app.ApplyRejection(actor.ID, reason, now)
		}
	}

	app, err := s.store.Execute(ctx, appID, validate, mutate)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply decision")
	}

	action := audit.EventApplicationApproved
	if event == models.EventReject {
		action = audit.EventApplicationRejected
	}
	s.audit.Emit(ctx, audit.Event{
		Action:        action,
		ActorID:       actor.ID,
		OwnerID:       app.OwnerID,
		ApplicationID: app.ID,
		Decision:      string(app.Status),
		Reason:        app.RejectionReason,
	})
	s.metrics.IncrementDecision(string(event))
	return app, nil
}

// GetByOwner returns the owner's most recent application, or nil when the
// owner has never applied.
func (s *Service) GetByOwner(ctx context.Context, ownerID id.UserID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.GetByOwner")
	defer span.End()

	app, err := s.store.FindLatestByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
	}
	return app, nil
}

// GetByID returns one application by its identifier.
func (s *Service) GetByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.GetByID")
	defer span.End()

	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
	}
	return app, nil
}

// List returns applications matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.List")
	defer span.End()

	apps, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// Stats returns application counts grouped by status.
func (s *Service) Stats(ctx context.Context) (models.StatusCounts, error) {
	ctx, span := s.tracer.Start(ctx, "application.Stats")
	defer span.End()

	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count applications")
	}
	return counts, nil
}
