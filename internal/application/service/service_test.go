package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/application/models"
	"tenantgate/internal/application/store"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

type ApplicationServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	ctx     context.Context
	now     time.Time
	admin   Actor
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.admin = Actor{ID: id.NewUserID(), Role: id.RoleAdmin}
}

func (s *ApplicationServiceSuite) validParams() SubmitParams {
	return SubmitParams{
		Profile: models.Profile{
			FullName:         "Jordan Smith",
			Email:            "jordan@example.com",
			Phone:            "+1-555-0100",
			CurrentAddress:   "12 Main St",
			EmploymentStatus: "employed",
			MonthlyIncome:    decimal.NewFromInt(4200),
		},
	}
}

func (s *ApplicationServiceSuite) submit(ownerID id.UserID) *models.Application {
	app, err := s.service.Submit(s.ctx, ownerID, s.validParams())
	s.Require().NoError(err)
	return app
}

func (s *ApplicationServiceSuite) TestSubmit() {
	s.Run("valid submission is stored pending", func() {
		owner := id.NewUserID()
		app := s.submit(owner)

		s.Equal(models.StatusPending, app.Status)
		s.Equal(owner, app.OwnerID)
		s.False(app.ID.IsNil())

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.ID, stored.ID)
	})

	s.Run("missing phone fails validation and stores nothing", func() {
		params := s.validParams()
		params.Profile.Phone = ""

		_, err := s.service.Submit(s.ctx, id.NewUserID(), params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		counts, err := s.store.CountByStatus(s.ctx)
		s.Require().NoError(err)
		s.Zero(counts.Total)
	})

	s.Run("owner may submit more than once", func() {
		owner := id.NewUserID()
		first := s.submit(owner)
		second := s.submit(owner)
		s.NotEqual(first.ID, second.ID)
	})
}

func (s *ApplicationServiceSuite) TestDecide() {
	s.Run("admin approves a pending application", func() {
		app := s.submit(id.NewUserID())

		decided, err := s.service.Decide(s.ctx, s.admin, app.ID, models.EventApprove, "")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, decided.Status)
		s.Equal(s.admin.ID, decided.DecidedBy)
		s.Require().NotNil(decided.DecidedAt)
		s.Equal(s.now, *decided.DecidedAt)
	})

	s.Run("admin rejects with a reason", func() {
		app := s.submit(id.NewUserID())

		decided, err := s.service.Decide(s.ctx, s.admin, app.ID, models.EventReject, "income below threshold")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, decided.Status)
		s.Equal("income below threshold", decided.RejectionReason)
	})

	s.Run("reject without a reason leaves the application pending", func() {
		app := s.submit(id.NewUserID())

		_, err := s.service.Decide(s.ctx, s.admin, app.ID, models.EventReject, "  ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)
	})

	s.Run("second decision on a decided application conflicts", func() {
		app := s.submit(id.NewUserID())

		_, err := s.service.Decide(s.ctx, s.admin, app.ID, models.EventApprove, "")
		s.Require().NoError(err)

		_, err = s.service.Decide(s.ctx, s.admin, app.ID, models.EventReject, "changed my mind")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, stored.Status)
		s.Empty(stored.RejectionReason)
	})

	s.Run("non-admin actors are forbidden", func() {
		app := s.submit(id.NewUserID())
		user := Actor{ID: id.NewUserID(), Role: id.RoleUser}

		_, err := s.service.Decide(s.ctx, user, app.ID, models.EventApprove, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, err := s.store.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)
	})

	s.Run("unknown application is not found", func() {
		_, err := s.service.Decide(s.ctx, s.admin, id.NewApplicationID(), models.EventApprove, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestDecideConcurrency drives many simultaneous decisions at one pending
// application and asserts exactly one wins.
func (s *ApplicationServiceSuite) TestDecideConcurrency() {
	app := s.submit(id.NewUserID())

	const attempts = 32
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			event := models.EventApprove
			reason := ""
			if i%2 == 1 {
				event = models.EventReject
				reason = "lost the race"
			}
			_, results[i] = s.service.Decide(s.ctx, s.admin, app.ID, event, reason)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(attempts-1, conflicts)

	stored, err := s.store.FindByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.True(stored.Status.IsTerminal())
}

func (s *ApplicationServiceSuite) TestGetByOwner() {
	s.Run("returns the most recent application", func() {
		owner := id.NewUserID()
		s.submit(owner)
		laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
		newer, err := s.service.Submit(laterCtx, owner, s.validParams())
		s.Require().NoError(err)

		found, err := s.service.GetByOwner(s.ctx, owner)
		s.Require().NoError(err)
		s.Require().NotNil(found)
		s.Equal(newer.ID, found.ID)
	})

	s.Run("returns nil without error when the owner never applied", func() {
		found, err := s.service.GetByOwner(s.ctx, id.NewUserID())
		s.Require().NoError(err)
		s.Nil(found)
	})
}

func (s *ApplicationServiceSuite) TestListAndStats() {
	ownerA := id.NewUserID()
	ownerB := id.NewUserID()
	a := s.submit(ownerA)
	s.submit(ownerB)

	_, err := s.service.Decide(s.ctx, s.admin, a.ID, models.EventApprove, "")
	s.Require().NoError(err)

	approved, err := s.service.List(s.ctx, models.Filter{Status: models.StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(a.ID, approved[0].ID)

	counts, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), counts.Total)
	s.Equal(int64(1), counts.Pending)
	s.Equal(int64(1), counts.Approved)
	s.Equal(int64(0), counts.Rejected)
}
