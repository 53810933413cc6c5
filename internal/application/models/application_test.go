package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

type ApplicationModelSuite struct {
	suite.Suite
	now time.Time
}

func TestApplicationModelSuite(t *testing.T) {
	suite.Run(t, new(ApplicationModelSuite))
}

func (s *ApplicationModelSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ApplicationModelSuite) validProfile() Profile {
	return Profile{
		FullName:         "Jordan Smith",
		Email:            "jordan@example.com",
		Phone:            "+1-555-0100",
		CurrentAddress:   "12 Main St",
		EmploymentStatus: "employed",
		MonthlyIncome:    decimal.NewFromInt(4200),
	}
}

func (s *ApplicationModelSuite) newPending() *Application {
	app, err := New(id.NewApplicationID(), id.NewUserID(), s.validProfile(), References{}, Documents{}, s.now)
	s.Require().NoError(err)
	return app
}

func (s *ApplicationModelSuite) TestNew() {
	s.Run("valid submission starts pending", func() {
		app := s.newPending()
		s.Equal(StatusPending, app.Status)
		s.Empty(app.RejectionReason)
		s.Nil(app.DecidedAt)
		s.True(app.DecidedBy.IsNil())
		s.Equal(s.now, app.CreatedAt)
	})

	s.Run("nil owner is rejected", func() {
		_, err := New(id.NewApplicationID(), id.UserID{}, s.validProfile(), References{}, Documents{}, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("each required profile field is enforced", func() {
		mutations := map[string]func(*Profile){
			"full_name":         func(p *Profile) { p.FullName = "  " },
			"email":             func(p *Profile) { p.Email = "" },
			"phone":             func(p *Profile) { p.Phone = "" },
			"current_address":   func(p *Profile) { p.CurrentAddress = "" },
			"employment_status": func(p *Profile) { p.EmploymentStatus = "" },
		}
		for field, mutate := range mutations {
			profile := s.validProfile()
			mutate(&profile)
			_, err := New(id.NewApplicationID(), id.NewUserID(), profile, References{}, Documents{}, s.now)
			s.Require().Error(err, field)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), field)
			s.Contains(err.Error(), field)
		}
	})

	s.Run("email must contain an @", func() {
		profile := s.validProfile()
		profile.Email = "not-an-email"
		_, err := New(id.NewApplicationID(), id.NewUserID(), profile, References{}, Documents{}, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("negative income is rejected", func() {
		profile := s.validProfile()
		profile.MonthlyIncome = decimal.NewFromInt(-1)
		_, err := New(id.NewApplicationID(), id.NewUserID(), profile, References{}, Documents{}, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("email is normalized to lower case", func() {
		profile := s.validProfile()
		profile.Email = "  Jordan@Example.COM "
		app, err := New(id.NewApplicationID(), id.NewUserID(), profile, References{}, Documents{}, s.now)
		s.Require().NoError(err)
		s.Equal("jordan@example.com", app.Profile.Email)
	})
}

func (s *ApplicationModelSuite) TestApprove() {
	s.Run("pending application can be approved", func() {
		app := s.newPending()
		admin := id.NewUserID()

		s.Require().NoError(app.CanApprove())
		app.ApplyApproval(admin, s.now)

		s.Equal(StatusApproved, app.Status)
		s.Equal(admin, app.DecidedBy)
		s.Require().NotNil(app.DecidedAt)
		s.Equal(s.now, *app.DecidedAt)
	})

	s.Run("approved application cannot be approved again", func() {
		app := s.newPending()
		app.ApplyApproval(id.NewUserID(), s.now)

		err := app.CanApprove()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejected application cannot be approved", func() {
		app := s.newPending()
		app.ApplyRejection(id.NewUserID(), "insufficient income", s.now)

		err := app.CanApprove()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ApplicationModelSuite) TestReject() {
	s.Run("pending application can be rejected with a reason", func() {
		app := s.newPending()
		admin := id.NewUserID()

		s.Require().NoError(app.CanReject("incomplete documents"))
		app.ApplyRejection(admin, "incomplete documents", s.now)

		s.Equal(StatusRejected, app.Status)
		s.Equal("incomplete documents", app.RejectionReason)
		s.Equal(admin, app.DecidedBy)
	})

	s.Run("empty reason fails validation before the state check", func() {
		app := s.newPending()

		err := app.CanReject("   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(StatusPending, app.Status)
	})

	s.Run("terminal application cannot be rejected", func() {
		app := s.newPending()
		app.ApplyApproval(id.NewUserID(), s.now)

		err := app.CanReject("too late")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ApplicationModelSuite) TestParsers() {
	s.Run("ParseStatus accepts known statuses case-insensitively", func() {
		status, err := ParseStatus(" Approved ")
		s.Require().NoError(err)
		s.Equal(StatusApproved, status)
	})

	s.Run("ParseStatus rejects unknown values", func() {
		_, err := ParseStatus("archived")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("ParseEvent accepts approve and reject only", func() {
		event, err := ParseEvent("REJECT")
		s.Require().NoError(err)
		s.Equal(EventReject, event)

		_, err = ParseEvent("escalate")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ApplicationModelSuite) TestTerminality() {
	s.True(StatusApproved.IsTerminal())
	s.True(StatusRejected.IsTerminal())
	s.False(StatusPending.IsTerminal())
}
