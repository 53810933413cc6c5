package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/application/models"
	"tenantgate/internal/application/service"
	"tenantgate/internal/application/store"
	"tenantgate/internal/identity/revocation"
	"tenantgate/internal/jwttoken"
	id "tenantgate/pkg/domain"
)

type ApplicationHandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *service.Service
	tokens  *jwttoken.Service

	adminID    id.UserID
	adminToken string
	userID     id.UserID
	userToken  string
}

func TestApplicationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ApplicationHandlerSuite))
}

func (s *ApplicationHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.tokens = jwttoken.NewService("test-signing-key", "tenantgate", "tenantgate-api")
	revocations := revocation.NewInMemory()
	s.service = service.New(store.NewInMemory())

	s.router = chi.NewRouter()
	New(s.service, s.tokens, revocations, logger).Register(s.router)

	var err error
	s.adminID = id.NewUserID()
	s.adminToken, err = s.tokens.GenerateAccessToken(s.adminID, id.RoleAdmin, time.Hour)
	s.Require().NoError(err)
	s.userID = id.NewUserID()
	s.userToken, err = s.tokens.GenerateAccessToken(s.userID, id.RoleUser, time.Hour)
	s.Require().NoError(err)
}

func (s *ApplicationHandlerSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ApplicationHandlerSuite) submitBody() map[string]any {
	return map[string]any{
		"full_name":         "Jordan Smith",
		"email":             "jordan@example.com",
		"phone":             "+1-555-0100",
		"current_address":   "12 Main St",
		"employment_status": "employed",
		"monthly_income":    "4200.50",
	}
}

func (s *ApplicationHandlerSuite) submit() models.Application {
	rec := s.request(http.MethodPost, "/applications", s.userToken, s.submitBody())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var app models.Application
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &app))
	return app
}

func (s *ApplicationHandlerSuite) TestSubmit() {
	s.Run("authenticated submission returns 201", func() {
		app := s.submit()
		s.Equal(models.StatusPending, app.Status)
		s.Equal(s.userID, app.OwnerID)
		s.Equal("4200.5", app.Profile.MonthlyIncome.String())
	})

	s.Run("missing token returns 401", func() {
		rec := s.request(http.MethodPost, "/applications", "", s.submitBody())
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("invalid income returns 400", func() {
		body := s.submitBody()
		body["monthly_income"] = "lots"
		rec := s.request(http.MethodPost, "/applications", s.userToken, body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing required field returns 400", func() {
		body := s.submitBody()
		body["phone"] = ""
		rec := s.request(http.MethodPost, "/applications", s.userToken, body)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ApplicationHandlerSuite) TestGetOwn() {
	s.Run("owner sees their latest application", func() {
		app := s.submit()

		rec := s.request(http.MethodGet, "/applications", s.userToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Application *models.Application `json:"application"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Require().NotNil(resp.Application)
		s.Equal(app.ID, resp.Application.ID)
	})

	s.Run("owner with no application gets a null body", func() {
		rec := s.request(http.MethodGet, "/applications", s.adminToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"application": null}`, rec.Body.String())
	})
}

func (s *ApplicationHandlerSuite) TestAdminRoutes() {
	s.Run("non-admin is forbidden", func() {
		rec := s.request(http.MethodGet, "/admin/applications", s.userToken, nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("admin lists applications with filters", func() {
		s.submit()

		rec := s.request(http.MethodGet, "/admin/applications?status=pending&q=jordan", s.adminToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Applications []models.Application `json:"applications"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.Len(resp.Applications, 1)
	})

	s.Run("unknown status filter returns 400", func() {
		rec := s.request(http.MethodGet, "/admin/applications?status=archived", s.adminToken, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("admin fetches one application by ID", func() {
		app := s.submit()

		rec := s.request(http.MethodGet, "/admin/applications/"+app.ID.String(), s.adminToken, nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		var got models.Application
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(app.ID, got.ID)
	})

	s.Run("malformed ID returns 400", func() {
		rec := s.request(http.MethodGet, "/admin/applications/not-a-uuid", s.adminToken, nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown ID returns 404", func() {
		rec := s.request(http.MethodGet, "/admin/applications/"+id.NewApplicationID().String(), s.adminToken, nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *ApplicationHandlerSuite) TestDecide() {
	s.Run("approve transitions the application", func() {
		app := s.submit()

		rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "approve"})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var got models.Application
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(models.StatusApproved, got.Status)
		s.Equal(s.adminID, got.DecidedBy)
	})

	s.Run("reject requires a reason", func() {
		app := s.submit()

		rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "reject"})
		s.Equal(http.StatusBadRequest, rec.Code)

		rec = s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "reject", "reason": "income below threshold"})
		s.Require().Equal(http.StatusOK, rec.Code)

		var got models.Application
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
		s.Equal(models.StatusRejected, got.Status)
		s.Equal("income below threshold", got.RejectionReason)
	})

	s.Run("second decision returns 409", func() {
		app := s.submit()

		rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "approve"})
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "reject", "reason": "changed my mind"})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("non-admin decision is forbidden", func() {
		app := s.submit()

		rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.userToken,
			map[string]any{"event": "approve"})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("unknown event returns 400", func() {
		app := s.submit()

		rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
			map[string]any{"event": "escalate"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ApplicationHandlerSuite) TestStats() {
	app := s.submit()
	s.submit()

	rec := s.request(http.MethodPatch, "/admin/applications/"+app.ID.String(), s.adminToken,
		map[string]any{"event": "approve"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/admin/stats", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var counts models.StatusCounts
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &counts))
	s.Equal(int64(2), counts.Total)
	s.Equal(int64(1), counts.Pending)
	s.Equal(int64(1), counts.Approved)
}
