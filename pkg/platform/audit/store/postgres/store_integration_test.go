//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "tenantgate/pkg/domain"
	audit "tenantgate/pkg/platform/audit"
	auditpostgres "tenantgate/pkg/platform/audit/store/postgres"
	"tenantgate/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpostgres.Store
	ctx      context.Context
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = auditpostgres.New(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "audit_events"))
}

func (s *AuditStoreSuite) TestAppendAndList() {
	appID := id.NewApplicationID()
	owner := id.NewUserID()
	admin := id.NewUserID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	events := []audit.Event{
		{
			Action:        audit.EventApplicationSubmitted,
			Timestamp:     base,
			ActorID:       owner,
			OwnerID:       owner,
			ApplicationID: appID,
			RequestID:     "req-1",
		},
		{
			Action:        audit.EventApplicationRejected,
			Timestamp:     base.Add(time.Minute),
			ActorID:       admin,
			OwnerID:       owner,
			ApplicationID: appID,
			Decision:      "rejected",
			Reason:        "incomplete documents",
			RequestID:     "req-2",
		},
	}
	for _, event := range events {
		s.Require().NoError(s.store.Append(s.ctx, event))
	}
	// An event for another application must not show up in the trail.
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Action:        audit.EventApplicationSubmitted,
		Timestamp:     base,
		ApplicationID: id.NewApplicationID(),
	}))

	trail, err := s.store.ListByApplication(s.ctx, appID)
	s.Require().NoError(err)
	s.Require().Len(trail, 2)

	s.Equal(audit.EventApplicationSubmitted, trail[0].Action)
	s.Equal(owner, trail[0].ActorID)

	s.Equal(audit.EventApplicationRejected, trail[1].Action)
	s.Equal(admin, trail[1].ActorID)
	s.Equal("rejected", trail[1].Decision)
	s.Equal("incomplete documents", trail[1].Reason)
	s.True(trail[1].Timestamp.Equal(base.Add(time.Minute)))
}

func (s *AuditStoreSuite) TestEmptyTrail() {
	trail, err := s.store.ListByApplication(s.ctx, id.NewApplicationID())
	s.Require().NoError(err)
	s.Empty(trail)
}
