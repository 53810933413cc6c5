//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tenantgate/internal/identity/revocation"
	"tenantgate/pkg/testutil/containers"
)

type RedisRevocationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *revocation.Redis
	ctx   context.Context
}

func TestRedisRevocationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRevocationSuite))
}

func (s *RedisRevocationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = revocation.NewRedis(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisRevocationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisRevocationSuite) TestRevoke() {
	s.Run("revoked jti is reported revoked", func() {
		s.Require().NoError(s.store.Revoke(s.ctx, "jti-1", time.Minute))

		revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-1")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("unknown jti is not revoked", func() {
		revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-unknown")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("entry expires with the token", func() {
		s.Require().NoError(s.store.Revoke(s.ctx, "jti-short", 200*time.Millisecond))

		revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-short")
		s.Require().NoError(err)
		s.True(revoked)

		s.Require().Eventually(func() bool {
			revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-short")
			return err == nil && !revoked
		}, 3*time.Second, 100*time.Millisecond)
	})

	s.Run("non-positive ttl is a no-op", func() {
		s.Require().NoError(s.store.Revoke(s.ctx, "jti-expired", 0))

		revoked, err := s.store.IsTokenRevoked(s.ctx, "jti-expired")
		s.Require().NoError(err)
		s.False(revoked)
	})
}
