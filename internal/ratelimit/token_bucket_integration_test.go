//go:build integration

package ratelimit_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/booklib/internal/ratelimit"
	"github.com/smallbiznis/booklib/pkg/testutil/containers"
	"github.com/stretchr/testify/suite"
)

type TokenBucketSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestTokenBucketSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(TokenBucketSuite))
}

func (s *TokenBucketSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *TokenBucketSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *TokenBucketSuite) TestDeniesAfterBurst() {
	ctx := context.Background()
	bucket, err := ratelimit.NewTokenBucket(s.redis.Client, 0.01, 3)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "customer.create:10.0.0.1")
		s.Require().NoError(err)
		s.Require().True(res.Allowed, "request %d should pass", i)
		s.Require().Equal(3, res.Limit)
	}

	res, err := bucket.Allow(ctx, "customer.create:10.0.0.1")
	s.Require().NoError(err)
	s.Require().False(res.Allowed)
	s.Require().GreaterOrEqual(res.RetryAfter.Seconds(), 1.0)
}

func (s *TokenBucketSuite) TestKeysAreIndependent() {
	ctx := context.Background()
	bucket, err := ratelimit.NewTokenBucket(s.redis.Client, 0.01, 1)
	s.Require().NoError(err)

	res, err := bucket.Allow(ctx, "customer.create:10.0.0.1")
	s.Require().NoError(err)
	s.Require().True(res.Allowed)

	res, err = bucket.Allow(ctx, "customer.create:10.0.0.2")
	s.Require().NoError(err)
	s.Require().True(res.Allowed)
}

func (s *TokenBucketSuite) TestSetsExpiryOnBucket() {
	ctx := context.Background()
	bucket, err := ratelimit.NewTokenBucket(s.redis.Client, 1, 5)
	s.Require().NoError(err)

	_, err = bucket.Allow(ctx, "customer.create:10.0.0.3")
	s.Require().NoError(err)

	keys, err := s.redis.Client.Keys(ctx, "booklib:ratelimit:*").Result()
	s.Require().NoError(err)
	s.Require().Len(keys, 1)

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Require().Greater(ttl.Seconds(), 0.0)
}
