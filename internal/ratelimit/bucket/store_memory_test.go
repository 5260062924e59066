package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore()
	s.store.now = func() time.Time { return s.now }
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	ctx := context.Background()

	s.Run("requests within the limit are allowed and counted down", func() {
		for i := range testLimit {
			result, err := s.store.Allow(ctx, "login:10.0.0.1", testLimit, testWindow)
			s.Require().NoError(err)
			s.True(result.Allowed)
			s.Equal(testLimit, result.Limit)
			s.Equal(testLimit-i-1, result.Remaining)
		}
	})

	s.Run("request over the limit is denied until the oldest expires", func() {
		result, err := s.store.Allow(ctx, "login:10.0.0.1", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Zero(result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
		s.Equal(60, result.RetryAfter(s.now))
	})

	s.Run("keys are independent", func() {
		result, err := s.store.Allow(ctx, "login:10.0.0.2", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("window slides", func() {
		s.now = s.now.Add(testWindow)
		result, err := s.store.Allow(ctx, "login:10.0.0.1", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	ctx := context.Background()
	for range testLimit {
		_, err := s.store.Allow(ctx, "login:10.0.0.1", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.store.Reset(ctx, "login:10.0.0.1"))

	result, err := s.store.Allow(ctx, "login:10.0.0.1", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllowNeverExceedsLimit() {
	ctx := context.Background()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(ctx, "login:10.0.0.9", testLimit, testWindow)
			s.NoError(err)
			if result != nil && result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}

func TestResult_RetryAfterRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := &Result{ResetAt: now.Add(1500 * time.Millisecond)}
	if got := r.RetryAfter(now); got != 2 {
		t.Fatalf("RetryAfter = %d, want 2", got)
	}
	if got := r.RetryAfter(now.Add(time.Hour)); got != 1 {
		t.Fatalf("RetryAfter past reset = %d, want 1", got)
	}
}
