package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jmcallister/golfpool/internal/models"
	"github.com/jmcallister/golfpool/internal/providers"
)

// retryDelays is the fixed escalating retry ladder. Once it is exhausted
// no further retries are scheduled until a fetch succeeds or a new
// refresh cycle starts one.
var retryDelays = []time.Duration{3 * time.Second, 5 * time.Second, 10 * time.Second}

// SourceSelector walks the source priority ladder and returns the first
// usable leaderboard:
//
//	fresh cache -> live providers in order -> cache at any age -> static dataset
//
// Every live provider sits behind its own circuit breaker. A failure that
// falls through to cache or static data schedules a background retry of
// the live tier on the fixed delay ladder.
type SourceSelector struct {
	live      []providers.ScoreProvider
	fallback  providers.ScoreProvider
	cache     *ScoreCache
	logger    *logrus.Logger
	freshness time.Duration
	breakers  map[string]*gobreaker.CircuitBreaker

	mu           sync.Mutex
	failures     int
	retriesUsed  int
	retryTimer   *time.Timer
	lastSource   string
	closed       bool
	onRecovered  func(*models.Leaderboard)
}

// NewSourceSelector builds a selector over live providers (tried in
// order) with a never-failing fallback provider at the bottom.
func NewSourceSelector(
	live []providers.ScoreProvider,
	fallback providers.ScoreProvider,
	cache *ScoreCache,
	freshness time.Duration,
	logger *logrus.Logger,
) *SourceSelector {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(live))
	for _, p := range live {
		name := p.Name()
		breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"source":    name,
					"from":      from.String(),
					"to":        to.String(),
				}).Info("Circuit breaker state changed")
			},
		})
	}

	return &SourceSelector{
		live:      live,
		fallback:  fallback,
		cache:     cache,
		logger:    logger,
		freshness: freshness,
		breakers:  breakers,
	}
}

// SetOnRecovered registers a callback invoked when a scheduled background
// retry reaches a live source again. The poller uses it to push fresh
// standings without waiting for the next tick.
func (s *SourceSelector) SetOnRecovered(fn func(*models.Leaderboard)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRecovered = fn
}

// FetchScores resolves the current leaderboard. force bypasses the
// fresh-cache short circuit. The returned leaderboard always carries the
// source tag of the tier that satisfied the request; only a closed
// selector returns an error.
func (s *SourceSelector) FetchScores(ctx context.Context, force bool) (*models.Leaderboard, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSelectorClosed
	}
	s.mu.Unlock()

	// Step 1: a young cached copy counts as fresh data.
	if !force {
		var lb models.Leaderboard
		if hit, err := s.cache.Get(ctx, LeaderboardCacheKey(), s.freshness, &lb); err == nil {
			s.logger.WithFields(logrus.Fields{
				"source": hit.Source,
				"age":    hit.Age,
			}).Debug("Serving leaderboard from fresh cache")
			s.setLastSource(lb.SourceTag)
			return &lb, nil
		}
	}

	// Steps 2-3: live providers in priority order.
	if lb := s.fetchLive(ctx); lb != nil {
		return lb, nil
	}

	// Step 4: cache at any age, then schedule a retry of the live tier.
	s.recordFailure()
	var lb models.Leaderboard
	if _, err := s.cache.Get(ctx, LeaderboardCacheKey(), 0, &lb); err == nil {
		lb.SourceTag = models.SourceTagCached
		s.logger.Warn("All live sources failed, serving cached data")
		s.setLastSource(models.SourceTagCached)
		s.scheduleRetry()
		return &lb, nil
	}

	// Step 5: the emergency dataset. Clearly labeled, never absent.
	s.logger.Warn("All live sources failed and cache is empty, serving mock data")
	mock, err := s.fallback.FetchLeaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("emergency dataset unavailable: %w", err)
	}
	s.setLastSource(mock.SourceTag)
	s.scheduleRetry()
	return mock, nil
}

// fetchLive tries each live provider through its breaker. On success the
// result is cached, failure counters reset, and any pending retry is
// cancelled.
func (s *SourceSelector) fetchLive(ctx context.Context) *models.Leaderboard {
	for _, p := range s.live {
		breaker := s.breakers[p.Name()]
		result, err := breaker.Execute(func() (interface{}, error) {
			lb, err := p.FetchLeaderboard(ctx)
			if err != nil {
				return nil, err
			}
			if len(lb.Golfers) == 0 {
				return nil, providers.ErrNoScores
			}
			return lb, nil
		})
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"source": p.Name(),
				"error":  err.Error(),
			}).Warn("Score source failed")
			continue
		}

		lb := result.(*models.Leaderboard)
		if err := s.cache.Set(ctx, LeaderboardCacheKey(), lb, lb.SourceTag); err != nil {
			s.logger.Warnf("Failed to cache leaderboard: %v", err)
		}
		s.recordSuccess(lb.SourceTag)
		return lb
	}
	return nil
}

// scheduleRetry arms the next rung of the retry ladder. At most one timer
// is pending at a time and the ladder caps the retry count.
func (s *SourceSelector) scheduleRetry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.retryTimer != nil || s.retriesUsed >= len(retryDelays) {
		return
	}

	delay := retryDelays[s.retriesUsed]
	s.retriesUsed++
	s.logger.WithFields(logrus.Fields{
		"delay":   delay,
		"attempt": s.retriesUsed,
	}).Info("Scheduling live source retry")

	s.retryTimer = time.AfterFunc(delay, s.retryLive)
}

// retryLive re-enters the live tier from the top of the ladder.
func (s *SourceSelector) retryLive() {
	s.mu.Lock()
	s.retryTimer = nil
	if s.closed {
		s.mu.Unlock()
		return
	}
	callback := s.onRecovered
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lb := s.fetchLive(ctx)
	if lb == nil {
		s.recordFailure()
		s.scheduleRetry()
		return
	}

	s.logger.WithField("source", lb.SourceTag).Info("Live source recovered on retry")
	if callback != nil {
		callback(lb)
	}
}

func (s *SourceSelector) recordSuccess(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
	s.retriesUsed = 0
	s.lastSource = tag
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

func (s *SourceSelector) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

func (s *SourceSelector) setLastSource(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSource = tag
}

// Status reports selector state for the status endpoint.
func (s *SourceSelector) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakerStates := make(map[string]string, len(s.breakers))
	for name, b := range s.breakers {
		breakerStates[name] = b.State().String()
	}

	return map[string]interface{}{
		"last_source":          s.lastSource,
		"consecutive_failures": s.failures,
		"retries_used":         s.retriesUsed,
		"retry_pending":        s.retryTimer != nil,
		"breakers":             breakerStates,
	}
}

// ConsecutiveFailures returns the current failure streak.
func (s *SourceSelector) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Close cancels any pending retry timer. Subsequent fetches fail.
func (s *SourceSelector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

// ErrSelectorClosed is returned by FetchScores after Close.
var ErrSelectorClosed = errors.New("source selector is closed")
