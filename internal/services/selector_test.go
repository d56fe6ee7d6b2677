package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcallister/golfpool/internal/models"
	"github.com/jmcallister/golfpool/internal/providers"
)

// fakeProvider is a scriptable score source for selector tests.
type fakeProvider struct {
	name  string
	lb    *models.Leaderboard
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lb, nil
}

func fakeLeaderboard(tag string) *models.Leaderboard {
	return &models.Leaderboard{
		Tournament: "Test Open",
		SourceTag:  tag,
		FetchedAt:  time.Now(),
		Golfers:    []models.GolferScore{{Name: "A", Score: -2, Thru: "F", Status: models.GolferActive}},
	}
}

func newTestSelector(live []providers.ScoreProvider, fallback providers.ScoreProvider, freshness time.Duration) (*SourceSelector, *ScoreCache) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	cache := NewScoreCache(NewMemoryStore(), logger)
	return NewSourceSelector(live, fallback, cache, freshness, logger), cache
}

func TestSelectorPrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", lb: fakeLeaderboard(models.SourceTagPGATour)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, cache := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	lb, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagPGATour, lb.SourceTag)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)

	// The result lands in the cache
	var cached models.Leaderboard
	_, err = cache.Get(context.Background(), LeaderboardCacheKey(), 0, &cached)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagPGATour, cached.SourceTag)
}

func TestSelectorFreshCacheShortCircuit(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", lb: fakeLeaderboard(models.SourceTagPGATour)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	_, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	_, err = selector.FetchScores(context.Background(), false)
	require.NoError(t, err)

	// Second call was served from cache; no second provider hit
	assert.Equal(t, 1, primary.calls)
}

func TestSelectorForceBypassesFreshCache(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", lb: fakeLeaderboard(models.SourceTagPGATour)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	_, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	_, err = selector.FetchScores(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, primary.calls)
}

func TestSelectorFallsThroughToSecondary(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", err: errors.New("scrape failed")}
	secondary := &fakeProvider{name: "espn", lb: fakeLeaderboard(models.SourceTagESPN)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary, secondary}, fallback, time.Minute)
	defer selector.Close()

	lb, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagESPN, lb.SourceTag)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestSelectorEmptyLeaderboardIsFailure(t *testing.T) {
	empty := fakeLeaderboard(models.SourceTagPGATour)
	empty.Golfers = nil
	primary := &fakeProvider{name: "pgatour", lb: empty}
	secondary := &fakeProvider{name: "espn", lb: fakeLeaderboard(models.SourceTagESPN)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary, secondary}, fallback, time.Minute)
	defer selector.Close()

	lb, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagESPN, lb.SourceTag)
}

func TestSelectorServesStaleCacheWhenLiveFails(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", lb: fakeLeaderboard(models.SourceTagPGATour)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, cache := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	// Populate the cache, then push the clock well past freshness and make
	// the live source fail
	base := time.Now()
	cache.now = func() time.Time { return base }
	_, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)

	cache.now = func() time.Time { return base.Add(2 * time.Hour) }
	primary.err = errors.New("scrape failed")

	lb, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagCached, lb.SourceTag)
	assert.Equal(t, 1, selector.ConsecutiveFailures())

	status := selector.Status()
	assert.Equal(t, true, status["retry_pending"])
	assert.Equal(t, models.SourceTagCached, status["last_source"])
}

func TestSelectorMockDataWhenCacheEmpty(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", err: errors.New("scrape failed")}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	lb, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagMock, lb.SourceTag)
	assert.Equal(t, 1, fallback.calls)
}

func TestSelectorSuccessResetsFailureStreak(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", err: errors.New("scrape failed")}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	_, err := selector.FetchScores(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, selector.ConsecutiveFailures())

	primary.err = nil
	primary.lb = fakeLeaderboard(models.SourceTagPGATour)
	_, err = selector.FetchScores(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 0, selector.ConsecutiveFailures())
	status := selector.Status()
	assert.Equal(t, false, status["retry_pending"])
	assert.Equal(t, 0, status["retries_used"])
}

func TestSelectorCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", err: errors.New("scrape failed")}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)
	defer selector.Close()

	for i := 0; i < 5; i++ {
		_, err := selector.FetchScores(context.Background(), true)
		require.NoError(t, err)
	}

	// The breaker stops hammering a dead source; fewer calls than fetches
	assert.Less(t, primary.calls, 5)
	status := selector.Status()
	breakers := status["breakers"].(map[string]string)
	assert.Equal(t, "open", breakers["pgatour"])
}

func TestSelectorClosedReturnsError(t *testing.T) {
	primary := &fakeProvider{name: "pgatour", lb: fakeLeaderboard(models.SourceTagPGATour)}
	fallback := &fakeProvider{name: "static", lb: fakeLeaderboard(models.SourceTagMock)}
	selector, _ := newTestSelector([]providers.ScoreProvider{primary}, fallback, time.Minute)

	selector.Close()
	_, err := selector.FetchScores(context.Background(), false)
	assert.ErrorIs(t, err, ErrSelectorClosed)
}
