package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jmcallister/golfpool/internal/models"
)

// TournamentStatusProvider reports whether a tournament is underway.
type TournamentStatusProvider interface {
	FetchTournamentState(ctx context.Context) (*models.TournamentState, error)
}

// EntrySource supplies the pool entries to rank. Satisfied by
// PickRegistry.
type EntrySource interface {
	List() ([]models.PoolEntry, error)
}

// Broadcaster pushes a fresh standings generation to connected
// dashboards.
type Broadcaster interface {
	BroadcastStandings(standings *models.Standings)
}

// PollingController owns the refresh cadence: a short interval while a
// tournament is active, a long one otherwise. The active flag itself is
// checked on a much slower schedule and cached. Exactly one refresh
// timer exists at a time; it is torn down and recreated whenever the
// active flag flips.
type PollingController struct {
	selector    *SourceSelector
	registry    EntrySource
	calculator  *StandingsCalculator
	cache       *ScoreCache
	status      TournamentStatusProvider
	broadcaster Broadcaster
	logger      *logrus.Logger

	activeInterval time.Duration
	idleInterval   time.Duration
	statusInterval time.Duration

	mu            sync.Mutex
	refreshCron   *cron.Cron
	statusCron    *cron.Cron
	active        bool
	inFlight      bool
	isRunning     bool
	nextGen       uint64
	appliedGen    uint64
	lastStandings *models.Standings
	lastError     string
}

// NewPollingController wires the refresh pipeline together.
func NewPollingController(
	selector *SourceSelector,
	registry EntrySource,
	calculator *StandingsCalculator,
	cache *ScoreCache,
	status TournamentStatusProvider,
	broadcaster Broadcaster,
	activeInterval, idleInterval, statusInterval time.Duration,
	logger *logrus.Logger,
) *PollingController {
	p := &PollingController{
		selector:       selector,
		registry:       registry,
		calculator:     calculator,
		cache:          cache,
		status:         status,
		broadcaster:    broadcaster,
		logger:         logger,
		activeInterval: activeInterval,
		idleInterval:   idleInterval,
		statusInterval: statusInterval,
	}
	selector.SetOnRecovered(p.applyRecovered)
	return p
}

// Start begins polling: an immediate status check and refresh, then the
// recurring schedules.
func (p *PollingController) Start() error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return fmt.Errorf("polling controller is already running")
	}
	p.isRunning = true
	p.mu.Unlock()

	p.checkTournamentState()

	p.statusCron = cron.New()
	schedule := fmt.Sprintf("@every %s", p.statusInterval.String())
	if _, err := p.statusCron.AddFunc(schedule, p.checkTournamentState); err != nil {
		return fmt.Errorf("failed to schedule status checks: %w", err)
	}
	p.statusCron.Start()

	p.mu.Lock()
	p.rescheduleLocked()
	p.mu.Unlock()

	// Initial fetch so the dashboard has data immediately
	go func() {
		if _, err := p.Refresh(context.Background(), false); err != nil {
			p.logger.Warnf("Initial refresh failed: %v", err)
		}
	}()

	p.logger.Info("Polling controller started")
	return nil
}

// Stop halts all timers and closes the selector so orphaned retry
// callbacks cannot fire after shutdown.
func (p *PollingController) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	refreshCron := p.refreshCron
	statusCron := p.statusCron
	p.refreshCron = nil
	p.mu.Unlock()

	if refreshCron != nil {
		<-refreshCron.Stop().Done()
	}
	if statusCron != nil {
		<-statusCron.Stop().Done()
	}
	p.selector.Close()
	p.logger.Info("Polling controller stopped")
}

// Refresh runs one fetch-and-compute cycle. force bypasses the selector's
// fresh-cache short circuit (the manual refresh path). If a fetch is
// already in flight the call is coalesced onto the last completed
// generation instead of duplicating work.
func (p *PollingController) Refresh(ctx context.Context, force bool) (*models.Standings, error) {
	p.mu.Lock()
	if p.inFlight {
		last := p.lastStandings
		p.mu.Unlock()
		p.logger.Debug("Refresh already in flight, skipping")
		if last == nil {
			return nil, fmt.Errorf("refresh in progress and no standings computed yet")
		}
		return last, nil
	}
	p.inFlight = true
	p.nextGen++
	gen := p.nextGen
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	leaderboard, err := p.selector.FetchScores(ctx, force)
	if err != nil {
		p.setLastError(err)
		return nil, err
	}

	return p.compute(leaderboard, gen)
}

// applyRecovered handles leaderboards produced by the selector's
// background retries. They get their own generation so a slow retry can
// never overwrite a newer refresh.
func (p *PollingController) applyRecovered(leaderboard *models.Leaderboard) {
	p.mu.Lock()
	p.nextGen++
	gen := p.nextGen
	p.mu.Unlock()

	if _, err := p.compute(leaderboard, gen); err != nil {
		p.logger.Warnf("Failed to apply recovered leaderboard: %v", err)
	}
}

// compute turns a leaderboard into a standings generation and publishes
// it if it is still the newest. Latest request wins: a generation older
// than the last applied one is discarded.
func (p *PollingController) compute(leaderboard *models.Leaderboard, gen uint64) (*models.Standings, error) {
	entries, err := p.registry.List()
	if err != nil {
		p.setLastError(err)
		return nil, err
	}

	standings, err := p.calculator.ComputeStandings(entries, leaderboard, gen)
	if err != nil {
		p.setLastError(err)
		return nil, err
	}

	p.mu.Lock()
	if gen < p.appliedGen {
		stale := p.lastStandings
		p.mu.Unlock()
		p.logger.WithField("generation", gen).Debug("Discarding stale standings generation")
		return stale, nil
	}
	p.appliedGen = gen
	p.lastStandings = standings
	p.lastError = ""
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"generation":   gen,
		"source":       standings.SourceTag,
		"participants": len(standings.Participants),
	}).Info("Standings updated")

	if p.broadcaster != nil {
		p.broadcaster.BroadcastStandings(standings)
	}
	return standings, nil
}

// checkTournamentState refreshes the cached active flag and reschedules
// the refresh timer when the flag flips.
func (p *PollingController) checkTournamentState() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state := &models.TournamentState{}
	if _, err := p.cache.Get(ctx, TournamentStateCacheKey(), p.statusInterval, state); err != nil {
		fresh, err := p.status.FetchTournamentState(ctx)
		if err != nil {
			p.logger.Warnf("Tournament status check failed, keeping current cadence: %v", err)
			return
		}
		state = fresh
		if err := p.cache.Set(ctx, TournamentStateCacheKey(), state, "status-check"); err != nil {
			p.logger.Warnf("Failed to cache tournament state: %v", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if state.Active == p.active && p.refreshCron != nil {
		return
	}
	p.active = state.Active
	if p.isRunning {
		p.rescheduleLocked()
	}
}

// rescheduleLocked tears down the current refresh timer and creates one
// at the cadence matching the active flag. Caller holds p.mu.
func (p *PollingController) rescheduleLocked() {
	if p.refreshCron != nil {
		p.refreshCron.Stop()
	}

	interval := p.idleInterval
	if p.active {
		interval = p.activeInterval
	}

	p.refreshCron = cron.New()
	schedule := fmt.Sprintf("@every %s", interval.String())
	if _, err := p.refreshCron.AddFunc(schedule, p.tick); err != nil {
		p.logger.Errorf("Failed to schedule refresh: %v", err)
		return
	}
	p.refreshCron.Start()

	p.logger.WithFields(logrus.Fields{
		"interval": interval,
		"active":   p.active,
	}).Info("Refresh cadence set")
}

func (p *PollingController) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if _, err := p.Refresh(ctx, false); err != nil {
		p.logger.Warnf("Scheduled refresh failed: %v", err)
	}
}

// Standings returns the most recent generation, or nil when none has
// been computed yet.
func (p *PollingController) Standings() *models.Standings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStandings
}

// TournamentActive reports the cached active flag.
func (p *PollingController) TournamentActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Status reports poller state for the status endpoint.
func (p *PollingController) Status() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	interval := p.idleInterval
	if p.active {
		interval = p.activeInterval
	}

	status := map[string]interface{}{
		"is_running":        p.isRunning,
		"tournament_active": p.active,
		"poll_interval":     interval.String(),
		"in_flight":         p.inFlight,
		"generation":        p.appliedGen,
	}
	if p.lastError != "" {
		status["last_error"] = p.lastError
	}
	if p.lastStandings != nil {
		status["last_source"] = p.lastStandings.SourceTag
		status["computed_at"] = p.lastStandings.ComputedAt
	}
	return status
}

func (p *PollingController) setLastError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastError = err.Error()
}
