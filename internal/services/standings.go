package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmcallister/golfpool/internal/models"
)

// BestOf is how many of a participant's pick scores count toward their
// total: the four lowest of five, discarding the worst.
const BestOf = 4

// StandingsCalculator joins pool entries with a leaderboard snapshot and
// produces the ranked standings table. It is pure computation: every call
// builds a fresh generation, nothing is cached between refreshes.
type StandingsCalculator struct {
	logger            *logrus.Logger
	tiebreakerTarget1 int
	tiebreakerTarget2 int
}

// NewStandingsCalculator creates a calculator with the season's
// tiebreaker targets (the values participants were guessing at).
func NewStandingsCalculator(target1, target2 int, logger *logrus.Logger) *StandingsCalculator {
	return &StandingsCalculator{
		logger:            logger,
		tiebreakerTarget1: target1,
		tiebreakerTarget2: target2,
	}
}

// Compute ranks all participants against the given leaderboard snapshot.
// A golfer missing from the snapshot scores 0 by policy; only an empty or
// wholly malformed entry set is an error, which callers treat as "no
// standings available" rather than a crash.
func (calc *StandingsCalculator) Compute(entries []models.PoolEntry, leaderboard *models.Leaderboard) ([]models.PoolParticipant, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no pool entries to rank")
	}

	scores := leaderboard.ScoreIndex()

	participants := make([]models.PoolParticipant, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if err := entry.Validate(); err != nil {
			calc.logger.WithField("entry", entry.Name).Warnf("Skipping malformed entry: %v", err)
			continue
		}
		picks, _ := entry.PickNames()

		pickScores := make(map[string]int, len(picks))
		values := make([]int, 0, len(picks))
		for _, golfer := range picks {
			score := scores[golfer] // absent golfers score 0 by policy
			pickScores[golfer] = score
			values = append(values, score)
		}

		participants = append(participants, models.PoolParticipant{
			Name:        entry.Name,
			Picks:       picks,
			PickScores:  pickScores,
			TotalScore:  BestN(values, BestOf),
			Tiebreaker1: entry.Tiebreaker1,
			Tiebreaker2: entry.Tiebreaker2,
			Paid:        entry.Paid,
		})
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("no valid pool entries to rank")
	}

	calc.sortParticipants(participants)
	assignPositions(participants)

	return participants, nil
}

// ComputeStandings wraps Compute with snapshot provenance for the API and
// websocket consumers.
func (calc *StandingsCalculator) ComputeStandings(entries []models.PoolEntry, leaderboard *models.Leaderboard, generation uint64) (*models.Standings, error) {
	participants, err := calc.Compute(entries, leaderboard)
	if err != nil {
		return nil, err
	}
	return &models.Standings{
		Participants: participants,
		SourceTag:    leaderboard.SourceTag,
		Tournament:   leaderboard.Tournament,
		Generation:   generation,
		ComputedAt:   time.Now().UTC(),
	}, nil
}

// sortParticipants orders by total (lower is better), then closeness of
// each tiebreaker guess to its target, then name so the full ordering is
// deterministic.
func (calc *StandingsCalculator) sortParticipants(participants []models.PoolParticipant) {
	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore < b.TotalScore
		}
		da, db := absDiff(a.Tiebreaker1, calc.tiebreakerTarget1), absDiff(b.Tiebreaker1, calc.tiebreakerTarget1)
		if da != db {
			return da < db
		}
		da, db = absDiff(a.Tiebreaker2, calc.tiebreakerTarget2), absDiff(b.Tiebreaker2, calc.tiebreakerTarget2)
		if da != db {
			return da < db
		}
		return a.Name < b.Name
	})
}

// assignPositions applies standard competition ranking: participants with
// equal totals share a position, and the next distinct total gets
// index+1, so positions skip numbers after a tie group.
func assignPositions(participants []models.PoolParticipant) {
	for i := range participants {
		if i > 0 && participants[i].TotalScore == participants[i-1].TotalScore {
			participants[i].Position = participants[i-1].Position
		} else {
			participants[i].Position = i + 1
		}
	}
}

// BestN sums the n lowest values. With n >= len(values) it degenerates to
// a plain sum, which is how legacy four-pick entries score.
func BestN(values []int, n int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	if n > len(sorted) {
		n = len(sorted)
	}
	total := 0
	for _, v := range sorted[:n] {
		total += v
	}
	return total
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
