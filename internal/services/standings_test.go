package services

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcallister/golfpool/internal/models"
)

func testCalculator() *StandingsCalculator {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewStandingsCalculator(-12, 63, logger)
}

func makeEntry(t *testing.T, name string, picks []string, tb1, tb2 int) models.PoolEntry {
	t.Helper()
	entry := models.PoolEntry{Name: name, Tiebreaker1: tb1, Tiebreaker2: tb2}
	require.NoError(t, entry.SetPicks(picks))
	return entry
}

func makeLeaderboard(scores map[string]int) *models.Leaderboard {
	lb := &models.Leaderboard{Tournament: "Test Open", SourceTag: models.SourceTagESPN}
	for name, score := range scores {
		lb.Golfers = append(lb.Golfers, models.GolferScore{
			Name:   name,
			Score:  score,
			Thru:   "F",
			Status: models.GolferActive,
		})
	}
	return lb
}

func TestBestN(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		n      int
		want   int
	}{
		{"best 4 of 5 drops the worst", []int{-5, 2, -3, 0, -1}, 4, -9},
		{"already sorted", []int{-4, -3, -2, -1, 10}, 4, -10},
		{"degenerate n equals m", []int{1, 2, 3, 4}, 4, 10},
		{"n larger than slice", []int{1, 2}, 4, 3},
		{"all zeros", []int{0, 0, 0, 0, 0}, 4, 0},
		{"empty", nil, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestN(tt.values, tt.n))
		})
	}
}

func TestBestNDoesNotMutateInput(t *testing.T) {
	values := []int{3, -5, 1, 0, -2}
	BestN(values, 4)
	assert.Equal(t, []int{3, -5, 1, 0, -2}, values)
}

func TestComputeBestFourOfFive(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Alice", []string{"A", "B", "C", "D", "E"}, -12, 63),
	}
	lb := makeLeaderboard(map[string]int{"A": -5, "B": 2, "C": -3, "D": 0, "E": -1})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 1)

	// Best 4 are A(-5), C(-3), E(-1), D(0); B(+2) is dropped
	assert.Equal(t, -9, participants[0].TotalScore)
	assert.Equal(t, 1, participants[0].Position)
	assert.Equal(t, -5, participants[0].PickScores["A"])
	assert.Equal(t, 2, participants[0].PickScores["B"])
}

func TestComputeMissingGolferScoresZero(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Alice", []string{"A", "B", "C", "D", "Ghost"}, 0, 0),
	}
	lb := makeLeaderboard(map[string]int{"A": -4, "B": -3, "C": -2, "D": -1})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 1)

	assert.Equal(t, 0, participants[0].PickScores["Ghost"])
	// Best 4: -4, -3, -2, -1; Ghost's 0 is dropped
	assert.Equal(t, -10, participants[0].TotalScore)
}

func TestComputeLegacyFourPickEntry(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Old Timer", []string{"A", "B", "C", "D"}, 0, 0),
	}
	lb := makeLeaderboard(map[string]int{"A": -2, "B": -1, "C": 0, "D": 3})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	// All four count when only four picks exist
	assert.Equal(t, 0, participants[0].TotalScore)
}

func TestComputeTiebreakerOrdering(t *testing.T) {
	calc := testCalculator() // targets: -12 and 63
	entries := []models.PoolEntry{
		makeEntry(t, "Far Guess", []string{"A", "B", "C", "D", "E"}, -10, 63), // distance 2
		makeEntry(t, "Exact Guess", []string{"A", "B", "C", "D", "E"}, -12, 63), // distance 0
	}
	lb := makeLeaderboard(map[string]int{"A": -5, "B": 2, "C": -3, "D": 0, "E": -1})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	// Equal totals of -9; the closer tiebreaker1 guess ranks higher
	assert.Equal(t, "Exact Guess", participants[0].Name)
	assert.Equal(t, "Far Guess", participants[1].Name)
	assert.Equal(t, participants[0].TotalScore, participants[1].TotalScore)
}

func TestComputeSecondTiebreaker(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Wide", []string{"A", "B", "C", "D", "E"}, -12, 70), // tb2 distance 7
		makeEntry(t, "Near", []string{"A", "B", "C", "D", "E"}, -12, 64), // tb2 distance 1
	}
	lb := makeLeaderboard(map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "E": 0})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	assert.Equal(t, "Near", participants[0].Name)
}

func TestComputeAlphabeticalFinalTiebreak(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Zoe", []string{"A", "B", "C", "D", "E"}, -12, 63),
		makeEntry(t, "Adam", []string{"A", "B", "C", "D", "E"}, -12, 63),
		makeEntry(t, "Mia", []string{"A", "B", "C", "D", "E"}, -12, 63),
	}
	lb := makeLeaderboard(map[string]int{"A": -1, "B": -1, "C": -1, "D": -1, "E": -1})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)

	names := []string{participants[0].Name, participants[1].Name, participants[2].Name}
	assert.Equal(t, []string{"Adam", "Mia", "Zoe"}, names)
}

func TestComputeStandardCompetitionRanking(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "First", []string{"A", "B", "C", "D", "E"}, -12, 63),
		makeEntry(t, "TiedOne", []string{"F", "G", "H", "I", "J"}, -12, 63),
		makeEntry(t, "TiedTwo", []string{"F", "G", "H", "I", "J"}, -10, 63),
		makeEntry(t, "Last", []string{"K", "L", "M", "N", "O"}, -12, 63),
	}
	lb := makeLeaderboard(map[string]int{
		"A": -3, "B": -3, "C": -3, "D": -3, "E": 5,
		"F": -1, "G": -1, "H": -1, "I": -1, "J": 5,
		"K": 2, "L": 2, "M": 2, "N": 2, "O": 5,
	})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 4)

	// -12, -4, -4, 8: the tie group shares position 2 and the next
	// distinct score skips to position 4
	assert.Equal(t, 1, participants[0].Position)
	assert.Equal(t, 2, participants[1].Position)
	assert.Equal(t, 2, participants[2].Position)
	assert.Equal(t, 4, participants[3].Position)
}

func TestComputeIdempotent(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Alice", []string{"A", "B", "C", "D", "E"}, -8, 65),
		makeEntry(t, "Bob", []string{"A", "B", "C", "D", "F"}, -8, 65),
		makeEntry(t, "Carol", []string{"B", "C", "D", "E", "F"}, -14, 61),
	}
	lb := makeLeaderboard(map[string]int{"A": -5, "B": 2, "C": -3, "D": 0, "E": -1, "F": -2})

	first, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	second, err := calc.Compute(entries, lb)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeEmptyEntriesFails(t *testing.T) {
	calc := testCalculator()
	lb := makeLeaderboard(map[string]int{"A": 0})

	_, err := calc.Compute(nil, lb)
	assert.Error(t, err)
}

func TestComputeSkipsMalformedEntries(t *testing.T) {
	calc := testCalculator()
	bad := models.PoolEntry{Name: "Broken", Picks: []byte(`not json`)}
	entries := []models.PoolEntry{
		bad,
		makeEntry(t, "Alice", []string{"A", "B", "C", "D", "E"}, 0, 0),
	}
	lb := makeLeaderboard(map[string]int{"A": -1})

	participants, err := calc.Compute(entries, lb)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Alice", participants[0].Name)
}

func TestComputeAllMalformedFails(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		{Name: "Broken", Picks: []byte(`not json`)},
	}
	lb := makeLeaderboard(map[string]int{"A": -1})

	_, err := calc.Compute(entries, lb)
	assert.Error(t, err)
}

func TestComputeStandingsCarriesProvenance(t *testing.T) {
	calc := testCalculator()
	entries := []models.PoolEntry{
		makeEntry(t, "Alice", []string{"A", "B", "C", "D", "E"}, 0, 0),
	}
	lb := makeLeaderboard(map[string]int{"A": -1})
	lb.SourceTag = models.SourceTagCached

	standings, err := calc.ComputeStandings(entries, lb, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagCached, standings.SourceTag)
	assert.Equal(t, uint64(7), standings.Generation)
	assert.Equal(t, "Test Open", standings.Tournament)
}
