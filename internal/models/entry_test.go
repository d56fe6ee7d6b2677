package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryWithPicks(t *testing.T, picks []string) PoolEntry {
	t.Helper()
	e := PoolEntry{Name: "Test Entry"}
	require.NoError(t, e.SetPicks(picks))
	return e
}

func TestPoolEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		picks   []string
		wantErr bool
	}{
		{"five picks", []string{"A", "B", "C", "D", "E"}, false},
		{"legacy four picks", []string{"A", "B", "C", "D"}, false},
		{"too few", []string{"A", "B", "C"}, true},
		{"too many", []string{"A", "B", "C", "D", "E", "F"}, true},
		{"duplicate pick", []string{"A", "A", "B", "C", "D"}, true},
		{"empty pick", []string{"A", "", "B", "C", "D"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entryWithPicks(t, tt.picks)
			err := e.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPoolEntryValidateNoName(t *testing.T) {
	e := entryWithPicks(t, []string{"A", "B", "C", "D", "E"})
	e.Name = ""
	assert.Error(t, e.Validate())
}

func TestPoolEntryCorruptPicks(t *testing.T) {
	e := PoolEntry{Name: "Broken", Picks: []byte(`{not json`)}
	_, err := e.PickNames()
	assert.Error(t, err)
	assert.Error(t, e.Validate())
}

func TestPickNamesRoundTrip(t *testing.T) {
	picks := []string{"Scottie Scheffler", "Rory McIlroy", "Xander Schauffele", "Collin Morikawa", "Ludvig Aberg"}
	e := entryWithPicks(t, picks)

	got, err := e.PickNames()
	require.NoError(t, err)
	assert.Equal(t, picks, got)
}

func TestScoreIndex(t *testing.T) {
	lb := Leaderboard{Golfers: []GolferScore{
		{Name: "A", Score: -3},
		{Name: "B", Score: 2},
	}}
	idx := lb.ScoreIndex()
	assert.Equal(t, -3, idx["A"])
	assert.Equal(t, 2, idx["B"])
	_, ok := idx["C"]
	assert.False(t, ok)
}
