package models

import (
	"time"
)

// GolferStatus represents a golfer's status in the current tournament
type GolferStatus string

const (
	GolferActive    GolferStatus = "active"
	GolferCut       GolferStatus = "cut"
	GolferWithdrawn GolferStatus = "withdrawn"
)

// Source tags identify which upstream tier produced the data currently
// being served. The mock tag must stay distinct from every live tag so the
// dashboard can label synthetic data as such.
const (
	SourceTagPGATour = "pgatour"
	SourceTagESPN    = "espn"
	SourceTagSheet   = "sheet"
	SourceTagCached  = "cached-data"
	SourceTagMock    = "mock-data"
)

// GolferScore is the canonical per-golfer score record. Every provider
// adapter normalizes its raw payload into this shape; lenient parsing
// (missing score -> 0, missing thru -> "F", missing status -> active)
// happens at that boundary, not downstream.
type GolferScore struct {
	Position int          `json:"position"`
	Name     string       `json:"name"`
	Score    int          `json:"score"`
	Today    int          `json:"today"`
	Thru     string       `json:"thru"`
	Status   GolferStatus `json:"status"`
}

// Finished reports whether the golfer has completed the current round.
func (g GolferScore) Finished() bool {
	return g.Thru == "F"
}

// Counting reports whether the golfer's score still counts toward pool
// totals. Cut and withdrawn golfers stop improving but retain their last
// score, so everything counts.
func (g GolferScore) Counting() bool {
	return true
}

// Leaderboard is one snapshot of golfer scores from a single source.
// Golfer names are unique within a snapshot; snapshots are replaced
// wholesale on each refresh, never mutated.
type Leaderboard struct {
	Tournament string        `json:"tournament"`
	Round      int           `json:"round"`
	Golfers    []GolferScore `json:"golfers"`
	SourceTag  string        `json:"source_tag"`
	FetchedAt  time.Time     `json:"fetched_at"`
}

// ScoreIndex builds the name -> score lookup used by the standings
// calculator. Last entry wins on a duplicate name, which the snapshot
// invariant rules out anyway.
func (l *Leaderboard) ScoreIndex() map[string]int {
	idx := make(map[string]int, len(l.Golfers))
	for _, g := range l.Golfers {
		idx[g.Name] = g.Score
	}
	return idx
}

// TournamentState describes whether a tournament is currently underway.
// It is fetched on a slow cadence and cached; the poller uses it to pick
// its refresh interval.
type TournamentState struct {
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Round     int       `json:"round"`
	CheckedAt time.Time `json:"checked_at"`
}
