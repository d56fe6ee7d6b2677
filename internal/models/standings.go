package models

import "time"

// PoolParticipant is one row of the ranked standings table. Derived, never
// hand-edited: every refresh recomputes the full set from the current
// leaderboard snapshot and the pool entries.
type PoolParticipant struct {
	Position    int            `json:"position"`
	Name        string         `json:"name"`
	Picks       []string       `json:"picks"`
	PickScores  map[string]int `json:"pick_scores"`
	TotalScore  int            `json:"total_score"`
	Tiebreaker1 int            `json:"tiebreaker1"`
	Tiebreaker2 int            `json:"tiebreaker2"`
	Paid        bool           `json:"paid"`
}

// Standings bundles a ranked participant set with the provenance of the
// scores it was computed from.
type Standings struct {
	Participants []PoolParticipant `json:"participants"`
	SourceTag    string            `json:"source_tag"`
	Tournament   string            `json:"tournament"`
	Generation   uint64            `json:"generation"`
	ComputedAt   time.Time         `json:"computed_at"`
}
