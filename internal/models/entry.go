package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PickCount is the canonical roster size. Legacy entries imported from the
// first season's sheet carry four picks; the validator accepts those, the
// scorer just sums everything it has when fewer than BestOf+1 picks exist.
const (
	PickCount       = 5
	LegacyPickCount = 4
)

// PoolEntry is one participant's entry: their golfer picks and the two
// numeric tiebreaker guesses submitted at entry time. Name is the key --
// the pool is small enough that there are no separate IDs.
type PoolEntry struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Picks       datatypes.JSON `gorm:"type:json" json:"picks"`
	Tiebreaker1 int            `json:"tiebreaker1"`
	Tiebreaker2 int            `json:"tiebreaker2"`
	Paid        bool           `json:"paid"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

// TableName specifies the table name for GORM
func (PoolEntry) TableName() string {
	return "pool_entries"
}

// PickNames decodes the JSON picks column into golfer names.
func (e *PoolEntry) PickNames() ([]string, error) {
	var picks []string
	if err := json.Unmarshal(e.Picks, &picks); err != nil {
		return nil, fmt.Errorf("entry %q has corrupt picks: %w", e.Name, err)
	}
	return picks, nil
}

// SetPicks encodes golfer names into the JSON picks column.
func (e *PoolEntry) SetPicks(picks []string) error {
	data, err := json.Marshal(picks)
	if err != nil {
		return fmt.Errorf("encoding picks for %q: %w", e.Name, err)
	}
	e.Picks = datatypes.JSON(data)
	return nil
}

// Validate checks the entry is usable by the standings calculator.
func (e *PoolEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry has no name")
	}
	picks, err := e.PickNames()
	if err != nil {
		return err
	}
	if len(picks) != PickCount && len(picks) != LegacyPickCount {
		return fmt.Errorf("entry %q has %d picks, want %d", e.Name, len(picks), PickCount)
	}
	seen := make(map[string]bool, len(picks))
	for _, p := range picks {
		if p == "" {
			return fmt.Errorf("entry %q has an empty pick", e.Name)
		}
		if seen[p] {
			return fmt.Errorf("entry %q picked %q twice", e.Name, p)
		}
		seen[p] = true
	}
	return nil
}
