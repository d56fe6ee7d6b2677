package services

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/clause"

	"github.com/jmcallister/golfpool/internal/models"
	"github.com/jmcallister/golfpool/pkg/database"
)

// PickRegistry stores the pool entries: who picked which golfers and
// their tiebreaker guesses. Entries originate in a hand-maintained YAML
// file (the successor of the sign-up spreadsheet) and are imported into
// the database; the payment roster rides along but never affects ranking.
type PickRegistry struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewPickRegistry creates the registry and migrates its table.
func NewPickRegistry(db *database.DB, logger *logrus.Logger) (*PickRegistry, error) {
	if err := db.AutoMigrate(&models.PoolEntry{}); err != nil {
		return nil, fmt.Errorf("migrating pool entries: %w", err)
	}
	return &PickRegistry{db: db, logger: logger}, nil
}

// seedFile mirrors the sign-up sheet: entries plus the list of names
// that have paid in.
type seedFile struct {
	Entries []seedEntry `yaml:"entries"`
	Paid    []string    `yaml:"paid"`
}

type seedEntry struct {
	Name        string   `yaml:"name"`
	Picks       []string `yaml:"picks"`
	Tiebreaker1 int      `yaml:"tiebreaker1"`
	Tiebreaker2 int      `yaml:"tiebreaker2"`
}

// ImportFile loads the seed YAML and upserts every valid entry. Invalid
// rows are logged and skipped so one typo in the sheet doesn't take the
// pool down. Returns the number of entries imported.
func (r *PickRegistry) ImportFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading entries file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing entries file: %w", err)
	}

	paid := make(map[string]bool, len(seed.Paid))
	for _, name := range seed.Paid {
		paid[name] = true
	}

	imported := 0
	for _, se := range seed.Entries {
		entry := models.PoolEntry{
			Name:        se.Name,
			Tiebreaker1: se.Tiebreaker1,
			Tiebreaker2: se.Tiebreaker2,
			Paid:        paid[se.Name],
		}
		if err := entry.SetPicks(se.Picks); err != nil {
			r.logger.Warnf("Skipping entry %q: %v", se.Name, err)
			continue
		}
		if err := entry.Validate(); err != nil {
			r.logger.Warnf("Skipping entry: %v", err)
			continue
		}

		err := r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"picks", "tiebreaker1", "tiebreaker2", "paid", "updated_at"}),
		}).Create(&entry).Error
		if err != nil {
			r.logger.Errorf("Failed to upsert entry %q: %v", entry.Name, err)
			continue
		}
		imported++
	}

	r.logger.WithFields(logrus.Fields{
		"imported": imported,
		"total":    len(seed.Entries),
	}).Info("Imported pool entries")

	return imported, nil
}

// List returns all pool entries ordered by name.
func (r *PickRegistry) List() ([]models.PoolEntry, error) {
	var entries []models.PoolEntry
	if err := r.db.Order("name").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("loading pool entries: %w", err)
	}
	return entries, nil
}

// SetPaid flips a participant's payment flag.
func (r *PickRegistry) SetPaid(name string, paid bool) error {
	result := r.db.Model(&models.PoolEntry{}).Where("name = ?", name).Update("paid", paid)
	if result.Error != nil {
		return fmt.Errorf("updating payment for %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no entry named %q", name)
	}
	return nil
}
