package providers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jmcallister/golfpool/internal/models"
)

// SheetProvider is the spreadsheet backup: a published Google Sheet that
// one of the pool admins keeps current by hand during outages. The CSV
// export is parsed leniently because rows are typed by a human.
//
// Expected columns: position, name, total, today, thru, status. A header
// row is optional; ragged rows are padded.
type SheetProvider struct {
	client  *http.Client
	logger  *logrus.Logger
	csvURL  string
	timeout time.Duration
}

// NewSheetProvider creates the spreadsheet backup provider. An empty URL
// yields a provider that always fails, which the selector just skips past.
func NewSheetProvider(csvURL string, timeout time.Duration, logger *logrus.Logger) *SheetProvider {
	return &SheetProvider{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		csvURL:  csvURL,
		timeout: timeout,
	}
}

func (p *SheetProvider) Name() string {
	return models.SourceTagSheet
}

// FetchLeaderboard downloads and parses the sheet's CSV export.
func (p *SheetProvider) FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	if p.csvURL == "" {
		return nil, fmt.Errorf("no backup sheet configured")
	}

	body, contentType, err := fetchBody(ctx, p.client, p.csvURL, nil, p.timeout)
	if err != nil {
		return nil, fmt.Errorf("fetching sheet export: %w", err)
	}
	if looksLikeMarkup(body, contentType) {
		return nil, ErrMarkup
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1 // hand-maintained, rows may be ragged
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing sheet CSV: %w", err)
	}

	var golfers []models.GolferScore
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		row = padRow(row, 6)
		golfers = append(golfers, models.GolferScore{
			Position: parsePosition(row[0]),
			Name:     strings.TrimSpace(row[1]),
			Score:    parseRelativeScore(row[2]),
			Today:    parseRelativeScore(row[3]),
			Thru:     normalizeThru(row[4]),
			Status:   normalizeStatus(row[5]),
		})
	}
	if len(golfers) == 0 {
		return nil, ErrNoScores
	}

	p.logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"golfers":  len(golfers),
	}).Debug("Parsed backup sheet")

	return &models.Leaderboard{
		Golfers:   golfers,
		SourceTag: p.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

func isHeaderRow(row []string) bool {
	if len(row) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	second := strings.ToLower(strings.TrimSpace(row[1]))
	return first == "position" || first == "pos" || second == "name" || second == "player"
}

func padRow(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}
