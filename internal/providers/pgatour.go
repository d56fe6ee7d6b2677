package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jmcallister/golfpool/internal/models"
)

// PGATourProvider is the primary source: it scrapes the official
// leaderboard page. The page layout shifts between seasons, so parsing
// tries a class-based strategy first and falls back to a generic table
// walk.
type PGATourProvider struct {
	client  *http.Client
	logger  *logrus.Logger
	url     string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewPGATourProvider creates the official-site scrape provider.
func NewPGATourProvider(url string, rps float64, timeout time.Duration, logger *logrus.Logger) *PGATourProvider {
	return &PGATourProvider{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		url:     url,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
	}
}

func (p *PGATourProvider) Name() string {
	return models.SourceTagPGATour
}

// FetchLeaderboard scrapes the current leaderboard page and normalizes
// rows into GolferScore records.
func (p *PGATourProvider) FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _, err := fetchBody(ctx, p.client, p.url, nil, p.timeout)
	if err != nil {
		return nil, fmt.Errorf("fetching leaderboard page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing leaderboard HTML: %w", err)
	}

	tournament := strings.TrimSpace(doc.Find("h1").First().Text())

	golfers := p.parseClassRows(doc)
	if len(golfers) == 0 {
		golfers = p.parseTableRows(doc)
	}
	if len(golfers) == 0 {
		return nil, ErrNoScores
	}

	p.logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"golfers":  len(golfers),
	}).Debug("Scraped leaderboard")

	return &models.Leaderboard{
		Tournament: tournament,
		Golfers:    golfers,
		SourceTag:  p.Name(),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// parseClassRows handles the current page layout, which marks rows with
// leaderboard-row classes.
func (p *PGATourProvider) parseClassRows(doc *goquery.Document) []models.GolferScore {
	var golfers []models.GolferScore

	doc.Find("[class*='leaderboard-row'], tr[class*='player-row']").Each(func(i int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("[class*='player-name'], .player").First().Text())
		if name == "" {
			return
		}
		pos := row.Find("[class*='position']").First().Text()
		total := row.Find("[class*='total'], [class*='score']").First().Text()
		today := row.Find("[class*='today']").First().Text()
		thru := row.Find("[class*='thru']").First().Text()
		status := row.Find("[class*='status']").First().Text()

		golfers = append(golfers, newGolferScore(pos, name, total, today, thru, status))
	})

	return golfers
}

// parseTableRows is the fallback strategy: walk any table whose header
// row mentions a player column and read cells positionally.
func (p *PGATourProvider) parseTableRows(doc *goquery.Document) []models.GolferScore {
	var golfers []models.GolferScore

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		header := strings.ToLower(table.Find("thead").Text())
		if !strings.Contains(header, "player") {
			return true
		}

		table.Find("tbody tr").Each(func(j int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 3 {
				return
			}
			pos := cells.Eq(0).Text()
			name := strings.TrimSpace(cells.Eq(1).Text())
			total := cells.Eq(2).Text()
			today := ""
			thru := ""
			if cells.Length() > 3 {
				today = cells.Eq(3).Text()
			}
			if cells.Length() > 4 {
				thru = cells.Eq(4).Text()
			}
			if name == "" {
				return
			}
			golfers = append(golfers, newGolferScore(pos, name, total, today, thru, ""))
		})
		return false
	})

	return golfers
}

// newGolferScore builds a canonical record from raw scraped cell text.
// Cut and withdrawn golfers show their status in the position column on
// the official site.
func newGolferScore(pos, name, total, today, thru, status string) models.GolferScore {
	st := normalizeStatus(status)
	if st == models.GolferActive {
		st = normalizeStatus(pos)
	}
	return models.GolferScore{
		Position: parsePosition(pos),
		Name:     name,
		Score:    parseRelativeScore(total),
		Today:    parseRelativeScore(today),
		Thru:     normalizeThru(thru),
		Status:   st,
	}
}
