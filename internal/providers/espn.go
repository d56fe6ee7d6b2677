package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jmcallister/golfpool/internal/models"
)

// ESPNProvider is the secondary source: the ESPN site API returns the
// same leaderboard as structured JSON. It also exposes the tournament
// status used by the polling controller to pick its cadence.
type ESPNProvider struct {
	client  *http.Client
	logger  *logrus.Logger
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewESPNProvider creates the ESPN site API client.
func NewESPNProvider(baseURL string, rps float64, timeout time.Duration, logger *logrus.Logger) *ESPNProvider {
	return &ESPNProvider{
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
	}
}

// ESPN leaderboard response structures
type espnLeaderboardResponse struct {
	Events []struct {
		ID           string          `json:"id"`
		Name         string          `json:"name"`
		Status       espnEventStatus `json:"status"`
		Competitions []struct {
			Competitors []espnCompetitor `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

type espnEventStatus struct {
	Type struct {
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
	Period int `json:"period"`
}

type espnCompetitor struct {
	Athlete struct {
		DisplayName string `json:"displayName"`
	} `json:"athlete"`
	Status     string `json:"status"`
	Score      string `json:"score"`
	Position   string `json:"position"`
	Linescores []struct {
		Value float64 `json:"value"`
	} `json:"linescores"`
	Statistics []struct {
		Name         string `json:"name"`
		DisplayValue string `json:"displayValue"`
	} `json:"statistics"`
}

func (p *ESPNProvider) Name() string {
	return models.SourceTagESPN
}

// FetchLeaderboard fetches the current tournament leaderboard as JSON and
// normalizes competitors into GolferScore records.
func (p *ESPNProvider) FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	var resp espnLeaderboardResponse
	if err := p.getJSON(ctx, fmt.Sprintf("%s/pga/leaderboard", p.baseURL), &resp); err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}

	if len(resp.Events) == 0 || len(resp.Events[0].Competitions) == 0 {
		return nil, ErrNoScores
	}

	event := resp.Events[0]
	competitors := event.Competitions[0].Competitors
	golfers := make([]models.GolferScore, 0, len(competitors))
	for _, c := range competitors {
		if c.Athlete.DisplayName == "" {
			continue
		}
		golfers = append(golfers, models.GolferScore{
			Position: parsePosition(c.Position),
			Name:     c.Athlete.DisplayName,
			Score:    parseRelativeScore(c.Score),
			Today:    p.extractToday(c),
			Thru:     p.extractThru(c),
			Status:   normalizeStatus(c.Status),
		})
	}
	if len(golfers) == 0 {
		return nil, ErrNoScores
	}

	p.logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"golfers":  len(golfers),
	}).Debug("Fetched leaderboard")

	return &models.Leaderboard{
		Tournament: event.Name,
		Round:      event.Status.Period,
		Golfers:    golfers,
		SourceTag:  p.Name(),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// FetchTournamentState reports whether a tournament is currently in
// progress. Used by the poller on its own slow cadence.
func (p *ESPNProvider) FetchTournamentState(ctx context.Context) (*models.TournamentState, error) {
	var resp espnLeaderboardResponse
	if err := p.getJSON(ctx, fmt.Sprintf("%s/pga/leaderboard", p.baseURL), &resp); err != nil {
		return nil, fmt.Errorf("fetching tournament status: %w", err)
	}
	if len(resp.Events) == 0 {
		return &models.TournamentState{Active: false, CheckedAt: time.Now().UTC()}, nil
	}

	event := resp.Events[0]
	return &models.TournamentState{
		Name:      event.Name,
		Active:    event.Status.Type.State == "in",
		Round:     event.Status.Period,
		CheckedAt: time.Now().UTC(),
	}, nil
}

func (p *ESPNProvider) getJSON(ctx context.Context, url string, target interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	body, contentType, err := fetchBody(ctx, p.client, url, map[string]string{"Accept": "application/json"}, p.timeout)
	if err != nil {
		return err
	}
	if looksLikeMarkup(body, contentType) {
		return ErrMarkup
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// extractToday pulls the current-round score from the statistics block,
// falling back to the last linescore.
func (p *ESPNProvider) extractToday(c espnCompetitor) int {
	for _, s := range c.Statistics {
		if s.Name == "scoreToPar" || s.Name == "today" {
			return parseRelativeScore(s.DisplayValue)
		}
	}
	if n := len(c.Linescores); n > 0 {
		return int(c.Linescores[n-1].Value)
	}
	return 0
}

func (p *ESPNProvider) extractThru(c espnCompetitor) string {
	for _, s := range c.Statistics {
		if s.Name == "thru" {
			return normalizeThru(s.DisplayValue)
		}
	}
	return "F"
}
