package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jmcallister/golfpool/internal/models"
)

// ScoreProvider is one upstream source of golfer scores. Implementations
// are normalization adapters: all lenient parsing of a provider's raw
// payload happens inside the adapter, and callers only ever see canonical
// GolferScore records or an error.
type ScoreProvider interface {
	Name() string
	FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error)
}

// ErrNoScores is returned when a source answers successfully but with an
// empty golfer list. A zero-golfer tournament is not a thing; the selector
// treats this the same as a network failure.
var ErrNoScores = errors.New("source returned no golfer scores")

// ErrMarkup is returned when a source hands back HTML where structured
// data was expected, which is how these endpoints fail behind captive
// portals and error pages.
var ErrMarkup = errors.New("source returned markup instead of structured data")

const userAgent = "golfpool-server/1.0 (github.com/jmcallister/golfpool)"

// fetchBody performs a GET with retries and returns the response body.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff up to maxElapsed; 4xx responses fail immediately.
func fetchBody(ctx context.Context, client *http.Client, url string, headers map[string]string, maxElapsed time.Duration) ([]byte, string, error) {
	var body []byte
	var contentType string

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// looksLikeMarkup sniffs a payload that should have been JSON or CSV.
func looksLikeMarkup(body []byte, contentType string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<"))
}

// parseRelativeScore parses a score relative to par: "E" and "" are even,
// "+3" is 3, "-5" is -5. Unparsable input defaults to 0.
func parseRelativeScore(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "E" || s == "e" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0
	}
	return n
}

// parsePosition parses a leaderboard position, tolerating tie markers
// ("T5" -> 5). Unparsable input defaults to 0.
func parsePosition(s string) int {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "T"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// normalizeThru maps the assorted "holes completed" spellings onto the
// canonical form: "F" for a finished round, otherwise the hole number.
func normalizeThru(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "", "F", "f", "F*", "18":
		return "F"
	}
	if _, err := strconv.Atoi(s); err != nil {
		return "F"
	}
	return s
}

// normalizeStatus maps provider status strings onto the canonical enum.
func normalizeStatus(s string) models.GolferStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cut", "mc", "missed cut":
		return models.GolferCut
	case "withdrawn", "wd", "w/d":
		return models.GolferWithdrawn
	default:
		return models.GolferActive
	}
}
