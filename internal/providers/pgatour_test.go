package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcallister/golfpool/internal/models"
)

func testPGATourProvider(url string) *PGATourProvider {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewPGATourProvider(url, 100, 5*time.Second, logger)
}

const classLayoutFixture = `<html><body>
<h1>Test Invitational</h1>
<div class="leaderboard-row">
  <span class="position">1</span>
  <span class="player-name">Leader Guy</span>
  <span class="total">-7</span>
  <span class="today">-2</span>
  <span class="thru">14</span>
</div>
<div class="leaderboard-row">
  <span class="position">T2</span>
  <span class="player-name">Chaser Fellow</span>
  <span class="total">E</span>
  <span class="today">E</span>
  <span class="thru">F</span>
</div>
<div class="leaderboard-row">
  <span class="position">CUT</span>
  <span class="player-name">Cut Victim</span>
  <span class="total">+6</span>
</div>
</body></html>`

const tableLayoutFixture = `<html><body>
<h1>Test Invitational</h1>
<table>
  <thead><tr><th>Pos</th><th>Player</th><th>Total</th><th>Today</th><th>Thru</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>Leader Guy</td><td>-7</td><td>-2</td><td>14</td></tr>
    <tr><td>T2</td><td>Chaser Fellow</td><td>E</td><td>E</td><td>F</td></tr>
    <tr><td></td><td></td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestPGATourClassLayout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(classLayoutFixture))
	}))
	defer srv.Close()

	lb, err := testPGATourProvider(srv.URL).FetchLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test Invitational", lb.Tournament)
	assert.Equal(t, models.SourceTagPGATour, lb.SourceTag)
	require.Len(t, lb.Golfers, 3)

	leader := lb.Golfers[0]
	assert.Equal(t, 1, leader.Position)
	assert.Equal(t, "Leader Guy", leader.Name)
	assert.Equal(t, -7, leader.Score)
	assert.Equal(t, -2, leader.Today)
	assert.Equal(t, "14", leader.Thru)

	assert.Equal(t, 2, lb.Golfers[1].Position)
	assert.Equal(t, 0, lb.Golfers[1].Score)

	// Cut shows up in the position column on the official site
	assert.Equal(t, models.GolferCut, lb.Golfers[2].Status)
}

func TestPGATourTableFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(tableLayoutFixture))
	}))
	defer srv.Close()

	lb, err := testPGATourProvider(srv.URL).FetchLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, lb.Golfers, 2)
	assert.Equal(t, "Leader Guy", lb.Golfers[0].Name)
	assert.Equal(t, -7, lb.Golfers[0].Score)
	assert.Equal(t, "Chaser Fellow", lb.Golfers[1].Name)
}

func TestPGATourNoRowsFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body><h1>Nothing here</h1></body></html>"))
	}))
	defer srv.Close()

	_, err := testPGATourProvider(srv.URL).FetchLeaderboard(context.Background())
	assert.ErrorIs(t, err, ErrNoScores)
}

func TestStaticProviderAlwaysSucceeds(t *testing.T) {
	lb, err := NewStaticProvider().FetchLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceTagMock, lb.SourceTag)
	assert.NotEmpty(t, lb.Golfers)

	// Callers get their own copy of the fixed field
	lb.Golfers[0].Score = 99
	again, err := NewStaticProvider().FetchLeaderboard(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, 99, again.Golfers[0].Score)
}
