package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcallister/golfpool/internal/models"
	"github.com/jmcallister/golfpool/internal/services"
	"github.com/jmcallister/golfpool/pkg/utils"
)

// ScoresHandler serves the raw golfer leaderboard and the derived pool
// standings. Upstream failures never surface as 5xx here: the selector
// degrades through its fallback tiers and the response meta carries the
// tag of whichever tier answered.
type ScoresHandler struct {
	poller   *services.PollingController
	selector *services.SourceSelector
	cache    *services.ScoreCache
}

func NewScoresHandler(poller *services.PollingController, selector *services.SourceSelector, cache *services.ScoreCache) *ScoresHandler {
	return &ScoresHandler{
		poller:   poller,
		selector: selector,
		cache:    cache,
	}
}

// GetLeaderboard returns the current golfer score snapshot.
func (h *ScoresHandler) GetLeaderboard(c *gin.Context) {
	leaderboard, err := h.selector.FetchScores(c.Request.Context(), false)
	if err != nil {
		utils.SendUnavailable(c, "no score data available from any source")
		return
	}

	utils.SendSuccessWithMeta(c, leaderboard, &utils.Meta{
		SourceTag: leaderboard.SourceTag,
		AgeMs:     ageMillis(leaderboard),
	})
}

// GetStandings returns the latest standings generation, computing one on
// demand if the poller has not produced any yet.
func (h *ScoresHandler) GetStandings(c *gin.Context) {
	standings := h.poller.Standings()
	if standings == nil {
		fresh, err := h.poller.Refresh(c.Request.Context(), false)
		if err != nil {
			utils.SendUnavailable(c, "standings are not available yet")
			return
		}
		standings = fresh
	}

	utils.SendSuccessWithMeta(c, standings, &utils.Meta{SourceTag: standings.SourceTag})
}

// Refresh forces a fetch that bypasses the fresh-cache short circuit.
// Wired behind auth; this is the dashboard's manual refresh button.
func (h *ScoresHandler) Refresh(c *gin.Context) {
	standings, err := h.poller.Refresh(c.Request.Context(), true)
	if err != nil {
		utils.SendUnavailable(c, "refresh failed: no source produced data")
		return
	}

	utils.SendSuccessWithMeta(c, standings, &utils.Meta{SourceTag: standings.SourceTag})
}

// GetStatus reports pipeline health: poller cadence, selector failure
// counters, and circuit breaker states.
func (h *ScoresHandler) GetStatus(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"poller":   h.poller.Status(),
		"selector": h.selector.Status(),
	})
}

func ageMillis(lb *models.Leaderboard) int64 {
	if lb.FetchedAt.IsZero() {
		return 0
	}
	return time.Since(lb.FetchedAt).Milliseconds()
}
