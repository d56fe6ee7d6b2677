package providers

import (
	"context"
	"time"

	"github.com/jmcallister/golfpool/internal/models"
)

// StaticProvider is the emergency dataset: a fixed leaderboard served
// only when every live source and the cache have nothing. The data is
// fictitious and the mock source tag tells the dashboard to say so.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) Name() string {
	return models.SourceTagMock
}

// FetchLeaderboard never fails; it is the floor of the fallback ladder.
func (p *StaticProvider) FetchLeaderboard(ctx context.Context) (*models.Leaderboard, error) {
	golfers := make([]models.GolferScore, len(staticField))
	copy(golfers, staticField)
	return &models.Leaderboard{
		Tournament: "Sample Tournament",
		Round:      1,
		Golfers:    golfers,
		SourceTag:  p.Name(),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

var staticField = []models.GolferScore{
	{Position: 1, Name: "Scottie Scheffler", Score: -8, Today: -3, Thru: "F", Status: models.GolferActive},
	{Position: 2, Name: "Rory McIlroy", Score: -6, Today: -2, Thru: "F", Status: models.GolferActive},
	{Position: 3, Name: "Xander Schauffele", Score: -5, Today: -1, Thru: "F", Status: models.GolferActive},
	{Position: 3, Name: "Collin Morikawa", Score: -5, Today: -2, Thru: "F", Status: models.GolferActive},
	{Position: 5, Name: "Ludvig Aberg", Score: -4, Today: 0, Thru: "F", Status: models.GolferActive},
	{Position: 6, Name: "Viktor Hovland", Score: -3, Today: -1, Thru: "F", Status: models.GolferActive},
	{Position: 7, Name: "Patrick Cantlay", Score: -2, Today: 1, Thru: "F", Status: models.GolferActive},
	{Position: 7, Name: "Justin Thomas", Score: -2, Today: 0, Thru: "F", Status: models.GolferActive},
	{Position: 9, Name: "Jordan Spieth", Score: -1, Today: 2, Thru: "F", Status: models.GolferActive},
	{Position: 10, Name: "Max Homa", Score: 0, Today: 1, Thru: "F", Status: models.GolferActive},
	{Position: 11, Name: "Tommy Fleetwood", Score: 1, Today: 2, Thru: "F", Status: models.GolferActive},
	{Position: 12, Name: "Brooks Koepka", Score: 2, Today: 3, Thru: "F", Status: models.GolferCut},
	{Position: 13, Name: "Dustin Johnson", Score: 4, Today: 0, Thru: "F", Status: models.GolferWithdrawn},
}
