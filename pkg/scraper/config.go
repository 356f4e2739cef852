package scraper

import (
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/checkpoint"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/wave"
)

// HarryPotterSeriesID is a series whose v2 game list is unusable; its games
// are listed through the v1 API instead.
const HarryPotterSeriesID = "15ndxp7r"

// Config holds scraper configuration.
type Config struct {
	// Wave sizes every pool and sets its failure budget.
	Wave wave.Config

	// BatchSize is the number of queued games dumped per batch file.
	BatchSize int

	// QueuePath is where the discovered game queue is checkpointed.
	QueuePath string

	// ExcludedGames are never explored.
	ExcludedGames []string

	// ExcludedCategories are never collected.
	ExcludedCategories []string

	// V1Series are listed through series/{id}/games on the v1 API.
	V1Series []string

	// V1SeriesMax is the max parameter of v1 series listings.
	V1SeriesMax int

	// Shapes picks the leaderboard endpoint per category. Nil picks at
	// random.
	Shapes ShapePicker
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Wave:      wave.DefaultConfig(),
		BatchSize: 90,
		QueuePath: checkpoint.DefaultQueuePath,
		ExcludedGames: []string{
			"w6jrzxdj", // too large for the API
			"o1y7pv1q", // crashes the website
		},
		ExcludedCategories: []string{
			"n2y350ed",
			"5dw43j0k",
		},
		V1Series:    []string{HarryPotterSeriesID},
		V1SeriesMax: 200,
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
