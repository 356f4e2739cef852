package scraper

import (
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/registry"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/run"
)

// CategoryDescriptor carries what a category's runs inherit from their game.
type CategoryDescriptor struct {
	SeriesID      string
	GameID        string
	ID            string
	Name          string
	TimeDirection int
	DefaultTimer  run.Timer
}

// LeaderboardRequest is a leaderboard page left to collect after page 1.
type LeaderboardRequest struct {
	Category CategoryDescriptor
	Page     int
	Shape    api.LeaderboardShape
}

// State is everything shared by the tasks of a scrape. Registries live for
// the whole process; Runs only holds the current batch.
type State struct {
	Registry   *registry.Set
	Runs       *run.Buffer
	Normalizer *run.Normalizer
}

// NewState creates empty registries and an empty run buffer.
func NewState() *State {
	reg := registry.NewSet()
	return &State{
		Registry:   reg,
		Runs:       run.NewBuffer(),
		Normalizer: run.NewNormalizer(reg),
	}
}
