package scraper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/run"
	"github.com/rs/zerolog"
)

// ShapePicker chooses the leaderboard endpoint used for a category.
type ShapePicker interface {
	Pick() api.LeaderboardShape
}

// RandomShapes picks either shape with equal probability. Safe for
// concurrent use.
type RandomShapes struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomShapes creates a picker from a seed.
func NewRandomShapes(seed uint64) *RandomShapes {
	return &RandomShapes{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick implements ShapePicker.
func (r *RandomShapes) Pick() api.LeaderboardShape {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.IntN(2) == 0 {
		return api.ShapeNested
	}
	return api.ShapeFlat
}

// FixedShape always picks the same shape.
type FixedShape api.LeaderboardShape

// Pick implements ShapePicker.
func (f FixedShape) Pick() api.LeaderboardShape {
	return api.LeaderboardShape(f)
}

// Collector fetches leaderboard pages into the state's run buffer.
type Collector struct {
	api    *api.Client
	state  *State
	logger zerolog.Logger
}

// NewCollector creates a collector writing into state.
func NewCollector(client *api.Client, state *State) *Collector {
	return &Collector{
		api:    client,
		state:  state,
		logger: logging.NewLogger("collector"),
	}
}

// Collect fetches one leaderboard page, registers its players, and buffers
// its runs. It returns the leaderboard's total page count.
func (c *Collector) Collect(ctx context.Context, category CategoryDescriptor, page int, shape api.LeaderboardShape) (int, error) {
	reg := c.state.Registry
	gameName, _ := reg.Games.Get(category.GameID)
	categoryName, _ := reg.Categories.Get(category.ID)

	c.logger.Info().
		Str("game_id", category.GameID).
		Str("category_id", category.ID).
		Int("page", page).
		Int("shape", int(shape)).
		Msgf("Getting run batch for game %s and category %s on page %d with leaderboard type %d",
			gameName, categoryName, page, shape)

	lb, err := c.api.GetLeaderboard(ctx, shape, category.GameID, category.ID, page)
	if err != nil {
		return 0, fmt.Errorf("collect category %s page %d: %w", category.ID, page, err)
	}

	// Players go in first so the runs below resolve their names.
	for _, p := range lb.Players {
		reg.Players.Insert(p.ID, run.PlayerDisplayName(p.ID, p.Name))
	}

	runs := make([]run.Run, 0, len(lb.Runs))
	for _, raw := range lb.Runs {
		runs = append(runs, c.state.Normalizer.Normalize(category.SeriesID, category.TimeDirection, category.DefaultTimer, raw))
	}
	c.state.Runs.Add(runs...)

	return lb.Pagination.Pages, nil
}
