package scraper

import (
	"context"
	"fmt"
	"slices"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/pagination"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/registry"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/run"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/wave"
	"github.com/rs/zerolog/log"
)

// expand claims every unseen, non-excluded item in reg and fetches its
// children in waves. The claim happens before submission, so duplicates
// within items and items claimed by an earlier expand are never fetched.
func expand[P, C any](
	ctx context.Context,
	config wave.Config,
	items []P,
	ident func(P) (id, name string),
	reg *registry.Registry,
	excluded map[string]struct{},
	detail func(context.Context, P) ([]C, error),
) ([]C, error) {
	pool := wave.New[[]C](ctx, config)
	for _, item := range items {
		id, name := ident(item)
		if _, skip := excluded[id]; skip {
			log.Debug().Str("id", id).Str("name", name).Msg("Skipping excluded entity")
			continue
		}
		if !reg.Insert(id, name) {
			continue
		}
		if err := pool.Go(func(ctx context.Context) ([]C, error) { return detail(ctx, item) }); err != nil {
			return nil, err
		}
	}

	groups, err := pool.Wait()
	if err != nil {
		return nil, err
	}

	var children []C
	for _, g := range groups {
		children = append(children, g...)
	}
	return children, nil
}

func seriesIdentity(s api.Overview) (string, string) { return s.ID, s.Name }
func gameIdentity(g api.GameOverview) (string, string) { return g.ID, g.Name }
func categoryIdentity(c CategoryDescriptor) (string, string) { return c.ID, c.Name }

// exploreSeries lists the games of a series.
func (o *Orchestrator) exploreSeries(ctx context.Context, series api.Overview) ([]api.GameOverview, error) {
	name, _ := o.state.Registry.Series.Get(series.ID)
	o.logger.Info().Str("series_id", series.ID).Msgf("Requesting games for series %s", name)

	if slices.Contains(o.config.V1Series, series.ID) {
		resp, err := o.api.GetSeriesGamesV1(ctx, series.ID, o.config.V1SeriesMax)
		if err != nil {
			return nil, fmt.Errorf("list games of series %s: %w", series.ID, err)
		}
		games := make([]api.GameOverview, 0, len(resp.Data))
		for _, g := range resp.Data {
			games = append(games, api.GameOverview{SeriesID: series.ID, ID: g.ID, Name: g.Names.International})
		}
		return games, nil
	}

	overviews, err := pagination.FetchAll(ctx, "games of series "+series.ID,
		func(ctx context.Context, page int) ([]api.Overview, int, error) {
			resp, err := o.api.GetSeriesGameList(ctx, series.ID, page)
			if err != nil {
				return nil, 0, err
			}
			return resp.GameList, resp.Pagination.Pages, nil
		}, o.config.Wave)
	if err != nil {
		return nil, fmt.Errorf("list games of series %s: %w", series.ID, err)
	}

	games := make([]api.GameOverview, 0, len(overviews))
	for _, g := range overviews {
		games = append(games, api.GameOverview{SeriesID: series.ID, ID: g.ID, Name: g.Name})
	}
	return games, nil
}

// exploreGame registers a game's levels, platforms, subcategories and
// subcategory values and returns its categories. A null game yields none.
func (o *Orchestrator) exploreGame(ctx context.Context, game api.GameOverview) ([]CategoryDescriptor, error) {
	o.logger.Info().Str("game_id", game.ID).Msgf("Requesting data for game %s", game.Name)

	data, err := o.api.GetGameData(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("explore game %s: %w", game.ID, err)
	}
	if data == nil {
		o.logger.Debug().Str("game_id", game.ID).Msg("Game has no data")
		return nil, nil
	}

	reg := o.state.Registry
	for _, level := range data.Levels {
		reg.Levels.Insert(level.ID, level.Name)
	}
	for _, platform := range data.Platforms {
		reg.Platforms.Insert(platform.ID, platform.Name)
	}
	for _, variable := range data.Variables {
		if variable.IsSubcategory {
			reg.Subcategories.Insert(variable.ID, variable.Name)
		}
	}
	for _, value := range data.Values {
		if reg.Subcategories.Has(value.VariableID) {
			reg.SubcategoryValues.Insert(value.ID, value.Name)
		}
	}

	categories := make([]CategoryDescriptor, 0, len(data.Categories))
	for _, c := range data.Categories {
		categories = append(categories, CategoryDescriptor{
			SeriesID:      game.SeriesID,
			GameID:        game.ID,
			ID:            c.ID,
			Name:          c.Name,
			TimeDirection: c.TimeDirection,
			DefaultTimer:  run.Timer(data.Game.DefaultTimer),
		})
	}
	return categories, nil
}

// exploreCategory collects leaderboard page 1 and returns the requests for
// the remaining pages, all on the same endpoint shape.
func (o *Orchestrator) exploreCategory(ctx context.Context, category CategoryDescriptor) ([]LeaderboardRequest, error) {
	shape := o.shapes.Pick()

	totalPages, err := o.collector.Collect(ctx, category, 1, shape)
	if err != nil {
		return nil, err
	}

	requests := make([]LeaderboardRequest, 0, max(totalPages-1, 0))
	for page := 2; page <= totalPages; page++ {
		requests = append(requests, LeaderboardRequest{Category: category, Page: page, Shape: shape})
	}
	return requests, nil
}

// collectRequests collects the remaining leaderboard pages in waves.
func (o *Orchestrator) collectRequests(ctx context.Context, requests []LeaderboardRequest) error {
	pool := wave.New[struct{}](ctx, o.config.Wave)
	for _, req := range requests {
		err := pool.Go(func(ctx context.Context) (struct{}, error) {
			_, err := o.collector.Collect(ctx, req.Category, req.Page, req.Shape)
			return struct{}{}, err
		})
		if err != nil {
			return err
		}
	}
	_, err := pool.Wait()
	return err
}
