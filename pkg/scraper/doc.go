// Package scraper walks speedrun.com from series down to runs.
//
// The walk is strictly ordered: series → games → categories → leaderboard
// pages. Each level is expanded in waves (see package wave), and every
// entity ID is claimed in the shared registries before its detail request
// is submitted, so an entity listed twice is only fetched once. Leaderboard
// page 1 is collected while a category is explored; later pages are
// collected in a final wave over the remaining leaderboard requests.
//
// The Orchestrator splits the discovered game queue into batches and dumps
// the runs of each batch to its own file, skipping batches already on disk.
//
// Example usage:
//
//	orch, err := scraper.New(api.NewClient(transport), scraper.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := orch.ExploreAll(ctx, "data/runs.json", false); err != nil {
//		return err
//	}
package scraper
