// Package pagination provides wave-bounded fetching of paginated
// speedrun.com listings.
//
// The API reports the total page count in the pagination block of every
// listing page. The batch fetcher reads it from page 1 and spreads the
// remaining pages over fixed-size waves (see package wave).
//
// Example usage:
//
//	series, err := pagination.FetchAll(ctx, "series", func(ctx context.Context, page int) ([]api.Overview, int, error) {
//		resp, err := client.GetSeriesList(ctx, page)
//		if err != nil {
//			return nil, 0, err
//		}
//		return resp.SeriesList, resp.Pagination.Pages, nil
//	}, wave.DefaultConfig())
//
// The batch fetcher:
//   - Fetches first page synchronously to determine total pages
//   - Submits pages 2..N in waves of wave.Config.Size
//   - Re-runs failed pages within the wave failure budget
//   - Aborts when the budget is exhausted
package pagination
