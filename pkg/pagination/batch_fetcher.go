package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/wave"
	"github.com/rs/zerolog/log"
)

// PageFunc fetches a single page and returns its items + total page count.
type PageFunc[T any] func(ctx context.Context, page int) (items []T, totalPages int, err error)

// BatchFetcher fetches every page of a listing.
type BatchFetcher[T any] struct {
	name   string
	fetch  PageFunc[T]
	config wave.Config
}

// NewBatchFetcher creates a batch fetcher. name labels log lines
// (e.g. "series", "games").
func NewBatchFetcher[T any](name string, fetch PageFunc[T], config wave.Config) *BatchFetcher[T] {
	if fetch == nil {
		panic("page func cannot be nil")
	}
	return &BatchFetcher[T]{
		name:   name,
		fetch:  fetch,
		config: config,
	}
}

// FetchAll fetches page 1 synchronously to learn the page count, then pages
// 2..N in waves. Items are returned in join order.
//
// A failed first page, or a wave that exhausts its failure budget, aborts
// the fetch.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context) ([]T, error) {
	start := time.Now()

	log.Info().Str("listing", bf.name).Msgf("Requesting %s on page 1", bf.name)
	items, totalPages, err := bf.fetch(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page of %s: %w", bf.name, err)
	}

	log.Info().
		Str("listing", bf.name).
		Int("total_pages", totalPages).
		Msg("Starting paged fetch")

	pool := wave.New[[]T](ctx, bf.config)
	for page := 2; page <= totalPages; page++ {
		log.Info().Str("listing", bf.name).Int("page", page).Msgf("Requesting %s on page %d", bf.name, page)
		err := pool.Go(func(ctx context.Context) ([]T, error) {
			pageItems, _, err := bf.fetch(ctx, page)
			return pageItems, err
		})
		if err != nil {
			return items, fmt.Errorf("fetch %s: %w", bf.name, err)
		}
	}

	pages, err := pool.Wait()
	if err != nil {
		return items, fmt.Errorf("fetch %s: %w", bf.name, err)
	}
	for _, pageItems := range pages {
		items = append(items, pageItems...)
	}

	log.Info().
		Str("listing", bf.name).
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// FetchAll is a shorthand for NewBatchFetcher(name, fetch, config).FetchAll(ctx).
func FetchAll[T any](ctx context.Context, name string, fetch PageFunc[T], config wave.Config) ([]T, error) {
	return NewBatchFetcher(name, fetch, config).FetchAll(ctx)
}
