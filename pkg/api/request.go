// Package api describes the speedrun.com endpoints consumed by the scraper.
//
// Requests are plain descriptors (API version, endpoint name, parameters);
// a Transport performs them and returns the raw JSON body. Client decodes
// bodies into the typed responses defined in types.go, which carry only the
// fields the scraper reads.
package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Endpoint names.
const (
	EndpointSeriesList       = "GetSeriesList"
	EndpointGameList         = "GetGameList"
	EndpointGameData         = "GetGameData"
	EndpointGameLeaderboard  = "GetGameLeaderboard"
	EndpointGameLeaderboard2 = "GetGameLeaderboard2"
)

// Request is a deferred API call.
type Request struct {
	// Version selects the API generation (1 or 2).
	Version int

	// Endpoint is the v2 endpoint name (e.g. "GetGameList") or the v1
	// resource path (e.g. "series/15ndxp7r/games").
	Endpoint string

	// Params are encoded as a JSON body (v2) or a query string (v1).
	Params map[string]any
}

// Key generates a deterministic string for the request.
// Format: v2:GetGameList:page=2:seriesId=abc
func (r Request) Key() string {
	parts := []string{fmt.Sprintf("v%d", r.Version), strings.Trim(r.Endpoint, "/")}

	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, r.Params[k]))
	}
	return strings.Join(parts, ":")
}

// Transport performs a request and returns the raw response body.
type Transport interface {
	Perform(ctx context.Context, req Request) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) ([]byte, error)

// Perform calls f(ctx, req).
func (f TransportFunc) Perform(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// SeriesListRequest lists all series, one page at a time.
func SeriesListRequest(page int) Request {
	return Request{Version: 2, Endpoint: EndpointSeriesList, Params: map[string]any{"page": page}}
}

// GameListRequest lists all games, one page at a time.
func GameListRequest(page int) Request {
	return Request{Version: 2, Endpoint: EndpointGameList, Params: map[string]any{"page": page}}
}

// SeriesGameListRequest lists the games of one series.
func SeriesGameListRequest(seriesID string, page int) Request {
	return Request{Version: 2, Endpoint: EndpointGameList, Params: map[string]any{
		"seriesId": seriesID,
		"page":     page,
	}}
}

// SeriesGamesV1Request lists the games of one series through the v1 API.
func SeriesGamesV1Request(seriesID string, max int) Request {
	return Request{Version: 1, Endpoint: "series/" + seriesID + "/games", Params: map[string]any{"max": max}}
}

// GameDataRequest fetches a game with its categories, levels, variables,
// values and platforms.
func GameDataRequest(gameID string) Request {
	return Request{Version: 2, Endpoint: EndpointGameData, Params: map[string]any{"gameId": gameID}}
}

// LeaderboardRequest fetches one page of a category leaderboard. Obsolete runs
// are included, video is not required and only verified runs are listed.
func LeaderboardRequest(endpoint, gameID, categoryID string, page int) Request {
	return Request{Version: 2, Endpoint: endpoint, Params: map[string]any{
		"gameId":     gameID,
		"categoryId": categoryID,
		"obsolete":   1,
		"video":      0,
		"verified":   1,
		"page":       page,
	}}
}
