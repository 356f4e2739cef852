package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// LeaderboardShape selects one of the two equivalent leaderboard endpoints.
type LeaderboardShape int

const (
	// ShapeNested is GetGameLeaderboard (body nested under "leaderboard").
	ShapeNested LeaderboardShape = 1

	// ShapeFlat is GetGameLeaderboard2 (top-level runList/playerList).
	ShapeFlat LeaderboardShape = 2
)

// Client decodes typed responses from a Transport.
type Client struct {
	transport Transport
}

// NewClient creates a Client over the given transport.
func NewClient(transport Transport) *Client {
	if transport == nil {
		panic("transport cannot be nil")
	}
	return &Client{transport: transport}
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	data, err := c.transport.Perform(ctx, req)
	if err != nil {
		return fmt.Errorf("perform %s: %w", req.Endpoint, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.Endpoint, err)
	}
	return nil
}

// GetSeriesList fetches one page of the series listing.
func (c *Client) GetSeriesList(ctx context.Context, page int) (*SeriesListResponse, error) {
	var resp SeriesListResponse
	if err := c.do(ctx, SeriesListRequest(page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGameList fetches one page of the game listing.
func (c *Client) GetGameList(ctx context.Context, page int) (*GameListResponse, error) {
	var resp GameListResponse
	if err := c.do(ctx, GameListRequest(page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSeriesGameList fetches one page of the games belonging to a series.
func (c *Client) GetSeriesGameList(ctx context.Context, seriesID string, page int) (*GameListResponse, error) {
	var resp GameListResponse
	if err := c.do(ctx, SeriesGameListRequest(seriesID, page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSeriesGamesV1 fetches up to max games of a series through the v1 API.
func (c *Client) GetSeriesGamesV1(ctx context.Context, seriesID string, max int) (*SeriesGamesV1Response, error) {
	var resp SeriesGamesV1Response
	if err := c.do(ctx, SeriesGamesV1Request(seriesID, max), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGameData fetches the full detail of a game.
// Returns nil without error when the API answers with a null body.
func (c *Client) GetGameData(ctx context.Context, gameID string) (*GameDataResponse, error) {
	var resp *GameDataResponse
	if err := c.do(ctx, GameDataRequest(gameID), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetLeaderboard fetches one leaderboard page using the selected endpoint
// shape and normalizes it into a LeaderboardPage.
func (c *Client) GetLeaderboard(ctx context.Context, shape LeaderboardShape, gameID, categoryID string, page int) (*LeaderboardPage, error) {
	switch shape {
	case ShapeNested:
		var body leaderboardBody
		req := LeaderboardRequest(EndpointGameLeaderboard, gameID, categoryID, page)
		if err := c.do(ctx, req, &body); err != nil {
			return nil, err
		}
		return &LeaderboardPage{
			Players:    body.Leaderboard.Players,
			Runs:       body.Leaderboard.Runs,
			Pagination: body.Leaderboard.Pagination,
		}, nil
	case ShapeFlat:
		var body leaderboard2Body
		req := LeaderboardRequest(EndpointGameLeaderboard2, gameID, categoryID, page)
		if err := c.do(ctx, req, &body); err != nil {
			return nil, err
		}
		return &LeaderboardPage{
			Players:    body.PlayerList,
			Runs:       body.RunList,
			Pagination: body.Pagination,
		}, nil
	default:
		return nil, fmt.Errorf("unknown leaderboard shape %d", shape)
	}
}
