package api

// Overview is the minimal {id, name} handle used to queue further exploration.
type Overview struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pagination is the v2 pagination block.
type Pagination struct {
	Count int `json:"count"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Per   int `json:"per"`
}

// SeriesListResponse is the body of GetSeriesList.
type SeriesListResponse struct {
	SeriesList []Overview `json:"seriesList"`
	Pagination Pagination `json:"pagination"`
}

// GameListResponse is the body of GetGameList.
type GameListResponse struct {
	GameList   []Overview `json:"gameList"`
	Pagination Pagination `json:"pagination"`
}

// SeriesGamesV1Response is the body of the v1 series/{id}/games resource.
type SeriesGamesV1Response struct {
	Data []struct {
		ID    string `json:"id"`
		Names struct {
			International string `json:"international"`
		} `json:"names"`
	} `json:"data"`
}

// Game is the game block of GetGameData.
type Game struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DefaultTimer int    `json:"defaultTimer"`
}

// Variable is a game variable; subcategory variables split leaderboards.
type Variable struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsSubcategory bool   `json:"isSubcategory"`
}

// Value is one possible value of a Variable.
type Value struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VariableID string `json:"variableId"`
}

// Category is a category of a game.
type Category struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TimeDirection int    `json:"timeDirection"`
}

// GameDataResponse is the body of GetGameData.
type GameDataResponse struct {
	Game       Game       `json:"game"`
	Categories []Category `json:"categories"`
	Levels     []Overview `json:"levels"`
	Platforms  []Overview `json:"platforms"`
	Variables  []Variable `json:"variables"`
	Values     []Value    `json:"values"`
}

// Player is a leaderboard participant. Guest accounts have synthetic IDs.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawRun is a run as listed on a leaderboard page.
type RawRun struct {
	ID            string   `json:"id"`
	GameID        string   `json:"gameId"`
	CategoryID    string   `json:"categoryId"`
	LevelID       string   `json:"levelId,omitempty"`
	ValueIDs      []string `json:"valueIds"`
	PlayerIDs     []string `json:"playerIds"`
	PlatformID    string   `json:"platformId,omitempty"`
	Time          *float64 `json:"time,omitempty"`
	TimeWithLoads *float64 `json:"timeWithLoads,omitempty"`
	IGT           *float64 `json:"igt,omitempty"`
	Date          int64    `json:"date"`
	DateSubmitted *int64   `json:"dateSubmitted,omitempty"`
}

// LeaderboardPage is the common shape both leaderboard endpoints are
// normalized into.
type LeaderboardPage struct {
	Players    []Player
	Runs       []RawRun
	Pagination Pagination
}

// leaderboardBody is shape 1: everything nested under "leaderboard".
type leaderboardBody struct {
	Leaderboard struct {
		Players    []Player   `json:"players"`
		Runs       []RawRun   `json:"runs"`
		Pagination Pagination `json:"pagination"`
	} `json:"leaderboard"`
}

// leaderboard2Body is shape 2: flat lists at the top level.
type leaderboard2Body struct {
	PlayerList []Player   `json:"playerList"`
	RunList    []RawRun   `json:"runList"`
	Pagination Pagination `json:"pagination"`
}

// GameOverview is a queued game. SeriesID is empty for games reached
// through the global game list.
type GameOverview struct {
	SeriesID string `json:"seriesId,omitempty"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}
