package cache

import (
	"testing"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "simple endpoint no params",
			key: CacheKey{
				Version:  2,
				Endpoint: "GetSeriesList",
			},
			want: "speedstats:v2:GetSeriesList",
		},
		{
			name: "v1 resource path is trimmed",
			key: CacheKey{
				Version:  1,
				Endpoint: "/series/15ndxp7r/games/",
				Params:   map[string]string{"max": "200"},
			},
			want: "speedstats:v1:series/15ndxp7r/games:max=200",
		},
		{
			name: "endpoint with multiple params (sorted)",
			key: CacheKey{
				Version:  2,
				Endpoint: "GetGameList",
				Params: map[string]string{
					"seriesId": "rv7emz49",
					"page":     "2",
				},
			},
			want: "speedstats:v2:GetGameList:page=2:seriesId=rv7emz49",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyFor(t *testing.T) {
	req := api.LeaderboardRequest(api.EndpointGameLeaderboard, "g1", "c1", 3)

	got := KeyFor(req).String()
	want := "speedstats:v2:GetGameLeaderboard:categoryId=c1:gameId=g1:obsolete=1:page=3:verified=1:video=0"
	if got != want {
		t.Errorf("KeyFor().String() = %q, want %q", got, want)
	}
}

func TestKeyFor_Deterministic(t *testing.T) {
	a := KeyFor(api.SeriesGameListRequest("s", 1)).String()
	b := KeyFor(api.SeriesGameListRequest("s", 1)).String()

	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}
