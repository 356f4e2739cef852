// Package run builds the canonical, denormalized Run records from raw
// leaderboard runs and the shared registries.
package run

import (
	"strings"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/registry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SentinelDateSubmitted stands in for a missing submission date.
// It is the largest 32-bit epoch, so such runs are treated as the newest.
const SentinelDateSubmitted int64 = 2147483647

// GuestIDLength is the fixed length of speedrun.com guest-account IDs.
const GuestIDLength = 38

// GuestPrefix marks guest players in display names.
const GuestPrefix = "[Guest]"

// ReverseTimeDirection is the category timeDirection where a larger time is
// better.
const ReverseTimeDirection = 1

// Run is the canonical output record. It is a plain value; every name is
// resolved when the Run is built.
type Run struct {
	GroupName     string   `json:"groupName"`
	SeriesName    *string  `json:"seriesName"`
	GameName      string   `json:"gameName"`
	GameID        string   `json:"gameId"`
	Time          *float64 `json:"time"`
	Date          int64    `json:"date"`
	DateSubmitted int64    `json:"dateSubmitted"`
	IsLevelRun    bool     `json:"isLevelRun"`
	IsReverseTime bool     `json:"isReverseTime"`
	DefaultTimer  Timer    `json:"defaultTimer"`
	PlatformName  *string  `json:"platformName"`
	PlayerNames   []string `json:"playerNames"`
}

// PlayerDisplayName returns the trimmed name, prefixed with GuestPrefix for
// guest accounts.
func PlayerDisplayName(id, name string) string {
	name = strings.TrimSpace(name)
	if len(id) == GuestIDLength {
		return GuestPrefix + name
	}
	return name
}

// Normalizer turns raw runs into Runs using the shared registries.
type Normalizer struct {
	reg    *registry.Set
	logger zerolog.Logger
}

// NewNormalizer creates a Normalizer over the given registries.
func NewNormalizer(reg *registry.Set) *Normalizer {
	return &Normalizer{
		reg:    reg,
		logger: log.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize builds a Run. Every ID referenced by raw must already be
// registered; missing names degrade to empty or null fields.
func (n *Normalizer) Normalize(seriesID string, timeDirection int, defaultTimer Timer, raw api.RawRun) Run {
	t, ok := ResolveTime(defaultTimer, raw.Time, raw.TimeWithLoads, raw.IGT)
	if !ok {
		n.logger.Warn().Str("run_id", raw.ID).Msgf("Run with id %s has a null time.", raw.ID)
	}

	dateSubmitted := SentinelDateSubmitted
	if raw.DateSubmitted != nil {
		dateSubmitted = *raw.DateSubmitted
	}

	gameName, _ := n.reg.Games.Get(raw.GameID)

	players := make([]string, 0, len(raw.PlayerIDs))
	for _, id := range raw.PlayerIDs {
		name, ok := n.reg.Players.Get(id)
		if !ok {
			n.logger.Warn().Str("run_id", raw.ID).Str("player_id", id).Msg("Unresolved player")
		}
		players = append(players, name)
	}

	return Run{
		GroupName:     n.groupName(raw),
		SeriesName:    lookup(n.reg.Series, seriesID),
		GameName:      gameName,
		GameID:        raw.GameID,
		Time:          t,
		Date:          raw.Date,
		DateSubmitted: dateSubmitted,
		IsLevelRun:    raw.LevelID != "",
		IsReverseTime: timeDirection == ReverseTimeDirection,
		DefaultTimer:  defaultTimer,
		PlatformName:  lookup(n.reg.Platforms, raw.PlatformID),
		PlayerNames:   players,
	}
}

// groupName resolves the memoized label:
// "<game>: <category>[, <level>][ - <value>, <value>]".
func (n *Normalizer) groupName(raw api.RawRun) string {
	key := registry.GroupKey{
		CategoryID: raw.CategoryID,
		LevelID:    raw.LevelID,
		ValueIDs:   raw.ValueIDs,
	}

	return n.reg.Groups.Resolve(key, func() string {
		game, _ := n.reg.Games.Get(raw.GameID)
		category, _ := n.reg.Categories.Get(raw.CategoryID)

		var b strings.Builder
		b.WriteString(game)
		b.WriteString(": ")
		b.WriteString(category)

		if raw.LevelID != "" {
			level, _ := n.reg.Levels.Get(raw.LevelID)
			b.WriteString(", ")
			b.WriteString(level)
		}

		values := make([]string, 0, len(raw.ValueIDs))
		for _, id := range raw.ValueIDs {
			if name, ok := n.reg.SubcategoryValues.Get(id); ok {
				values = append(values, name)
			}
		}
		if len(values) > 0 {
			b.WriteString(" - ")
			b.WriteString(strings.Join(values, ", "))
		}
		return b.String()
	})
}

func lookup(r *registry.Registry, id string) *string {
	if id == "" {
		return nil
	}
	name, ok := r.Get(id)
	if !ok {
		return nil
	}
	return &name
}
