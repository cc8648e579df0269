package room

import (
	"strings"

	"schlangen.tv/arena/ai"
	"schlangen.tv/arena/game"
	"schlangen.tv/arena/protocol"
)

// Settings is what the host picks in the lobby.
type Settings struct {
	Mode           game.Mode
	MapSize        game.MapSize
	Density        game.Density
	TimeLimit      int
	SeriesLength   int
	AICount        int
	AIDifficulties []string
	AINames        []string
}

func defaultSettings(mode game.Mode) Settings {
	if !mode.Valid() {
		mode = game.ModeSurvival
	}
	return Settings{
		Mode:         mode,
		MapSize:      game.MapMedium,
		Density:      game.DensityNone,
		TimeLimit:    game.DefaultTimeLimit,
		SeriesLength: game.SeriesLengths[0],
	}
}

// MaxPlayers is the seat count of a mode, humans and bots together.
func MaxPlayers(m game.Mode) int {
	switch m {
	case game.ModeDuel:
		return 2
	case game.ModeSinglePlayer:
		return 1
	}
	return 4
}

// MinPlayers is the smallest legal total for a mode.
func MinPlayers(m game.Mode) int {
	switch m {
	case game.ModeBattleRoyale:
		return 3
	case game.ModeDuel:
		return 2
	}
	return 1
}

// AIRange is the legal bot count for a mode given the humans present.
// Battle Royale never drops below two bots unless humans fill the seats;
// Duel always tops up to exactly two players.
func AIRange(m game.Mode, humans int) (lo, hi int) {
	free := max(0, MaxPlayers(m)-humans)
	switch m {
	case game.ModeDuel:
		return free, free
	case game.ModeBattleRoyale:
		return min(2, free), free
	case game.ModeSinglePlayer:
		return 0, 0
	}
	return 0, free
}

// apply merges a host update into s. Illegal values never fail: they are
// clamped to the nearest legal one.
func (s Settings) apply(u protocol.SetSettings) Settings {
	if u.GameMode != nil && u.GameMode.Valid() {
		s.Mode = *u.GameMode
	}
	if u.MapSize != nil && u.MapSize.Valid() {
		s.MapSize = *u.MapSize
	}
	if u.BarrierDensity != nil && u.BarrierDensity.Valid() {
		s.Density = *u.BarrierDensity
	}
	if u.TimeLimit != nil {
		s.TimeLimit = *u.TimeLimit
	}
	if u.SeriesLength != nil {
		s.SeriesLength = *u.SeriesLength
	}
	if u.AICount != nil {
		s.AICount = *u.AICount
	}
	if u.AIDifficulties != nil {
		s.AIDifficulties = append([]string(nil), u.AIDifficulties...)
	}
	if u.AINames != nil {
		s.AINames = append([]string(nil), u.AINames...)
	}
	return s
}

// normalize clamps s for the given number of humans.
func (s Settings) normalize(humans int) Settings {
	if s.Mode == game.ModeSinglePlayer && humans > 1 {
		s.Mode = game.ModeSurvival
	}
	if s.Mode == game.ModeBattleRoyale && s.MapSize == game.MapSmall {
		s.MapSize = game.MapMedium
	}
	s.TimeLimit = nearest(game.TimeLimits, s.TimeLimit, game.DefaultTimeLimit)
	s.SeriesLength = nearest(game.SeriesLengths, s.SeriesLength, game.SeriesLengths[0])

	lo, hi := AIRange(s.Mode, humans)
	s.AICount = min(max(s.AICount, lo), hi)

	diffs := make([]string, s.AICount)
	names := make([]string, s.AICount)
	for i := range diffs {
		diffs[i] = string(ai.Amateur)
		if i < len(s.AIDifficulties) {
			diffs[i] = string(ai.ParseDifficulty(s.AIDifficulties[i]))
		}
		names[i] = game.BotNames[i%len(game.BotNames)]
		if i < len(s.AINames) {
			if n := trimName(s.AINames[i]); n != "" {
				names[i] = n
			}
		}
	}
	s.AIDifficulties, s.AINames = diffs, names
	return s
}

func nearest(legal []int, v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	best := legal[0]
	for _, l := range legal[1:] {
		if abs(l-v) < abs(best-v) {
			best = l
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func trimName(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > protocol.MaxNameLen {
		r = r[:protocol.MaxNameLen]
	}
	return string(r)
}
