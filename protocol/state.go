package protocol

import (
	"math"

	"schlangen.tv/arena/game"
)

// GameState is the client's view of a running game. The static fields are
// filled only in full snapshots; a client carries them forward from the last
// full state it saw (see Merge).
type GameState struct {
	Full           bool           `json:"full,omitempty"`
	Mode           *game.Mode     `json:"mode,omitempty"`
	MapSize        *game.MapSize  `json:"map_size,omitempty"`
	BarrierDensity *game.Density  `json:"barrier_density,omitempty"`
	GridWidth      int            `json:"grid_width,omitempty"`
	GridHeight     int            `json:"grid_height,omitempty"`
	QuadrantBounds []game.Bounds  `json:"quadrant_bounds,omitempty"`
	Walls          [][]game.Wall  `json:"walls,omitempty"`
	Phase          string         `json:"phase"`
	Running        bool           `json:"running"`
	GameOver       bool           `json:"game_over"`
	WinnerID       string         `json:"winner_id,omitempty"`
	Countdown      float64        `json:"countdown,omitempty"`
	ElapsedTime    float64        `json:"elapsed_time"`
	TimeLimit      int            `json:"time_limit"`
	CurrentSpeed   float64        `json:"current_speed"`
	DecayInterval  float64        `json:"decay_interval,omitempty"`
	AliveCount     int            `json:"alive_count"`
	Players        []PlayerState  `json:"players"`
	Foods          []FoodState    `json:"foods"`
	SeriesLength   int            `json:"series_length,omitempty"`
	SeriesScores   map[string]int `json:"series_scores,omitempty"`
	CurrentRound   int            `json:"current_round,omitempty"`
	RoundWinnerID  string         `json:"round_winner_id,omitempty"`
	SeriesWinnerID string         `json:"series_winner_id,omitempty"`
}

type PlayerState struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	IsAI             bool        `json:"is_ai"`
	Difficulty       string      `json:"ai_difficulty,omitempty"`
	Quadrant         int         `json:"quadrant"`
	Rank             int         `json:"rank,omitempty"`
	DeathCount       int         `json:"death_count"`
	RespawnRemaining float64     `json:"respawn_remaining,omitempty"`
	SeriesWins       int         `json:"series_wins,omitempty"`
	Kills            int         `json:"kills,omitempty"`
	Departed         bool        `json:"departed,omitempty"`
	Snake            *SnakeState `json:"snake,omitempty"`
}

type SnakeState struct {
	Body        []game.Point   `json:"body"`
	Direction   game.Direction `json:"direction"`
	Color       string         `json:"color"`
	Alive       bool           `json:"alive"`
	Score       int            `json:"score"`
	Combo       int            `json:"combo,omitempty"`
	DecayTimer  float64        `json:"decay_timer,omitempty"`
	SpawnFreeze float64        `json:"spawn_freeze,omitempty"`
}

type FoodState struct {
	ID          int           `json:"id"`
	Type        string        `json:"type"`
	Category    game.Category `json:"category"`
	Position    game.Point    `json:"position"`
	Cells       []game.Point  `json:"cells"`
	Value       int           `json:"value"`
	Health      int           `json:"health"`
	MaxHealth   int           `json:"max_health"`
	HitRecovery float64       `json:"hit_recovery,omitempty"`
	Recovering  bool          `json:"recovering,omitempty"`
	Quadrant    int           `json:"quadrant"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Snapshot projects w. With full set it includes the static layout.
func Snapshot(w *game.World, full bool) GameState {
	st := GameState{
		Running:       !w.Over,
		GameOver:      w.Over,
		WinnerID:      w.WinnerID,
		ElapsedTime:   round2(w.Elapsed),
		TimeLimit:     w.Settings.TimeLimit,
		CurrentSpeed:  round2(w.SpeedMultiplier),
		DecayInterval: round2(w.DecayInterval),
		AliveCount:    w.AliveCount(),
		Players:       make([]PlayerState, 0, len(w.Players)),
		Foods:         make([]FoodState, 0, len(w.Foods)),
	}
	if full {
		mode, size, density := w.Settings.Mode, w.Settings.MapSize, w.Settings.Density
		st.Full = true
		st.Mode = &mode
		st.MapSize = &size
		st.BarrierDensity = &density
		st.GridWidth = w.Map.Width
		st.GridHeight = w.Map.Height
		st.QuadrantBounds = w.Map.Quadrants
		st.Walls = w.Map.Walls
	}
	if w.Settings.Mode == game.ModeDuel {
		st.SeriesLength = w.Settings.SeriesLength
		st.SeriesScores = w.SeriesScores()
		st.CurrentRound = w.Round
		st.RoundWinnerID = w.RoundWinnerID
		if w.Over {
			st.SeriesWinnerID = w.WinnerID
		}
	}
	for _, p := range w.Players {
		ps := PlayerState{
			ID:         p.ID,
			Name:       p.Name,
			IsAI:       p.IsAI,
			Quadrant:   p.Quadrant,
			Rank:       p.Rank,
			DeathCount: p.DeathCount,
			SeriesWins: p.SeriesWins,
			Kills:      p.Kills,
			Departed:   p.Departed,
		}
		if p.IsAI {
			ps.Difficulty = p.Difficulty
		}
		if !p.Alive() && p.RespawnIn > 0 {
			ps.RespawnRemaining = math.Round(p.RespawnIn*10) / 10
		}
		if s := p.Snake; s != nil {
			ps.Snake = &SnakeState{
				Body:        append([]game.Point(nil), s.Body...),
				Direction:   s.Dir,
				Color:       s.Color,
				Alive:       s.Alive,
				Score:       s.Score,
				Combo:       s.Combo,
				DecayTimer:  round2(s.DecayTimer),
				SpawnFreeze: round2(s.SpawnFreeze),
			}
		}
		st.Players = append(st.Players, ps)
	}
	for _, f := range w.Foods {
		st.Foods = append(st.Foods, FoodState{
			ID:          f.ID,
			Type:        f.Kind,
			Category:    f.Category,
			Position:    f.Pos,
			Cells:       f.Cells,
			Value:       f.Value,
			Health:      f.Health,
			MaxHealth:   f.MaxHealth,
			HitRecovery: round2(f.Recovery),
			Recovering:  f.Recovering(),
			Quadrant:    f.Quadrant,
		})
	}
	return st
}

// Merge applies a delta to the last known full state: static fields the
// delta omits are carried forward from prev.
func Merge(prev, delta GameState) GameState {
	out := delta
	if out.Mode == nil {
		out.Mode = prev.Mode
	}
	if out.MapSize == nil {
		out.MapSize = prev.MapSize
	}
	if out.BarrierDensity == nil {
		out.BarrierDensity = prev.BarrierDensity
	}
	if out.GridWidth == 0 {
		out.GridWidth = prev.GridWidth
	}
	if out.GridHeight == 0 {
		out.GridHeight = prev.GridHeight
	}
	if out.QuadrantBounds == nil {
		out.QuadrantBounds = prev.QuadrantBounds
	}
	if out.Walls == nil {
		out.Walls = prev.Walls
	}
	out.Full = prev.Full || delta.Full
	return out
}
