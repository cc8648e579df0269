package leaderboard

import (
	"fmt"
	"math"
	"time"
)

// Record counts games and wins.
type Record struct {
	Games int `json:"games"`
	Wins  int `json:"wins"`
}

// Profile is a player's lifetime statistics, updated by the server at the
// end of every game.
type Profile struct {
	PlayerName      string            `json:"player_name"`
	RegisteredAt    time.Time         `json:"registered_at"`
	TotalGames      int               `json:"total_games"`
	TotalWins       int               `json:"total_wins"`
	GamesByMode     map[string]int    `json:"games_by_mode"`
	WinsByMode      map[string]int    `json:"wins_by_mode"`
	HighScoreByMode map[string]int    `json:"highest_score_by_mode"`
	GamesVsAIOnly   int               `json:"games_vs_ai_only"`
	WinsVsAIOnly    int               `json:"wins_vs_ai_only"`
	DuelVsHuman     Record            `json:"duel_vs_human"`
	DuelVsAI        map[string]Record `json:"duel_vs_ai"`
	WinPct          float64           `json:"win_pct"`
}

func newProfile(name string, now time.Time) *Profile {
	return &Profile{
		PlayerName:      name,
		RegisteredAt:    now,
		GamesByMode:     make(map[string]int),
		WinsByMode:      make(map[string]int),
		HighScoreByMode: make(map[string]int),
		DuelVsAI:        make(map[string]Record),
	}
}

// fill replaces maps missing from an older profiles file.
func (p *Profile) fill() {
	if p.GamesByMode == nil {
		p.GamesByMode = make(map[string]int)
	}
	if p.WinsByMode == nil {
		p.WinsByMode = make(map[string]int)
	}
	if p.HighScoreByMode == nil {
		p.HighScoreByMode = make(map[string]int)
	}
	if p.DuelVsAI == nil {
		p.DuelVsAI = make(map[string]Record)
	}
}

func (p *Profile) clone() Profile {
	out := *p
	out.GamesByMode = cloneMap(p.GamesByMode)
	out.WinsByMode = cloneMap(p.WinsByMode)
	out.HighScoreByMode = cloneMap(p.HighScoreByMode)
	out.DuelVsAI = cloneMap(p.DuelVsAI)
	if p.TotalGames > 0 {
		out.WinPct = math.Round(float64(p.TotalWins)/float64(p.TotalGames)*1000) / 10
	}
	return out
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Result is one human's outcome of a finished game.
type Result struct {
	PlayerName string
	Mode       string
	Score      int
	Winner     bool
	VsAIOnly   bool
}

// DuelResult is one human's outcome of a finished Duel series.
type DuelResult struct {
	PlayerName string
	Winner     bool
	OpponentAI string // difficulty, empty for a human opponent
}

// Profile returns a copy of the named player's profile.
func (s *Store) Profile(name string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

func (s *Store) profile(name string) *Profile {
	p, ok := s.profiles[name]
	if !ok {
		p = newProfile(name, s.now())
		s.profiles[name] = p
	}
	return p
}

// RecordGame folds a game result into the player's profile.
func (s *Store) RecordGame(r Result) error {
	if r.PlayerName == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(r.PlayerName)
	p.TotalGames++
	p.GamesByMode[r.Mode]++
	if r.Winner {
		p.TotalWins++
		p.WinsByMode[r.Mode]++
	}
	if r.Score > p.HighScoreByMode[r.Mode] {
		p.HighScoreByMode[r.Mode] = r.Score
	}
	if r.VsAIOnly {
		p.GamesVsAIOnly++
		if r.Winner {
			p.WinsVsAIOnly++
		}
	}
	if err := s.save(profilesFile, s.profiles); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// RecordDuel counts a finished series against a human or a bot tier.
func (s *Store) RecordDuel(r DuelResult) error {
	if r.PlayerName == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(r.PlayerName)
	rec := p.DuelVsHuman
	if r.OpponentAI != "" {
		rec = p.DuelVsAI[r.OpponentAI]
	}
	rec.Games++
	if r.Winner {
		rec.Wins++
	}
	if r.OpponentAI != "" {
		p.DuelVsAI[r.OpponentAI] = rec
	} else {
		p.DuelVsHuman = rec
	}
	if err := s.save(profilesFile, s.profiles); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}
