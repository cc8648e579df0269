// Package leaderboard keeps the global high-score table and per-player
// profiles as JSON files under the server's data directory.
package leaderboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	MaxEntries   = 20
	entriesFile  = "leaderboard.json"
	profilesFile = "profiles.json"
)

// Entry is one row of the leaderboard.
type Entry struct {
	PlayerName string    `json:"player_name"`
	Score      int       `json:"score"`
	Date       time.Time `json:"date"`
	GameType   string    `json:"game_type"`
	GameMode   string    `json:"game_mode"`
}

// Store is safe for concurrent use. With an empty directory nothing is
// written to disk.
type Store struct {
	mu       sync.RWMutex
	dir      string
	entries  []Entry
	profiles map[string]*Profile
	now      func() time.Time
}

// Open loads the store from dir, creating the directory if needed. Missing
// or unreadable files start empty.
func Open(dir string) (*Store, error) {
	s := &Store{
		dir:      dir,
		profiles: make(map[string]*Profile),
		now:      time.Now,
	}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := s.load(entriesFile, &s.entries); err != nil {
		s.entries = nil
	}
	if err := s.load(profilesFile, &s.profiles); err != nil || s.profiles == nil {
		s.profiles = make(map[string]*Profile)
	}
	for name, p := range s.profiles {
		if p == nil {
			delete(s.profiles, name)
			continue
		}
		p.fill()
	}
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	return s, nil
}

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// save must be called with mu held.
func (s *Store) save(name string, v any) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, name))
}

// Submit records a score and returns its 1-based rank, or 0 when it did not
// make the table. Ties keep the earlier entry ahead.
func (s *Store) Submit(name string, score int, gameType, gameMode string) (int, error) {
	if score <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := 0
	for pos < len(s.entries) && s.entries[pos].Score >= score {
		pos++
	}
	if pos >= MaxEntries {
		return 0, nil
	}
	e := Entry{PlayerName: name, Score: score, Date: s.now(), GameType: gameType, GameMode: gameMode}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[:MaxEntries]
	}
	if err := s.save(entriesFile, s.entries); err != nil {
		return pos + 1, fmt.Errorf("save leaderboard: %w", err)
	}
	return pos + 1, nil
}

// Entries returns a copy of the table, best first.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
