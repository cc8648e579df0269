package leaderboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(s *Store) {
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestSubmitRanksAndTrims(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fixedClock(s)
	for i := 1; i <= MaxEntries; i++ {
		if _, err := s.Submit("p", i*10, "snake_classic", "survival"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if rank, _ := s.Submit("low", 5, "snake_classic", "survival"); rank != 0 {
		t.Fatalf("score below a full table ranked %d", rank)
	}
	rank, _ := s.Submit("top", 1000, "snake_classic", "survival")
	if rank != 1 {
		t.Fatalf("best score ranked %d, want 1", rank)
	}
	entries := s.Entries()
	if len(entries) != MaxEntries {
		t.Fatalf("table has %d entries, want %d", len(entries), MaxEntries)
	}
	if entries[len(entries)-1].Score != 20 {
		t.Fatalf("lowest remaining score = %d, want 20", entries[len(entries)-1].Score)
	}
}

func TestSubmitTieGoesBehindEarlierEntry(t *testing.T) {
	s, _ := Open("")
	fixedClock(s)
	s.Submit("first", 100, "", "high_score")
	rank, _ := s.Submit("second", 100, "", "high_score")
	if rank != 2 {
		t.Fatalf("tied later score ranked %d, want 2", rank)
	}
	if got := s.Entries()[0].PlayerName; got != "first" {
		t.Fatalf("leader = %q, want first", got)
	}
}

func TestSubmitIgnoresNonPositive(t *testing.T) {
	s, _ := Open("")
	if rank, _ := s.Submit("zero", 0, "", ""); rank != 0 || len(s.Entries()) != 0 {
		t.Fatalf("zero score was recorded")
	}
}

func TestStorePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Submit("ada", 300, "snake_classic", "battle_royale")
	s.RecordGame(Result{PlayerName: "ada", Mode: "battle_royale", Score: 300, Winner: true, VsAIOnly: true})
	s.RecordDuel(DuelResult{PlayerName: "ada", Winner: true, OpponentAI: "pro"})

	again, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if e := again.Entries(); len(e) != 1 || e[0].PlayerName != "ada" {
		t.Fatalf("entries after reopen = %+v", e)
	}
	p, ok := again.Profile("ada")
	if !ok {
		t.Fatalf("profile lost")
	}
	if p.TotalWins != 1 || p.HighScoreByMode["battle_royale"] != 300 || p.WinsVsAIOnly != 1 {
		t.Fatalf("profile = %+v", p)
	}
	if p.DuelVsAI["pro"] != (Record{Games: 1, Wins: 1}) {
		t.Fatalf("duel record = %+v", p.DuelVsAI)
	}
	if p.WinPct != 100 {
		t.Fatalf("win pct = %v", p.WinPct)
	}
}

func TestOpenToleratesCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, entriesFile), []byte("{not json"), 0o644)
	os.WriteFile(filepath.Join(dir, profilesFile), []byte(`{"bob":{"total_games":2}}`), 0o644)
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Fatalf("corrupt leaderboard not discarded")
	}
	if err := s.RecordGame(Result{PlayerName: "bob", Mode: "duel", Score: 1}); err != nil {
		t.Fatalf("record on old profile: %v", err)
	}
	if p, _ := s.Profile("bob"); p.TotalGames != 3 || p.GamesByMode["duel"] != 1 {
		t.Fatalf("profile = %+v", p)
	}
}
