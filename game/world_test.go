package game

import (
	"fmt"
	"math"
	"testing"
)

// wallFollower keeps going straight until something is in the way.
type wallFollower struct{}

func (wallFollower) ChooseDirection(w *World, p *Player) Direction {
	s := p.Snake
	for _, d := range append([]Direction{s.Dir}, Directions()...) {
		if d == s.Dir.Opposite() {
			continue
		}
		n := s.Head().Step(d)
		if !w.Map.Blocked(p.Quadrant, n) && s.IndexOf(n) < 0 {
			return d
		}
	}
	return s.Dir
}

func (wallFollower) ReactionTime(*Player) float64 { return 0 }

func quietTuning() Tuning {
	t := DefaultTuning()
	t.FoodPerQuadrant = 0
	t.RoyaleFood = 0
	t.RoyaleFoodCrowded = 0
	t.DuelFood = 0
	return t
}

func newTestWorld(mode Mode, n int, tune Tuning, brain Brain) *World {
	seats := make([]Seat, n)
	for i := range seats {
		seats[i] = Seat{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Player %d", i+1), IsAI: brain != nil}
	}
	settings := Settings{Mode: mode, MapSize: MapMedium, Density: DensityNone, TimeLimit: 30, SeriesLength: 3}
	return NewWorld(settings, tune, seats, NewRand(7), brain)
}

func place(w *World, id string, head Point, dir Direction, length int) *Snake {
	p := w.Player(id)
	s := NewSnake(head, dir, length, p.Color)
	s.DecayTimer = w.DecayInterval
	p.Snake = s
	return s
}

func TestRespawnDelayIsFibonacci(t *testing.T) {
	want := []float64{2, 3, 5, 8, 13, 21, 34}
	for i, w := range want {
		if got := RespawnDelay(i); got != w {
			t.Fatalf("RespawnDelay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestConsecutiveDeathsFollowFibonacci(t *testing.T) {
	for _, mode := range []Mode{ModeHighScore, ModeBattleRoyale} {
		w := newTestWorld(mode, 2, quietTuning(), nil)
		p := w.Player("p1")
		for i, want := range []float64{2, 3, 5, 8, 13, 21} {
			w.kill(p, "wall", nil)
			if p.RespawnIn != want {
				t.Fatalf("%s death %d: respawn in %v, want %v", mode, i, p.RespawnIn, want)
			}
			w.respawn(p)
		}
	}
}

func TestSinglePlayerConversion(t *testing.T) {
	w := newTestWorld(ModeSurvival, 1, quietTuning(), nil)
	if w.Settings.Mode != ModeSinglePlayer {
		t.Fatalf("mode = %s, want %s", w.Settings.Mode, ModeSinglePlayer)
	}
}

func TestSpawnFreezeHoldsSnakeAndIgnoresInput(t *testing.T) {
	w := newTestWorld(ModeSurvival, 2, quietTuning(), nil)
	p := w.Player("p1")
	start := p.Snake.Head()
	dir := p.Snake.Dir

	turn := Up
	if dir == Up || dir == Down {
		turn = Left
	}
	if w.Steer("p1", turn) {
		t.Fatalf("steer accepted while frozen")
	}
	w.Advance(0.5)
	if p.Snake.Head() != start {
		t.Fatalf("frozen snake moved from %v to %v", start, p.Snake.Head())
	}
	w.Advance(0.6)
	if p.Snake.Head() == start {
		t.Fatalf("snake still at %v after freeze expired", start)
	}
	if p.Snake.Dir != dir {
		t.Fatalf("direction changed to %s during freeze, want %s", p.Snake.Dir, dir)
	}
}

func TestSurvivalLengthNeverBelowMinimum(t *testing.T) {
	tune := DefaultTuning()
	seats := []Seat{{ID: "a", IsAI: true}, {ID: "b", IsAI: true}, {ID: "c", IsAI: true}, {ID: "d", IsAI: true}}
	settings := Settings{Mode: ModeSurvival, MapSize: MapSmall, Density: DensityModerate}
	w := NewWorld(settings, tune, seats, NewRand(42), wallFollower{})

	for i := 0; i < 2400 && !w.Over; i++ {
		w.Advance(0.05)
		for _, p := range w.Players {
			if p.Alive() && p.Snake.Len() < MinLength {
				t.Fatalf("t=%.2f: %s alive with length %d", w.Elapsed, p.ID, p.Snake.Len())
			}
		}
	}
	if !w.Over {
		t.Fatalf("survival did not end after %.0fs", w.Elapsed)
	}
	if w.WinnerID == "" {
		t.Fatalf("no winner recorded")
	}
}

func TestSurvivalDecayKillsAtMinimumLength(t *testing.T) {
	w := newTestWorld(ModeSurvival, 2, quietTuning(), nil)
	s := place(w, "p1", w.Map.Quadrants[0].Center(), Down, MinLength)
	place(w, "p2", w.Map.Quadrants[1].Center(), Down, 10)
	s.DecayTimer = 0.05

	w.Advance(0.06)
	if s.Alive {
		t.Fatalf("snake at minimum length survived decay")
	}
	if !w.Over || w.WinnerID != "p2" {
		t.Fatalf("over=%v winner=%q, want p2", w.Over, w.WinnerID)
	}
	if p := w.Player("p1"); p.Rank != 2 {
		t.Fatalf("rank = %d, want 2", p.Rank)
	}
}

func TestEatingResetsDecayTimer(t *testing.T) {
	w := newTestWorld(ModeSurvival, 2, quietTuning(), nil)
	head := w.Map.Quadrants[0].Center()
	s := place(w, "p1", head, Right, 3)
	place(w, "p2", w.Map.Quadrants[1].Center(), Down, 3)
	w.Foods = []*Food{newFood(99, Animals[0], head.Step(Right), 0)}
	s.DecayTimer = 1.0

	w.Advance(0.1)
	if s.Len() != 4 {
		t.Fatalf("length = %d, want 4", s.Len())
	}
	if s.DecayTimer != w.DecayInterval {
		t.Fatalf("decay timer = %v, want full interval %v", s.DecayTimer, w.DecayInterval)
	}
	if want := int(math.Round(75 * 1.1)); s.Score != want {
		t.Fatalf("score = %d, want %d", s.Score, want)
	}
	if len(w.Foods) != 0 {
		t.Fatalf("mouse not consumed")
	}
}

func TestMultiHitAnimalRecovers(t *testing.T) {
	w := newTestWorld(ModeHighScore, 1, quietTuning(), nil)
	head := w.Map.Quadrants[0].Center()
	s := place(w, "p1", head, Right, 3)
	rabbit := Animals[9]
	f := newFood(1, rabbit, head.Step(Right), 0)
	w.Foods = []*Food{f}

	w.Advance(0.1)
	if f.Health != 1 || !f.Recovering() {
		t.Fatalf("after first bite health=%d recovering=%v", f.Health, f.Recovering())
	}
	if want := rabbit.PointsPerHit(); s.Score != want {
		t.Fatalf("score = %d, want %d", s.Score, want)
	}
	w.Advance(0.1)
	if f.Health != 1 {
		t.Fatalf("recovering animal took a second bite")
	}
}

func TestPartialBiteKeepsDecayTimer(t *testing.T) {
	w := newTestWorld(ModeSurvival, 2, quietTuning(), nil)
	head := w.Map.Quadrants[0].Center()
	s := place(w, "p1", head, Right, 5)
	place(w, "p2", w.Map.Quadrants[1].Center(), Down, 3)
	f := newFood(1, Animals[9], head.Step(Right), 0)
	w.Foods = []*Food{f}
	s.DecayTimer = 1.0

	w.Advance(0.1)
	if f.Health != 1 || s.Len() != 6 {
		t.Fatalf("health=%d length=%d, want 1 and 6", f.Health, s.Len())
	}
	if s.DecayTimer > 1.0 {
		t.Fatalf("decay timer = %v after a partial bite, want it still running down from 1.0", s.DecayTimer)
	}
}

func TestContestedBiteGrowsOnlyTheBiter(t *testing.T) {
	w := newTestWorld(ModeDuel, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 11}, Up, 4)
	b := place(w, "p2", Point{11, 11}, Up, 4)
	f := newFood(1, Animals[9], Point{10, 10}, 0)
	w.Foods = []*Food{f}

	w.Advance(0.1)
	if !a.Alive || !b.Alive {
		t.Fatalf("a=%v b=%v, want both alive", a.Alive, b.Alive)
	}
	if f.Health != 1 {
		t.Fatalf("rabbit health = %d, want 1", f.Health)
	}
	if a.Len() != 5 || a.Score == 0 {
		t.Fatalf("biter length=%d score=%d", a.Len(), a.Score)
	}
	if b.Len() != 4 || b.Score != 0 {
		t.Fatalf("second head length=%d score=%d, want 4 and 0", b.Len(), b.Score)
	}
	if b.Head() != (Point{11, 10}) || b.Tail() != (Point{11, 13}) {
		t.Fatalf("second snake body = %v", b.Body)
	}
}

func TestLatestSteerWinsAtNextStep(t *testing.T) {
	w := newTestWorld(ModeHighScore, 1, quietTuning(), nil)
	head := w.Map.Quadrants[0].Center()
	s := place(w, "p1", head, Right, 3)

	if !w.Steer("p1", Up) || !w.Steer("p1", Down) {
		t.Fatalf("steer rejected")
	}
	if s.Dir != Right {
		t.Fatalf("direction changed before the step: %s", s.Dir)
	}
	w.Advance(0.1)
	if s.Dir != Down || s.Head() != head.Step(Down) {
		t.Fatalf("dir=%s head=%v, want down to %v", s.Dir, s.Head(), head.Step(Down))
	}
}

func TestSurvivalRampAfterFifteenSeconds(t *testing.T) {
	w := newTestWorld(ModeSurvival, 2, quietTuning(), nil)
	initial := w.DecayInterval
	w.Elapsed = 15
	w.rules.update(w)
	if w.SpeedMultiplier <= 1 || w.SpeedMultiplier > 2 {
		t.Fatalf("speed multiplier = %v, want (1, 2]", w.SpeedMultiplier)
	}
	if math.Abs(w.SpeedMultiplier-1/0.95) > 1e-9 {
		t.Fatalf("speed multiplier = %v, want %v", w.SpeedMultiplier, 1/0.95)
	}
	if w.DecayInterval >= initial {
		t.Fatalf("decay interval %v not below initial %v", w.DecayInterval, initial)
	}
	w.Elapsed = 1000
	w.rules.update(w)
	if w.SpeedMultiplier != 2 {
		t.Fatalf("speed multiplier not capped: %v", w.SpeedMultiplier)
	}
}

func TestRoyaleNonKillingHitDoesNotScore(t *testing.T) {
	w := newTestWorld(ModeBattleRoyale, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 3)
	b := place(w, "p2", Point{11, 5}, Up, 8)

	w.Advance(0.1)
	if !a.Alive || !b.Alive {
		t.Fatalf("alive a=%v b=%v, want both", a.Alive, b.Alive)
	}
	if b.Len() != 6 {
		t.Fatalf("victim length = %d, want 6", b.Len())
	}
	if a.Score != 0 {
		t.Fatalf("non-killing hit scored %d", a.Score)
	}
}

func TestRoyaleKillingHitScores(t *testing.T) {
	w := newTestWorld(ModeBattleRoyale, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 3)
	b := place(w, "p2", Point{11, 9}, Up, 4)

	w.Advance(0.1)
	if b.Alive {
		t.Fatalf("victim survived a cut below minimum length")
	}
	want := w.Tuning.RoyaleKillBase + w.Tuning.RoyaleKillPerSegment*4
	if a.Score != want {
		t.Fatalf("killer score = %d, want %d", a.Score, want)
	}
	ev := w.Events()
	if len(ev) != 1 || ev[0].KillerID != "p1" || ev[0].RespawnIn != 2 {
		t.Fatalf("events = %+v", ev)
	}
	if got := RoyaleRespawnLength(4); got != 3 {
		t.Fatalf("respawn length = %d, want 3", got)
	}
	if got := RoyaleRespawnLength(11); got != 6 {
		t.Fatalf("respawn length = %d, want 6", got)
	}
}

func TestRoyaleFoodDoesNotScore(t *testing.T) {
	w := newTestWorld(ModeBattleRoyale, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 3)
	place(w, "p2", Point{30, 20}, Left, 3)
	w.Foods = []*Food{newFood(1, Animals[0], Point{11, 10}, 0)}

	w.Advance(0.1)
	if a.Len() != 4 || a.Score != 0 {
		t.Fatalf("len=%d score=%d, want 4 and 0", a.Len(), a.Score)
	}
}

func TestFrozenSnakeIsPassedThrough(t *testing.T) {
	w := newTestWorld(ModeBattleRoyale, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 3)
	b := place(w, "p2", Point{11, 9}, Up, 4)
	b.SpawnFreeze = 1

	w.Advance(0.1)
	if !a.Alive || !b.Alive || b.Len() != 4 || a.Score != 0 {
		t.Fatalf("a=%v b=%v blen=%d score=%d", a.Alive, b.Alive, b.Len(), a.Score)
	}
}

func TestHeadOnLongerSnakeWins(t *testing.T) {
	w := newTestWorld(ModeBattleRoyale, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 5)
	b := place(w, "p2", Point{12, 10}, Left, 3)

	w.Advance(0.1)
	if !a.Alive || b.Alive {
		t.Fatalf("a=%v b=%v, want only a alive", a.Alive, b.Alive)
	}
	if a.Score == 0 {
		t.Fatalf("direct-contact elimination did not score")
	}
}

func TestDuelBodyHitEliminatesMover(t *testing.T) {
	w := newTestWorld(ModeDuel, 2, quietTuning(), nil)
	a := place(w, "p1", Point{10, 10}, Right, 4)
	b := place(w, "p2", Point{11, 5}, Up, 8)

	w.Advance(0.1)
	if a.Alive || !b.Alive {
		t.Fatalf("a=%v b=%v, want a dead", a.Alive, b.Alive)
	}
	if !w.RoundOver || w.RoundWinnerID != "p2" {
		t.Fatalf("roundOver=%v winner=%q", w.RoundOver, w.RoundWinnerID)
	}
}

func TestDuelSeriesBestOfThree(t *testing.T) {
	w := newTestWorld(ModeDuel, 2, quietTuning(), nil)
	a, b := w.Player("p1"), w.Player("p2")

	playRound := func(loser *Player) {
		w.kill(loser, "wall", nil)
		w.settleDeaths()
		w.rules.checkEnd(w)
	}

	playRound(b)
	if got := w.SeriesScores(); got["p1"] != 1 || got["p2"] != 0 || w.Over {
		t.Fatalf("after round 1: %v over=%v", got, w.Over)
	}
	w.NextRound()
	playRound(a)
	if got := w.SeriesScores(); got["p1"] != 1 || got["p2"] != 1 || w.Over {
		t.Fatalf("after round 2: %v over=%v", got, w.Over)
	}
	w.NextRound()
	playRound(b)
	if !w.Over || w.WinnerID != "p1" {
		t.Fatalf("over=%v winner=%q, want p1", w.Over, w.WinnerID)
	}
	if got := w.SeriesScores(); got["p1"] != 2 || got["p2"] != 1 {
		t.Fatalf("series = %v, want p1:2 p2:1", got)
	}
	w.NextRound()
	if w.Round != 3 {
		t.Fatalf("round %d started after the series ended", w.Round)
	}
}

func TestDuelCutoffAndSchedule(t *testing.T) {
	tune := DefaultTuning()
	cases := []struct {
		elapsed  float64
		interval float64
	}{{0, 5}, {29, 5}, {30, 4}, {60, 3}, {95, 2.5}, {149, 2.5}}
	for _, c := range cases {
		if got := DuelDecayInterval(tune, c.elapsed); got != c.interval {
			t.Errorf("DuelDecayInterval(%v) = %v, want %v", c.elapsed, got, c.interval)
		}
	}
	if got := DuelSpeed(tune, 120); got != tune.MaxSpeed {
		t.Fatalf("DuelSpeed(120) = %v, want %v", got, tune.MaxSpeed)
	}
	if got := DuelSpeed(tune, 14); got != 1 {
		t.Fatalf("DuelSpeed(14) = %v, want 1", got)
	}

	w := newTestWorld(ModeDuel, 2, quietTuning(), nil)
	w.Player("p1").Snake.Score = 50
	w.Elapsed = tune.DuelCutoff
	w.rules.checkEnd(w)
	if !w.RoundOver || w.RoundWinnerID != "p1" {
		t.Fatalf("cutoff: roundOver=%v winner=%q", w.RoundOver, w.RoundWinnerID)
	}
}

func TestDuelDepartureEndsSeries(t *testing.T) {
	w := newTestWorld(ModeDuel, 2, quietTuning(), nil)
	w.Depart("p2")
	if !w.Over || w.WinnerID != "p1" {
		t.Fatalf("over=%v winner=%q", w.Over, w.WinnerID)
	}
}

func TestHighScoreDepartureHandsSnakeToBot(t *testing.T) {
	w := newTestWorld(ModeHighScore, 2, quietTuning(), nil)
	w.Depart("p1")
	p := w.Player("p1")
	if !p.IsAI || p.Difficulty != DepartedBotDifficulty || !p.Alive() {
		t.Fatalf("departed player not converted: %+v", p)
	}
}

func TestHighScoreEndsAtTimeLimit(t *testing.T) {
	w := newTestWorld(ModeHighScore, 2, quietTuning(), wallFollower{})
	w.Player("p2").Snake.Score = 500
	for i := 0; i < 1000 && !w.Over; i++ {
		w.Advance(0.05)
	}
	if !w.Over {
		t.Fatalf("high score game did not end")
	}
	if w.Elapsed < 30 || w.Elapsed > 30.1 {
		t.Fatalf("ended at %.2fs, want 30s", w.Elapsed)
	}
	if w.WinnerID != "p2" || w.Player("p2").Rank != 1 {
		t.Fatalf("winner = %q", w.WinnerID)
	}
}

func TestFoodReplenishedPerQuadrant(t *testing.T) {
	w := newTestWorld(ModeHighScore, 4, DefaultTuning(), nil)
	counts := map[int]int{}
	for _, f := range w.Foods {
		counts[f.Quadrant]++
		b := w.Map.Bound(f.Quadrant)
		for _, c := range f.Footprint() {
			if !b.Contains(c) {
				t.Fatalf("food %s at %v leaks out of quadrant %d", f.Kind, c, f.Quadrant)
			}
		}
	}
	for q := 0; q < 4; q++ {
		if counts[q] != 2 {
			t.Fatalf("quadrant %d has %d food, want 2", q, counts[q])
		}
	}
}
