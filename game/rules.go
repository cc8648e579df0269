package game

import (
	"math"
	"sort"
)

// ruleset carries everything that differs between modes.
type ruleset interface {
	update(w *World)
	decays() bool
	foodScores() bool
	killScores() bool
	respawnLength(w *World, p *Player) int
	foodTarget(w *World) int
	checkEnd(w *World)
}

func rulesFor(m Mode) ruleset {
	switch m {
	case ModeHighScore:
		return highScoreRules{}
	case ModeBattleRoyale:
		return royaleRules{}
	case ModeDuel:
		return duelRules{}
	case ModeSinglePlayer:
		return singleRules{}
	default:
		return survivalRules{}
	}
}

// rampSpeed turns a per-stage interval factor into a capped speed multiplier.
func rampSpeed(t Tuning, factor float64, stage int) float64 {
	if factor <= 0 || factor >= 1 {
		return 1
	}
	return math.Min(t.MaxSpeed, math.Pow(1/factor, float64(stage)))
}

// ---------------------------------------------------------------------------
// Survival
// ---------------------------------------------------------------------------

type survivalRules struct{}

// SurvivalStage returns the zero-based 15-second stage for elapsed seconds.
func SurvivalStage(t Tuning, elapsed float64) int {
	if t.SurvivalStage <= 0 {
		return 0
	}
	return int(elapsed / t.SurvivalStage)
}

// SurvivalDecayInterval is the decay interval at the given stage.
func SurvivalDecayInterval(t Tuning, stage int) float64 {
	return math.Max(t.SurvivalDecayFloor, t.SurvivalDecayStart-t.SurvivalDecayStep*float64(stage))
}

func (survivalRules) update(w *World) {
	stage := SurvivalStage(w.Tuning, w.Elapsed)
	w.SpeedMultiplier = rampSpeed(w.Tuning, w.Tuning.SurvivalSpeedFactor, stage)
	w.DecayInterval = SurvivalDecayInterval(w.Tuning, stage)
}

func (survivalRules) decays() bool                          { return true }
func (survivalRules) foodScores() bool                      { return true }
func (survivalRules) killScores() bool                      { return false }
func (survivalRules) respawnLength(w *World, _ *Player) int { return w.Tuning.StartLength }
func (survivalRules) foodTarget(w *World) int               { return w.Tuning.FoodPerQuadrant }

func (survivalRules) checkEnd(w *World) {
	if w.Over || w.AliveCount() > 1 {
		return
	}
	var winner *Player
	for _, p := range w.Players {
		if p.Alive() {
			winner = p
			break
		}
	}
	if winner == nil {
		winner = lastStanding(w.Players)
	}
	finish(w, winner)
}

// lastStanding breaks a simultaneous wipe-out by best rank, then score.
func lastStanding(players []*Player) *Player {
	var best *Player
	for _, p := range players {
		if best == nil || p.Rank < best.Rank ||
			(p.Rank == best.Rank && p.Score() > best.Score()) {
			best = p
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Single player
// ---------------------------------------------------------------------------

type singleRules struct{}

func (singleRules) update(w *World) {
	stage := 0
	if len(w.Players) > 0 && w.Tuning.SingleScoreStage > 0 {
		stage = w.Players[0].Score() / w.Tuning.SingleScoreStage
	}
	w.SpeedMultiplier = rampSpeed(w.Tuning, w.Tuning.SurvivalSpeedFactor, stage)
	w.DecayInterval = 0
}

func (singleRules) decays() bool                          { return false }
func (singleRules) foodScores() bool                      { return true }
func (singleRules) killScores() bool                      { return false }
func (singleRules) respawnLength(w *World, _ *Player) int { return w.Tuning.StartLength }
func (singleRules) foodTarget(w *World) int               { return w.Tuning.FoodPerQuadrant }

func (singleRules) checkEnd(w *World) {
	if w.Over || w.AliveCount() > 0 {
		return
	}
	if len(w.Players) > 0 {
		finish(w, w.Players[0])
	}
}

// ---------------------------------------------------------------------------
// High Score
// ---------------------------------------------------------------------------

type highScoreRules struct{}

func timedUpdate(w *World) {
	stage := 0
	if w.Tuning.TimedSpeedStage > 0 {
		stage = int(w.Elapsed / w.Tuning.TimedSpeedStage)
	}
	w.SpeedMultiplier = rampSpeed(w.Tuning, w.Tuning.TimedSpeedFactor, stage)
	w.DecayInterval = 0
}

func timedCheckEnd(w *World) {
	if w.Over || w.Elapsed < float64(w.Settings.TimeLimit) {
		return
	}
	finishByScore(w)
}

func (highScoreRules) update(w *World)                       { timedUpdate(w) }
func (highScoreRules) decays() bool                          { return false }
func (highScoreRules) foodScores() bool                      { return true }
func (highScoreRules) killScores() bool                      { return false }
func (highScoreRules) respawnLength(w *World, _ *Player) int { return w.Tuning.StartLength }
func (highScoreRules) foodTarget(w *World) int               { return w.Tuning.FoodPerQuadrant }
func (highScoreRules) checkEnd(w *World)                     { timedCheckEnd(w) }

// ---------------------------------------------------------------------------
// Battle Royale
// ---------------------------------------------------------------------------

type royaleRules struct{}

// RoyaleRespawnLength is max(3, ceil(previous/2)).
func RoyaleRespawnLength(previous int) int {
	n := (previous + 1) / 2
	if n < MinLength {
		return MinLength
	}
	return n
}

func (royaleRules) update(w *World)  { timedUpdate(w) }
func (royaleRules) decays() bool     { return false }
func (royaleRules) foodScores() bool { return false }
func (royaleRules) killScores() bool { return true }
func (royaleRules) checkEnd(w *World) {
	timedCheckEnd(w)
}

func (royaleRules) respawnLength(_ *World, p *Player) int {
	return RoyaleRespawnLength(p.LastLength)
}

func (royaleRules) foodTarget(w *World) int {
	if len(w.Players) >= 4 {
		return w.Tuning.RoyaleFoodCrowded
	}
	return w.Tuning.RoyaleFood
}

// ---------------------------------------------------------------------------
// Duel
// ---------------------------------------------------------------------------

type duelRules struct{}

// DuelSpeed ramps linearly to MaxSpeed over DuelRampDuration in DuelSpeedStage steps.
func DuelSpeed(t Tuning, elapsed float64) float64 {
	if t.DuelRampDuration <= 0 {
		return t.MaxSpeed
	}
	stepped := elapsed
	if t.DuelSpeedStage > 0 {
		stepped = math.Floor(elapsed/t.DuelSpeedStage) * t.DuelSpeedStage
	}
	return math.Min(t.MaxSpeed, 1+(t.MaxSpeed-1)*stepped/t.DuelRampDuration)
}

// DuelDecayInterval looks the elapsed time up in the compressed schedule.
func DuelDecayInterval(t Tuning, elapsed float64) float64 {
	interval := t.SurvivalDecayStart
	for _, s := range t.DuelDecay {
		if elapsed >= s.From {
			interval = s.Interval
		}
	}
	return interval
}

// SeriesTarget is the number of round wins that takes a best-of-n series.
func SeriesTarget(n int) int { return (n + 1) / 2 }

func (duelRules) update(w *World) {
	w.SpeedMultiplier = DuelSpeed(w.Tuning, w.Elapsed)
	w.DecayInterval = DuelDecayInterval(w.Tuning, w.Elapsed)
}

func (duelRules) decays() bool                          { return true }
func (duelRules) foodScores() bool                      { return true }
func (duelRules) killScores() bool                      { return false }
func (duelRules) respawnLength(w *World, _ *Player) int { return w.Tuning.DuelStartLength }
func (duelRules) foodTarget(w *World) int               { return w.Tuning.DuelFood }

func (duelRules) checkEnd(w *World) {
	if w.Over || w.RoundOver {
		return
	}
	if w.AliveCount() > 1 && w.Elapsed < w.Tuning.DuelCutoff {
		return
	}
	winner := duelRoundWinner(w.Players)
	w.RoundOver = true
	if winner == nil {
		w.events = append(w.events, Event{Kind: EventRoundOver})
		return
	}
	winner.SeriesWins++
	w.RoundWinnerID = winner.ID
	if winner.SeriesWins >= SeriesTarget(w.Settings.SeriesLength) {
		w.Over = true
		w.WinnerID = winner.ID
		w.events = append(w.events, Event{Kind: EventGameOver, PlayerID: winner.ID})
		return
	}
	w.events = append(w.events, Event{Kind: EventRoundOver, PlayerID: winner.ID})
}

// duelRoundWinner: sole survivor, else higher score, else longer snake.
// A full tie is a drawn round.
func duelRoundWinner(players []*Player) *Player {
	if len(players) < 2 {
		if len(players) == 1 {
			return players[0]
		}
		return nil
	}
	a, b := players[0], players[1]
	switch {
	case a.Alive() && !b.Alive():
		return a
	case b.Alive() && !a.Alive():
		return b
	case a.Score() != b.Score():
		if a.Score() > b.Score() {
			return a
		}
		return b
	}
	la, lb := a.LastLength, b.LastLength
	if a.Alive() {
		la = a.Snake.Len()
	}
	if b.Alive() {
		lb = b.Snake.Len()
	}
	switch {
	case la > lb:
		return a
	case lb > la:
		return b
	}
	return nil
}

// ---------------------------------------------------------------------------
// Endings
// ---------------------------------------------------------------------------

func finish(w *World, winner *Player) {
	w.Over = true
	if winner != nil {
		winner.Rank = 1
		w.WinnerID = winner.ID
	}
	w.events = append(w.events, Event{Kind: EventGameOver, PlayerID: w.WinnerID})
}

func finishByScore(w *World) {
	ranked := append([]*Player(nil), w.Players...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score() > ranked[j].Score() })
	for i, p := range ranked {
		p.Rank = i + 1
	}
	var winner *Player
	if len(ranked) > 0 {
		winner = ranked[0]
	}
	finish(w, winner)
}
