package game

import (
	"math"
)

// Settings fixes the parameters of one game.
type Settings struct {
	Mode         Mode
	MapSize      MapSize
	Density      Density
	TimeLimit    int
	SeriesLength int
}

// Brain picks directions for bot-controlled snakes.
type Brain interface {
	ChooseDirection(w *World, p *Player) Direction
	ReactionTime(p *Player) float64
}

type EventKind string

const (
	EventDeath     EventKind = "death"
	EventRespawn   EventKind = "respawn"
	EventRoundOver EventKind = "round_over"
	EventGameOver  EventKind = "game_over"
)

// Event is something that happened during Advance that clients hear about.
type Event struct {
	Kind      EventKind
	PlayerID  string
	KillerID  string
	Cause     string
	Rank      int
	RespawnIn float64
}

// World is the complete simulation state of one game. It is owned by a
// single goroutine; nothing in here locks.
type World struct {
	Settings Settings
	Tuning   Tuning
	Map      Map
	Players  []*Player
	Foods    []*Food
	Brain    Brain

	Elapsed         float64
	SpeedMultiplier float64
	DecayInterval   float64
	Steps           int
	Round           int
	RoundOver       bool
	RoundWinnerID   string
	Over            bool
	WinnerID        string

	rng      Rand
	rules    ruleset
	events   []Event
	dying    []int
	moveAcc  float64
	nextFood int
}

// NewWorld seats the players, generates the map and places every snake and
// the opening food, all frozen for the spawn window. A Survival game with a
// single seat runs as Single Player.
func NewWorld(settings Settings, tuning Tuning, seats []Seat, rng Rand, brain Brain) *World {
	if settings.Mode == ModeSurvival && len(seats) == 1 {
		settings.Mode = ModeSinglePlayer
	}
	if settings.TimeLimit <= 0 {
		settings.TimeLimit = DefaultTimeLimit
	}
	if settings.SeriesLength <= 0 {
		settings.SeriesLength = SeriesLengths[0]
	}
	w := &World{
		Settings: settings,
		Tuning:   tuning,
		Brain:    brain,
		rng:      rng,
		rules:    rulesFor(settings.Mode),
		Round:    1,
	}
	for i, seat := range seats {
		p := &Player{
			ID:         seat.ID,
			Name:       seat.Name,
			IsAI:       seat.IsAI,
			Difficulty: seat.Difficulty,
			Color:      PlayerColors[i%len(PlayerColors)],
		}
		if !settings.Mode.Shared() {
			p.Quadrant = i
		}
		w.Players = append(w.Players, p)
	}
	w.setupRound()
	return w
}

func (w *World) setupRound() {
	w.Map = GenerateMap(MapSpec{
		Size:    w.Settings.MapSize,
		Mode:    w.Settings.Mode,
		Players: len(w.Players),
		Density: w.Settings.Density,
	}, w.rng, w.Tuning.MaxMapAttempts)
	w.Foods = nil
	w.Elapsed = 0
	w.moveAcc = 0
	w.rules.update(w)

	length := w.Tuning.StartLength
	if w.Settings.Mode == ModeDuel {
		length = w.Tuning.DuelStartLength
	}
	for _, p := range w.Players {
		p.Snake = nil
		p.Rank = 0
		p.RespawnIn = 0
		w.spawn(p, length)
	}
	w.replenishFood()
}

// NextRound starts a fresh Duel round on a new map. Series wins carry over.
func (w *World) NextRound() {
	if w.Over || !w.RoundOver {
		return
	}
	w.Round++
	w.RoundOver = false
	w.RoundWinnerID = ""
	w.setupRound()
}

// Player looks a participant up by id.
func (w *World) Player(id string) *Player {
	for _, p := range w.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (w *World) AliveCount() int {
	n := 0
	for _, p := range w.Players {
		if p.Alive() {
			n++
		}
	}
	return n
}

// SeriesScores returns Duel round wins by player id.
func (w *World) SeriesScores() map[string]int {
	out := make(map[string]int, len(w.Players))
	for _, p := range w.Players {
		out[p.ID] = p.SeriesWins
	}
	return out
}

// FoodsFor returns the animals player p can reach.
func (w *World) FoodsFor(p *Player) []*Food {
	if w.Settings.Mode.Shared() {
		return w.Foods
	}
	var out []*Food
	for _, f := range w.Foods {
		if f.Quadrant == p.Quadrant {
			out = append(out, f)
		}
	}
	return out
}

// MoveInterval is the current time between grid steps in seconds.
func (w *World) MoveInterval() float64 {
	return w.Tuning.BaseMoveInterval / w.SpeedMultiplier
}

// Events drains the events produced since the last call.
func (w *World) Events() []Event {
	ev := w.events
	w.events = nil
	return ev
}

// Steer latches a direction for the player's next step.
func (w *World) Steer(id string, d Direction) bool {
	p := w.Player(id)
	if p == nil || !p.Alive() {
		return false
	}
	return p.Snake.Turn(d)
}

// Depart handles a human leaving mid-game. In respawning modes the snake is
// handed to a bot; elsewhere it is removed from play.
func (w *World) Depart(id string) {
	p := w.Player(id)
	if p == nil || p.Departed {
		return
	}
	p.Departed = true
	if w.Over {
		return
	}
	if w.Settings.Mode.Respawns() {
		p.IsAI = true
		p.Difficulty = DepartedBotDifficulty
		return
	}
	if p.Alive() {
		w.kill(p, "left", nil)
		w.settleDeaths()
	}
	if w.Settings.Mode == ModeDuel {
		for _, o := range w.Players {
			if o != p {
				w.Over = true
				w.WinnerID = o.ID
				w.events = append(w.events, Event{Kind: EventGameOver, PlayerID: o.ID})
				return
			}
		}
	}
	w.rules.checkEnd(w)
}

// DepartedBotDifficulty is the tier that takes over a departed player's snake.
const DepartedBotDifficulty = "amateur"

// Advance moves the simulation forward by dt seconds: timers first, then as
// many grid steps as the current speed allows.
func (w *World) Advance(dt float64) {
	if w.Over || w.RoundOver || dt <= 0 {
		return
	}
	w.Elapsed += dt
	w.rules.update(w)
	w.tickTimers(dt)
	w.settleDeaths()
	w.rules.checkEnd(w)

	w.moveAcc += dt
	for !w.Over && !w.RoundOver {
		interval := w.MoveInterval()
		if w.moveAcc+1e-9 < interval {
			break
		}
		w.moveAcc -= interval
		w.step()
	}
}

func (w *World) tickTimers(dt float64) {
	for _, f := range w.Foods {
		if f.Recovery > 0 {
			f.Recovery = math.Max(0, f.Recovery-dt)
		}
	}
	decays := w.rules.decays()
	for _, p := range w.Players {
		if p.thinkIn > 0 {
			p.thinkIn -= dt
		}
		if !p.Alive() {
			if w.Settings.Mode.Respawns() && p.Snake != nil {
				p.RespawnIn -= dt
				if p.RespawnIn <= 0 {
					w.respawn(p)
				}
			}
			continue
		}
		s := p.Snake
		if s.SpawnFreeze > 0 {
			s.SpawnFreeze = math.Max(0, s.SpawnFreeze-dt)
			continue
		}
		if s.ComboTimer > 0 {
			s.ComboTimer -= dt
			if s.ComboTimer <= 0 {
				s.ComboTimer = 0
				s.Combo = 0
			}
		}
		if decays {
			s.DecayTimer -= dt
			if s.DecayTimer <= 0 {
				if s.Len() > MinLength {
					s.shedTail()
					s.DecayTimer += w.DecayInterval
					if s.DecayTimer <= 0 {
						s.DecayTimer = w.DecayInterval
					}
				} else {
					w.kill(p, "decay", nil)
				}
			}
		}
	}
}

func (w *World) respawn(p *Player) {
	length := w.rules.respawnLength(w, p)
	w.spawn(p, length)
	p.RespawnIn = 0
	w.events = append(w.events, Event{Kind: EventRespawn, PlayerID: p.ID})
}

// ---------------------------------------------------------------------------
// Grid step: think, move, collide, eat
// ---------------------------------------------------------------------------

type move struct {
	p      *Player
	head   Point
	grow   bool
	cause  string
	killer *Player
}

func (w *World) step() {
	w.Steps++
	w.thinkBots()
	w.resolveMoves()
	w.settleDeaths()
	w.replenishFood()
	w.rules.checkEnd(w)
}

func (w *World) thinkBots() {
	if w.Brain == nil {
		return
	}
	for _, p := range w.Players {
		if !p.IsAI || !p.Alive() || p.Snake.Frozen() || p.thinkIn > 0 {
			continue
		}
		p.Snake.Turn(w.Brain.ChooseDirection(w, p))
		p.thinkIn = w.Brain.ReactionTime(p)
	}
}

func (w *World) resolveMoves() {
	var moves []*move
	for _, p := range w.Players {
		if !p.Alive() || p.Snake.Frozen() {
			continue
		}
		s := p.Snake
		head := s.Head().Step(s.next)
		moves = append(moves, &move{p: p, head: head, grow: w.edibleAt(p, head) != nil})
	}

	for _, m := range moves {
		s := m.p.Snake
		switch {
		case !w.Map.Bound(m.p.Quadrant).Contains(m.head):
			m.cause = "bounds"
		case w.Map.WallAt(m.p.Quadrant, m.head):
			m.cause = "wall"
		case hitsSelf(s, m.head, m.grow):
			m.cause = "self"
		}
	}

	shared := w.Settings.Mode.Shared()
	if shared {
		for i, a := range moves {
			for _, b := range moves[i+1:] {
				if a.cause != "" || b.cause != "" {
					continue
				}
				swapped := a.head == b.p.Snake.Head() && b.head == a.p.Snake.Head()
				if a.head == b.head || swapped {
					headOn(a, b)
				}
			}
		}
	}

	for _, m := range moves {
		if m.cause != "" {
			w.kill(m.p, m.cause, m.killer)
		}
	}
	for _, m := range moves {
		if m.cause == "" {
			m.p.Snake.advance(m.head, m.grow)
		}
	}

	if shared {
		for _, m := range moves {
			if m.cause == "" && m.p.Alive() {
				w.bodyHit(m.p)
			}
		}
	}

	for _, m := range moves {
		if m.cause != "" || !m.p.Alive() || !m.grow {
			continue
		}
		// An earlier mover may have taken the bite this step.
		if f := w.edibleAt(m.p, m.head); f != nil {
			w.hit(m.p, f)
		} else if m.p.Snake.Len() > 1 {
			m.p.Snake.shedTail()
		}
	}
}

// hitsSelf ignores the tail cell when it is about to move out of the way.
func hitsSelf(s *Snake, head Point, grow bool) bool {
	body := s.Body
	if !grow {
		body = body[:len(body)-1]
	}
	for _, c := range body {
		if c == head {
			return true
		}
	}
	return false
}

// headOn eliminates the shorter snake; equal lengths lose together.
func headOn(a, b *move) {
	la, lb := a.p.Snake.Len(), b.p.Snake.Len()
	switch {
	case la > lb:
		b.cause, b.killer = "head_on", a.p
	case lb > la:
		a.cause, a.killer = "head_on", b.p
	default:
		a.cause, b.cause = "head_on", "head_on"
	}
}

// bodyHit resolves a head that landed in another snake's body. Frozen
// snakes are passed through.
func (w *World) bodyHit(p *Player) {
	head := p.Snake.Head()
	for _, o := range w.Players {
		if o == p || !o.Alive() || o.Snake.Frozen() {
			continue
		}
		idx := o.Snake.IndexOf(head)
		if idx <= 0 {
			continue
		}
		if w.Settings.Mode == ModeBattleRoyale {
			if idx < MinLength {
				w.kill(o, "cut", p)
			} else {
				o.Snake.truncate(idx)
			}
			return
		}
		w.kill(p, "snake", o)
		return
	}
}

func (w *World) edibleAt(p *Player, c Point) *Food {
	for _, f := range w.Foods {
		if f.Recovering() {
			continue
		}
		if !w.Settings.Mode.Shared() && f.Quadrant != p.Quadrant {
			continue
		}
		if f.Occupies(c) {
			return f
		}
	}
	return nil
}

// hit applies one bite to an animal. Each bite grows the snake; the killing
// bite removes the animal, carries the combo bonus and resets decay.
func (w *World) hit(p *Player, f *Food) {
	s := p.Snake
	pts := float64(f.PointsPerHit()) * w.Settings.Density.Multiplier()
	if s.ComboTimer > 0 {
		s.Combo++
	} else {
		s.Combo = 1
	}
	s.ComboTimer = w.Tuning.ComboWindow

	f.Health--
	if f.Health <= 0 {
		pts *= 1 + w.Tuning.ComboBonus*float64(s.Combo)
		w.removeFood(f)
		if w.rules.decays() {
			s.DecayTimer = w.DecayInterval
		}
	} else {
		f.Recovery = f.Category.HitRecovery()
	}
	if w.rules.foodScores() {
		s.Score += int(math.Round(pts))
	}
}

func (w *World) removeFood(f *Food) {
	for i, o := range w.Foods {
		if o == f {
			w.Foods = append(w.Foods[:i], w.Foods[i+1:]...)
			return
		}
	}
}

func (w *World) kill(p *Player, cause string, killer *Player) {
	s := p.Snake
	s.Alive = false
	p.LastLength = s.Len()
	ev := Event{Kind: EventDeath, PlayerID: p.ID, Cause: cause}
	if killer != nil {
		ev.KillerID = killer.ID
		killer.Kills++
		if w.rules.killScores() && killer.Alive() {
			pts := float64(w.Tuning.RoyaleKillBase+w.Tuning.RoyaleKillPerSegment*p.LastLength) *
				w.Settings.Density.Multiplier()
			killer.Snake.Score += int(math.Round(pts))
		}
	}
	if w.Settings.Mode.Respawns() {
		ev.RespawnIn = RespawnDelay(p.DeathCount)
		p.RespawnIn = ev.RespawnIn
		p.DeathCount++
		w.events = append(w.events, ev)
		return
	}
	p.DeathCount++
	w.events = append(w.events, ev)
	w.dying = append(w.dying, len(w.events)-1)
}

// settleDeaths ranks everyone eliminated since the last call. Snakes lost in
// the same step share a rank.
func (w *World) settleDeaths() {
	if len(w.dying) == 0 {
		return
	}
	rank := w.AliveCount() + 1
	for _, i := range w.dying {
		ev := &w.events[i]
		if p := w.Player(ev.PlayerID); p != nil {
			p.Rank = rank
		}
		ev.Rank = rank
	}
	w.dying = w.dying[:0]
}
