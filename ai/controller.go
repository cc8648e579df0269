// Package ai drives bot snakes. A Controller scores each non-reversing
// direction with a bounded flood fill for safety plus a weighted mix of food
// value, opponent proximity and mode bias, then picks the best one, with
// tier-dependent noise.
package ai

import (
	"math"

	"github.com/zyedidia/generic/mapset"

	"schlangen.tv/arena/game"
)

const (
	deadlyScore   = -1e6
	trappedScore  = -10000
	pathBonus     = 300
	closerBonus   = 120
	levelBonus    = 30
	straightBonus = 10
	spaceWeight   = 60
	laneWeight    = 8
	killBonus     = 400
	cutBonus      = 20
	denialBonus   = 150
	headOnPenalty = 5000
	nearHeadCost  = 150
	tailBonus     = 25
)

// Controller implements game.Brain.
type Controller struct {
	profiles Profiles
	rng      game.Rand
}

func New(profiles Profiles, rng game.Rand) *Controller {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Controller{profiles: profiles, rng: rng}
}

func (c *Controller) profile(p *game.Player) Profile {
	return c.profiles.Lookup(ParseDifficulty(p.Difficulty))
}

// ReactionTime is the minimum time between two decisions of p.
func (c *Controller) ReactionTime(p *game.Player) float64 {
	return c.profile(p).ReactionTime
}

type candidate struct {
	dir     game.Direction
	next    game.Point
	deadly  bool
	trapped bool
	space   int
	score   float64
}

// ChooseDirection returns the bot's next direction. It never reverses and
// never fails: with no survivable move it takes the one with the most room.
func (c *Controller) ChooseDirection(w *game.World, p *game.Player) game.Direction {
	s := p.Snake
	if s == nil || !s.Alive {
		return game.Up
	}
	prof := c.profile(p)
	b := newBoard(w, p)
	head := s.Head()

	depth := prof.FloodFillDepth
	if depth <= 0 {
		depth = 8
	}

	var cands []*candidate
	maxSpace := 0
	for _, d := range game.Directions() {
		if d == s.Dir.Opposite() {
			continue
		}
		cd := &candidate{dir: d, next: head.Step(d)}
		if !b.free(cd.next) {
			cd.deadly = true
		} else {
			var reach mapset.Set[game.Point]
			cd.space, reach = b.flood(cd.next, depth)
			if reach.Has(s.Tail()) {
				cd.score += tailBonus * tailPressure(w, prof)
			}
		}
		maxSpace = max(maxSpace, cd.space)
		cands = append(cands, cd)
	}

	for _, cd := range cands {
		if cd.deadly {
			continue
		}
		if cd.space < s.Len() && cd.space < maxSpace {
			cd.trapped = true
		}
		if prof.DeadEndCheck && float64(cd.space) < prof.DeadEndThreshold*float64(maxSpace) {
			cd.trapped = true
		}
	}

	if best := leastBad(cands, s.Dir); best != nil {
		return best.dir
	}

	target := c.pickFood(w, p, prof)
	var goals mapset.Set[game.Point]
	pathDir, hasPath := game.Up, false
	seekFood := target != nil && (prof.Deterministic || c.rng.Float64() < prof.FoodSeeking)
	if seekFood {
		goals = mapset.New[game.Point]()
		for _, cell := range target.Footprint() {
			goals.Put(cell)
		}
		if prof.UsePathfinding {
			pathDir, hasPath = b.firstStep(head, goals, prof.PathfindingDepth)
		}
	}

	for _, cd := range cands {
		if cd.deadly {
			cd.score = deadlyScore
			continue
		}
		if cd.trapped {
			cd.score += trappedScore
		}
		if prof.DeadEndCheck && maxSpace > 0 {
			cd.score += spaceWeight * float64(cd.space) / float64(maxSpace)
		} else {
			cd.score += laneWeight * float64(b.clearance(head, cd.dir, 10))
		}

		if seekFood {
			food := 0.0
			switch {
			case hasPath && pathDir == cd.dir:
				food = pathBonus
			case !hasPath:
				now, then := distTo(head, target), distTo(cd.next, target)
				if then < now {
					food = closerBonus
				} else if then == now {
					food = levelBonus
				}
			}
			food *= foodWeight(w, p, prof)
			cd.score += food
		}

		cd.score += c.opponentBias(w, p, prof, cd.next)
		if cd.dir == s.Dir {
			cd.score += straightBonus
		}
		if !prof.Deterministic && prof.Randomness > 0 {
			cd.score += c.rng.Float64() * prof.Randomness
		}
	}

	if !prof.Deterministic && prof.PerturbChance > 0 && c.rng.Float64() < prof.PerturbChance {
		var safe []*candidate
		for _, cd := range cands {
			if !cd.deadly && !cd.trapped {
				safe = append(safe, cd)
			}
		}
		if len(safe) > 0 {
			return safe[c.rng.Intn(len(safe))].dir
		}
	}

	best := cands[0]
	for _, cd := range cands[1:] {
		if cd.score > best.score {
			best = cd
		}
	}
	return best.dir
}

// leastBad returns a pick only when no candidate is survivable: the one
// with the most reachable room, preferring the current heading on ties.
func leastBad(cands []*candidate, heading game.Direction) *candidate {
	var best *candidate
	for _, cd := range cands {
		if !cd.deadly && !cd.trapped {
			return nil
		}
		if best == nil || cd.space > best.space ||
			(cd.space == best.space && cd.dir == heading) {
			best = cd
		}
	}
	return best
}

// tailPressure grows as the decay interval shrinks, making a reachable tail
// worth more late in Survival and Duel.
func tailPressure(w *game.World, prof Profile) float64 {
	if !prof.SurvivalAware || w.DecayInterval <= 0 {
		return 1
	}
	return math.Max(1, w.Tuning.SurvivalDecayStart/w.DecayInterval)
}

// foodWeight is the mode bias on chasing food.
func foodWeight(w *game.World, p *game.Player, prof Profile) float64 {
	switch w.Settings.Mode {
	case game.ModeBattleRoyale:
		return 0.3
	case game.ModeSurvival, game.ModeDuel:
		if prof.SurvivalAware && p.Snake.Len() <= 5 {
			return 2
		}
	}
	return 1
}

// pickFood values each reachable animal as points^value_power over distance.
func (c *Controller) pickFood(w *game.World, p *game.Player, prof Profile) *game.Food {
	s := p.Snake
	head := s.Head()
	mode := w.Settings.Mode
	decaying := mode == game.ModeSurvival || mode == game.ModeDuel

	var best *game.Food
	bestScore := 0.0
	for _, f := range w.FoodsFor(p) {
		if f.Recovering() {
			continue
		}
		v := math.Pow(float64(f.PointsPerHit()), prof.ValuePower)
		oneShot := f.Health == 1
		if decaying && prof.SurvivalAware {
			urgency := 1.0
			switch {
			case s.Len() <= 5:
				urgency = 3
			case s.Len() <= 8:
				urgency = 1.5
			}
			if oneShot {
				v *= 2 * urgency
			} else {
				v *= 0.4
			}
		}
		if prof.ComboAware && !decaying && s.ComboTimer > 0 {
			v *= 1 + 0.12*float64(s.Combo)
			if oneShot {
				v *= 1.8
			}
		}
		score := v / float64(distTo(head, f)+1)
		if best == nil || score > bestScore {
			best, bestScore = f, score
		}
	}
	return best
}

// opponentBias scores a cell against nearby opponents: kills and head-on
// denial for strong or aggressive tiers, avoidance otherwise.
func (c *Controller) opponentBias(w *game.World, p *game.Player, prof Profile, next game.Point) float64 {
	if !w.Settings.Mode.Shared() {
		return 0
	}
	s := p.Snake
	royale := w.Settings.Mode == game.ModeBattleRoyale
	bias := 0.0
	for _, o := range w.Players {
		if o == p || !o.Alive() || o.Snake.Frozen() {
			continue
		}
		os := o.Snake
		longer := s.Len() > os.Len()
		if royale {
			if next == os.Head() || (os.Len() > 1 && next == os.Body[1]) {
				bias += killBonus * prof.Aggression
				continue
			}
			if os.IndexOf(next) > 1 {
				bias += cutBonus * prof.Aggression
			}
		}
		predicted := os.Head().Step(os.NextDir())
		if next == predicted {
			if longer && prof.HeadOnDenial {
				bias += denialBonus * math.Max(prof.Aggression, 1)
			} else {
				bias -= headOnPenalty
			}
			continue
		}
		if game.Manhattan(next, os.Head()) == 1 {
			if longer && prof.HeadOnDenial {
				bias += denialBonus / 2 * prof.Aggression
			} else {
				bias -= nearHeadCost
			}
		}
	}
	return bias
}

func distTo(from game.Point, f *game.Food) int {
	best := -1
	for _, c := range f.Footprint() {
		if d := game.Manhattan(from, c); best < 0 || d < best {
			best = d
		}
	}
	return best
}
