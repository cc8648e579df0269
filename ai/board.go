package ai

import (
	"github.com/zyedidia/generic/mapset"

	"schlangen.tv/arena/game"
)

// board is one bot's view of what would kill it on the next step.
type board struct {
	bound   game.Bounds
	blocked mapset.Set[game.Point]
}

// newBoard blocks walls, the bot's own body minus the tail, and every live
// opponent body. In Battle Royale opponent bodies are cuttable and stay open;
// head-on risk is scored separately.
func newBoard(w *game.World, p *game.Player) *board {
	b := &board{
		bound:   w.Map.Bound(p.Quadrant),
		blocked: mapset.New[game.Point](),
	}
	if p.Quadrant < len(w.Map.Walls) {
		for _, wall := range w.Map.Walls[p.Quadrant] {
			for _, c := range wall.Cells() {
				b.blocked.Put(c)
			}
		}
	}
	own := p.Snake.Body
	for _, c := range own[:len(own)-1] {
		b.blocked.Put(c)
	}
	if w.Settings.Mode == game.ModeBattleRoyale {
		return b
	}
	for _, o := range w.Players {
		if o == p || !o.Alive() || o.Snake.Frozen() || o.Quadrant != p.Quadrant {
			continue
		}
		for _, c := range o.Snake.Body {
			b.blocked.Put(c)
		}
	}
	return b
}

func (b *board) free(c game.Point) bool {
	return b.bound.Contains(c) && !b.blocked.Has(c)
}

// flood counts free cells reachable from start within depth steps.
func (b *board) flood(start game.Point, depth int) (int, mapset.Set[game.Point]) {
	seen := mapset.New[game.Point]()
	if !b.free(start) {
		return 0, seen
	}
	seen.Put(start)
	frontier := []game.Point{start}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []game.Point
		for _, c := range frontier {
			for _, d := range game.Directions() {
				n := c.Step(d)
				if seen.Has(n) || !b.free(n) {
					continue
				}
				seen.Put(n)
				next = append(next, n)
			}
		}
		frontier = next
	}
	return seen.Size(), seen
}

// firstStep runs a depth-bounded BFS from head to any goal cell and
// returns the direction of the first move on a shortest path.
func (b *board) firstStep(head game.Point, goals mapset.Set[game.Point], depth int) (game.Direction, bool) {
	type node struct {
		at    game.Point
		first game.Direction
	}
	seen := mapset.New[game.Point]()
	seen.Put(head)
	var frontier []node
	for _, d := range game.Directions() {
		n := head.Step(d)
		if !b.free(n) && !goals.Has(n) {
			continue
		}
		if goals.Has(n) {
			return d, true
		}
		seen.Put(n)
		frontier = append(frontier, node{n, d})
	}
	for level := 1; level < depth && len(frontier) > 0; level++ {
		var next []node
		for _, nd := range frontier {
			for _, d := range game.Directions() {
				n := nd.at.Step(d)
				if seen.Has(n) {
					continue
				}
				if goals.Has(n) {
					return nd.first, true
				}
				if !b.free(n) {
					continue
				}
				seen.Put(n)
				next = append(next, node{n, nd.first})
			}
		}
		frontier = next
	}
	return game.Up, false
}

// clearance counts free cells straight ahead, up to limit.
func (b *board) clearance(from game.Point, d game.Direction, limit int) int {
	n := 0
	c := from
	for n < limit {
		c = c.Step(d)
		if !b.free(c) {
			break
		}
		n++
	}
	return n
}
