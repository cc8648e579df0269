package game

import (
	"errors"

	"github.com/zyedidia/generic/mapset"
)

// ErrNoSpawn is returned when no cell satisfies the spawn constraints.
var ErrNoSpawn = errors.New("no safe spawn cell")

// occupied collects every cell a new entity must not overlap.
func (w *World) occupied() mapset.Set[Point] {
	cells := mapset.New[Point]()
	for _, p := range w.Players {
		if !p.Alive() {
			continue
		}
		for _, c := range p.Snake.Body {
			cells.Put(c)
		}
	}
	for _, f := range w.Foods {
		for _, c := range f.Footprint() {
			cells.Put(c)
		}
	}
	return cells
}

func (w *World) anchorFor(p *Player) Point {
	b := w.Map.Bound(p.Quadrant)
	anchors := SpawnAnchors(b, w.Settings.Mode, len(w.Players))
	for i, o := range w.Players {
		if o == p {
			return anchors[i%len(anchors)]
		}
	}
	return anchors[0]
}

// FindSpawn spirals outward from the player's anchor looking for a head cell
// with the body trailing behind it and SpawnLookahead free cells ahead.
func (w *World) FindSpawn(p *Player, length int) (Point, Direction, error) {
	b := w.Map.Bound(p.Quadrant)
	anchor := w.anchorFor(p)
	taken := w.occupied()

	margin := SpawnMargin
	if m := (b.Width() - 1) / 2; m < margin {
		margin = m
	}
	if m := (b.Height() - 1) / 2; m < margin {
		margin = m
	}

	free := func(c Point) bool {
		return b.Contains(c) && !w.Map.WallAt(p.Quadrant, c) && !taken.Has(c)
	}
	farFromHeads := func(c Point) bool {
		if !w.Settings.Mode.Shared() {
			return true
		}
		for _, o := range w.Players {
			if o != p && o.Alive() && Manhattan(o.Snake.Head(), c) < SpawnLookahead+2 {
				return false
			}
		}
		return true
	}

	prefs := []Direction{Right, Left, Down, Up}
	if anchor.X >= b.Center().X && w.Settings.Mode.Shared() {
		prefs = []Direction{Left, Right, Up, Down}
	}

	for r := 0; r <= SpawnSearchRing; r++ {
		for _, c := range ring(anchor, r) {
			if c.X < b.XMin+margin || c.X >= b.XMax-margin || c.Y < b.YMin+margin || c.Y >= b.YMax-margin {
				continue
			}
			if !farFromHeads(c) {
				continue
			}
			for _, d := range prefs {
				if spawnFits(c, d, length, free) {
					return c, d, nil
				}
			}
		}
	}
	return anchor, Right, ErrNoSpawn
}

func spawnFits(head Point, d Direction, length int, free func(Point) bool) bool {
	c := head
	for i := 0; i < length; i++ {
		if !free(c) {
			return false
		}
		c = c.Step(d.Opposite())
	}
	c = head
	for i := 0; i < SpawnLookahead; i++ {
		c = c.Step(d)
		if !free(c) {
			return false
		}
	}
	return true
}

// ring lists the cells at Chebyshev distance r from centre, clockwise from the top-left.
func ring(center Point, r int) []Point {
	if r == 0 {
		return []Point{center}
	}
	out := make([]Point, 0, 8*r)
	for x := -r; x <= r; x++ {
		out = append(out, Point{center.X + x, center.Y - r})
	}
	for y := -r + 1; y <= r; y++ {
		out = append(out, Point{center.X + r, center.Y + y})
	}
	for x := r - 1; x >= -r; x-- {
		out = append(out, Point{center.X + x, center.Y + r})
	}
	for y := r - 1; y > -r; y-- {
		out = append(out, Point{center.X - r, center.Y + y})
	}
	return out
}

// spawn places a fresh frozen snake for p, keeping the running score.
func (w *World) spawn(p *Player, length int) {
	head, dir, err := w.FindSpawn(p, length)
	if err != nil {
		head, dir = w.anchorFor(p), Right
	}
	score := 0
	if p.Snake != nil && w.Settings.Mode.Respawns() {
		score = p.Snake.Score
	}
	s := NewSnake(head, dir, length, p.Color)
	s.Score = score
	s.SpawnFreeze = w.Tuning.SpawnFreeze
	s.DecayTimer = w.DecayInterval
	p.Snake = s
	p.thinkIn = 0
}

// ---------------------------------------------------------------------------
// Food
// ---------------------------------------------------------------------------

func (w *World) activeQuadrants() []int {
	if w.Settings.Mode.Shared() {
		return []int{0}
	}
	out := make([]int, 0, len(w.Players))
	for _, p := range w.Players {
		if p.Departed && !p.Alive() {
			continue
		}
		out = append(out, p.Quadrant)
	}
	return out
}

func (w *World) replenishFood() {
	target := w.rules.foodTarget(w)
	for _, q := range w.activeQuadrants() {
		have := 0
		for _, f := range w.Foods {
			if f.Quadrant == q {
				have++
			}
		}
		for ; have < target; have++ {
			if !w.spawnFood(q) {
				break
			}
		}
	}
}

// spawnFood places one weighted-random animal fully inside quadrant q.
func (w *World) spawnFood(q int) bool {
	a := PickAnimal(w.rng)
	b := w.Map.Bound(q)
	taken := w.occupied()
	var heads []Point
	for _, p := range w.Players {
		if p.Alive() {
			heads = append(heads, p.Snake.Head())
		}
	}

	maxX, maxY := 0, 0
	for _, c := range a.Cells {
		maxX = max(maxX, c.X)
		maxY = max(maxY, c.Y)
	}
	spanX, spanY := b.Width()-maxX, b.Height()-maxY
	if spanX <= 0 || spanY <= 0 {
		return false
	}

placement:
	for try := 0; try < FoodPlaceTries; try++ {
		pos := Point{b.XMin + w.rng.Intn(spanX), b.YMin + w.rng.Intn(spanY)}
		for _, off := range a.Cells {
			c := pos.Add(off)
			if !b.Contains(c) || w.Map.WallAt(q, c) || taken.Has(c) {
				continue placement
			}
			for _, h := range heads {
				if Manhattan(h, c) < 2 {
					continue placement
				}
			}
		}
		w.nextFood++
		w.Foods = append(w.Foods, newFood(w.nextFood, a, pos, q))
		return true
	}
	return false
}
