package game

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

// Map is the static geometry of one game: its bounds and barriers.
// Quadrant i owns Walls[i]; shared arenas have a single bound.
type Map struct {
	Width     int
	Height    int
	Quadrants []Bounds
	Walls     [][]Wall
	Fallback  []bool
}

// MapSpec is the input to GenerateMap.
type MapSpec struct {
	Size    MapSize
	Mode    Mode
	Players int
	Density Density
}

// QuadrantCount maps the number of seated players onto 1, 2 or 4 quadrants.
func QuadrantCount(players int) int {
	switch {
	case players <= 1:
		return 1
	case players == 2:
		return 2
	default:
		return 4
	}
}

// Layout computes the grid dimensions and bounds without any walls.
func Layout(spec MapSpec) Map {
	w, h := spec.Size.Dimensions()
	var m Map
	switch {
	case spec.Mode == ModeBattleRoyale:
		m.Width = int(math.Ceil(float64(w) * 1.5))
		m.Height = int(math.Ceil(float64(h) * 1.5))
		m.Quadrants = []Bounds{{0, m.Width, 0, m.Height}}
	case spec.Mode == ModeDuel:
		m.Width, m.Height = w, h
		m.Quadrants = []Bounds{{0, w, 0, h}}
	default:
		switch QuadrantCount(spec.Players) {
		case 1:
			m.Width, m.Height = w, h
			m.Quadrants = []Bounds{{0, w, 0, h}}
		case 2:
			m.Width, m.Height = w*2, h
			m.Quadrants = []Bounds{{0, w, 0, h}, {w, w * 2, 0, h}}
		default:
			m.Width, m.Height = w*2, h*2
			m.Quadrants = []Bounds{
				{0, w, 0, h}, {w, w * 2, 0, h},
				{0, w, h, h * 2}, {w, w * 2, h, h * 2},
			}
		}
	}
	m.Walls = make([][]Wall, len(m.Quadrants))
	m.Fallback = make([]bool, len(m.Quadrants))
	return m
}

// SpawnAnchors returns the preferred spawn centre for each seat in bound b.
// Per-quadrant modes use the quadrant centre; shared arenas spread seats apart.
func SpawnAnchors(b Bounds, mode Mode, seats int) []Point {
	if !mode.Shared() {
		return []Point{b.Center()}
	}
	qx, qy := b.Width()/4, b.Height()/4
	cy := b.YMin + b.Height()/2
	if mode == ModeDuel {
		return []Point{{b.XMin + qx, cy}, {b.XMax - 1 - qx, cy}}
	}
	all := []Point{
		{b.XMin + qx, b.YMin + qy},
		{b.XMax - 1 - qx, b.YMax - 1 - qy},
		{b.XMax - 1 - qx, b.YMin + qy},
		{b.XMin + qx, b.YMax - 1 - qy},
	}
	if seats < 1 {
		seats = 1
	}
	if seats > len(all) {
		seats = len(all)
	}
	return all[:seats]
}

// GenerateMap lays out bounds and barriers. Every bound is validated for
// connectivity; a bound that fails maxAttempts times gets no walls at all.
func GenerateMap(spec MapSpec, rng Rand, maxAttempts int) Map {
	return generateMap(spec, rng, maxAttempts, generateWalls)
}

type wallGenerator func(b Bounds, d Density, anchors []Point, rng Rand) []Wall

func generateMap(spec MapSpec, rng Rand, maxAttempts int, gen wallGenerator) Map {
	m := Layout(spec)
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for qi, b := range m.Quadrants {
		anchors := SpawnAnchors(b, spec.Mode, spec.Players)
		accepted := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			sub := NewRand(rng.Uint64())
			walls := gen(b, spec.Density, anchors, sub)
			if Connected(b, walls) {
				m.Walls[qi] = walls
				accepted = true
				break
			}
		}
		if !accepted {
			m.Walls[qi] = nil
			m.Fallback[qi] = true
		}
	}
	return m
}

func generateWalls(b Bounds, d Density, anchors []Point, rng Rand) []Wall {
	n := d.WallCount()
	walls := make([]Wall, 0, n)
	maxLen := b.Width() / 4
	if b.Height()/3 < maxLen {
		maxLen = b.Height() / 3
	}
	if maxLen < 3 {
		maxLen = 3
	}
	for tries := 0; len(walls) < n && tries < n*25; tries++ {
		var w Wall
		length := 3 + rng.Intn(maxLen-2)
		switch {
		case d == DensityDense && rng.Intn(3) == 0:
			w = Wall{Width: 2, Height: 2}
		case rng.Intn(2) == 0:
			w = Wall{Width: length, Height: 1}
		default:
			w = Wall{Width: 1, Height: length}
		}
		spanX := b.Width() - 2 - w.Width
		spanY := b.Height() - 2 - w.Height
		if spanX <= 0 || spanY <= 0 {
			continue
		}
		w.X = b.XMin + 1 + rng.Intn(spanX)
		w.Y = b.YMin + 1 + rng.Intn(spanY)
		if wallClashes(w, walls) || wallNearAnchor(w, anchors) {
			continue
		}
		walls = append(walls, w)
	}
	return walls
}

// wallClashes keeps at least one free cell between any two walls.
func wallClashes(w Wall, walls []Wall) bool {
	for _, o := range walls {
		if w.X-1 < o.X+o.Width && o.X < w.X+w.Width+1 &&
			w.Y-1 < o.Y+o.Height && o.Y < w.Y+w.Height+1 {
			return true
		}
	}
	return false
}

func wallNearAnchor(w Wall, anchors []Point) bool {
	for _, a := range anchors {
		if a.X >= w.X-WallSpawnClear && a.X < w.X+w.Width+WallSpawnClear &&
			a.Y >= w.Y-WallSpawnClear && a.Y < w.Y+w.Height+WallSpawnClear {
			return true
		}
	}
	return false
}

// Connected reports whether every open cell of b is reachable from every other.
func Connected(b Bounds, walls []Wall) bool {
	blocked := mapset.New[Point]()
	for _, w := range walls {
		for _, c := range w.Cells() {
			if b.Contains(c) {
				blocked.Put(c)
			}
		}
	}
	open := b.Area() - blocked.Size()
	if open <= 0 {
		return false
	}

	var start Point
	found := false
	for y := b.YMin; y < b.YMax && !found; y++ {
		for x := b.XMin; x < b.XMax; x++ {
			if !blocked.Has(Point{x, y}) {
				start, found = Point{x, y}, true
				break
			}
		}
	}

	visited := mapset.New[Point]()
	visited.Put(start)
	queue := []Point{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range allDirections {
			n := cur.Step(d)
			if !b.Contains(n) || blocked.Has(n) || visited.Has(n) {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return visited.Size() == open
}

// Bound returns the bound that quadrant q plays in.
func (m *Map) Bound(q int) Bounds {
	if q < 0 || q >= len(m.Quadrants) {
		return m.Quadrants[0]
	}
	return m.Quadrants[q]
}

// WallAt reports whether p is covered by a barrier of quadrant q.
func (m *Map) WallAt(q int, p Point) bool {
	if q < 0 || q >= len(m.Walls) {
		return false
	}
	for _, w := range m.Walls[q] {
		if w.Contains(p) {
			return true
		}
	}
	return false
}

// Blocked reports whether p is outside quadrant q or inside one of its walls.
func (m *Map) Blocked(q int, p Point) bool {
	return !m.Bound(q).Contains(p) || m.WallAt(q, p)
}

// AllWalls flattens the per-quadrant barrier lists.
func (m *Map) AllWalls() []Wall {
	var out []Wall
	for _, ws := range m.Walls {
		out = append(out, ws...)
	}
	return out
}
