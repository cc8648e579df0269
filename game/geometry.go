package game

import "fmt"

// Point is a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Step returns the neighbouring cell in direction d.
func (p Point) Step(d Direction) Point { return p.Add(d.Vector()) }

func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ---------------------------------------------------------------------------
// Direction
// ---------------------------------------------------------------------------

type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

var allDirections = [...]Direction{Up, Down, Left, Right}

var directionNames = [...]string{"up", "down", "left", "right"}

// Directions returns the four grid directions in a fixed order.
func Directions() []Direction { return allDirections[:] }

func (d Direction) Vector() Point {
	switch d {
	case Up:
		return Point{0, -1}
	case Down:
		return Point{0, 1}
	case Left:
		return Point{-1, 0}
	default:
		return Point{1, 0}
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// ParseDirection accepts the lower-case wire names.
func ParseDirection(s string) (Direction, bool) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), true
		}
	}
	return Up, false
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = v
	return nil
}

// ---------------------------------------------------------------------------
// Bounds and walls
// ---------------------------------------------------------------------------

// Bounds is a half-open rectangle: XMin <= x < XMax, YMin <= y < YMax.
type Bounds struct {
	XMin int `json:"x_min"`
	XMax int `json:"x_max"`
	YMin int `json:"y_min"`
	YMax int `json:"y_max"`
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.XMin && p.X < b.XMax && p.Y >= b.YMin && p.Y < b.YMax
}

func (b Bounds) Width() int  { return b.XMax - b.XMin }
func (b Bounds) Height() int { return b.YMax - b.YMin }
func (b Bounds) Area() int   { return b.Width() * b.Height() }

func (b Bounds) Center() Point {
	return Point{b.XMin + b.Width()/2, b.YMin + b.Height()/2}
}

// Wall is a static rectangular barrier.
type Wall struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (w Wall) Contains(p Point) bool {
	return p.X >= w.X && p.X < w.X+w.Width && p.Y >= w.Y && p.Y < w.Y+w.Height
}

func (w Wall) Cells() []Point {
	cells := make([]Point, 0, w.Width*w.Height)
	for dx := 0; dx < w.Width; dx++ {
		for dy := 0; dy < w.Height; dy++ {
			cells = append(cells, Point{w.X + dx, w.Y + dy})
		}
	}
	return cells
}
