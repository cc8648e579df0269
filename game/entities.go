package game

// ---------------------------------------------------------------------------
// Snake
// ---------------------------------------------------------------------------

// Snake is an ordered run of cells, head first.
type Snake struct {
	Body        []Point
	Dir         Direction
	Color       string
	Alive       bool
	Score       int
	Combo       int
	ComboTimer  float64
	DecayTimer  float64
	SpawnFreeze float64

	next Direction
}

// NewSnake lays out length cells trailing behind head, opposite to dir.
func NewSnake(head Point, dir Direction, length int, color string) *Snake {
	body := make([]Point, length)
	back := dir.Opposite()
	p := head
	for i := range body {
		body[i] = p
		p = p.Step(back)
	}
	return &Snake{Body: body, Dir: dir, next: dir, Color: color, Alive: true}
}

func (s *Snake) Head() Point { return s.Body[0] }
func (s *Snake) Tail() Point { return s.Body[len(s.Body)-1] }
func (s *Snake) Len() int    { return len(s.Body) }

// Frozen reports whether the snake is inside its post-spawn freeze window.
func (s *Snake) Frozen() bool { return s.SpawnFreeze > 0 }

// NextDir is the direction latched for the coming step.
func (s *Snake) NextDir() Direction { return s.next }

// Turn latches d for the next step. Reversals and turns while frozen are ignored.
func (s *Snake) Turn(d Direction) bool {
	if !s.Alive || s.Frozen() {
		return false
	}
	if len(s.Body) > 1 && d == s.Dir.Opposite() {
		return false
	}
	s.next = d
	return true
}

// IndexOf returns the body index of p, or -1.
func (s *Snake) IndexOf(p Point) int {
	for i, c := range s.Body {
		if c == p {
			return i
		}
	}
	return -1
}

func (s *Snake) advance(head Point, grow bool) {
	s.Dir = s.next
	if grow {
		s.Body = append(s.Body, Point{})
	}
	copy(s.Body[1:], s.Body[:len(s.Body)-1])
	s.Body[0] = head
}

func (s *Snake) shedTail() {
	s.Body = s.Body[:len(s.Body)-1]
}

func (s *Snake) truncate(n int) {
	s.Body = s.Body[:n]
}

// ---------------------------------------------------------------------------
// Food
// ---------------------------------------------------------------------------

// Food is a live animal on the board.
type Food struct {
	ID        int
	Kind      string
	Category  Category
	Pos       Point
	Cells     []Point
	Value     int
	Health    int
	MaxHealth int
	Recovery  float64
	Quadrant  int
}

func newFood(id int, a Animal, pos Point, quadrant int) *Food {
	return &Food{
		ID:        id,
		Kind:      a.Kind,
		Category:  a.Category,
		Pos:       pos,
		Cells:     a.Cells,
		Value:     a.Value,
		Health:    a.Health,
		MaxHealth: a.Health,
		Quadrant:  quadrant,
	}
}

// Recovering reports whether the animal is still shrugging off the last hit.
func (f *Food) Recovering() bool { return f.Recovery > 0 }

func (f *Food) PointsPerHit() int { return f.Value / f.MaxHealth }

func (f *Food) Occupies(p Point) bool {
	for _, c := range f.Cells {
		if f.Pos.Add(c) == p {
			return true
		}
	}
	return false
}

// Footprint returns the absolute cells covered by the animal.
func (f *Food) Footprint() []Point {
	out := make([]Point, len(f.Cells))
	for i, c := range f.Cells {
		out[i] = f.Pos.Add(c)
	}
	return out
}

// ---------------------------------------------------------------------------
// Player
// ---------------------------------------------------------------------------

// Seat describes a participant before the game starts.
type Seat struct {
	ID         string
	Name       string
	IsAI       bool
	Difficulty string
}

// Player is a participant in a running game.
type Player struct {
	ID         string
	Name       string
	IsAI       bool
	Difficulty string
	Color      string
	Quadrant   int
	Snake      *Snake

	DeathCount int
	RespawnIn  float64
	Rank       int
	SeriesWins int
	Kills      int
	LastLength int
	Departed   bool

	thinkIn float64
}

// Alive reports whether the player currently controls a living snake.
func (p *Player) Alive() bool { return p.Snake != nil && p.Snake.Alive }

// Score is the player's running score, kept across respawns.
func (p *Player) Score() int {
	if p.Snake == nil {
		return 0
	}
	return p.Snake.Score
}

// RespawnDelay is the Fibonacci penalty in seconds for a player's
// deathCount-th death (0-based): 2, 3, 5, 8, 13, 21, ...
func RespawnDelay(deathCount int) float64 {
	a, b := 2, 3
	for i := 0; i < deathCount; i++ {
		a, b = b, a+b
	}
	return float64(a)
}
