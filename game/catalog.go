package game

// ---------------------------------------------------------------------------
// Modes, map sizes and barrier tiers
// ---------------------------------------------------------------------------

type Mode string

const (
	ModeSurvival     Mode = "survival"
	ModeHighScore    Mode = "high_score"
	ModeBattleRoyale Mode = "battle_royale"
	ModeDuel         Mode = "duel"
	ModeSinglePlayer Mode = "single_player"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeSurvival, ModeHighScore, ModeBattleRoyale, ModeDuel, ModeSinglePlayer:
		return true
	}
	return false
}

// Shared reports whether all snakes play in one arena instead of quadrants.
func (m Mode) Shared() bool { return m == ModeBattleRoyale || m == ModeDuel }

// Timed reports whether the mode ends on a time limit.
func (m Mode) Timed() bool { return m == ModeHighScore || m == ModeBattleRoyale }

// Respawns reports whether dead snakes come back after a delay.
func (m Mode) Respawns() bool { return m.Timed() }

type MapSize string

const (
	MapSmall      MapSize = "small"
	MapMedium     MapSize = "medium"
	MapLarge      MapSize = "large"
	MapExtraLarge MapSize = "extra_large"
)

var mapDimensions = map[MapSize][2]int{
	MapSmall:      {25, 18},
	MapMedium:     {35, 22},
	MapLarge:      {45, 28},
	MapExtraLarge: {60, 36},
}

func (s MapSize) Valid() bool {
	_, ok := mapDimensions[s]
	return ok
}

// Dimensions returns the per-quadrant grid size.
func (s MapSize) Dimensions() (w, h int) {
	d, ok := mapDimensions[s]
	if !ok {
		d = mapDimensions[MapMedium]
	}
	return d[0], d[1]
}

type Density string

const (
	DensityNone     Density = "none"
	DensitySparse   Density = "sparse"
	DensityModerate Density = "moderate"
	DensityDense    Density = "dense"
)

type densityTier struct {
	walls      int
	multiplier float64
}

var densityTiers = map[Density]densityTier{
	DensityNone:     {0, 1.0},
	DensitySparse:   {4, 1.25},
	DensityModerate: {8, 1.5},
	DensityDense:    {12, 2.0},
}

func (d Density) Valid() bool {
	_, ok := densityTiers[d]
	return ok
}

func (d Density) WallCount() int { return densityTiers[d].walls }

// Multiplier scales every point scored on a map of this density.
func (d Density) Multiplier() float64 {
	if t, ok := densityTiers[d]; ok {
		return t.multiplier
	}
	return 1.0
}

// TimeLimits lists the selectable match lengths in seconds for timed modes.
var TimeLimits = []int{30, 60, 120, 180}

const DefaultTimeLimit = 60

// SeriesLengths lists the legal Duel best-of values.
var SeriesLengths = []int{3, 5, 7}

// PlayerColors are assigned by seat.
var PlayerColors = []string{"#3498DB", "#E74C3C", "#2ECC71", "#F1C40F"}

// BotNames is the default pool for AI snakes.
var BotNames = []string{
	"Bot Alpha", "Bot Beta", "Bot Gamma", "Snakebot",
	"AI Hunter", "Slither AI", "Bot Omega", "MechSnake",
}

// ---------------------------------------------------------------------------
// Animals
// ---------------------------------------------------------------------------

type Category string

const (
	CategorySmall  Category = "small"
	CategoryMedium Category = "medium"
	CategoryLarge  Category = "large"
	CategoryHuge   Category = "huge"
)

var categoryOrder = []Category{CategorySmall, CategoryMedium, CategoryLarge, CategoryHuge}

var categoryWeights = map[Category]int{
	CategorySmall:  50,
	CategoryMedium: 30,
	CategoryLarge:  15,
	CategoryHuge:   5,
}

// HitRecovery is the cooldown in seconds before a wounded animal can be hit again.
func (c Category) HitRecovery() float64 {
	switch c {
	case CategoryMedium:
		return 0.8
	case CategoryLarge:
		return 1.5
	case CategoryHuge:
		return 2.5
	}
	return 0
}

// Animal is a catalog entry; Food instances are spawned from it.
type Animal struct {
	Kind     string
	Category Category
	Value    int
	Health   int
	Weight   int
	Cells    []Point
}

// PointsPerHit is the score for one hit before multipliers.
func (a Animal) PointsPerHit() int { return a.Value / a.Health }

var (
	cell1  = []Point{{0, 0}}
	cell2  = []Point{{0, 0}, {1, 0}}
	line3  = []Point{{0, 0}, {1, 0}, {2, 0}}
	ell3   = []Point{{0, 0}, {1, 0}, {0, 1}}
	sq4    = []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	ell4   = []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}}
	tall4  = []Point{{0, 0}, {0, 1}, {0, 2}, {0, 3}}
	plus5  = []Point{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}}
	wide6  = []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}
	tall6  = []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}}
	line6  = []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}}
	wide8  = []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {0, 1}, {1, 1}, {2, 1}, {3, 1}}
	tall8  = []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}}
)

// Animals is the full spawn catalog.
var Animals = []Animal{
	{"mouse", CategorySmall, 75, 1, 25, cell1},
	{"frog", CategorySmall, 85, 1, 20, cell1},
	{"bug", CategorySmall, 65, 1, 30, cell1},
	{"cricket", CategorySmall, 65, 1, 25, cell1},
	{"worm", CategorySmall, 60, 1, 35, cell1},
	{"butterfly", CategorySmall, 100, 1, 15, cell1},
	{"spider", CategorySmall, 70, 1, 20, cell1},
	{"bee", CategorySmall, 80, 1, 18, cell1},
	{"ladybug", CategorySmall, 70, 1, 22, cell1},

	{"rabbit", CategoryMedium, 90, 2, 12, cell2},
	{"fish", CategoryMedium, 80, 2, 14, cell2},
	{"lizard", CategoryMedium, 120, 3, 10, line3},
	{"turtle", CategoryMedium, 105, 3, 11, ell3},
	{"duck", CategoryMedium, 120, 3, 9, line3},

	{"bird", CategoryLarge, 160, 4, 7, sq4},
	{"fox", CategoryLarge, 180, 4, 6, ell4},
	{"wolf", CategoryLarge, 200, 5, 5, plus5},
	{"deer", CategoryLarge, 160, 4, 6, tall4},
	{"pig", CategoryLarge, 160, 4, 8, sq4},

	{"tiger", CategoryHuge, 300, 5, 3, wide6},
	{"lion", CategoryHuge, 350, 5, 3, wide6},
	{"bear", CategoryHuge, 280, 5, 4, tall6},
	{"crocodile", CategoryHuge, 260, 5, 4, line6},
	{"hippo", CategoryHuge, 375, 5, 2, wide8},
	{"elephant", CategoryHuge, 400, 5, 1, tall8},
}

// PickAnimal draws a category by weight, then an animal within it by weight.
func PickAnimal(rng Rand) Animal {
	total := 0
	for _, c := range categoryOrder {
		total += categoryWeights[c]
	}
	r := rng.Intn(total)
	cat := CategorySmall
	for _, c := range categoryOrder {
		r -= categoryWeights[c]
		if r < 0 {
			cat = c
			break
		}
	}

	var pool []Animal
	weight := 0
	for _, a := range Animals {
		if a.Category == cat {
			pool = append(pool, a)
			weight += a.Weight
		}
	}
	r = rng.Intn(weight)
	for _, a := range pool {
		r -= a.Weight
		if r < 0 {
			return a
		}
	}
	return Animals[0]
}
