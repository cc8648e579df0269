package ai

// Difficulty names a bot tier as it appears on the wire.
type Difficulty string

const (
	Amateur    Difficulty = "amateur"
	SemiPro    Difficulty = "semi_pro"
	Pro        Difficulty = "pro"
	WorldClass Difficulty = "world_class"
)

// Difficulties lists the tiers from weakest to strongest.
var Difficulties = []Difficulty{Amateur, SemiPro, Pro, WorldClass}

func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// ParseDifficulty falls back to Amateur for unknown names.
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(s)
	if d.Valid() {
		return d
	}
	return Amateur
}

// Profile holds the tunable weights of one difficulty tier.
type Profile struct {
	ReactionTime     float64 `json:"reactionTime"`
	FoodSeeking      float64 `json:"foodSeeking"`
	Deterministic    bool    `json:"deterministic"`
	DeadEndCheck     bool    `json:"deadEndCheck"`
	FloodFillDepth   int     `json:"floodFillDepth"`
	DeadEndThreshold float64 `json:"deadEndThreshold"`
	Randomness       float64 `json:"randomness"`
	PerturbChance    float64 `json:"perturbChance"`
	UsePathfinding   bool    `json:"usePathfinding"`
	PathfindingDepth int     `json:"pathfindingDepth"`
	ValuePower       float64 `json:"valuePower"`
	ComboAware       bool    `json:"comboAware"`
	SurvivalAware    bool    `json:"survivalAware"`
	HeadOnDenial     bool    `json:"headOnDenial"`
	Aggression       float64 `json:"aggression"`
}

// Profiles maps each tier to its weights.
type Profiles map[Difficulty]Profile

func DefaultProfiles() Profiles {
	return Profiles{
		Amateur: {
			ReactionTime:     0.26,
			FoodSeeking:      0.70,
			FloodFillDepth:   8,
			DeadEndThreshold: 0.2,
			Randomness:       35,
			PerturbChance:    0.15,
			PathfindingDepth: 20,
			ValuePower:       1.0,
			Aggression:       0.3,
		},
		SemiPro: {
			ReactionTime:     0.14,
			FoodSeeking:      0.88,
			DeadEndCheck:     true,
			FloodFillDepth:   20,
			DeadEndThreshold: 0.25,
			Randomness:       15,
			PerturbChance:    0.05,
			UsePathfinding:   true,
			PathfindingDepth: 35,
			ValuePower:       1.0,
			SurvivalAware:    true,
			Aggression:       0.6,
		},
		Pro: {
			ReactionTime:     0.09,
			FoodSeeking:      0.95,
			Deterministic:    true,
			DeadEndCheck:     true,
			FloodFillDepth:   28,
			DeadEndThreshold: 0.28,
			UsePathfinding:   true,
			PathfindingDepth: 42,
			ValuePower:       1.2,
			ComboAware:       true,
			SurvivalAware:    true,
			HeadOnDenial:     true,
			Aggression:       1.0,
		},
		WorldClass: {
			ReactionTime:     0.045,
			FoodSeeking:      1.0,
			Deterministic:    true,
			DeadEndCheck:     true,
			FloodFillDepth:   50,
			DeadEndThreshold: 0.35,
			UsePathfinding:   true,
			PathfindingDepth: 65,
			ValuePower:       1.4,
			ComboAware:       true,
			SurvivalAware:    true,
			HeadOnDenial:     true,
			Aggression:       1.3,
		},
	}
}

// Lookup returns the profile for d, falling back to Amateur.
func (ps Profiles) Lookup(d Difficulty) Profile {
	if p, ok := ps[d]; ok {
		return p
	}
	if p, ok := ps[Amateur]; ok {
		return p
	}
	return DefaultProfiles()[Amateur]
}
