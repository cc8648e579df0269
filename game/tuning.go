package game

import (
	"golang.org/x/exp/rand"
)

const (
	MinLength       = 3
	SpawnMargin     = 4 // cells kept between a spawn head and the bound edge
	SpawnLookahead  = 3 // free cells required ahead of a spawn head
	WallSpawnClear  = 3 // wall-free radius around each spawn anchor
	FoodPlaceTries  = 100
	SpawnSearchRing = 40
)

// Tuning holds every timing and scoring knob of the rule engines.
// Times are in seconds unless noted.
type Tuning struct {
	BaseMoveInterval float64 `json:"baseMoveInterval"`
	MaxSpeed         float64 `json:"maxSpeed"`
	SpawnFreeze      float64 `json:"spawnFreeze"`
	StartLength      int     `json:"startLength"`
	DuelStartLength  int     `json:"duelStartLength"`
	ComboWindow      float64 `json:"comboWindow"`
	ComboBonus       float64 `json:"comboBonus"`
	MaxMapAttempts   int     `json:"maxMapAttempts"`

	SurvivalStage        float64 `json:"survivalStage"`
	SurvivalDecayStart   float64 `json:"survivalDecayStart"`
	SurvivalDecayStep    float64 `json:"survivalDecayStep"`
	SurvivalDecayFloor   float64 `json:"survivalDecayFloor"`
	SurvivalSpeedFactor  float64 `json:"survivalSpeedFactor"`
	TimedSpeedStage      float64 `json:"timedSpeedStage"`
	TimedSpeedFactor     float64 `json:"timedSpeedFactor"`
	SingleScoreStage     int     `json:"singleScoreStage"`
	FoodPerQuadrant      int     `json:"foodPerQuadrant"`
	RoyaleFood           int     `json:"royaleFood"`
	RoyaleFoodCrowded    int     `json:"royaleFoodCrowded"`
	RoyaleKillBase       int     `json:"royaleKillBase"`
	RoyaleKillPerSegment int     `json:"royaleKillPerSegment"`

	DuelFood         int         `json:"duelFood"`
	DuelSpeedStage   float64     `json:"duelSpeedStage"`
	DuelRampDuration float64     `json:"duelRampDuration"`
	DuelCutoff       float64     `json:"duelCutoff"`
	DuelDecay        []DecayStep `json:"duelDecay"`
}

// DecayStep applies Interval from elapsed time From onwards.
type DecayStep struct {
	From     float64 `json:"from"`
	Interval float64 `json:"interval"`
}

func DefaultTuning() Tuning {
	return Tuning{
		BaseMoveInterval: 0.1,
		MaxSpeed:         2.0,
		SpawnFreeze:      1.0,
		StartLength:      3,
		DuelStartLength:  4,
		ComboWindow:      2.0,
		ComboBonus:       0.1,
		MaxMapAttempts:   8,

		SurvivalStage:        15,
		SurvivalDecayStart:   6.0,
		SurvivalDecayStep:    0.25,
		SurvivalDecayFloor:   3.0,
		SurvivalSpeedFactor:  0.95,
		TimedSpeedStage:      60,
		TimedSpeedFactor:     0.85,
		SingleScoreStage:     500,
		FoodPerQuadrant:      2,
		RoyaleFood:           3,
		RoyaleFoodCrowded:    4,
		RoyaleKillBase:       100,
		RoyaleKillPerSegment: 10,

		DuelFood:         3,
		DuelSpeedStage:   15,
		DuelRampDuration: 120,
		DuelCutoff:       150,
		DuelDecay: []DecayStep{
			{From: 0, Interval: 5},
			{From: 30, Interval: 4},
			{From: 60, Interval: 3},
			{From: 90, Interval: 2.5},
		},
	}
}

// Rand is the subset of *rand.Rand the simulation draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Uint64() uint64
}

// NewRand returns a deterministic PCG-backed generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
