package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration: a YAML file (CONFIG_PATH,
// default config.yaml) with environment overrides for the connection
// strings, matching how the stores and broker are selected.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	// SolveRatePerMin caps accepted solve submissions per minute.
	SolveRatePerMin int `yaml:"solveRatePerMin"`
	SolveBurst      int `yaml:"solveBurst"`

	Solver Solver `yaml:"solver"`
}

// Solver carries the default hyperparameters; individual solve requests
// can override any of them.
type Solver struct {
	MaxTimeSec         int      `yaml:"maxTimeSec"`
	MaxIterations      int      `yaml:"maxIterations"`
	InitTempFactor     float64  `yaml:"initTempFactor"`
	CoolingRate        float64  `yaml:"coolingRate"`
	WheelMemoryLength  int      `yaml:"wheelMemoryLength"`
	WheelParameter     float64  `yaml:"wheelParameter"`
	RewardBest         float64  `yaml:"rewardBest"`
	RewardAcceptBetter float64  `yaml:"rewardAcceptBetter"`
	RewardUnique       float64  `yaml:"rewardUnique"`
	RewardDivers       float64  `yaml:"rewardDivers"`
	Penalty            float64  `yaml:"penalty"`
	MinWeight          float64  `yaml:"minWeight"`
	RandomNoise        float64  `yaml:"randomNoise"`
	TargetInf          float64  `yaml:"targetInf"`
	ShakeupLog         float64  `yaml:"shakeupLog"`
	MeanRemovalLog     float64  `yaml:"meanRemovalLog"`
	DestroyOperators   []string `yaml:"destroyOperators"`
	RepairOperators    []string `yaml:"repairOperators"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		SolveRatePerMin: 30,
		SolveBurst:      5,
		Solver: Solver{
			MaxTimeSec:         600,
			MaxIterations:      10000,
			InitTempFactor:     0.01,
			CoolingRate:        0.99975,
			WheelMemoryLength:  20,
			WheelParameter:     0.1,
			RewardBest:         33,
			RewardAcceptBetter: 13,
			RewardUnique:       9,
			RewardDivers:       9,
			Penalty:            0,
			MinWeight:          1,
			RandomNoise:        0,
			TargetInf:          0.2,
			ShakeupLog:         20,
			MeanRemovalLog:     2,
		},
	}
}

// Load reads the YAML file if present and applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	return cfg, nil
}
