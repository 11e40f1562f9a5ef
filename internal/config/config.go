// Package config defines the root configuration for an EvacuTrace run and
// its YAML loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aparekh02/EvacuTrace/internal/agent"
	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
	"github.com/aparekh02/EvacuTrace/internal/mission"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// Config is the root configuration.
type Config struct {
	Building  building.Blueprint `yaml:"building"`
	Hazard    HazardConfig       `yaml:"hazard"`
	Planner   PlannerConfig      `yaml:"planner"`
	Agent     AgentConfig        `yaml:"agent"`
	Mission   MissionConfig      `yaml:"mission"`
	Knowledge knowledge.Config   `yaml:"knowledge"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// HazardConfig groups the hazard variants and hint acceptance.
type HazardConfig struct {
	Fire   hazard.FireConfig   `yaml:"fire"`
	Patrol hazard.PatrolConfig `yaml:"patrol"`
	// HintThreshold is the minimum confidence for an external hazard hint
	// to override default placement.
	HintThreshold float64 `yaml:"hint_threshold"`
}

// PlannerConfig contains search tunables.
type PlannerConfig struct {
	// DangerWeight scales hazard intensity into edge cost inflation.
	DangerWeight float64 `yaml:"danger_weight"`
	// HeuristicScale scales the admissible heuristic down; values below 1
	// widen exploration toward longer but safer routes.
	HeuristicScale float64 `yaml:"heuristic_scale"`
}

// AgentConfig contains per-agent behavioral tunables.
type AgentConfig struct {
	BaseRiskTolerance float64 `yaml:"base_risk_tolerance"`
	RiskSpread        float64 `yaml:"risk_spread"`
	DamagePerTick     float64 `yaml:"damage_per_tick"`
	ReplanThreshold   float64 `yaml:"replan_threshold"`
	StepBudget        int     `yaml:"step_budget"`
	SharedWeight      float64 `yaml:"shared_weight"`
}

// MissionConfig contains the tick loop tunables.
type MissionConfig struct {
	Agents      int     `yaml:"agents"`
	TickSeconds float64 `yaml:"tick_seconds"`
	MaxTicks    int     `yaml:"max_ticks"`
	// RiskGain scales past success rate into risk tolerance adjustment.
	RiskGain float64 `yaml:"risk_gain"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with the tuned default values: the
// four-level default structure, both hazard variants, and the empirical
// planning constants.
func DefaultConfig() Config {
	return Config{
		Building: building.DefaultBlueprint(),
		Hazard: HazardConfig{
			Fire:          hazard.DefaultFireConfig(),
			Patrol:        hazard.DefaultPatrolConfig(),
			HintThreshold: 0.5,
		},
		Planner: PlannerConfig{
			DangerWeight:   10.0,
			HeuristicScale: 1.0,
		},
		Agent: AgentConfig{
			BaseRiskTolerance: 0.5,
			RiskSpread:        0.2,
			DamagePerTick:     0.1,
			ReplanThreshold:   0.6,
			StepBudget:        300,
			SharedWeight:      5.0,
		},
		Mission: MissionConfig{
			Agents:      3,
			TickSeconds: 0.5,
			MaxTicks:    600,
			RiskGain:    0.4,
		},
		Knowledge: knowledge.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, types.WrapError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, types.WrapError(types.CONFIG_PARSE_FAILED,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWithDefaults loads the file when it exists and falls back to the
// defaults when it does not.
func LoadWithDefaults(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Validate checks the tunables the simulation depends on. Structural
// blueprint validation happens again at graph build time.
func (c Config) Validate() error {
	fail := func(msg string) error {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, msg)
	}

	if c.Hazard.HintThreshold < 0 || c.Hazard.HintThreshold > 1 {
		return fail(fmt.Sprintf("hint threshold %.2f outside [0, 1]", c.Hazard.HintThreshold))
	}
	if c.Planner.DangerWeight < 0 {
		return fail("danger weight must be non-negative")
	}
	if c.Planner.HeuristicScale < 0 || c.Planner.HeuristicScale > 1 {
		return fail(fmt.Sprintf("heuristic scale %.2f outside [0, 1]", c.Planner.HeuristicScale))
	}
	if c.Agent.BaseRiskTolerance < 0 || c.Agent.BaseRiskTolerance > 1 {
		return fail(fmt.Sprintf("base risk tolerance %.2f outside [0, 1]", c.Agent.BaseRiskTolerance))
	}
	if c.Agent.ReplanThreshold < 0 || c.Agent.ReplanThreshold > 1 {
		return fail(fmt.Sprintf("replan threshold %.2f outside [0, 1]", c.Agent.ReplanThreshold))
	}
	if c.Agent.DamagePerTick < 0 {
		return fail("damage per tick must be non-negative")
	}
	if c.Agent.StepBudget <= 0 {
		return fail("step budget must be positive")
	}
	if c.Mission.Agents <= 0 {
		return fail("agent count must be positive")
	}
	if c.Mission.TickSeconds <= 0 {
		return fail("tick seconds must be positive")
	}
	if c.Mission.MaxTicks <= 0 {
		return fail("max ticks must be positive")
	}
	if c.Knowledge.DecayFactor < 0 || c.Knowledge.DecayFactor > 1 {
		return fail(fmt.Sprintf("decay factor %.2f outside [0, 1]", c.Knowledge.DecayFactor))
	}
	return nil
}

// AgentTunables maps the configuration into the agent package's tunables.
func (c Config) AgentTunables() agent.Config {
	return agent.Config{
		RiskTolerance:   c.Agent.BaseRiskTolerance,
		DamagePerTick:   c.Agent.DamagePerTick,
		ReplanThreshold: c.Agent.ReplanThreshold,
		StepBudget:      c.Agent.StepBudget,
		DangerWeight:    c.Planner.DangerWeight,
		HeuristicScale:  c.Planner.HeuristicScale,
		SharedWeight:    c.Agent.SharedWeight,
	}
}

// RunnerConfig maps the configuration into the mission runner's tunables.
func (c Config) RunnerConfig() mission.RunnerConfig {
	return mission.RunnerConfig{
		Fire:          c.Hazard.Fire,
		Patrol:        c.Hazard.Patrol,
		Agent:         c.AgentTunables(),
		Knowledge:     c.Knowledge,
		TickSeconds:   c.Mission.TickSeconds,
		MaxTicks:      c.Mission.MaxTicks,
		RiskGain:      c.Mission.RiskGain,
		RiskSpread:    c.Agent.RiskSpread,
		HintThreshold: c.Hazard.HintThreshold,
	}
}
