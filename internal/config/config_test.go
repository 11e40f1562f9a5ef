package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aparekh02/EvacuTrace/internal/types"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Building.Levels)
	assert.Equal(t, 20, cfg.Building.GridSize)
	assert.Equal(t, 3, cfg.Mission.Agents)
	assert.InDelta(t, 0.5, cfg.Mission.TickSeconds, 1e-9)
	assert.InDelta(t, 0.6, cfg.Agent.ReplanThreshold, 1e-9)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
building:
  levels: 2
  grid_size: 12
mission:
  agents: 5
agent:
  base_risk_tolerance: 0.7
hazard:
  fire:
    spread_rate: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Building.Levels)
	assert.Equal(t, 12, cfg.Building.GridSize)
	assert.Equal(t, 5, cfg.Mission.Agents)
	assert.InDelta(t, 0.7, cfg.Agent.BaseRiskTolerance, 1e-9)
	assert.InDelta(t, 0.2, cfg.Hazard.Fire.SpreadRate, 1e-9)

	// Untouched sections keep their defaults.
	assert.InDelta(t, 0.5, cfg.Hazard.Fire.InitialIntensity, 1e-9)
	assert.Equal(t, 600, cfg.Mission.MaxTicks)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mission: [not a map"), 0o644))

	_, err := Load(path)
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))
}

func TestLoadWithDefaults_FallsBack(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hint threshold above one", func(c *Config) { c.Hazard.HintThreshold = 1.5 }},
		{"negative danger weight", func(c *Config) { c.Planner.DangerWeight = -1 }},
		{"heuristic scale above one", func(c *Config) { c.Planner.HeuristicScale = 2 }},
		{"risk tolerance above one", func(c *Config) { c.Agent.BaseRiskTolerance = 1.1 }},
		{"replan threshold negative", func(c *Config) { c.Agent.ReplanThreshold = -0.1 }},
		{"negative damage", func(c *Config) { c.Agent.DamagePerTick = -0.1 }},
		{"zero step budget", func(c *Config) { c.Agent.StepBudget = 0 }},
		{"zero agents", func(c *Config) { c.Mission.Agents = 0 }},
		{"zero tick seconds", func(c *Config) { c.Mission.TickSeconds = 0 }},
		{"zero max ticks", func(c *Config) { c.Mission.MaxTicks = 0 }},
		{"decay factor above one", func(c *Config) { c.Knowledge.DecayFactor = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
		})
	}
}

func TestRunnerConfig_Mapping(t *testing.T) {
	cfg := DefaultConfig()
	rc := cfg.RunnerConfig()

	assert.Equal(t, cfg.Hazard.Fire, rc.Fire)
	assert.Equal(t, cfg.Hazard.Patrol, rc.Patrol)
	assert.InDelta(t, cfg.Agent.BaseRiskTolerance, rc.Agent.RiskTolerance, 1e-9)
	assert.InDelta(t, cfg.Planner.DangerWeight, rc.Agent.DangerWeight, 1e-9)
	assert.InDelta(t, cfg.Agent.RiskSpread, rc.RiskSpread, 1e-9)
	assert.Equal(t, cfg.Mission.MaxTicks, rc.MaxTicks)
}
