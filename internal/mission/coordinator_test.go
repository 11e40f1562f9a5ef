package mission

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aparekh02/EvacuTrace/internal/agent"
	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
)

func testAgentConfig() agent.Config {
	return agent.Config{
		RiskTolerance:   0.5,
		DamagePerTick:   0.1,
		ReplanThreshold: 0.6,
		StepBudget:      200,
		DangerWeight:    10,
		HeuristicScale:  1.0,
		SharedWeight:    5.0,
	}
}

func testParams(t *testing.T, scenario Scenario, seed int64) Params {
	t.Helper()
	g, err := building.Build(building.DefaultBlueprint())
	require.NoError(t, err)

	return Params{
		Scenario:      scenario,
		Graph:         g,
		Fire:          hazard.DefaultFireConfig(),
		Patrol:        hazard.DefaultPatrolConfig(),
		HintThreshold: 0.5,
		Agents:        3,
		AgentConfig:   testAgentConfig(),
		TickSeconds:   0.5,
		MaxTicks:      400,
		RiskGain:      0.4,
		RiskSpread:    0.2,
		Summary:       knowledge.NewSummary(string(scenario)),
		KnowledgeCfg:  knowledge.DefaultConfig(),
		Rng:           rand.New(rand.NewSource(seed)),
		Now:           func() time.Time { return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC) },
	}
}

func TestCoordinator_FireScenarioThreeAgents(t *testing.T) {
	outcome, err := NewCoordinator(testParams(t, ScenarioFire, 42)).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, outcome.Agents, 3)
	assert.Equal(t, "fire", outcome.HazardKind)
	assert.Equal(t, "fire", outcome.Scenario)
	assert.Positive(t, outcome.Ticks)
	assert.InDelta(t, float64(outcome.Ticks)*0.5, outcome.Elapsed, 1e-9)

	for _, rec := range outcome.Agents {
		assert.GreaterOrEqual(t, rec.FinalHealth, 0.0)
		assert.LessOrEqual(t, rec.FinalHealth, 1.0)
		assert.NotEmpty(t, rec.Path)
		assert.Equal(t, building.Coord{X: 2, Y: 2, Level: 0}, rec.Path[0])
		if rec.Status == knowledge.StatusDead {
			require.NotNil(t, rec.DeathPosition)
			assert.Equal(t, "hazard exposure", rec.Cause)
		}
	}

	if outcome.Success {
		assert.Empty(t, outcome.FailureReason)
		reached := 0
		for _, rec := range outcome.Agents {
			if rec.Status == knowledge.StatusReachedTarget {
				reached++
			}
		}
		assert.Equal(t, 1, reached, "the first arrival ends the mission")
	} else {
		assert.NotEmpty(t, outcome.FailureReason)
	}
}

func TestCoordinator_DeterministicOutcome(t *testing.T) {
	first, err := NewCoordinator(testParams(t, ScenarioFire, 7)).Run(context.Background())
	require.NoError(t, err)

	second, err := NewCoordinator(testParams(t, ScenarioFire, 7)).Run(context.Background())
	require.NoError(t, err)

	// Same seed, same clock: every field matches, mission id and
	// timestamp included.
	require.NoError(t, first.MissionID.Validate())
	assert.Equal(t, first, second)
}

func TestCoordinator_SeedChangesDefaultPlacement(t *testing.T) {
	p := testParams(t, ScenarioFire, 1)
	a := NewCoordinator(p).buildField()

	p2 := testParams(t, ScenarioFire, 2)
	b := NewCoordinator(p2).buildField()

	// Different seeds move the seats; a fine probe of the eligible interior
	// region must see the fields differ somewhere.
	same := true
	for x := 5.0; x <= 15.0; x += 0.5 {
		for y := 5.0; y <= 15.0; y += 0.5 {
			probe := hazard.Point{X: x, Y: y, Z: 0, Level: 0}
			if a.IntensityAt(probe) != b.IntensityAt(probe) {
				same = false
			}
		}
	}
	assert.False(t, same)
}

func TestCoordinator_AcceptedHintPlacesFire(t *testing.T) {
	p := testParams(t, ScenarioFire, 3)
	p.Hints = []hazard.Hint{
		{Origin: hazard.Point{X: 18, Y: 18, Z: 0, Level: 0}, Confidence: 0.9},
		{Origin: hazard.Point{X: 1, Y: 1, Z: 0, Level: 0}, Confidence: 0.3},
	}

	field := NewCoordinator(p).buildField()
	assert.Positive(t, field.IntensityAt(hazard.Point{X: 18, Y: 18, Z: 0, Level: 0}))
	assert.Zero(t, field.IntensityAt(hazard.Point{X: 1, Y: 1, Z: 0, Level: 0}))
}

func TestCoordinator_RejectedHintFallsBack(t *testing.T) {
	p := testParams(t, ScenarioFire, 3)
	p.Hints = []hazard.Hint{{Origin: hazard.Point{X: 18, Y: 18}, Confidence: 0.2}}

	field := NewCoordinator(p).buildField()
	require.Equal(t, hazard.KindFire, field.Kind())

	// Fall-back placement matches the no-hint field for the same seed.
	ref := NewCoordinator(testParams(t, ScenarioFire, 3)).buildField()
	probe := hazard.Point{X: 10, Y: 10, Z: 0, Level: 0}
	assert.Equal(t, ref.IntensityAt(probe), field.IntensityAt(probe))
}

func TestCoordinator_AttackerScenario(t *testing.T) {
	outcome, err := NewCoordinator(testParams(t, ScenarioAttacker, 11)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "attacker", outcome.HazardKind)
	assert.Len(t, outcome.Agents, 3)

	// The patrol never leaves levels 2-3, so health lost on levels 0-1 is
	// impossible: cumulative danger only accrues once agents climb.
	for _, rec := range outcome.Agents {
		lowOnly := true
		for _, c := range rec.Path {
			if c.Level >= 2 {
				lowOnly = false
				break
			}
		}
		if lowOnly {
			assert.InDelta(t, 1.0, rec.FinalHealth, 1e-9)
		}
	}
}

func TestCoordinator_TimeoutProducesFailure(t *testing.T) {
	p := testParams(t, ScenarioFire, 5)
	p.MaxTicks = 3

	outcome, err := NewCoordinator(p).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, ReasonTimeout, outcome.FailureReason)
	assert.Equal(t, 3, outcome.Ticks)
}

func TestCoordinator_CancellationBetweenTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := NewCoordinator(testParams(t, ScenarioFire, 5)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ReasonAborted, outcome.FailureReason)
}

func TestRiskTolerance_MonotoneInSuccessRate(t *testing.T) {
	low := knowledge.Summary{Scenario: "fire", Attempts: 10, Successes: 1}
	high := knowledge.Summary{Scenario: "fire", Attempts: 10, Successes: 9}

	lo := riskTolerance(0.5, 0.4, low)
	hi := riskTolerance(0.5, 0.4, high)
	assert.Less(t, lo, hi)
	assert.GreaterOrEqual(t, lo, 0.0)
	assert.LessOrEqual(t, hi, 1.0)

	// No history keeps the configured base.
	assert.InDelta(t, 0.5, riskTolerance(0.5, 0.4, knowledge.NewSummary("fire")), 1e-9)
}

func TestRiskTolerance_Clamped(t *testing.T) {
	perfect := knowledge.Summary{Scenario: "fire", Attempts: 5, Successes: 5}
	assert.LessOrEqual(t, riskTolerance(0.9, 2.0, perfect), 1.0)

	hopeless := knowledge.Summary{Scenario: "fire", Attempts: 5}
	assert.GreaterOrEqual(t, riskTolerance(0.1, 2.0, hopeless), 0.0)
}

func TestAgentTolerance_SpreadsAroundBase(t *testing.T) {
	lo := agentTolerance(0.5, 0.2, 0, 3)
	mid := agentTolerance(0.5, 0.2, 1, 3)
	hi := agentTolerance(0.5, 0.2, 2, 3)

	assert.InDelta(t, 0.4, lo, 1e-9)
	assert.InDelta(t, 0.5, mid, 1e-9)
	assert.InDelta(t, 0.6, hi, 1e-9)

	// A lone agent or zero spread keeps the base.
	assert.InDelta(t, 0.5, agentTolerance(0.5, 0.2, 0, 1), 1e-9)
	assert.InDelta(t, 0.5, agentTolerance(0.5, 0, 1, 3), 1e-9)
}
