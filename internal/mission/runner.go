package mission

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/aparekh02/EvacuTrace/internal/agent"
	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/events"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// RunnerConfig carries the tunables shared by every mission in a run.
type RunnerConfig struct {
	Fire          hazard.FireConfig
	Patrol        hazard.PatrolConfig
	Agent         agent.Config
	Knowledge     knowledge.Config
	TickSeconds   float64
	MaxTicks      int
	RiskGain      float64
	RiskSpread    float64
	HintThreshold float64

	// Now supplies outcome timestamps. Nil uses the wall clock.
	Now func() time.Time
}

// RunOptions selects what one run executes.
type RunOptions struct {
	Scenario Scenario
	// Iterations is the number of missions to run.
	Iterations int
	// Agents per mission.
	Agents int
	// UntilSuccess keeps iterating until the first success, bounded by
	// MaxIterations. Iterations is ignored in this mode.
	UntilSuccess  bool
	MaxIterations int
	// Seed fixes all mission randomness. Iteration i uses Seed+i.
	Seed int64
	// Hints are candidate hazard origins for the fire scenario.
	Hints []hazard.Hint
}

// RunReport summarizes one run.
type RunReport struct {
	Scenario    string            `json:"scenario"`
	Iterations  int               `json:"iterations"`
	Successes   int               `json:"successes"`
	SuccessRate float64           `json:"success_rate"`
	Duration    time.Duration     `json:"duration"`
	Final       knowledge.Summary `json:"final"`
}

// Runner drives repeated missions against one structure, folding every
// outcome into the knowledge summary so later missions plan with it. The
// summary carried between iterations is an explicit value, never shared
// mutable state; the store is the only process-wide resource.
type Runner struct {
	g     *building.Graph
	cfg   RunnerConfig
	store knowledge.Store
	bus   events.Bus
	log   *slog.Logger
}

// NewRunner wires a runner. The bus may be nil when no observer cares.
func NewRunner(g *building.Graph, cfg RunnerConfig, store knowledge.Store, bus events.Bus, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{g: g, cfg: cfg, store: store, bus: bus, log: log}
}

// Run executes the requested missions sequentially. Persistence failures
// degrade to in-memory knowledge with a warning; only context cancellation
// aborts the run.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	if opts.Scenario != ScenarioFire && opts.Scenario != ScenarioAttacker {
		return RunReport{}, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown scenario %q", opts.Scenario))
	}
	if opts.Agents <= 0 {
		return RunReport{}, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"agent count must be positive")
	}

	scenario := string(opts.Scenario)
	limit := opts.Iterations
	if opts.UntilSuccess {
		limit = opts.MaxIterations
	}
	if limit <= 0 {
		return RunReport{}, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"iteration count must be positive")
	}

	summary, err := r.store.LoadSummary(ctx, scenario)
	if err != nil {
		r.log.Warn("knowledge store unavailable, continuing with in-memory knowledge",
			"scenario", scenario, "error", err)
		summary = knowledge.NewSummary(scenario)
	}

	r.emit(ctx, events.Event{
		Type: events.EventRunStarted,
		Payload: events.RunStartedPayload{
			Scenario:   scenario,
			Iterations: limit,
			Agents:     opts.Agents,
			Seed:       opts.Seed,
		},
	})

	started := time.Now()
	report := RunReport{Scenario: scenario}

	for iter := 0; iter < limit; iter++ {
		select {
		case <-ctx.Done():
			report.Final = summary
			return report, ctx.Err()
		default:
		}

		base := riskTolerance(r.cfg.Agent.RiskTolerance, r.cfg.RiskGain, summary)
		r.emit(ctx, events.Event{
			Type: events.EventIterationStarted,
			Payload: events.IterationStartedPayload{
				Scenario:      scenario,
				Iteration:     iter,
				PriorAttempts: summary.Attempts,
				SuccessRate:   summary.SuccessRate(),
				RiskTolerance: base,
			},
		})

		coord := NewCoordinator(Params{
			Scenario:      opts.Scenario,
			Graph:         r.g,
			Fire:          r.cfg.Fire,
			Patrol:        r.cfg.Patrol,
			Hints:         opts.Hints,
			HintThreshold: r.cfg.HintThreshold,
			Agents:        opts.Agents,
			AgentConfig:   r.cfg.Agent,
			TickSeconds:   r.cfg.TickSeconds,
			MaxTicks:      r.cfg.MaxTicks,
			RiskGain:      r.cfg.RiskGain,
			RiskSpread:    r.cfg.RiskSpread,
			Summary:       summary,
			KnowledgeCfg:  r.cfg.Knowledge,
			Rng:           rand.New(rand.NewSource(opts.Seed + int64(iter))),
			Now:           r.cfg.Now,
			Emit:          func(ev events.Event) { r.emit(ctx, ev) },
		})

		outcome, err := coord.Run(ctx)
		if err != nil {
			report.Final = summary
			return report, err
		}

		summary = summary.Fold(r.cfg.Knowledge, outcome)
		if err := r.store.AppendOutcome(ctx, outcome); err != nil {
			// Learning continues within the run even without persistence.
			r.log.Warn("failed to persist mission outcome",
				"mission_id", outcome.MissionID, "error", err)
		}

		report.Iterations++
		if outcome.Success {
			report.Successes++
		}
		r.log.Info("mission finished",
			"scenario", scenario,
			"iteration", iter,
			"success", outcome.Success,
			"ticks", outcome.Ticks,
			"reason", outcome.FailureReason)

		if opts.UntilSuccess && outcome.Success {
			break
		}
	}

	report.Duration = time.Since(started)
	if report.Iterations > 0 {
		report.SuccessRate = float64(report.Successes) / float64(report.Iterations)
	}
	report.Final = summary

	r.emit(ctx, events.Event{
		Type: events.EventRunCompleted,
		Payload: events.RunCompletedPayload{
			Scenario:    scenario,
			Iterations:  report.Iterations,
			Successes:   report.Successes,
			SuccessRate: report.SuccessRate,
			Duration:    report.Duration,
		},
	})

	return report, nil
}

func (r *Runner) emit(ctx context.Context, ev events.Event) {
	if r.bus == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := r.bus.Publish(ctx, ev); err != nil {
		r.log.Debug("event publish failed", "type", ev.Type, "error", err)
	}
}
