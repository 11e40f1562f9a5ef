package main

import (
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/config"
	"github.com/aparekh02/EvacuTrace/internal/events"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
	"github.com/aparekh02/EvacuTrace/internal/mission"
)

var (
	runScenario      string
	runIterations    int
	runAgents        int
	runUntilSuccess  bool
	runMaxIterations int
	runSeed          int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run rescue missions",
	Long: `Run one or more rescue missions against the configured structure.
Each mission's outcome is folded into the knowledge summary, so later
missions plan with the accumulated danger and success knowledge.`,
	RunE: runMissions,
}

func init() {
	runCmd.Flags().StringVarP(&runScenario, "scenario", "s", "fire", "hazard scenario: fire or attacker")
	runCmd.Flags().IntVarP(&runIterations, "iterations", "n", 1, "number of missions to run")
	runCmd.Flags().IntVarP(&runAgents, "agents", "a", 0, "agents per mission (0 = from config)")
	runCmd.Flags().BoolVar(&runUntilSuccess, "until-success", false, "keep iterating until the first success")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 50, "iteration bound for --until-success")
	runCmd.Flags().Int64Var(&runSeed, "seed", time.Now().UnixNano(), "random seed (iteration i uses seed+i)")
}

// openStore returns the SQLite store when a path is configured and falls
// back to the in-memory store otherwise.
func openStore(cfg config.Config, log *slog.Logger) (knowledge.Store, error) {
	if cfg.Knowledge.Path == "" {
		log.Debug("no knowledge database configured, using in-memory store")
		return knowledge.NewMemoryStore(cfg.Knowledge), nil
	}
	return knowledge.OpenSQLite(cfg.Knowledge)
}

func runMissions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Logging)

	g, err := building.Build(cfg.Building)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	defer bus.Close()

	agents := cfg.Mission.Agents
	if runAgents > 0 {
		agents = runAgents
	}

	// Stream mission progress to the log while the run executes.
	ctx := cmd.Context()
	ch, cleanup := bus.Subscribe(ctx, events.Filter{}, 4096)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		streamEvents(log, ch)
	}()

	runner := mission.NewRunner(g, cfg.RunnerConfig(), store, bus, log)
	report, err := runner.Run(ctx, mission.RunOptions{
		Scenario:      mission.Scenario(runScenario),
		Iterations:    runIterations,
		Agents:        agents,
		UntilSuccess:  runUntilSuccess,
		MaxIterations: runMaxIterations,
		Seed:          runSeed,
	})

	cleanup()
	wg.Wait()

	if err != nil {
		return err
	}

	cmd.Printf("scenario:     %s\n", report.Scenario)
	cmd.Printf("iterations:   %d\n", report.Iterations)
	cmd.Printf("successes:    %d\n", report.Successes)
	cmd.Printf("success rate: %.1f%%\n", report.SuccessRate*100)
	cmd.Printf("duration:     %s\n", report.Duration.Round(time.Millisecond))
	if best := report.Final.BestTrajectory(); best != nil {
		cmd.Printf("best path:    %s, %d ticks, danger %.2f\n", best.AgentID, best.Ticks, best.Danger)
	}
	return nil
}

// streamEvents logs the run's event stream until the channel closes.
func streamEvents(log *slog.Logger, ch <-chan events.Event) {
	for ev := range ch {
		switch p := ev.Payload.(type) {
		case events.IterationStartedPayload:
			log.Info("iteration started",
				"iteration", p.Iteration,
				"prior_attempts", p.PriorAttempts,
				"success_rate", p.SuccessRate,
				"risk_tolerance", p.RiskTolerance)
		case events.MissionStartedPayload:
			log.Info("mission started",
				"mission_id", p.MissionID,
				"hazard", p.HazardKind,
				"agents", p.AgentCount)
		case events.PlanComputedPayload:
			log.Debug("plan computed",
				"agent", p.AgentID,
				"replan", p.Replan,
				"length", p.Length,
				"cost", p.Cost)
		case events.StatusChangedPayload:
			log.Debug("agent status changed",
				"agent", p.AgentID,
				"from", p.From,
				"to", p.To,
				"tick", p.Tick,
				"cause", p.Cause)
		case events.HazardObservedPayload:
			log.Debug("hazard observed",
				"agent", p.AgentID,
				"node", p.NodeID,
				"intensity", p.Intensity,
				"tick", p.Tick)
		case events.MissionCompletedPayload:
			log.Info("mission completed",
				"mission_id", p.MissionID,
				"ticks", p.Ticks,
				"elapsed", p.Elapsed,
				"survivors", p.Survivors)
		case events.MissionFailedPayload:
			log.Info("mission failed",
				"mission_id", p.MissionID,
				"reason", p.Reason,
				"ticks", p.Ticks,
				"deaths", p.Deaths)
		}
	}
}
