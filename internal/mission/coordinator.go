// Package mission orchestrates rescue attempts: the coordinator owns one
// attempt end to end, the runner drives repeated attempts and feeds each
// outcome back into the knowledge summary for the next one.
package mission

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/aparekh02/EvacuTrace/internal/agent"
	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/events"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// Scenario selects the hazard variant for an attempt.
type Scenario string

const (
	// ScenarioFire runs the spreading hazard.
	ScenarioFire Scenario = "fire"
	// ScenarioAttacker runs the patrolling hazard.
	ScenarioAttacker Scenario = "attacker"
)

// Failure reasons recorded on unsuccessful outcomes.
const (
	ReasonAllAgentsDied = "all_agents_died"
	ReasonStalled       = "stalled"
	ReasonTimeout       = "timeout"
	ReasonAborted       = "aborted"
)

// Params configures one attempt.
type Params struct {
	MissionID types.ID
	Scenario  Scenario
	Graph     *building.Graph

	Fire          hazard.FireConfig
	Patrol        hazard.PatrolConfig
	Hints         []hazard.Hint
	HintThreshold float64

	// Agents is the number of rescuers, all starting at the shared start
	// node. AgentConfig carries the base tunables; each agent's risk
	// tolerance is derived from the summary and its slot index.
	Agents      int
	AgentConfig agent.Config

	TickSeconds float64
	MaxTicks    int

	// RiskGain scales past success rate into risk tolerance adjustment.
	RiskGain float64
	// RiskSpread diverges per-agent risk tolerance around the mission base.
	RiskSpread float64

	Summary      knowledge.Summary
	KnowledgeCfg knowledge.Config

	// Rng is the mission's sole randomness source (mission identifier and
	// default hazard seat placement). Seeding it fixes the whole outcome.
	Rng *rand.Rand

	// Now supplies the outcome timestamp. Nil uses the wall clock.
	Now func() time.Time

	Emit func(events.Event)
}

// Coordinator owns one attempt: the hazard field, the agents, and the tick
// loop. It produces exactly one MissionOutcome.
type Coordinator struct {
	p Params
}

// NewCoordinator prepares one attempt. A zero MissionID is derived from the
// mission rng so identical seeds yield identical outcomes.
func NewCoordinator(p Params) *Coordinator {
	if p.MissionID.IsZero() {
		p.MissionID = missionID(p.Rng)
	}
	return &Coordinator{p: p}
}

func missionID(rng *rand.Rand) types.ID {
	if rng != nil {
		if id, err := types.NewIDFromReader(rng); err == nil {
			return id
		}
	}
	return types.NewID()
}

// riskTolerance derives the mission-wide base tolerance from past success.
// More past success lets agents take more risk; a poor record makes them
// conservative. The adjustment is monotone in success rate and clamped.
func riskTolerance(base, gain float64, s knowledge.Summary) float64 {
	if s.Attempts == 0 {
		return clamp01(base)
	}
	return clamp01(base + gain*(s.SuccessRate()-0.5))
}

// agentTolerance spreads agents around the mission base so identical agents
// still diverge in path choice.
func agentTolerance(base, spread float64, slot, total int) float64 {
	if total <= 1 || spread == 0 {
		return clamp01(base)
	}
	offset := float64(slot)/float64(total-1) - 0.5
	return clamp01(base + spread*offset)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// buildField instantiates the hazard for this attempt. A fire prefers the
// highest-confidence accepted hint; a rejected or missing hint falls back
// to random default seats from the mission rng. The patrol route is fully
// determined by configuration.
func (c *Coordinator) buildField() hazard.Field {
	bp := c.p.Graph.Blueprint()
	extent := float64(bp.GridSize) * bp.CellSize

	switch c.p.Scenario {
	case ScenarioAttacker:
		stairX := float64(bp.Stairway.MinX+bp.Stairway.MaxX) / 2 * bp.CellSize
		stairY := float64(bp.Stairway.MinY+bp.Stairway.MaxY) / 2 * bp.CellSize
		return hazard.NewPatrol(c.p.Patrol, extent, bp.LevelHeight, stairX, stairY)
	default:
		origin, err := hazard.SelectOrigin(c.p.Hints, c.p.HintThreshold)
		if err == nil {
			return hazard.NewFire(c.p.Fire, []hazard.Point{origin})
		}
		seats := hazard.DefaultSeats(c.p.Fire, c.p.Rng, bp.Levels, extent, bp.LevelHeight)
		return hazard.NewFire(c.p.Fire, seats)
	}
}

// Run executes the attempt's tick loop until an agent reaches the target,
// all agents are terminal, or the tick budget runs out. It returns an error
// only on context cancellation, which is checked between ticks.
func (c *Coordinator) Run(ctx context.Context) (knowledge.MissionOutcome, error) {
	field := c.buildField()
	board := agent.NewBoard()
	penalties := c.p.Summary.PenaltyIndex(c.p.Graph, c.p.KnowledgeCfg)

	base := riskTolerance(c.p.AgentConfig.RiskTolerance, c.p.RiskGain, c.p.Summary)

	agents := make([]*agent.Agent, c.p.Agents)
	for i := range agents {
		cfg := c.p.AgentConfig
		cfg.RiskTolerance = agentTolerance(base, c.p.RiskSpread, i, c.p.Agents)
		agents[i] = agent.New(agentID(i), cfg, agent.Deps{
			Graph:     c.p.Graph,
			Field:     field,
			Knowledge: penalties,
			Board:     board,
			MissionID: c.p.MissionID,
			Emit:      c.p.Emit,
		})
	}

	c.publish(events.Event{
		Type:      events.EventMissionStarted,
		MissionID: c.p.MissionID,
		Payload: events.MissionStartedPayload{
			MissionID:     c.p.MissionID,
			Scenario:      string(c.p.Scenario),
			HazardKind:    string(field.Kind()),
			AgentCount:    len(agents),
			RiskTolerance: base,
		},
	})

	success := false
	ticks := 0

	for tick := 0; tick < c.p.MaxTicks; tick++ {
		select {
		case <-ctx.Done():
			outcome := c.outcome(field, agents, ticks, false, ReasonAborted)
			return outcome, ctx.Err()
		default:
		}

		field.Advance(c.p.TickSeconds)

		// Observations published last tick reach every agent before any
		// agent plans this tick.
		obs := board.Flush()
		for _, a := range agents {
			a.Absorb(obs)
		}

		for _, a := range agents {
			if a.Status().Terminal() {
				continue
			}
			a.Step(tick)
			if a.Status() == agent.StatusReachedTarget {
				success = true
				break
			}
		}
		ticks = tick + 1

		// First arrival ends the mission; remaining agents freeze as-is.
		if success || allTerminal(agents) {
			break
		}
	}

	reason := ""
	if !success {
		reason = failureReason(agents)
	}

	outcome := c.outcome(field, agents, ticks, success, reason)

	if success {
		c.publish(events.Event{
			Type:      events.EventMissionCompleted,
			MissionID: c.p.MissionID,
			Payload: events.MissionCompletedPayload{
				MissionID: c.p.MissionID,
				Ticks:     outcome.Ticks,
				Elapsed:   outcome.Elapsed,
				Survivors: countAlive(agents),
			},
		})
	} else {
		c.publish(events.Event{
			Type:      events.EventMissionFailed,
			MissionID: c.p.MissionID,
			Payload: events.MissionFailedPayload{
				MissionID: c.p.MissionID,
				Reason:    reason,
				Ticks:     outcome.Ticks,
				Deaths:    countDead(agents),
			},
		})
	}

	return outcome, nil
}

func (c *Coordinator) outcome(field hazard.Field, agents []*agent.Agent, ticks int, success bool, reason string) knowledge.MissionOutcome {
	records := make([]knowledge.AgentRecord, len(agents))
	for i, a := range agents {
		records[i] = a.Record()
	}
	now := c.p.Now
	if now == nil {
		now = time.Now
	}
	return knowledge.MissionOutcome{
		MissionID:     c.p.MissionID,
		Scenario:      string(c.p.Scenario),
		HazardKind:    string(field.Kind()),
		Success:       success,
		Ticks:         ticks,
		Elapsed:       float64(ticks) * c.p.TickSeconds,
		FailureReason: reason,
		Agents:        records,
		CreatedAt:     now().UTC(),
	}
}

func (c *Coordinator) publish(ev events.Event) {
	if c.p.Emit == nil {
		return
	}
	c.p.Emit(ev)
}

func agentID(i int) string {
	return "agent-" + strconv.Itoa(i)
}

func allTerminal(agents []*agent.Agent) bool {
	for _, a := range agents {
		if !a.Status().Terminal() {
			return false
		}
	}
	return true
}

func countAlive(agents []*agent.Agent) int {
	n := 0
	for _, a := range agents {
		if a.Status() != agent.StatusDead {
			n++
		}
	}
	return n
}

func countDead(agents []*agent.Agent) int {
	n := 0
	for _, a := range agents {
		if a.Status() == agent.StatusDead {
			n++
		}
	}
	return n
}

// failureReason distinguishes a wiped-out team from one that stalled or ran
// out of time.
func failureReason(agents []*agent.Agent) string {
	if !allTerminal(agents) {
		return ReasonTimeout
	}
	if countDead(agents) == len(agents) {
		return ReasonAllAgentsDied
	}
	return ReasonStalled
}
