// Package agent implements the rescuer state machine: plan, move, take
// hazard damage, replan when live danger exceeds planning-time assumptions,
// and share hazard sightings with the rest of the mission.
package agent

import (
	"fmt"

	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/events"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/knowledge"
	"github.com/aparekh02/EvacuTrace/internal/planner"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// Status is the agent's state machine position.
type Status string

const (
	StatusPlanning      Status = "planning"
	StatusMoving        Status = "moving"
	StatusReplanning    Status = "replanning"
	StatusReachedTarget Status = knowledge.StatusReachedTarget
	StatusDead          Status = knowledge.StatusDead
	StatusStalled       Status = knowledge.StatusStalled
)

// Terminal reports whether the status ends the agent's participation.
func (s Status) Terminal() bool {
	return s == StatusReachedTarget || s == StatusDead || s == StatusStalled
}

func (s Status) String() string { return string(s) }

// replanLookahead is how many upcoming waypoints, beyond the current
// position, are checked against live hazard intensity each tick.
const replanLookahead = 2

// Config holds the per-agent behavioral tunables.
type Config struct {
	// RiskTolerance in [0, 1]; higher tolerance discounts danger in
	// planning costs.
	RiskTolerance float64

	// DamagePerTick scales live hazard intensity into health loss.
	DamagePerTick float64

	// ReplanThreshold is the live intensity above which a waypoint is
	// considered compromised.
	ReplanThreshold float64

	// StepBudget bounds the number of movement steps before the agent
	// stalls.
	StepBudget int

	// DangerWeight scales (1 - RiskTolerance) into the planner's hazard
	// multiplier.
	DangerWeight float64

	// HeuristicScale is passed through to the planner.
	HeuristicScale float64

	// SharedWeight scales a shared observation's intensity into an
	// additive path cost penalty at the observed node.
	SharedWeight float64
}

// Deps wires an agent into its mission.
type Deps struct {
	Graph     *building.Graph
	Field     hazard.Field
	Knowledge planner.Penalizer
	Board     *Board
	MissionID types.ID
	Emit      func(events.Event)
}

// Agent is one rescuer. All methods are driven by the coordinator's tick
// loop; the agent itself is not safe for concurrent use.
type Agent struct {
	id        string
	cfg       Config
	g         *building.Graph
	field     hazard.Field
	knowledge planner.Penalizer
	board     *Board
	missionID types.ID
	emit      func(events.Event)

	status  Status
	pos     building.NodeID
	health  float64
	danger  float64
	plan    planner.Path
	planIdx int
	steps   int

	trail     []building.Coord
	deathPos  *building.Coord
	cause     string
	decisions []string

	shared *sharedMemory
}

// New creates an agent at the graph's start node in the Planning state with
// full health.
func New(id string, cfg Config, deps Deps) *Agent {
	start := deps.Graph.Start()
	return &Agent{
		id:        id,
		cfg:       cfg,
		g:         deps.Graph,
		field:     deps.Field,
		knowledge: deps.Knowledge,
		board:     deps.Board,
		missionID: deps.MissionID,
		emit:      deps.Emit,
		status:    StatusPlanning,
		pos:       start,
		health:    1.0,
		trail:     []building.Coord{deps.Graph.Node(start).Coord},
		shared:    newSharedMemory(cfg.SharedWeight),
	}
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Status returns the current state machine position.
func (a *Agent) Status() Status { return a.status }

// Position returns the agent's current node.
func (a *Agent) Position() building.NodeID { return a.pos }

// Health returns the remaining health in [0, 1].
func (a *Agent) Health() float64 { return a.health }

// CumulativeDanger returns the summed live intensity over all steps taken.
func (a *Agent) CumulativeDanger() float64 { return a.danger }

// Absorb folds observations published by other agents into this agent's
// shared penalty memory. Own observations are skipped.
func (a *Agent) Absorb(obs []Observation) {
	for _, o := range obs {
		if o.AgentID == a.id {
			continue
		}
		a.shared.absorb(o)
	}
}

// Step advances the agent by one tick. Planning and replanning resolve
// within the same tick as the subsequent movement step.
func (a *Agent) Step(tick int) {
	if a.status.Terminal() {
		return
	}

	if a.status == StatusPlanning || a.status == StatusReplanning {
		if !a.computePlan(tick) {
			return
		}
	}
	a.move(tick)
}

// computePlan invokes the planner from the current position against the
// live field's snapshot. Returns false when the agent stalled.
func (a *Agent) computePlan(tick int) bool {
	replan := a.status == StatusReplanning

	cm := planner.CostModel{
		Hazard:        a.field.Snapshot(),
		RiskTolerance: a.cfg.RiskTolerance,
		DangerWeight:  a.cfg.DangerWeight,
		Knowledge:     a.knowledge,
		Shared:        a.shared,
	}
	path, err := planner.FindPath(a.g, a.pos, a.g.Target(), cm, planner.Options{
		HeuristicScale: a.cfg.HeuristicScale,
	})
	if err != nil {
		a.cause = "no path to target"
		a.transition(StatusStalled, tick, a.cause)
		return false
	}

	a.plan = path
	a.planIdx = 0
	if replan {
		a.decisions = append(a.decisions,
			fmt.Sprintf("tick %d: replanned, %d nodes (cost %.2f)", tick, path.Len(), path.Cost))
	} else {
		a.decisions = append(a.decisions,
			fmt.Sprintf("tick %d: planned, %d nodes (cost %.2f)", tick, path.Len(), path.Cost))
	}

	a.publish(events.Event{
		Type: events.EventAgentPlanComputed,
		Payload: events.PlanComputedPayload{
			AgentID:  a.id,
			Replan:   replan,
			Length:   path.Len(),
			Cost:     path.Cost,
			Distance: path.Distance,
		},
	})

	a.transition(StatusMoving, tick, "")
	return true
}

// move advances one step along the plan, applies hazard damage at the new
// position, and evaluates the replanning trigger.
func (a *Agent) move(tick int) {
	if a.pos == a.g.Target() {
		a.transition(StatusReachedTarget, tick, "")
		return
	}

	if a.steps >= a.cfg.StepBudget {
		a.cause = "step budget exhausted"
		a.transition(StatusStalled, tick, a.cause)
		return
	}

	next := a.plan.Nodes[a.planIdx+1]
	a.planIdx++
	a.steps++
	a.pos = next
	a.trail = append(a.trail, a.g.Node(next).Coord)

	intensity := a.liveIntensity(next)
	a.danger += intensity
	a.health -= intensity * a.cfg.DamagePerTick
	if a.health <= 0 {
		a.health = 0
		coord := a.g.Node(next).Coord
		a.deathPos = &coord
		a.cause = "hazard exposure"
		a.transition(StatusDead, tick, a.cause)
		return
	}

	if a.pos == a.g.Target() {
		a.transition(StatusReachedTarget, tick, "")
		return
	}

	if a.compromisedAhead(tick) {
		a.decisions = append(a.decisions,
			fmt.Sprintf("tick %d: route compromised, replanning", tick))
		a.transition(StatusReplanning, tick, "route compromised")
	}
}

// compromisedAhead samples live intensity at the current position and the
// next replanLookahead waypoints. Sightings above the threshold are shared
// with the mission; a replan triggers only when the live reading also
// exceeds what the plan assumed for that node.
func (a *Agent) compromisedAhead(tick int) bool {
	trigger := false
	for offset := 0; offset <= replanLookahead; offset++ {
		i := a.planIdx + offset
		if i >= a.plan.Len() {
			break
		}
		node := a.plan.Nodes[i]
		live := a.liveIntensity(node)
		if live <= a.cfg.ReplanThreshold {
			continue
		}

		a.board.Publish(Observation{
			AgentID:   a.id,
			Node:      node,
			Intensity: live,
			Tick:      tick,
		})
		a.publish(events.Event{
			Type: events.EventHazardObserved,
			Payload: events.HazardObservedPayload{
				AgentID:   a.id,
				NodeID:    int32(node),
				Intensity: live,
				Tick:      tick,
			},
		})

		if live > a.plan.AssumedIntensity[node] {
			trigger = true
		}
	}
	return trigger
}

func (a *Agent) liveIntensity(id building.NodeID) float64 {
	x, y, z := a.g.Position(id)
	return a.field.IntensityAt(hazard.Point{X: x, Y: y, Z: z, Level: a.g.Node(id).Coord.Level})
}

func (a *Agent) transition(to Status, tick int, cause string) {
	from := a.status
	a.status = to
	if from == to {
		return
	}
	a.publish(events.Event{
		Type: events.EventAgentStatusChanged,
		Payload: events.StatusChangedPayload{
			AgentID: a.id,
			From:    string(from),
			To:      string(to),
			Tick:    tick,
			Cause:   cause,
		},
	})
}

func (a *Agent) publish(ev events.Event) {
	if a.emit == nil {
		return
	}
	ev.MissionID = a.missionID
	ev.AgentID = a.id
	a.emit(ev)
}

// Record assembles the agent's contribution to the mission outcome.
func (a *Agent) Record() knowledge.AgentRecord {
	return knowledge.AgentRecord{
		AgentID:          a.id,
		Status:           string(a.status),
		FinalHealth:      a.health,
		CumulativeDanger: a.danger,
		Path:             append([]building.Coord(nil), a.trail...),
		DeathPosition:    a.deathPos,
		Cause:            a.cause,
		Decisions:        append([]string(nil), a.decisions...),
	}
}
