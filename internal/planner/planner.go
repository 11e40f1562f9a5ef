// Package planner implements the cost-aware path planner: a best-first
// search over the building graph whose edge weights inflate with hazard
// intensity, persistent death-position penalties, and mission-scoped shared
// observations.
package planner

import (
	"fmt"

	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/hazard"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// Penalizer supplies an additive per-node cost penalty. The knowledge
// summary implements it for cross-mission death positions; the agent's
// observation memory implements it for mission-scoped shared sightings.
type Penalizer interface {
	PenaltyAt(id building.NodeID) float64
}

// CostModel derives the effective traversal cost of an edge at planning
// time. The hazard snapshot is sampled once per destination node; it is a
// frozen planning-time view, never the live field.
type CostModel struct {
	// Hazard is the planning-time hazard snapshot. Nil means no hazard.
	Hazard hazard.Snapshot

	// RiskTolerance in [0, 1]; higher tolerance discounts danger.
	RiskTolerance float64

	// DangerWeight scales (1 - RiskTolerance) into the hazard multiplier.
	DangerWeight float64

	// Knowledge is the persistent cross-mission death-position penalty.
	Knowledge Penalizer

	// Shared is the mission-scoped penalty from observations published by
	// other agents.
	Shared Penalizer
}

// Lambda returns the hazard weighting factor applied to intensity.
func (cm CostModel) Lambda() float64 {
	return cm.DangerWeight * (1.0 - cm.RiskTolerance)
}

// IntensityAt samples the planning-time hazard intensity at a node.
func (cm CostModel) IntensityAt(g *building.Graph, id building.NodeID) float64 {
	if cm.Hazard == nil {
		return 0
	}
	x, y, z := g.Position(id)
	return cm.Hazard.IntensityAt(hazard.Point{X: x, Y: y, Z: z, Level: g.Node(id).Coord.Level})
}

// EdgeCost returns the effective cost of traversing an edge with the given
// base distance cost into dest. The death-position penalty joins the hazard
// term before weighting, so risk tolerance discounts learned dangers the
// same way it discounts live intensity. Shared sightings stay an independent
// additive penalty. Weighting only ever increases cost, so the unweighted
// straight-line heuristic stays admissible.
func (cm CostModel) EdgeCost(g *building.Graph, base float64, dest building.NodeID) float64 {
	danger := cm.IntensityAt(g, dest)
	if cm.Knowledge != nil {
		danger += cm.Knowledge.PenaltyAt(dest)
	}
	cost := base * (1.0 + cm.Lambda()*danger)
	if cm.Shared != nil {
		cost += cm.Shared.PenaltyAt(dest)
	}
	return cost
}

// Options tunes the search.
type Options struct {
	// HeuristicScale scales the admissible unweighted heuristic down
	// (values < 1 widen exploration toward longer but safer routes).
	// Zero means 1.0.
	HeuristicScale float64
}

// Path is a planned route from start to target.
type Path struct {
	// Nodes is the ordered node list, start first, target last.
	Nodes []building.NodeID

	// Cost is the total weighted cost of the path.
	Cost float64

	// Distance is the total unweighted base distance of the path.
	Distance float64

	// AssumedIntensity records the planning-time hazard intensity per path
	// node. Agents compare live readings against these assumptions when
	// deciding whether to replan.
	AssumedIntensity map[building.NodeID]float64
}

// Len returns the number of nodes on the path.
func (p Path) Len() int { return len(p.Nodes) }

// ErrNoPath is the sentinel for an exhausted search frontier. With the
// default cost model every edge stays traversable at finite cost, so this
// occurs only when the graph has no structural route between the endpoints.
var ErrNoPath = types.NewError(types.PLAN_NO_PATH, "no path found")

// NoPathError builds a PLAN_NO_PATH error naming the endpoints.
func NoPathError(start, goal building.NodeID) error {
	return types.NewError(types.PLAN_NO_PATH,
		fmt.Sprintf("search frontier exhausted between node %d and node %d", start, goal))
}
