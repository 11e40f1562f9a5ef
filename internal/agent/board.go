package agent

import (
	"sync"

	"github.com/aparekh02/EvacuTrace/internal/building"
)

// Observation is one shared hazard sighting: an agent saw the given live
// intensity at a node on the given tick.
type Observation struct {
	AgentID   string          `json:"agent_id"`
	Node      building.NodeID `json:"node"`
	Intensity float64         `json:"intensity"`
	Tick      int             `json:"tick"`
}

// Board is the mission-scoped knowledge-sharing channel. Agents publish
// sightings during their step; the coordinator flushes the board to every
// agent once per tick, before any agent plans, which keeps the tick
// ordering deterministic. The board lives and dies with one mission.
type Board struct {
	mu      sync.Mutex
	pending []Observation
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Publish queues one observation for the next flush.
func (b *Board) Publish(o Observation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, o)
}

// Flush returns all queued observations in publish order and clears the
// board.
func (b *Board) Flush() []Observation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// sharedMemory is an agent's accumulated view of other agents' sightings.
// It penalizes observed nodes in planning cost, keeping the highest
// intensity seen per node.
type sharedMemory struct {
	weight    float64
	intensity map[building.NodeID]float64
}

func newSharedMemory(weight float64) *sharedMemory {
	return &sharedMemory{
		weight:    weight,
		intensity: make(map[building.NodeID]float64),
	}
}

func (m *sharedMemory) absorb(o Observation) {
	if o.Intensity > m.intensity[o.Node] {
		m.intensity[o.Node] = o.Intensity
	}
}

// PenaltyAt satisfies the planner's Penalizer contract.
func (m *sharedMemory) PenaltyAt(id building.NodeID) float64 {
	return m.weight * m.intensity[id]
}
