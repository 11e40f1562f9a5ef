// Package hazard models the time-evolving danger field inside the structure.
//
// Two variants exist: a spreading fire and a patrolling attacker. Both answer
// "how dangerous is point P now" in [0, 1] and advance in fixed time steps
// driven by the mission coordinator. A hazard is already present at t=0;
// intensity before the first Advance call is defined by the initial state.
package hazard

import "math"

// Kind tags the hazard variant.
type Kind string

const (
	// KindFire is the spreading hazard.
	KindFire Kind = "fire"
	// KindPatrol is the patrolling hazard.
	KindPatrol Kind = "attacker"
)

// Point is a metric position inside the structure.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Level int     `json:"level"`
}

// DistanceTo returns the Euclidean distance to another point.
func (p Point) DistanceTo(o Point) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Field is the live, mutable hazard state owned by one mission.
type Field interface {
	// Kind returns the hazard variant.
	Kind() Kind

	// IntensityAt returns the current hazard intensity at a point in [0, 1].
	IntensityAt(p Point) float64

	// Advance steps the hazard forward by dt seconds of simulated time.
	Advance(dt float64)

	// Snapshot captures the current state as an immutable value for
	// planning-time cost queries.
	Snapshot() Snapshot
}

// Snapshot is a frozen view of the hazard at planning time. Snapshots are
// immutable and safe to share; they never change as the live field advances.
type Snapshot interface {
	Kind() Kind
	IntensityAt(p Point) float64
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
