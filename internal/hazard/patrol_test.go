package hazard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPatrol() *Patrol {
	return NewPatrol(DefaultPatrolConfig(), 20.0, 3.0, 10.0, 10.0)
}

func TestPatrol_PositionDeterministicInElapsedTime(t *testing.T) {
	a := newTestPatrol()
	b := newTestPatrol()

	for i := 0; i < 100; i++ {
		a.Advance(0.5)
		b.Advance(0.5)
		assert.Equal(t, a.Position(), b.Position())
	}
}

func TestPatrol_StartsAtFirstWaypoint(t *testing.T) {
	p := newTestPatrol()
	pos := p.Position()

	assert.InDelta(t, 5.0, pos.X, 1e-9)
	assert.InDelta(t, 5.0, pos.Y, 1e-9)
	assert.Equal(t, 2, pos.Level)
}

func TestPatrol_ConstantSpeedAlongFirstLeg(t *testing.T) {
	p := newTestPatrol()
	p.Advance(2.0) // 3 meters at speed 1.5 along the first leg (+X)

	pos := p.Position()
	assert.InDelta(t, 8.0, pos.X, 1e-9)
	assert.InDelta(t, 5.0, pos.Y, 1e-9)
}

func TestPatrol_WrapsAtRouteEnd(t *testing.T) {
	p := newTestPatrol()

	start := p.Position()
	// Advance by exactly one full cycle.
	total := p.total
	p.Advance(total / p.cfg.Speed)

	wrapped := p.Position()
	assert.InDelta(t, start.X, wrapped.X, 1e-6)
	assert.InDelta(t, start.Y, wrapped.Y, 1e-6)
	assert.Equal(t, start.Level, wrapped.Level)
}

func TestPatrol_RestrictedToConfiguredLevels(t *testing.T) {
	p := newTestPatrol()

	for i := 0; i < 500; i++ {
		p.Advance(0.7)
		pos := p.Position()
		assert.Contains(t, []int{2, 3}, pos.Level)
	}
}

func TestPatrol_IntensityBinaryWithinRadius(t *testing.T) {
	p := newTestPatrol()
	pos := p.Position()

	inside := Point{X: pos.X + 1, Y: pos.Y, Z: pos.Z, Level: pos.Level}
	boundary := Point{X: pos.X + p.cfg.DangerRadius, Y: pos.Y, Z: pos.Z, Level: pos.Level}
	outside := Point{X: pos.X + p.cfg.DangerRadius + 0.1, Y: pos.Y, Z: pos.Z, Level: pos.Level}

	assert.Equal(t, 1.0, p.IntensityAt(inside))
	assert.Equal(t, 1.0, p.IntensityAt(boundary))
	assert.Zero(t, p.IntensityAt(outside))
}

func TestPatrol_ZeroIntensityBeyondRadiusDuringTransit(t *testing.T) {
	// An agent crossing the patrolled levels takes zero damage whenever the
	// patrol is more than the danger radius away.
	p := newTestPatrol()

	for i := 0; i < 300; i++ {
		p.Advance(0.5)
		pos := p.Position()

		transit := Point{X: 10, Y: 10, Z: pos.Z, Level: pos.Level}
		if transit.DistanceTo(pos) > p.cfg.DangerRadius {
			assert.Zero(t, p.IntensityAt(transit))
		}
	}
}

func TestPatrol_SnapshotFrozen(t *testing.T) {
	p := newTestPatrol()
	p.Advance(3)

	snap := p.Snapshot()
	pos := p.Position()
	at := Point{X: pos.X, Y: pos.Y, Z: pos.Z, Level: pos.Level}
	require.Equal(t, 1.0, snap.IntensityAt(at))

	// Move the live patrol far away; the snapshot must still see danger at
	// the old position.
	p.Advance(8)
	assert.Equal(t, 1.0, snap.IntensityAt(at))
}
