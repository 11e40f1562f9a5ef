package hazard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFire_IntensityWithinUnitInterval(t *testing.T) {
	cfg := DefaultFireConfig()
	cfg.HeatRise = 2.0 // exaggerate the level boost to hit the clip
	fire := NewFire(cfg, []Point{{X: 10, Y: 10, Z: 0, Level: 0}})

	points := []Point{
		{X: 10, Y: 10, Z: 0, Level: 0},
		{X: 10, Y: 10, Z: 9, Level: 3},
		{X: 11, Y: 10, Z: 0, Level: 0},
		{X: 0, Y: 0, Z: 0, Level: 0},
	}

	for tick := 0; tick < 200; tick++ {
		for _, p := range points {
			got := fire.IntensityAt(p)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
		fire.Advance(0.5)
	}
}

func TestFire_MonotoneOverTimeAtFixedPoint(t *testing.T) {
	cfg := DefaultFireConfig()
	fire := NewFire(cfg, []Point{{X: 10, Y: 10, Z: 0, Level: 0}})

	// Inside the initial radius from the start.
	p := Point{X: 11, Y: 10, Z: 0, Level: 0}

	prev := fire.IntensityAt(p)
	for tick := 0; tick < 500; tick++ {
		fire.Advance(0.5)
		cur := fire.IntensityAt(p)
		assert.GreaterOrEqual(t, cur, prev-1e-12,
			"spreading intensity must be monotone non-decreasing at tick %d", tick)
		prev = cur
	}
}

func TestFire_PresentBeforeFirstAdvance(t *testing.T) {
	fire := NewFire(DefaultFireConfig(), []Point{{X: 5, Y: 5, Z: 0, Level: 0}})

	assert.Greater(t, fire.IntensityAt(Point{X: 5, Y: 5, Z: 0, Level: 0}), 0.0,
		"hazard must be present from t=0")
}

func TestFire_HeatRisesWithLevel(t *testing.T) {
	cfg := DefaultFireConfig()
	fire := NewFire(cfg, []Point{{X: 10, Y: 10, Z: 0, Level: 0}})
	fire.Advance(5)

	// Same horizontal offset from the seat; higher level reads hotter as
	// long as neither value is clipped.
	low := fire.IntensityAt(Point{X: 10.5, Y: 10, Z: 0, Level: 0})
	high := fire.IntensityAt(Point{X: 10.5, Y: 10, Z: 0, Level: 2})
	require.Greater(t, low, 0.0)
	assert.Greater(t, high, low)
}

func TestFire_FalloffWithDistance(t *testing.T) {
	fire := NewFire(DefaultFireConfig(), []Point{{X: 10, Y: 10, Z: 0, Level: 0}})

	near := fire.IntensityAt(Point{X: 10.2, Y: 10, Z: 0, Level: 0})
	far := fire.IntensityAt(Point{X: 11.5, Y: 10, Z: 0, Level: 0})
	outside := fire.IntensityAt(Point{X: 19, Y: 10, Z: 0, Level: 0})

	assert.Greater(t, near, far)
	assert.Zero(t, outside)
}

func TestFire_SnapshotImmutable(t *testing.T) {
	fire := NewFire(DefaultFireConfig(), []Point{{X: 10, Y: 10, Z: 0, Level: 0}})
	fire.Advance(2)

	p := Point{X: 11, Y: 10, Z: 0, Level: 0}
	snap := fire.Snapshot()
	frozen := snap.IntensityAt(p)

	fire.Advance(50)

	assert.Equal(t, frozen, snap.IntensityAt(p), "snapshot must not track the live field")
	assert.Greater(t, fire.IntensityAt(p), frozen)
}

func TestDefaultSeats_Deterministic(t *testing.T) {
	cfg := DefaultFireConfig()

	a := DefaultSeats(cfg, rand.New(rand.NewSource(42)), 4, 20.0, 3.0)
	b := DefaultSeats(cfg, rand.New(rand.NewSource(42)), 4, 20.0, 3.0)
	require.Equal(t, a, b)

	assert.Len(t, a, 3)
	for i, seat := range a {
		assert.Equal(t, i, seat.Level, "one seat per lower level")
		assert.GreaterOrEqual(t, seat.X, 5.0)
		assert.LessOrEqual(t, seat.X, 15.0)
	}
}
