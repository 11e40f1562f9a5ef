package hazard

import "math/rand"

// FireConfig tunes the spreading hazard. The numeric defaults are empirical;
// only their monotonicity matters for correctness.
type FireConfig struct {
	// InitialRadius is the seat radius in meters at t=0.
	InitialRadius float64 `yaml:"initial_radius"`
	// InitialIntensity is the seat intensity at t=0.
	InitialIntensity float64 `yaml:"initial_intensity"`
	// SpreadRate grows the radius linearly, meters per second.
	SpreadRate float64 `yaml:"spread_rate"`
	// IntensityRate grows the intensity linearly per second up to IntensityCap.
	IntensityRate float64 `yaml:"intensity_rate"`
	// IntensityCap bounds seat intensity.
	IntensityCap float64 `yaml:"intensity_cap"`
	// HeatRise boosts intensity per level index above ground (heat rises).
	HeatRise float64 `yaml:"heat_rise"`
	// SeatLevels is the number of lower levels eligible for default seat
	// placement when no hint is accepted.
	SeatLevels int `yaml:"seat_levels"`
}

// DefaultFireConfig returns the tuned defaults for the fire scenario.
func DefaultFireConfig() FireConfig {
	return FireConfig{
		InitialRadius:    2.0,
		InitialIntensity: 0.5,
		SpreadRate:       0.1,
		IntensityRate:    0.05,
		IntensityCap:     1.0,
		HeatRise:         0.15,
		SeatLevels:       3,
	}
}

// Fire is the spreading hazard: one or more seats whose radius and intensity
// grow linearly with elapsed time. Intensity at a point falls off linearly
// with distance from the nearest seat and is boosted by the point's level
// index, independent of radius.
type Fire struct {
	cfg     FireConfig
	seats   []Point
	elapsed float64
}

// NewFire creates a spreading hazard with the given seats.
// At least one seat is required; the hazard is present from t=0.
func NewFire(cfg FireConfig, seats []Point) *Fire {
	return &Fire{cfg: cfg, seats: append([]Point(nil), seats...)}
}

// DefaultSeats places one seat per eligible lower level at a random interior
// position. All randomness comes from the caller's seeded source so mission
// outcomes stay reproducible.
func DefaultSeats(cfg FireConfig, rng *rand.Rand, levels int, gridExtent, levelHeight float64) []Point {
	n := cfg.SeatLevels
	if n > levels {
		n = levels
	}
	if n < 1 {
		n = 1
	}

	lo := gridExtent * 0.25
	span := gridExtent * 0.5

	seats := make([]Point, 0, n)
	for level := 0; level < n; level++ {
		seats = append(seats, Point{
			X:     lo + rng.Float64()*span,
			Y:     lo + rng.Float64()*span,
			Z:     float64(level) * levelHeight,
			Level: level,
		})
	}
	return seats
}

// Kind returns KindFire.
func (f *Fire) Kind() Kind { return KindFire }

// Advance grows radius and intensity by dt seconds.
func (f *Fire) Advance(dt float64) {
	if dt > 0 {
		f.elapsed += dt
	}
}

// IntensityAt returns the current intensity at p in [0, 1].
func (f *Fire) IntensityAt(p Point) float64 {
	return fireIntensity(f.cfg, f.seats, f.elapsed, p)
}

// Snapshot freezes the current fire state.
func (f *Fire) Snapshot() Snapshot {
	return &fireSnapshot{
		cfg:     f.cfg,
		seats:   append([]Point(nil), f.seats...),
		elapsed: f.elapsed,
	}
}

// Seats returns a copy of the seat positions, for outcome reporting.
func (f *Fire) Seats() []Point {
	return append([]Point(nil), f.seats...)
}

type fireSnapshot struct {
	cfg     FireConfig
	seats   []Point
	elapsed float64
}

func (s *fireSnapshot) Kind() Kind { return KindFire }

func (s *fireSnapshot) IntensityAt(p Point) float64 {
	return fireIntensity(s.cfg, s.seats, s.elapsed, p)
}

// fireIntensity computes max-over-seats of the spread falloff, boosted by the
// level-dependent multiplier and clipped to [0, 1].
func fireIntensity(cfg FireConfig, seats []Point, elapsed float64, p Point) float64 {
	radius := cfg.InitialRadius + cfg.SpreadRate*elapsed
	seatIntensity := cfg.InitialIntensity + cfg.IntensityRate*elapsed
	if seatIntensity > cfg.IntensityCap {
		seatIntensity = cfg.IntensityCap
	}

	max := 0.0
	for _, seat := range seats {
		d := p.DistanceTo(seat)
		if d > radius {
			continue
		}
		base := seatIntensity * (1.0 - d/radius)
		boosted := base * (1.0 + cfg.HeatRise*float64(p.Level))
		if boosted > max {
			max = boosted
		}
	}
	return clamp01(max)
}
