package hazard

// PatrolConfig tunes the patrolling hazard.
type PatrolConfig struct {
	// LowerLevel and UpperLevel bound the patrol to two levels.
	LowerLevel int `yaml:"lower_level"`
	UpperLevel int `yaml:"upper_level"`
	// Speed is the patrol movement speed in meters per second.
	Speed float64 `yaml:"speed"`
	// DangerRadius is the lethal radius around the patrol position.
	DangerRadius float64 `yaml:"danger_radius"`
	// Margin insets the patrol corners from the grid edge, in meters.
	Margin float64 `yaml:"margin"`
}

// DefaultPatrolConfig returns the tuned defaults for the attacker scenario:
// a patrol restricted to the top two levels of the default structure.
func DefaultPatrolConfig() PatrolConfig {
	return PatrolConfig{
		LowerLevel:   2,
		UpperLevel:   3,
		Speed:        1.5,
		DangerRadius: 3.0,
		Margin:       5.0,
	}
}

// Patrol is the patrolling hazard: a fixed cyclic waypoint route across two
// levels, walked at constant speed. Position is a pure function of elapsed
// time; intensity is 1 within DangerRadius of the current position, else 0.
type Patrol struct {
	cfg     PatrolConfig
	route   []Point
	legLen  []float64
	total   float64
	elapsed float64
}

// NewPatrol builds the cyclic route: the four inset corners of the lower
// level, the stairway center up to the upper level, the four corners there,
// and the stairway center back down.
func NewPatrol(cfg PatrolConfig, gridExtent, levelHeight float64, stairX, stairY float64) *Patrol {
	lo := cfg.Margin
	hi := gridExtent - cfg.Margin
	zl := float64(cfg.LowerLevel) * levelHeight
	zu := float64(cfg.UpperLevel) * levelHeight

	route := []Point{
		{X: lo, Y: lo, Z: zl, Level: cfg.LowerLevel},
		{X: hi, Y: lo, Z: zl, Level: cfg.LowerLevel},
		{X: hi, Y: hi, Z: zl, Level: cfg.LowerLevel},
		{X: lo, Y: hi, Z: zl, Level: cfg.LowerLevel},
		{X: stairX, Y: stairY, Z: zu, Level: cfg.UpperLevel},
		{X: lo, Y: lo, Z: zu, Level: cfg.UpperLevel},
		{X: hi, Y: lo, Z: zu, Level: cfg.UpperLevel},
		{X: hi, Y: hi, Z: zu, Level: cfg.UpperLevel},
		{X: lo, Y: hi, Z: zu, Level: cfg.UpperLevel},
		{X: stairX, Y: stairY, Z: zl, Level: cfg.LowerLevel},
	}

	p := &Patrol{cfg: cfg, route: route}
	p.legLen = make([]float64, len(route))
	for i := range route {
		next := route[(i+1)%len(route)]
		p.legLen[i] = route[i].DistanceTo(next)
		p.total += p.legLen[i]
	}
	return p
}

// Kind returns KindPatrol.
func (p *Patrol) Kind() Kind { return KindPatrol }

// Advance moves the patrol forward by dt seconds.
func (p *Patrol) Advance(dt float64) {
	if dt > 0 {
		p.elapsed += dt
	}
}

// Position returns the patrol's current position on its route.
func (p *Patrol) Position() Point {
	return p.positionAt(p.elapsed)
}

// positionAt interpolates along the cyclic route at constant speed, wrapping
// at the route end.
func (p *Patrol) positionAt(elapsed float64) Point {
	if p.total == 0 {
		return p.route[0]
	}

	travelled := elapsed * p.cfg.Speed
	for travelled >= p.total {
		travelled -= p.total
	}

	for i, leg := range p.legLen {
		if travelled > leg {
			travelled -= leg
			continue
		}
		from := p.route[i]
		to := p.route[(i+1)%len(p.route)]
		if leg == 0 {
			return from
		}
		t := travelled / leg

		pos := Point{
			X: from.X + (to.X-from.X)*t,
			Y: from.Y + (to.Y-from.Y)*t,
			Z: from.Z + (to.Z-from.Z)*t,
		}
		// The patrol occupies the destination level once it is past the
		// midpoint of a stair leg.
		if t < 0.5 {
			pos.Level = from.Level
		} else {
			pos.Level = to.Level
		}
		return pos
	}
	return p.route[0]
}

// IntensityAt returns 1 within DangerRadius of the patrol position, else 0.
func (p *Patrol) IntensityAt(pt Point) float64 {
	return patrolIntensity(p.positionAt(p.elapsed), p.cfg.DangerRadius, pt)
}

// Snapshot freezes the patrol's current position.
func (p *Patrol) Snapshot() Snapshot {
	return &patrolSnapshot{pos: p.positionAt(p.elapsed), radius: p.cfg.DangerRadius}
}

type patrolSnapshot struct {
	pos    Point
	radius float64
}

func (s *patrolSnapshot) Kind() Kind { return KindPatrol }

func (s *patrolSnapshot) IntensityAt(pt Point) float64 {
	return patrolIntensity(s.pos, s.radius, pt)
}

func patrolIntensity(pos Point, radius float64, pt Point) float64 {
	if pt.DistanceTo(pos) <= radius {
		return 1.0
	}
	return 0.0
}
