package knowledge

import (
	"sort"

	"github.com/aparekh02/EvacuTrace/internal/building"
)

// minSiteWeight drops death sites once decay pushes them below this weight.
const minSiteWeight = 0.05

// DeathSite is one recorded death position with its decayed weight.
type DeathSite struct {
	Coord  building.Coord `json:"coord"`
	Weight float64        `json:"weight"`
}

// BestPath is one recorded successful trajectory.
type BestPath struct {
	AgentID string           `json:"agent_id"`
	Path    []building.Coord `json:"path"`
	Ticks   int              `json:"ticks"`
	Danger  float64          `json:"danger"`
}

// Summary aggregates all past mission outcomes for one scenario. It is
// append-only: Fold returns a new Summary and never mutates the receiver,
// so a summary value can be shared freely.
type Summary struct {
	Scenario       string      `json:"scenario"`
	Attempts       int         `json:"attempts"`
	Successes      int         `json:"successes"`
	Deaths         []DeathSite `json:"deaths,omitempty"`
	BestPaths      []BestPath  `json:"best_paths,omitempty"`
	SumSuccessTime float64     `json:"sum_success_time"`
	MinSuccessTime float64     `json:"min_success_time"`
	MaxSuccessTime float64     `json:"max_success_time"`
}

// NewSummary returns the neutral summary for a scenario: no attempts, no
// recorded dangers, no recorded paths.
func NewSummary(scenario string) Summary {
	return Summary{Scenario: scenario}
}

// SuccessRate returns successes/attempts, or 0 with no attempts.
func (s Summary) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// AvgSuccessTime returns the mean elapsed time of successful missions.
func (s Summary) AvgSuccessTime() float64 {
	if s.Successes == 0 {
		return 0
	}
	return s.SumSuccessTime / float64(s.Successes)
}

// Fold returns a new Summary extended with one outcome. Existing death-site
// weights decay by cfg.DecayFactor before the outcome's death positions are
// appended at full weight, so stale dangers fade as the hazard layout of
// past missions loses relevance.
func (s Summary) Fold(cfg Config, o MissionOutcome) Summary {
	next := Summary{
		Scenario:       s.Scenario,
		Attempts:       s.Attempts + 1,
		Successes:      s.Successes,
		SumSuccessTime: s.SumSuccessTime,
		MinSuccessTime: s.MinSuccessTime,
		MaxSuccessTime: s.MaxSuccessTime,
		BestPaths:      append([]BestPath(nil), s.BestPaths...),
	}

	for _, site := range s.Deaths {
		decayed := site.Weight * cfg.DecayFactor
		if decayed >= minSiteWeight {
			next.Deaths = append(next.Deaths, DeathSite{Coord: site.Coord, Weight: decayed})
		}
	}

	for _, agent := range o.Agents {
		if agent.DeathPosition != nil {
			next.Deaths = append(next.Deaths, DeathSite{Coord: *agent.DeathPosition, Weight: 1.0})
		}
	}
	if cfg.MaxDeathSites > 0 && len(next.Deaths) > cfg.MaxDeathSites {
		next.Deaths = next.Deaths[len(next.Deaths)-cfg.MaxDeathSites:]
	}

	if o.Success {
		next.Successes++
		next.SumSuccessTime += o.Elapsed
		if next.Successes == 1 || o.Elapsed < next.MinSuccessTime {
			next.MinSuccessTime = o.Elapsed
		}
		if o.Elapsed > next.MaxSuccessTime {
			next.MaxSuccessTime = o.Elapsed
		}

		for _, agent := range o.Agents {
			if agent.Status != StatusReachedTarget {
				continue
			}
			next.BestPaths = append(next.BestPaths, BestPath{
				AgentID: agent.AgentID,
				Path:    agent.Path,
				Ticks:   o.Ticks,
				Danger:  agent.CumulativeDanger,
			})
		}
		sort.SliceStable(next.BestPaths, func(i, j int) bool {
			return next.BestPaths[i].Danger < next.BestPaths[j].Danger
		})
		if cfg.MaxBestPaths > 0 && len(next.BestPaths) > cfg.MaxBestPaths {
			next.BestPaths = next.BestPaths[:cfg.MaxBestPaths]
		}
	}

	return next
}

// BestTrajectory returns the recorded successful path with the lowest
// cumulative danger, or nil when none exists.
func (s Summary) BestTrajectory() *BestPath {
	if len(s.BestPaths) == 0 {
		return nil
	}
	best := s.BestPaths[0]
	return &best
}

// PenaltyIndex precomputes the planner penalty for the summary's death
// sites over a concrete graph. It satisfies the planner's Penalizer
// contract: nodes within cfg.PenaltyRadius of a death site inherit
// cfg.PenaltyWeight times the site's decayed weight.
type PenaltyIndex struct {
	g      *building.Graph
	weight float64
	radius float64
	sites  []sitePos
}

type sitePos struct {
	x, y, z float64
	weight  float64
}

// PenaltyIndex builds the per-node penalty view of this summary for a graph.
func (s Summary) PenaltyIndex(g *building.Graph, cfg Config) *PenaltyIndex {
	idx := &PenaltyIndex{g: g, weight: cfg.PenaltyWeight, radius: cfg.PenaltyRadius}
	for _, site := range s.Deaths {
		id, ok := g.IDAt(site.Coord)
		if !ok {
			continue
		}
		x, y, z := g.Position(id)
		idx.sites = append(idx.sites, sitePos{x: x, y: y, z: z, weight: site.Weight})
	}
	return idx
}

// PenaltyAt returns the additive cost penalty for a node. The scan is
// linear in the number of sites, which is bounded by MaxDeathSites.
func (idx *PenaltyIndex) PenaltyAt(id building.NodeID) float64 {
	if len(idx.sites) == 0 {
		return 0
	}
	x, y, z := idx.g.Position(id)
	total := 0.0
	for _, site := range idx.sites {
		dx, dy, dz := x-site.x, y-site.y, z-site.z
		if dx*dx+dy*dy+dz*dz <= idx.radius*idx.radius {
			total += idx.weight * site.weight
		}
	}
	return total
}
