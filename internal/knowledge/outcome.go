// Package knowledge turns recorded mission outcomes into adjusted planning
// costs for future attempts. The Summary is the process-wide, append-only
// aggregate of all past outcomes; the Store persists outcomes across runs.
package knowledge

import (
	"time"

	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// MissionOutcome is the immutable record of one rescue attempt.
type MissionOutcome struct {
	MissionID     types.ID      `json:"mission_id"`
	Scenario      string        `json:"scenario"`
	HazardKind    string        `json:"hazard_kind"`
	Success       bool          `json:"success"`
	Ticks         int           `json:"ticks"`
	Elapsed       float64       `json:"elapsed"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Agents        []AgentRecord `json:"agents"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Agent terminal status values as persisted in outcome records. They match
// the agent package's status strings.
const (
	StatusReachedTarget = "reached_target"
	StatusDead          = "dead"
	StatusStalled       = "stalled"
)

// AgentRecord is one agent's trajectory within a mission outcome.
type AgentRecord struct {
	AgentID          string           `json:"agent_id"`
	Status           string           `json:"status"`
	FinalHealth      float64          `json:"final_health"`
	CumulativeDanger float64          `json:"cumulative_danger"`
	Path             []building.Coord `json:"path"`
	DeathPosition    *building.Coord  `json:"death_position,omitempty"`
	Cause            string           `json:"cause,omitempty"`
	Decisions        []string         `json:"decisions,omitempty"`
}

// Config tunes how outcomes fold into the summary and how death positions
// penalize future planning.
type Config struct {
	// Path is the SQLite database file; empty runs in-memory only.
	Path string `yaml:"path"`
	// DecayFactor multiplies existing death-site weights on every fold.
	DecayFactor float64 `yaml:"decay_factor"`
	// PenaltyWeight scales a death site's decayed weight into path cost.
	PenaltyWeight float64 `yaml:"penalty_weight"`
	// PenaltyRadius is the metric radius around a death site that inherits
	// its penalty.
	PenaltyRadius float64 `yaml:"penalty_radius"`
	// MaxDeathSites caps the recorded death sites, keeping the most recent.
	MaxDeathSites int `yaml:"max_death_sites"`
	// MaxBestPaths caps the recorded successful paths, keeping the least
	// dangerous.
	MaxBestPaths int `yaml:"max_best_paths"`
}

// DefaultConfig returns the tuned knowledge defaults.
func DefaultConfig() Config {
	return Config{
		DecayFactor:   0.9,
		PenaltyWeight: 2.0,
		PenaltyRadius: 2.0,
		MaxDeathSites: 50,
		MaxBestPaths:  10,
	}
}
