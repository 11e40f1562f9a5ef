package events

import (
	"time"

	"github.com/aparekh02/EvacuTrace/internal/types"
)

// EventType identifies the category and nature of an event.
type EventType string

// Run lifecycle events cover a whole learning run of one or more missions.
const (
	EventRunStarted       EventType = "run.started"
	EventIterationStarted EventType = "iteration.started"
	EventRunCompleted     EventType = "run.completed"
)

// Mission lifecycle events cover a single rescue attempt.
const (
	EventMissionStarted   EventType = "mission.started"
	EventMissionCompleted EventType = "mission.completed"
	EventMissionFailed    EventType = "mission.failed"
)

// Agent events track per-agent progress within a mission.
const (
	EventAgentPlanComputed  EventType = "agent.plan_computed"
	EventAgentStatusChanged EventType = "agent.status_changed"
	EventHazardObserved     EventType = "hazard.observed"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is one observability record emitted during a run. Events are
// JSON-serializable and carry enough context to filter by mission or agent.
type Event struct {
	// Type identifies the category and nature of the event
	Type EventType `json:"type"`

	// Timestamp records when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// MissionID associates the event with a mission (empty for run events)
	MissionID types.ID `json:"mission_id,omitempty"`

	// AgentID identifies which agent the event concerns (empty otherwise)
	AgentID string `json:"agent_id,omitempty"`

	// Payload contains event-specific typed data (use type assertion to access)
	Payload any `json:"payload,omitempty"`
}

// Filter defines criteria for filtering events in subscriptions.
// All filter fields use AND logic; empty fields act as wildcards.
type Filter struct {
	// Types filters by event types (empty = all types)
	Types []EventType `json:"types,omitempty"`

	// MissionID filters by mission (empty = all missions)
	MissionID types.ID `json:"mission_id,omitempty"`

	// AgentID filters by agent (empty = all agents)
	AgentID string `json:"agent_id,omitempty"`
}

// Matches determines if the given event matches this filter's criteria.
func (f *Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MissionID != "" && event.MissionID != f.MissionID {
		return false
	}

	if f.AgentID != "" && event.AgentID != f.AgentID {
		return false
	}

	return true
}

// RunStartedPayload contains data for run.started events.
type RunStartedPayload struct {
	Scenario   string `json:"scenario"`
	Iterations int    `json:"iterations"`
	Agents     int    `json:"agents"`
	Seed       int64  `json:"seed"`
}

// IterationStartedPayload contains data for iteration.started events.
type IterationStartedPayload struct {
	Scenario      string  `json:"scenario"`
	Iteration     int     `json:"iteration"`
	PriorAttempts int     `json:"prior_attempts"`
	SuccessRate   float64 `json:"success_rate"`
	RiskTolerance float64 `json:"risk_tolerance"`
}

// RunCompletedPayload contains data for run.completed events.
type RunCompletedPayload struct {
	Scenario    string        `json:"scenario"`
	Iterations  int           `json:"iterations"`
	Successes   int           `json:"successes"`
	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration"`
}

// MissionStartedPayload contains data for mission.started events.
type MissionStartedPayload struct {
	MissionID     types.ID `json:"mission_id"`
	Scenario      string   `json:"scenario"`
	HazardKind    string   `json:"hazard_kind"`
	AgentCount    int      `json:"agent_count"`
	RiskTolerance float64  `json:"risk_tolerance"`
}

// MissionCompletedPayload contains data for mission.completed events.
type MissionCompletedPayload struct {
	MissionID types.ID `json:"mission_id"`
	Ticks     int      `json:"ticks"`
	Elapsed   float64  `json:"elapsed"`
	Survivors int      `json:"survivors"`
}

// MissionFailedPayload contains data for mission.failed events.
type MissionFailedPayload struct {
	MissionID types.ID `json:"mission_id"`
	Reason    string   `json:"reason"`
	Ticks     int      `json:"ticks"`
	Deaths    int      `json:"deaths"`
}

// PlanComputedPayload contains data for agent.plan_computed events.
type PlanComputedPayload struct {
	AgentID  string  `json:"agent_id"`
	Replan   bool    `json:"replan"`
	Length   int     `json:"length"`
	Cost     float64 `json:"cost"`
	Distance float64 `json:"distance"`
}

// StatusChangedPayload contains data for agent.status_changed events.
type StatusChangedPayload struct {
	AgentID string `json:"agent_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Tick    int    `json:"tick"`
	Cause   string `json:"cause,omitempty"`
}

// HazardObservedPayload contains data for hazard.observed events.
type HazardObservedPayload struct {
	AgentID   string  `json:"agent_id"`
	NodeID    int32   `json:"node_id"`
	Intensity float64 `json:"intensity"`
	Tick      int     `json:"tick"`
}
