package knowledge

import (
	"context"
	"sync"
)

// Store persists mission outcomes across runs.
//
// LoadSummary never fails a mission: implementations return the neutral
// summary when no data exists, and callers treat errors as a degradation to
// in-memory knowledge, not as a mission failure. Outcome writes must be
// serialized relative to each other and to subsequent reads.
type Store interface {
	// LoadSummary rebuilds the scenario summary from all persisted
	// outcomes, oldest first, so decayed death-site weights match a run
	// that folded the same outcomes in memory.
	LoadSummary(ctx context.Context, scenario string) (Summary, error)

	// AppendOutcome durably records one mission outcome.
	AppendOutcome(ctx context.Context, outcome MissionOutcome) error

	// Stats summarizes the persisted outcomes for one scenario.
	Stats(ctx context.Context, scenario string) (Stats, error)

	// Clear removes all data for a scenario.
	Clear(ctx context.Context, scenario string) error

	// Close releases the store's resources.
	Close() error
}

// Stats is the reporting view over a scenario's persisted outcomes.
type Stats struct {
	Scenario    string    `json:"scenario"`
	Total       int       `json:"total"`
	Successes   int       `json:"successes"`
	Failures    int       `json:"failures"`
	SuccessRate float64   `json:"success_rate"`
	AvgTime     float64   `json:"avg_time"`
	MinTime     float64   `json:"min_time"`
	MaxTime     float64   `json:"max_time"`
	Best        *BestPath `json:"best,omitempty"`
}

// statsFrom derives Stats from a folded summary.
func statsFrom(s Summary) Stats {
	return Stats{
		Scenario:    s.Scenario,
		Total:       s.Attempts,
		Successes:   s.Successes,
		Failures:    s.Attempts - s.Successes,
		SuccessRate: s.SuccessRate(),
		AvgTime:     s.AvgSuccessTime(),
		MinTime:     s.MinSuccessTime,
		MaxTime:     s.MaxSuccessTime,
		Best:        s.BestTrajectory(),
	}
}

// MemoryStore keeps outcomes in process memory. It backs tests and runs
// without a database path; learning still works within the run.
type MemoryStore struct {
	cfg Config

	mu       sync.Mutex
	outcomes map[string][]MissionOutcome
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:      cfg,
		outcomes: make(map[string][]MissionOutcome),
	}
}

// LoadSummary folds all recorded outcomes for the scenario in order.
func (m *MemoryStore) LoadSummary(_ context.Context, scenario string) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := NewSummary(scenario)
	for _, o := range m.outcomes[scenario] {
		summary = summary.Fold(m.cfg, o)
	}
	return summary, nil
}

// AppendOutcome records one outcome.
func (m *MemoryStore) AppendOutcome(_ context.Context, outcome MissionOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes[outcome.Scenario] = append(m.outcomes[outcome.Scenario], outcome)
	return nil
}

// Stats summarizes the recorded outcomes for one scenario.
func (m *MemoryStore) Stats(ctx context.Context, scenario string) (Stats, error) {
	summary, err := m.LoadSummary(ctx, scenario)
	if err != nil {
		return Stats{}, err
	}
	return statsFrom(summary), nil
}

// Clear removes all outcomes for a scenario.
func (m *MemoryStore) Clear(_ context.Context, scenario string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.outcomes, scenario)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
