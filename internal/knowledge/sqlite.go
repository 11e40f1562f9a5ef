package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aparekh02/EvacuTrace/internal/building"
	"github.com/aparekh02/EvacuTrace/internal/types"
)

// migrations are applied in order; schema_migrations records the current
// version.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		hazard_kind TEXT NOT NULL,
		success INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		elapsed REAL NOT NULL,
		failure_reason TEXT,
		num_agents INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_missions_scenario ON missions(scenario, created_at);

	CREATE TABLE IF NOT EXISTS trajectories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id TEXT NOT NULL REFERENCES missions(id) ON DELETE CASCADE,
		agent_id TEXT NOT NULL,
		status TEXT NOT NULL,
		final_health REAL NOT NULL,
		cumulative_danger REAL NOT NULL,
		path TEXT NOT NULL,
		death_x INTEGER,
		death_y INTEGER,
		death_level INTEGER,
		cause TEXT,
		decisions TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_trajectories_mission ON trajectories(mission_id);`,
}

// SQLiteStore persists outcomes in a single SQLite file. A store-level
// mutex serializes appends relative to each other and to summary reads, so
// concurrent missions never interleave partial writes.
type SQLiteStore struct {
	cfg  Config
	conn *sql.DB
	path string

	mu sync.Mutex
}

// OpenSQLite opens (or creates) the store at cfg.Path with WAL journaling
// and foreign keys enabled, and applies pending migrations.
func OpenSQLite(cfg Config) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.Path)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to open knowledge store", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to ping knowledge store", err)
	}

	store := &SQLiteStore{cfg: cfg, conn: conn, path: cfg.Path}
	if err := store.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return types.WrapError(types.STORE_MIGRATION_FAILED, "failed to create migrations table", err)
	}

	var current int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return types.WrapError(types.STORE_MIGRATION_FAILED, "failed to read schema version", err)
	}

	for v := current; v < len(migrations); v++ {
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, v+1)
			return err
		}); err != nil {
			return types.WrapError(types.STORE_MIGRATION_FAILED,
				fmt.Sprintf("migration %d failed", v+1), err)
		}
	}
	return nil
}

// withTx executes fn within a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// AppendOutcome writes the mission row and all agent trajectories in one
// transaction.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, o MissionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.MissionID.IsZero() {
		o.MissionID = types.NewID()
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO missions (id, scenario, hazard_kind, success, ticks, elapsed, failure_reason, num_agents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.MissionID, o.Scenario, o.HazardKind, boolToInt(o.Success),
			o.Ticks, o.Elapsed, o.FailureReason, len(o.Agents), createdAt,
		); err != nil {
			return err
		}

		for _, agent := range o.Agents {
			pathJSON, err := json.Marshal(agent.Path)
			if err != nil {
				return fmt.Errorf("failed to marshal path: %w", err)
			}
			decisionsJSON, err := json.Marshal(agent.Decisions)
			if err != nil {
				return fmt.Errorf("failed to marshal decisions: %w", err)
			}

			var deathX, deathY, deathLevel sql.NullInt64
			if agent.DeathPosition != nil {
				deathX = sql.NullInt64{Int64: int64(agent.DeathPosition.X), Valid: true}
				deathY = sql.NullInt64{Int64: int64(agent.DeathPosition.Y), Valid: true}
				deathLevel = sql.NullInt64{Int64: int64(agent.DeathPosition.Level), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO trajectories (mission_id, agent_id, status, final_health, cumulative_danger, path, death_x, death_y, death_level, cause, decisions)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				o.MissionID, agent.AgentID, agent.Status, agent.FinalHealth,
				agent.CumulativeDanger, string(pathJSON), deathX, deathY, deathLevel,
				agent.Cause, string(decisionsJSON),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.WrapError(types.STORE_QUERY_FAILED, "failed to append outcome", err)
	}
	return nil
}

// LoadSummary replays all persisted outcomes for the scenario, oldest
// first, through the same fold used in memory. A fresh process therefore
// reconstructs exactly the summary a long-lived process would hold.
func (s *SQLiteStore) LoadSummary(ctx context.Context, scenario string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes, err := s.loadOutcomes(ctx, scenario)
	if err != nil {
		return NewSummary(scenario), err
	}

	summary := NewSummary(scenario)
	for _, o := range outcomes {
		summary = summary.Fold(s.cfg, o)
	}
	return summary, nil
}

func (s *SQLiteStore) loadOutcomes(ctx context.Context, scenario string) ([]MissionOutcome, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, scenario, hazard_kind, success, ticks, elapsed, failure_reason, created_at
		FROM missions
		WHERE scenario = ?
		ORDER BY created_at, rowid`, scenario)
	if err != nil {
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to query missions", err)
	}
	defer rows.Close()

	var outcomes []MissionOutcome
	for rows.Next() {
		var o MissionOutcome
		var success int
		var failureReason sql.NullString
		if err := rows.Scan(&o.MissionID, &o.Scenario, &o.HazardKind, &success,
			&o.Ticks, &o.Elapsed, &failureReason, &o.CreatedAt); err != nil {
			return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to scan mission", err)
		}
		o.Success = success != 0
		o.FailureReason = failureReason.String
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to iterate missions", err)
	}

	for i := range outcomes {
		agents, err := s.loadTrajectories(ctx, outcomes[i].MissionID)
		if err != nil {
			return nil, err
		}
		outcomes[i].Agents = agents
	}
	return outcomes, nil
}

func (s *SQLiteStore) loadTrajectories(ctx context.Context, missionID types.ID) ([]AgentRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT agent_id, status, final_health, cumulative_danger, path, death_x, death_y, death_level, cause, decisions
		FROM trajectories
		WHERE mission_id = ?
		ORDER BY id`, missionID)
	if err != nil {
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to query trajectories", err)
	}
	defer rows.Close()

	var agents []AgentRecord
	for rows.Next() {
		var a AgentRecord
		var pathJSON, decisionsJSON string
		var deathX, deathY, deathLevel sql.NullInt64
		var cause sql.NullString
		if err := rows.Scan(&a.AgentID, &a.Status, &a.FinalHealth, &a.CumulativeDanger,
			&pathJSON, &deathX, &deathY, &deathLevel, &cause, &decisionsJSON); err != nil {
			return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to scan trajectory", err)
		}

		if err := json.Unmarshal([]byte(pathJSON), &a.Path); err != nil {
			return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to unmarshal path", err)
		}
		if decisionsJSON != "" {
			if err := json.Unmarshal([]byte(decisionsJSON), &a.Decisions); err != nil {
				return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to unmarshal decisions", err)
			}
		}
		if deathX.Valid {
			a.DeathPosition = &building.Coord{
				X:     int(deathX.Int64),
				Y:     int(deathY.Int64),
				Level: int(deathLevel.Int64),
			}
		}
		a.Cause = cause.String
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Stats summarizes the persisted outcomes for one scenario.
func (s *SQLiteStore) Stats(ctx context.Context, scenario string) (Stats, error) {
	summary, err := s.LoadSummary(ctx, scenario)
	if err != nil {
		return Stats{}, err
	}
	return statsFrom(summary), nil
}

// Clear removes all data for a scenario.
func (s *SQLiteStore) Clear(ctx context.Context, scenario string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Trajectories cascade from missions.
	_, err := s.conn.ExecContext(ctx, `DELETE FROM missions WHERE scenario = ?`, scenario)
	if err != nil {
		return types.WrapError(types.STORE_QUERY_FAILED, "failed to clear scenario", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
