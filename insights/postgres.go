package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bold-minds/includekit-go/internal/logging"
)

// PostgresSink durably records hit/miss/evict events for offline analysis,
// mirroring the reference system's append-only audit logger but against
// pgxpool directly rather than a PaaS-specific database wrapper. It is an
// optional ambient component: nothing in the coordinator's correctness
// depends on it, and every write is fire-and-forget from the bus's
// perspective.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgresSink ensures the audit table exists and returns a ready sink.
func NewPostgresSink(ctx context.Context, pool *pgxpool.Pool, logger *logging.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	sink := &PostgresSink{pool: pool, logger: logger}
	if err := sink.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("includekit/insights: initializing audit schema: %w", err)
	}
	return sink, nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS insights_audit (
			id UUID PRIMARY KEY,
			shape_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			dependencies JSONB,
			occurred_at TIMESTAMPTZ NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_insights_audit_occurred_at
		ON insights_audit(occurred_at DESC);

		CREATE INDEX IF NOT EXISTS idx_insights_audit_shape_id
		ON insights_audit(shape_id);

		CREATE INDEX IF NOT EXISTS idx_insights_audit_event_type
		ON insights_audit(event_type);
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

// Subscriber adapts PostgresSink to the Bus's Subscriber signature. Each
// event is inserted in its own background goroutine so a slow or
// unavailable database can never add latency to the coordinator's hot path
// — consistent with the insights bus's best-effort delivery contract.
func (s *PostgresSink) Subscriber() Subscriber {
	return func(ev Event) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.insert(ctx, ev); err != nil {
				s.logger.Warn().Err(err).Str("shapeId", string(ev.ShapeId)).Msg("insights audit insert failed")
			}
		}()
	}
}

func (s *PostgresSink) insert(ctx context.Context, ev Event) error {
	var depsJSON []byte
	if ev.DependenciesSummary != nil {
		encoded, err := json.Marshal(ev.DependenciesSummary)
		if err != nil {
			return fmt.Errorf("marshaling dependencies summary: %w", err)
		}
		depsJSON = encoded
	}

	const query = `
		INSERT INTO insights_audit (id, shape_id, event_type, dependencies, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		string(ev.ShapeId),
		string(ev.EventType),
		depsJSON,
		time.UnixMilli(ev.TimestampUnixMilli),
	)
	if err != nil {
		return fmt.Errorf("inserting audit row: %w", err)
	}
	return nil
}

// Stats aggregates insights audit rows, mirroring the reference system's
// audit stats report.
type Stats struct {
	TotalEvents int64           `json:"totalEvents"`
	ByType      map[string]int64 `json:"byType"`
}

// GetStats reports event counts since the given time, broken down by type.
func (s *PostgresSink) GetStats(ctx context.Context, since time.Time) (*Stats, error) {
	stats := &Stats{ByType: make(map[string]int64)}

	const totalQuery = `SELECT COUNT(*) FROM insights_audit WHERE occurred_at >= $1`
	if err := s.pool.QueryRow(ctx, totalQuery, since).Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("includekit/insights: counting audit rows: %w", err)
	}

	const byTypeQuery = `
		SELECT event_type, COUNT(*)
		FROM insights_audit
		WHERE occurred_at >= $1
		GROUP BY event_type
	`
	rows, err := s.pool.Query(ctx, byTypeQuery, since)
	if err != nil {
		return nil, fmt.Errorf("includekit/insights: grouping audit rows by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType string
		var count int64
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("includekit/insights: scanning audit row: %w", err)
		}
		stats.ByType[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("includekit/insights: iterating audit rows: %w", err)
	}

	return stats, nil
}

// Cleanup removes audit rows older than olderThan, mirroring the reference
// system's periodic retention sweep.
func (s *PostgresSink) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	const query = `DELETE FROM insights_audit WHERE occurred_at < $1`
	tag, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("includekit/insights: cleaning up audit rows: %w", err)
	}
	return tag.RowsAffected(), nil
}
