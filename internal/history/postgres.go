package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore keeps the sample window in a usage_samples table, one row
// per day. Append upserts today's row and trims the window in a single
// transaction, so the stateless-runtime deployments share the same
// contract as the file backend.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxSamples int
	logger     *zap.Logger
}

// NewPostgresStore creates a postgres-backed store bounded to maxSamples
// rows.
func NewPostgresStore(pool *pgxpool.Pool, maxSamples int, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		pool:       pool,
		maxSamples: maxSamples,
		logger:     logger,
	}
}

// EnsureSchema creates the usage_samples table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usage_samples (
			recorded_on    DATE PRIMARY KEY,
			resource_count BIGINT NOT NULL CHECK (resource_count >= 0),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: ensuring schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Load reads the full window ordered ascending by date.
func (p *PostgresStore) Load(ctx context.Context) ([]Sample, error) {
	query := `
		SELECT recorded_on, resource_count
		FROM usage_samples
		ORDER BY recorded_on ASC
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying samples: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var recordedOn time.Time
		var value int64
		if err := rows.Scan(&recordedOn, &value); err != nil {
			return nil, fmt.Errorf("%w: scanning sample: %v", ErrCorrupt, err)
		}
		samples = append(samples, Sample{
			Date:  recordedOn.Format(DateFormat),
			Value: value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %v", ErrUnavailable, err)
	}

	return normalize(samples, p.maxSamples), nil
}

// Append upserts the sample's row, evicts rows beyond the window bound and
// returns the updated window. Upsert and trim run in one transaction.
func (p *PostgresStore) Append(ctx context.Context, sample Sample) ([]Sample, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	recordedOn, _ := time.Parse(DateFormat, sample.Date)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO usage_samples (recorded_on, resource_count, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (recorded_on)
		DO UPDATE SET resource_count = EXCLUDED.resource_count, updated_at = now()
	`
	if _, err := tx.Exec(ctx, upsert, recordedOn, sample.Value); err != nil {
		return nil, fmt.Errorf("%w: upserting sample: %v", ErrUnavailable, err)
	}

	if p.maxSamples > 0 {
		trim := `
			DELETE FROM usage_samples
			WHERE recorded_on NOT IN (
				SELECT recorded_on FROM usage_samples
				ORDER BY recorded_on DESC
				LIMIT $1
			)
		`
		if _, err := tx.Exec(ctx, trim, p.maxSamples); err != nil {
			return nil, fmt.Errorf("%w: trimming window: %v", ErrUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing transaction: %v", ErrUnavailable, err)
	}

	p.logger.Debug("history persisted",
		zap.String("date", sample.Date),
		zap.Int64("value", sample.Value),
	)

	return p.Load(ctx)
}
