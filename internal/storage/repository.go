package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertFeatureSampleSQL = `INSERT INTO feature_samples (
        batch,
        record_index,
        step,
        account_id,
        counterparty_id,
        amount,
        is_fraud,
        transfer_then_cashout
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (batch, record_index) DO UPDATE
    SET
        step                  = EXCLUDED.step,
        account_id            = EXCLUDED.account_id,
        counterparty_id       = EXCLUDED.counterparty_id,
        amount                = EXCLUDED.amount,
        is_fraud              = EXCLUDED.is_fraud,
        transfer_then_cashout = EXCLUDED.transfer_then_cashout;`

	countFeatureSamplesSQL = `SELECT COUNT(*) FROM feature_samples WHERE batch = $1;`

	upsertExplanationSQL = `INSERT INTO explanations (
        batch,
        record_index,
        risk_score,
        fraud_label,
        decision,
        drivers
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (batch, record_index) DO UPDATE
    SET risk_score  = EXCLUDED.risk_score,
        fraud_label = EXCLUDED.fraud_label,
        decision    = EXCLUDED.decision,
        drivers     = EXCLUDED.drivers;`

	listRecentExplanationsSQL = `SELECT
        id,
        batch,
        record_index,
        risk_score,
        fraud_label,
        decision,
        drivers,
        created_at
    FROM explanations
    ORDER BY risk_score DESC, created_at DESC
    LIMIT $1;`
)

// FeatureStore defines operations for feature-table persistence.
type FeatureStore interface {
	InsertFeatureSamples(ctx context.Context, samples []FeatureSample) error
	CountFeatureSamples(ctx context.Context, batch string) (int64, error)
}

// ExplanationStore defines operations for explanation persistence.
type ExplanationStore interface {
	UpsertExplanations(ctx context.Context, rows []ExplanationRow) error
	ListRecentExplanations(ctx context.Context, limit int) ([]ExplanationRow, error)
}

// Store aggregates access to feature samples and explanations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertFeatureSamples persists a feature batch inside one transaction so
// a batch lands fully or not at all.
func (s *Store) InsertFeatureSamples(ctx context.Context, samples []FeatureSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin feature insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(insertFeatureSampleSQL,
			sample.Batch,
			sample.RecordIndex,
			sample.Step,
			sample.AccountID,
			sample.CounterpartyID,
			sample.Amount.String(),
			sample.IsFraud,
			sample.TransferThenCashout,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range samples {
		if _, execErr := results.Exec(); execErr != nil {
			results.Close()
			return fmt.Errorf("insert feature sample: %w", execErr)
		}
	}
	if closeErr := results.Close(); closeErr != nil {
		return fmt.Errorf("close feature batch: %w", closeErr)
	}

	return tx.Commit(ctx)
}

// CountFeatureSamples counts stored rows for a batch.
func (s *Store) CountFeatureSamples(ctx context.Context, batchLabel string) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countFeatureSamplesSQL, batchLabel).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count feature samples: %w", scanErr)
	}
	return count, nil
}

// UpsertExplanations persists explanation records.
func (s *Store) UpsertExplanations(ctx context.Context, rows []ExplanationRow) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	for _, row := range rows {
		if _, execErr := pool.Exec(ctx, upsertExplanationSQL,
			row.Batch,
			row.RecordIndex,
			row.RiskScore,
			row.FraudLabel,
			row.Decision,
			[]byte(row.Drivers),
		); execErr != nil {
			return fmt.Errorf("upsert explanation: %w", execErr)
		}
	}
	return nil
}

// ListRecentExplanations lists stored explanations, riskiest first.
func (s *Store) ListRecentExplanations(ctx context.Context, limit int) ([]ExplanationRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentExplanationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent explanations: %w", queryErr)
	}
	defer rows.Close()

	explanations := make([]ExplanationRow, 0, limit)
	for rows.Next() {
		rec, scanErr := scanExplanation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		explanations = append(explanations, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return explanations, nil
}

func scanExplanation(rows pgx.Rows) (ExplanationRow, error) {
	var (
		rec     ExplanationRow
		drivers json.RawMessage
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.Batch,
		&rec.RecordIndex,
		&rec.RiskScore,
		&rec.FraudLabel,
		&rec.Decision,
		&drivers,
		&rec.CreatedAt,
	); err != nil {
		return ExplanationRow{}, err
	}

	rec.Drivers = drivers
	return rec, nil
}
