package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fly-arb/fly/internal/arb"
	"github.com/fly-arb/fly/internal/domain"
)

// FactoryStore implements domain.FactoryStore using PostgreSQL.
type FactoryStore struct {
	pool *pgxpool.Pool
}

// NewFactoryStore creates a new FactoryStore backed by the given connection pool.
func NewFactoryStore(pool *pgxpool.Pool) *FactoryStore {
	return &FactoryStore{pool: pool}
}

// Upsert inserts or refreshes a factory row.
func (s *FactoryStore) Upsert(ctx context.Context, factory domain.Factory) error {
	const query = `
		INSERT INTO factories (address, name, fee_bps, pair_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE SET
			name       = EXCLUDED.name,
			fee_bps    = EXCLUDED.fee_bps,
			pair_count = EXCLUDED.pair_count`

	_, err := s.pool.Exec(ctx, query,
		factory.ID.String(), factory.Name, factory.FeeBps, factory.PairCount,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert factory %s: %w", factory.ID, err)
	}
	return nil
}

// GetByID returns one factory.
func (s *FactoryStore) GetByID(ctx context.Context, id arb.PoolID) (domain.Factory, error) {
	const query = `SELECT address, name, fee_bps, pair_count, created_at FROM factories WHERE address = $1`

	var (
		factory domain.Factory
		address string
	)
	err := s.pool.QueryRow(ctx, query, id.String()).Scan(
		&address, &factory.Name, &factory.FeeBps, &factory.PairCount, &factory.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Factory{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Factory{}, fmt.Errorf("postgres: get factory %s: %w", id, err)
	}
	if factory.ID, err = scanPoolID(address); err != nil {
		return domain.Factory{}, err
	}
	return factory, nil
}

// List returns every tracked factory.
func (s *FactoryStore) List(ctx context.Context) ([]domain.Factory, error) {
	const query = `SELECT address, name, fee_bps, pair_count, created_at FROM factories ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list factories: %w", err)
	}
	defer rows.Close()

	var factories []domain.Factory
	for rows.Next() {
		var (
			factory domain.Factory
			address string
		)
		if err := rows.Scan(&address, &factory.Name, &factory.FeeBps, &factory.PairCount, &factory.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan factory: %w", err)
		}
		if factory.ID, err = scanPoolID(address); err != nil {
			return nil, err
		}
		factories = append(factories, factory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list factories rows: %w", err)
	}
	return factories, nil
}

var _ domain.FactoryStore = (*FactoryStore)(nil)
