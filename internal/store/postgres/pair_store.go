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

// PairStore implements domain.PairStore using PostgreSQL.
type PairStore struct {
	pool *pgxpool.Pool
}

// NewPairStore creates a new PairStore backed by the given connection pool.
func NewPairStore(pool *pgxpool.Pool) *PairStore {
	return &PairStore{pool: pool}
}

const pairSelectCols = `address, factory, token0, token1,
	reserve0, reserve1, fee_bps, synced_at, created_at`

// Upsert inserts or refreshes a pair row.
func (s *PairStore) Upsert(ctx context.Context, pair domain.Pair) error {
	const query = `
		INSERT INTO pairs (address, factory, token0, token1, reserve0, reserve1, fee_bps, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			reserve0  = COALESCE(EXCLUDED.reserve0, pairs.reserve0),
			reserve1  = COALESCE(EXCLUDED.reserve1, pairs.reserve1),
			fee_bps   = EXCLUDED.fee_bps,
			synced_at = COALESCE(EXCLUDED.synced_at, pairs.synced_at)`

	_, err := s.pool.Exec(ctx, query,
		pair.ID.String(), pair.Factory.String(),
		pair.Token0.String(), pair.Token1.String(),
		bigToText(pair.Reserve0), bigToText(pair.Reserve1),
		pair.FeeBps, pair.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert pair %s: %w", pair.ID, err)
	}
	return nil
}

// UpsertBatch inserts or refreshes pairs in one round trip per batch.
func (s *PairStore) UpsertBatch(ctx context.Context, pairs []domain.Pair) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO pairs (address, factory, token0, token1, reserve0, reserve1, fee_bps, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			reserve0  = COALESCE(EXCLUDED.reserve0, pairs.reserve0),
			reserve1  = COALESCE(EXCLUDED.reserve1, pairs.reserve1),
			fee_bps   = EXCLUDED.fee_bps,
			synced_at = COALESCE(EXCLUDED.synced_at, pairs.synced_at)`
	for _, p := range pairs {
		batch.Queue(query,
			p.ID.String(), p.Factory.String(),
			p.Token0.String(), p.Token1.String(),
			bigToText(p.Reserve0), bigToText(p.Reserve1),
			p.FeeBps, p.SyncedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range pairs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert pair batch: %w", err)
		}
	}
	return nil
}

// UpdateReserves applies one reserve snapshot to an existing pair.
func (s *PairStore) UpdateReserves(ctx context.Context, update domain.ReserveUpdate) error {
	const query = `
		UPDATE pairs SET
			reserve0  = $2,
			reserve1  = $3,
			synced_at = $4
		WHERE address = $1`

	tag, err := s.pool.Exec(ctx, query,
		update.Pool.String(),
		bigToText(update.Reserve0), bigToText(update.Reserve1),
		update.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update reserves %s: %w", update.Pool, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID returns one pair.
func (s *PairStore) GetByID(ctx context.Context, id arb.PoolID) (domain.Pair, error) {
	query := `SELECT ` + pairSelectCols + ` FROM pairs WHERE address = $1`

	row := s.pool.QueryRow(ctx, query, id.String())
	pair, err := scanPair(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pair{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Pair{}, fmt.Errorf("postgres: get pair %s: %w", id, err)
	}
	return pair, nil
}

// ListByFactory returns pairs created by one factory.
func (s *PairStore) ListByFactory(ctx context.Context, factory arb.PoolID, opts domain.ListOpts) ([]domain.Pair, error) {
	query := `SELECT ` + pairSelectCols + ` FROM pairs WHERE factory = $1 ORDER BY created_at`
	args := []any{factory.String()}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.queryPairs(ctx, query, args...)
}

// ListUnsynced returns pairs that have never seen a reserve sync, oldest
// first, for the backfill pass.
func (s *PairStore) ListUnsynced(ctx context.Context, limit int) ([]domain.Pair, error) {
	query := `SELECT ` + pairSelectCols + ` FROM pairs WHERE synced_at IS NULL ORDER BY created_at`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return s.queryPairs(ctx, query, args...)
}

// ListAll returns every pair. The detector loads the full set once at startup.
func (s *PairStore) ListAll(ctx context.Context) ([]domain.Pair, error) {
	return s.queryPairs(ctx, `SELECT `+pairSelectCols+` FROM pairs ORDER BY created_at`)
}

// Count returns the number of known pairs.
func (s *PairStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pairs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count pairs: %w", err)
	}
	return n, nil
}

func (s *PairStore) queryPairs(ctx context.Context, query string, args ...any) ([]domain.Pair, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.Pair
	for rows.Next() {
		pair, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pair: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list pairs rows: %w", err)
	}
	return pairs, nil
}

func scanPair(row pgx.Row) (domain.Pair, error) {
	var (
		pair                             domain.Pair
		address, factory, token0, token1 string
		reserve0, reserve1               *string
	)
	if err := row.Scan(
		&address, &factory, &token0, &token1,
		&reserve0, &reserve1, &pair.FeeBps, &pair.SyncedAt, &pair.CreatedAt,
	); err != nil {
		return domain.Pair{}, err
	}

	var err error
	if pair.ID, err = scanPoolID(address); err != nil {
		return domain.Pair{}, err
	}
	if pair.Factory, err = scanPoolID(factory); err != nil {
		return domain.Pair{}, err
	}
	if pair.Token0, err = scanTokenID(token0); err != nil {
		return domain.Pair{}, err
	}
	if pair.Token1, err = scanTokenID(token1); err != nil {
		return domain.Pair{}, err
	}
	if pair.Reserve0, err = textToBig(reserve0); err != nil {
		return domain.Pair{}, err
	}
	if pair.Reserve1, err = textToBig(reserve1); err != nil {
		return domain.Pair{}, err
	}
	return pair, nil
}

var _ domain.PairStore = (*PairStore)(nil)
