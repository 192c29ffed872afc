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

// TokenStore implements domain.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a new TokenStore backed by the given connection pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Upsert inserts or refreshes a token row.
func (s *TokenStore) Upsert(ctx context.Context, token domain.Token) error {
	const query = `
		INSERT INTO tokens (address, symbol, decimals)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET
			symbol   = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals`

	_, err := s.pool.Exec(ctx, query, token.ID.String(), token.Symbol, token.Decimals)
	if err != nil {
		return fmt.Errorf("postgres: upsert token %s: %w", token.ID, err)
	}
	return nil
}

// GetByID returns one token.
func (s *TokenStore) GetByID(ctx context.Context, id arb.TokenID) (domain.Token, error) {
	const query = `SELECT address, symbol, decimals, created_at FROM tokens WHERE address = $1`

	var (
		token   domain.Token
		address string
	)
	err := s.pool.QueryRow(ctx, query, id.String()).Scan(
		&address, &token.Symbol, &token.Decimals, &token.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Token{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Token{}, fmt.Errorf("postgres: get token %s: %w", id, err)
	}
	if token.ID, err = scanTokenID(address); err != nil {
		return domain.Token{}, err
	}
	return token, nil
}

// List returns tokens ordered by first sighting.
func (s *TokenStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Token, error) {
	query := `SELECT address, symbol, decimals, created_at FROM tokens ORDER BY created_at`
	args := []any{}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var (
			token   domain.Token
			address string
		)
		if err := rows.Scan(&address, &token.Symbol, &token.Decimals, &token.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan token: %w", err)
		}
		if token.ID, err = scanTokenID(address); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tokens rows: %w", err)
	}
	return tokens, nil
}

// Count returns the number of known tokens.
func (s *TokenStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count tokens: %w", err)
	}
	return n, nil
}

var _ domain.TokenStore = (*TokenStore)(nil)
