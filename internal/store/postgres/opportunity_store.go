package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fly-arb/fly/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `id, trigger_pool, path, log_rate,
	best_amount_in, max_profit, profit_margin, block_number, executed, detected_at`

// Insert stores a new opportunity record.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, trigger_pool, path, log_rate,
			best_amount_in, max_profit, profit_margin, block_number, executed, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	path, err := json.Marshal(opp.Path)
	if err != nil {
		return fmt.Errorf("postgres: marshal opportunity path: %w", err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.TriggerPool.String(), path, opp.LogRate,
		bigToText(opp.BestAmountIn), bigToText(opp.MaxProfit),
		opp.ProfitMargin, opp.BlockNumber, opp.Executed, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// MarkExecuted sets the executed flag and timestamp for one opportunity.
func (s *OpportunityStore) MarkExecuted(ctx context.Context, id string) error {
	const query = `
		UPDATE opportunities SET
			executed    = TRUE,
			executed_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres: mark opportunity executed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID returns one opportunity.
func (s *OpportunityStore) GetByID(ctx context.Context, id string) (domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities WHERE id = $1`

	opp, err := scanOpportunity(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("postgres: get opportunity %s: %w", id, err)
	}
	return opp, nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var (
		opp                 domain.Opportunity
		trigger             string
		path                []byte
		amountIn, maxProfit *string
	)
	if err := row.Scan(
		&opp.ID, &trigger, &path, &opp.LogRate,
		&amountIn, &maxProfit, &opp.ProfitMargin, &opp.BlockNumber, &opp.Executed, &opp.DetectedAt,
	); err != nil {
		return domain.Opportunity{}, err
	}

	var err error
	if opp.TriggerPool, err = scanPoolID(trigger); err != nil {
		return domain.Opportunity{}, err
	}
	if err = json.Unmarshal(path, &opp.Path); err != nil {
		return domain.Opportunity{}, fmt.Errorf("unmarshal path: %w", err)
	}
	if opp.BestAmountIn, err = textToBig(amountIn); err != nil {
		return domain.Opportunity{}, err
	}
	if opp.MaxProfit, err = textToBig(maxProfit); err != nil {
		return domain.Opportunity{}, err
	}
	return opp, nil
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
