package domain

import (
	"context"

	"github.com/fly-arb/fly/internal/arb"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// TokenStore persists token metadata.
type TokenStore interface {
	Upsert(ctx context.Context, token Token) error
	GetByID(ctx context.Context, id arb.TokenID) (Token, error)
	List(ctx context.Context, opts ListOpts) ([]Token, error)
	Count(ctx context.Context) (int64, error)
}

// FactoryStore persists the factories whose pairs the bot follows.
type FactoryStore interface {
	Upsert(ctx context.Context, factory Factory) error
	GetByID(ctx context.Context, id arb.PoolID) (Factory, error)
	List(ctx context.Context) ([]Factory, error)
}

// PairStore persists pairs and their latest reserve snapshots.
type PairStore interface {
	Upsert(ctx context.Context, pair Pair) error
	UpsertBatch(ctx context.Context, pairs []Pair) error
	UpdateReserves(ctx context.Context, update ReserveUpdate) error
	GetByID(ctx context.Context, id arb.PoolID) (Pair, error)
	ListByFactory(ctx context.Context, factory arb.PoolID, opts ListOpts) ([]Pair, error)
	ListUnsynced(ctx context.Context, limit int) ([]Pair, error)
	ListAll(ctx context.Context) ([]Pair, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	MarkExecuted(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Opportunity, error)
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}
