package domain

import (
	"context"

	"github.com/fly-arb/fly/internal/arb"
)

// ReserveCache holds the hot reserve snapshot per pool for fast rehydration
// after a restart.
type ReserveCache interface {
	Set(ctx context.Context, update ReserveUpdate) error
	Get(ctx context.Context, pool arb.PoolID) (ReserveUpdate, error)
	Invalidate(ctx context.Context, pool arb.PoolID) error
}

// SignalBus carries reserve updates from the chain subscriber to the
// detector, decoupling ingestion from search.
type SignalBus interface {
	PublishUpdate(ctx context.Context, update ReserveUpdate) error
	SubscribeUpdates(ctx context.Context) (<-chan ReserveUpdate, error)
}

// OrderSink submits execution orders to the privileged signer process. The
// sink reports acceptance, not settlement; the signer broadcasts on its own.
type OrderSink interface {
	Submit(ctx context.Context, order Order) (OrderResult, error)
	Close() error
}
