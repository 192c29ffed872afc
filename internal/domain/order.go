package domain

import (
	"math/big"
	"time"

	"github.com/fly-arb/fly/internal/arb"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusFailed   OrderStatus = "failed"
)

// OrderLeg is one directed hop of an execution path.
type OrderLeg struct {
	Pool      arb.PoolID  `json:"pool"`
	Direction string      `json:"direction"`
	TokenIn   arb.TokenID `json:"token_in"`
	TokenOut  arb.TokenID `json:"token_out"`
}

// Order asks the signer process to execute a cycle: put AmountIn of the first
// leg's input token through the path, reverting unless at least MinAmountOut
// comes back. The signer owns the keys; this process never sees them.
type Order struct {
	ID           string     `json:"id"`
	Legs         []OrderLeg `json:"legs"`
	AmountIn     *big.Int   `json:"amount_in"`
	MinAmountOut *big.Int   `json:"min_amount_out"`
	Deadline     time.Time  `json:"deadline"`
	CreatedAt    time.Time  `json:"created_at"`
}

// OrderResult is the signer's response to a submitted order.
type OrderResult struct {
	OrderID string      `json:"order_id"`
	Status  OrderStatus `json:"status"`
	TxHash  string      `json:"tx_hash,omitempty"`
	Message string      `json:"message,omitempty"`
}
