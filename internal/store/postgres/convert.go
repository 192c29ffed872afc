package postgres

import (
	"fmt"
	"math/big"

	"github.com/fly-arb/fly/internal/arb"
)

// Reserves and amounts are stored as decimal TEXT columns: 256-bit values
// overflow every native Postgres integer type and pgx round-trips NUMERIC
// less predictably than a plain string.

func bigToText(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

func textToBig(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("postgres: malformed big integer %q", *s)
	}
	return v, nil
}

func scanTokenID(s string) (arb.TokenID, error) {
	id, err := arb.ParseTokenID(s)
	if err != nil {
		return arb.TokenID{}, fmt.Errorf("postgres: token address: %w", err)
	}
	return id, nil
}

func scanPoolID(s string) (arb.PoolID, error) {
	id, err := arb.ParsePoolID(s)
	if err != nil {
		return arb.PoolID{}, fmt.Errorf("postgres: pool address: %w", err)
	}
	return id, nil
}
