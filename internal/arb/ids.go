// Package arb is the computational core of the bot: AMM swap math, fixed-point
// log-rate arithmetic, cycle validation and quoting, bounded cycle search over
// the pool graph, and a bounded binary-search profit optimizer.
//
// Everything in this package is a synchronous, immutable value computation.
// There is no I/O, no logging, and no shared mutable state; callers may run
// searches and optimizations concurrently over shared pool snapshots without
// coordination.
package arb

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TokenID identifies an ERC-20 token by its 20-byte contract address.
// The zero value is not a valid token.
type TokenID common.Address

// ParseTokenID builds a TokenID from a hex address string.
func ParseTokenID(s string) (TokenID, error) {
	if !common.IsHexAddress(s) {
		return TokenID{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return TokenID(common.HexToAddress(s)), nil
}

// Cmp compares two token ids byte-wise, defining a total order.
func (t TokenID) Cmp(other TokenID) int {
	return bytes.Compare(t[:], other[:])
}

func (t TokenID) String() string {
	return common.Address(t).Hex()
}

// MarshalText renders the id as a checksummed hex address, which also gives
// JSON and map-key encodings a readable form.
func (t TokenID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a hex address.
func (t *TokenID) UnmarshalText(text []byte) error {
	id, err := ParseTokenID(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

// PoolID identifies a liquidity pool by its 20-byte contract address.
type PoolID common.Address

// ParsePoolID builds a PoolID from a hex address string.
func ParsePoolID(s string) (PoolID, error) {
	if !common.IsHexAddress(s) {
		return PoolID{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return PoolID(common.HexToAddress(s)), nil
}

// Cmp compares two pool ids byte-wise, defining a total order.
func (p PoolID) Cmp(other PoolID) int {
	return bytes.Compare(p[:], other[:])
}

func (p PoolID) String() string {
	return common.Address(p).Hex()
}

// MarshalText renders the id as a checksummed hex address.
func (p PoolID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a hex address.
func (p *PoolID) UnmarshalText(text []byte) error {
	id, err := ParsePoolID(string(text))
	if err != nil {
		return err
	}
	*p = id
	return nil
}
