package arb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when an identifier is constructed from a
	// malformed hex address string.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrSameTokenSwap is returned when a swap's input and output tokens are
	// identical.
	ErrSameTokenSwap = errors.New("swap input and output tokens are the same")

	// ErrInconsistentReserves is returned when exactly one of the two reserve
	// values is supplied, or when a supplied reserve is not positive.
	ErrInconsistentReserves = errors.New("inconsistent reserves")

	// ErrMissingReserves is returned when a rate or amount calculation is
	// requested on a bare swap (one constructed without reserves).
	ErrMissingReserves = errors.New("swap has no reserves")

	// ErrTooFewSwaps is returned when a cycle is built from fewer than two
	// swaps.
	ErrTooFewSwaps = errors.New("cycle must have at least 2 swaps")

	// ErrDuplicateSwap is returned when the same pool-direction swap appears
	// more than once in a cycle.
	ErrDuplicateSwap = errors.New("cycle contains duplicate swaps")

	// ErrNonConvergence is returned by Optimize when the iteration cap is
	// reached before the search interval shrinks below the precision
	// threshold. It is non-fatal: the cycle is simply left unoptimized,
	// exactly as if no profitable amount existed.
	ErrNonConvergence = errors.New("optimization did not converge")
)

// TokenMismatchError reports a broken token chain in a cycle: the output
// token of the swap at Index does not match the input token of its successor.
type TokenMismatchError struct {
	Index    int
	Expected TokenID
	Actual   TokenID
}

func (e *TokenMismatchError) Error() string {
	return fmt.Sprintf("swap %d output token %s does not match next swap input token %s",
		e.Index, e.Expected, e.Actual)
}
