package arb

import "math/big"

// Portfolio maps token ids to available balances. It is used as the balance
// cap when optimizing a cycle: a trade can never put in more of the start
// token than the portfolio holds.
type Portfolio struct {
	holdings map[TokenID]*big.Int
}

// NewPortfolio builds a portfolio from the given holdings.
func NewPortfolio(holdings map[TokenID]*big.Int) Portfolio {
	return Portfolio{holdings: holdings}
}

// Balance returns the balance held for the token, or false when the token is
// not in the portfolio.
func (p Portfolio) Balance(token TokenID) (*big.Int, bool) {
	b, ok := p.holdings[token]
	return b, ok
}

// Tokens returns the set of tokens with a holding.
func (p Portfolio) Tokens() []TokenID {
	out := make([]TokenID, 0, len(p.holdings))
	for t := range p.holdings {
		out = append(out, t)
	}
	return out
}
