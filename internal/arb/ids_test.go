package arb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenID(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "checksummed address", input: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
		{name: "lowercase address", input: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"},
		{name: "no 0x prefix", input: "c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "not hex", input: "0xzz2aaa39b223fe8d0a0e5c4f27ead9083c756cc2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseTokenID(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", id.String())
		})
	}
}

func TestParsePoolID(t *testing.T) {
	_, err := ParsePoolID("not an address")
	require.ErrorIs(t, err, ErrInvalidAddress)

	id, err := ParsePoolID("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	require.NoError(t, err)
	assert.Equal(t, "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", id.String())
}

func TestIDOrdering(t *testing.T) {
	a, b := tok("A"), tok("B")
	assert.Negative(t, a.Cmp(b))
	assert.Positive(t, b.Cmp(a))
	assert.Zero(t, a.Cmp(a))

	// Ids are comparable and usable as map keys.
	m := map[TokenID]int{a: 1, b: 2}
	assert.Equal(t, 1, m[tok("A")])
}

func TestSwapIDOrdering(t *testing.T) {
	fwd := SwapID{Pool: pid("P1"), Direction: ZeroForOne}
	rev := SwapID{Pool: pid("P1"), Direction: OneForZero}
	other := SwapID{Pool: pid("P2"), Direction: ZeroForOne}

	assert.Zero(t, fwd.Cmp(fwd))
	assert.Negative(t, fwd.Cmp(rev), "same pool: forward sorts before reverse")
	assert.Negative(t, fwd.Cmp(other), "pool bytes dominate direction")
	assert.Positive(t, other.Cmp(rev))
}
