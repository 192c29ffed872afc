package chain

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncData(r0, r1 *big.Int) string {
	return fmt.Sprintf("0x%064x%064x", r0, r1)
}

func TestDecodeSyncLog(t *testing.T) {
	weth := new(big.Int)
	weth.SetString("123456789012345678901234567890", 10)

	lg := rpcLog{
		Address:     "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
		Topics:      []string{syncTopic.Hex()},
		Data:        syncData(weth, big.NewInt(42)),
		BlockNumber: "0x10",
		TxHash:      "0xdeadbeef",
	}

	update, err := decodeSyncLog(lg)
	require.NoError(t, err)

	assert.Equal(t, "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", update.Pool.String())
	assert.Zero(t, update.Reserve0.Cmp(weth))
	assert.Zero(t, update.Reserve1.Cmp(big.NewInt(42)))
	assert.Equal(t, uint64(16), update.BlockNumber)
	assert.Equal(t, "0xdeadbeef", update.TxHash)
	assert.False(t, update.ObservedAt.IsZero())
}

func TestDecodeSyncLogRejects(t *testing.T) {
	good := rpcLog{
		Address:     "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
		Topics:      []string{syncTopic.Hex()},
		Data:        syncData(big.NewInt(1), big.NewInt(2)),
		BlockNumber: "0x1",
	}

	tests := []struct {
		name   string
		mutate func(*rpcLog)
	}{
		{"reorged", func(lg *rpcLog) { lg.Removed = true }},
		{"wrong topic", func(lg *rpcLog) { lg.Topics = []string{"0xabc"} }},
		{"no topics", func(lg *rpcLog) { lg.Topics = nil }},
		{"bad address", func(lg *rpcLog) { lg.Address = "hello" }},
		{"short data", func(lg *rpcLog) { lg.Data = "0x1234" }},
		{"bad block number", func(lg *rpcLog) { lg.BlockNumber = "0xzz" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg := good
			tt.mutate(&lg)
			_, err := decodeSyncLog(lg)
			assert.Error(t, err)
		})
	}
}
