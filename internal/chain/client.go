// Package chain talks to the Ethereum node: bootstrap reads of factory pairs
// over HTTP JSON-RPC, and a live Sync-event subscription over websocket.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fly-arb/fly/internal/arb"
)

// The minimal ABI surface of a UniswapV2-style factory and pair. Only the
// read functions the bootstrap needs.
const (
	factoryABIJSON = `[
		{"name":"allPairsLength","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
		{"name":"allPairs","type":"function","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
	]`
	pairABIJSON = `[
		{"name":"token0","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"token1","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
		{"name":"getReserves","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]}
	]`
	erc20ABIJSON = `[
		{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
		{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
	]`
)

// Client wraps an ethclient connection plus the parsed ABIs for the contract
// reads the bootstrap performs.
type Client struct {
	eth        *ethclient.Client
	factoryABI abi.ABI
	pairABI    abi.ABI
	erc20ABI   abi.ABI
}

// NewClient dials the HTTP JSON-RPC endpoint and verifies the chain id.
func NewClient(ctx context.Context, url string, wantChainID int64) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", url, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}
	if wantChainID > 0 && chainID.Int64() != wantChainID {
		eth.Close()
		return nil, fmt.Errorf("chain: connected to chain %d, want %d", chainID.Int64(), wantChainID)
	}

	factoryABI, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse factory abi: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(pairABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse pair abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse erc20 abi: %w", err)
	}

	return &Client{
		eth:        eth,
		factoryABI: factoryABI,
		pairABI:    pairABI,
		erc20ABI:   erc20ABI,
	}, nil
}

// Close shuts down the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call performs one eth_call against the latest block and unpacks the result.
func (c *Client) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s: %w", method, to.Hex(), err)
	}

	res, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return res, nil
}

// PairCount returns the number of pairs a factory has created.
func (c *Client) PairCount(ctx context.Context, factory arb.PoolID) (int64, error) {
	res, err := c.call(ctx, c.factoryABI, common.Address(factory), "allPairsLength")
	if err != nil {
		return 0, err
	}
	return res[0].(*big.Int).Int64(), nil
}

// PairAt returns the pair address at the given factory index.
func (c *Client) PairAt(ctx context.Context, factory arb.PoolID, index int64) (arb.PoolID, error) {
	res, err := c.call(ctx, c.factoryABI, common.Address(factory), "allPairs", big.NewInt(index))
	if err != nil {
		return arb.PoolID{}, err
	}
	return arb.PoolID(res[0].(common.Address)), nil
}

// PairTokens returns the pair's two token addresses.
func (c *Client) PairTokens(ctx context.Context, pair arb.PoolID) (arb.TokenID, arb.TokenID, error) {
	res0, err := c.call(ctx, c.pairABI, common.Address(pair), "token0")
	if err != nil {
		return arb.TokenID{}, arb.TokenID{}, err
	}
	res1, err := c.call(ctx, c.pairABI, common.Address(pair), "token1")
	if err != nil {
		return arb.TokenID{}, arb.TokenID{}, err
	}
	return arb.TokenID(res0[0].(common.Address)), arb.TokenID(res1[0].(common.Address)), nil
}

// Reserves returns the pair's current reserves.
func (c *Client) Reserves(ctx context.Context, pair arb.PoolID) (reserve0, reserve1 *big.Int, err error) {
	res, err := c.call(ctx, c.pairABI, common.Address(pair), "getReserves")
	if err != nil {
		return nil, nil, err
	}
	return res[0].(*big.Int), res[1].(*big.Int), nil
}

// TokenMetadata reads a token's symbol and decimals. Tokens with nonstandard
// metadata fall back to an empty symbol and 18 decimals rather than failing
// the whole bootstrap.
func (c *Client) TokenMetadata(ctx context.Context, token arb.TokenID) (symbol string, decimals uint8) {
	symbol, decimals = "", 18
	if res, err := c.call(ctx, c.erc20ABI, common.Address(token), "symbol"); err == nil {
		if s, ok := res[0].(string); ok {
			symbol = s
		}
	}
	if res, err := c.call(ctx, c.erc20ABI, common.Address(token), "decimals"); err == nil {
		if d, ok := res[0].(uint8); ok {
			decimals = d
		}
	}
	return symbol, decimals
}
