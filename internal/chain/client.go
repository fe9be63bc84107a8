package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC and provides helper methods. The raw rpc
// client is kept next to ethclient for debug namespace calls.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// CallFrame is one frame of the callTracer output. Value is a hex quantity;
// for create frames To holds the created contract's address.
type CallFrame struct {
	Type  string      `json:"type"`
	From  string      `json:"from"`
	To    string      `json:"to,omitempty"`
	Value string      `json:"value,omitempty"`
	Error string      `json:"error,omitempty"`
	Calls []CallFrame `json:"calls,omitempty"`
}

// TxTrace pairs a transaction hash with its root call frame.
type TxTrace struct {
	TxHash string    `json:"txHash"`
	Result CallFrame `json:"result"`
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockByNumber returns the block by number, including its transactions.
func (c *Client) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	return c.ethClient.BlockByNumber(ctx, number)
}

// TraceBlockByNumber runs the call tracer over every transaction in a block.
// Requires a node with the debug namespace enabled.
func (c *Client) TraceBlockByNumber(ctx context.Context, number uint64) ([]TxTrace, error) {
	var traces []TxTrace
	err := c.rpcClient.CallContext(ctx, &traces, "debug_traceBlockByNumber",
		hexutil.EncodeUint64(number),
		map[string]interface{}{"tracer": "callTracer"},
	)
	if err != nil {
		return nil, fmt.Errorf("trace block %d: %w", number, err)
	}
	return traces, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
