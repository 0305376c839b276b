package chainclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/flowstate-hq/flowstate-intents/pkg/contracts"
	"github.com/flowstate-hq/flowstate-intents/pkg/logger"
	"github.com/flowstate-hq/flowstate-intents/pkg/metrics"
)

// Backend is what the client needs from an RPC connection. *ethclient.Client
// and the simulated backend client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Addresses of the contracts the client reads
type Addresses struct {
	SablierFlow common.Address
	StateView   common.Address
}

// Client contains the connection and contract bindings for one chain
type Client struct {
	ChainID   *big.Int
	RPCURL    string
	Backend   Backend
	Addresses Addresses

	flow      *contracts.SablierFlow
	stateView *contracts.StateView
	symbols   *symbolCache
	logger    logger.Logger
	closer    func()
}

// Dial connects to rpcURL and binds the contracts
func Dial(ctx context.Context, rpcURL string, addrs Addresses, log logger.Logger) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to client: %v", err)
	}
	c, err := New(ctx, rpc, addrs, log)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	c.RPCURL = rpcURL
	c.closer = rpc.Close
	return c, nil
}

// New wraps an existing backend
func New(ctx context.Context, backend Backend, addrs Addresses, log logger.Logger) (*Client, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %v", err)
	}
	return &Client{
		ChainID:   chainID,
		Backend:   backend,
		Addresses: addrs,
		flow:      contracts.NewSablierFlow(addrs.SablierFlow, backend),
		stateView: contracts.NewStateView(addrs.StateView, backend),
		symbols:   newSymbolCache(DefaultSymbolTTL),
		logger:    log,
	}, nil
}

// Close releases the RPC connection if the client owns it
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// ChainIDInt is the chain id as used for log prefixes and metric labels
func (c *Client) ChainIDInt() int {
	return int(c.ChainID.Int64())
}

// BlockNumber gets the latest block number from the chain
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.Backend.BlockNumber(ctx)
	observe("blockNumber", err)
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	return n, nil
}

func callOpts(ctx context.Context, block uint64) *bind.CallOpts {
	opts := &bind.CallOpts{Context: ctx}
	if block > 0 {
		opts.BlockNumber = new(big.Int).SetUint64(block)
	}
	return opts
}

func observe(call string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ChainReads.WithLabelValues(call, status).Inc()
}
