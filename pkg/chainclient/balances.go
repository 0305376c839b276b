package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/contracts"
	"github.com/flowstate-hq/flowstate-intents/pkg/metrics"
)

// TokenBalance returns owner's balance of token in base units. The zero
// address is the native currency.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var (
		balance *big.Int
		err     error
	)
	if token == (common.Address{}) {
		balance, err = c.Backend.BalanceAt(ctx, owner, nil)
		observe("balance", err)
	} else {
		balance, err = contracts.NewERC20(token, c.Backend).BalanceOf(callOpts(ctx, 0), owner)
		observe("balanceOf", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %v", err)
	}

	if known, ok := chains.GetToken(c.ChainIDInt(), token); ok {
		whole, _ := chains.GetStandardizedAmount(balance, c.ChainIDInt(), token)
		metrics.TokenBalance.WithLabelValues(strconv.Itoa(c.ChainIDInt()), known.Symbol).Set(whole.InexactFloat64())
	}
	return balance, nil
}
