package chainclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// OperatorApproved reports whether operator may manage owner's streams
func (c *Client) OperatorApproved(ctx context.Context, owner, operator common.Address) (bool, error) {
	ok, err := c.flow.IsApprovedForAll(callOpts(ctx, 0), owner, operator)
	observe("isApprovedForAll", err)
	if err != nil {
		return false, fmt.Errorf("failed to check operator approval: %w", err)
	}
	return ok, nil
}

// ApproveOperator sends setApprovalForAll(operator, true) from auth and waits
// for it to be mined
func (c *Client) ApproveOperator(ctx context.Context, auth *bind.TransactOpts, operator common.Address) (*types.Receipt, error) {
	opts := *auth
	opts.Context = ctx

	tx, err := c.flow.SetApprovalForAll(&opts, operator, true)
	if err != nil {
		return nil, fmt.Errorf("failed to send approval: %w", err)
	}
	c.logger.InfoWithChain(c.ChainIDInt(), "Approval transaction sent: %s", tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, c.Backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for approval %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("approval transaction %s reverted", tx.Hash().Hex())
	}
	c.logger.InfoWithChain(c.ChainIDInt(), "Operator %s approved in block %s", operator.Hex(), receipt.BlockNumber)
	return receipt, nil
}
