package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/flowstate-hq/flowstate-intents/pkg/chains"
	"github.com/flowstate-hq/flowstate-intents/pkg/health"
	"github.com/flowstate-hq/flowstate-intents/pkg/relayer"
)

func newApproveCmd(a *app) *cobra.Command {
	var operatorFlag string

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the relayer as operator of your stream NFTs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator := a.cfg.Contracts.Operator
			if operatorFlag != "" {
				if !common.IsHexAddress(operatorFlag) {
					return fmt.Errorf("invalid operator %q", operatorFlag)
				}
				operator = common.HexToAddress(operatorFlag)
			}
			if operator == (common.Address{}) {
				return fmt.Errorf("pass --operator or set RELAYER_OPERATOR_ADDRESS")
			}

			key, err := a.requireKey()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			chain, err := a.dialChain(ctx)
			if err != nil {
				return err
			}
			defer chain.Close()

			out := cmd.OutOrStdout()
			approved, err := chain.OperatorApproved(ctx, key.Address(), operator)
			if err != nil {
				return err
			}
			if approved {
				_, _ = fmt.Fprintf(out, "Operator %s is already approved for %s\n", operator.Hex(), key.Address().Hex())
				return nil
			}

			auth, err := key.Transactor(a.chainID())
			if err != nil {
				return err
			}
			receipt, err := chain.ApproveOperator(ctx, auth, operator)
			if err != nil {
				return err
			}

			txHash := receipt.TxHash.Hex()
			_, _ = fmt.Fprintf(out, "Approved operator %s in block %s: %s\n", operator.Hex(), receipt.BlockNumber, txHash)
			if link := chains.TxURL(a.cfg.ChainID, txHash); link != "" {
				_, _ = fmt.Fprintln(out, link)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&operatorFlag, "operator", "", "operator address (defaults to RELAYER_OPERATOR_ADDRESS)")
	return cmd
}

func healthDeps(a *app, chain chainAPI, rc *relayer.Client, account common.Address) health.Dependencies {
	return health.Dependencies{
		ChainID: a.cfg.ChainID,
		Chain:   chain,
		Relayer: rc,
		Breaker: rc.Breaker(),
		Account: account,
	}
}
