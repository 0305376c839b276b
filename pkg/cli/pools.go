package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flowstate-hq/flowstate-intents/pkg/config"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
)

func newPoolsCmd(a *app) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List the FlowState pools and their live state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pools := config.CuratedPools(a.cfg.ChainID, a.cfg.Contracts.Hook)
			if len(pools) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No curated pools on %s\n", a.cfg.Network)
				return nil
			}

			states := make([]*models.PoolState, len(pools))
			if !offline {
				chain, err := a.dialChain(cmd.Context())
				if err != nil {
					return err
				}
				defer chain.Close()

				for i, p := range pools {
					state, err := chain.PoolState(cmd.Context(), p.Key)
					if err != nil {
						a.logger.Debug("Pool %s not initialized or unreadable: %v", p.Pair, err)
						continue
					}
					states[i] = state
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tPAIR\tFEE\tPRICE\tTVL\tRISK\tPOOL ID")
			for i, p := range pools {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Pair, config.FormatFeeTier(p.Key.Fee),
					config.FormatPoolPrice(a.cfg.ChainID, states[i]), config.FormatPoolTVL(states[i]),
					config.PoolRisk(p, states[i]), poolkey.Hash(p.Key).Hex())
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "skip reading pool state from chain")
	return cmd
}
