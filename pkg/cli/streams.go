package cli

import (
	"fmt"
	"math/big"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

func newStreamsCmd(a *app) *cobra.Command {
	var account string
	var streamID string

	cmd := &cobra.Command{
		Use:   "streams",
		Short: "List Sablier Flow streams paying an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			chain, err := a.dialChain(ctx)
			if err != nil {
				return err
			}
			defer chain.Close()

			var streams []*models.Stream
			if streamID != "" {
				id, err := parseStreamID(streamID)
				if err != nil {
					return err
				}
				stream, err := chain.Stream(ctx, id)
				if err != nil {
					return err
				}
				streams = append(streams, stream)
			} else {
				user, err := a.account(account)
				if err != nil {
					return err
				}
				streams, err = chain.FindStreams(ctx, user)
				if err != nil {
					return err
				}
				if len(streams) == 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No streams found for %s\n", user.Hex())
					return nil
				}
			}

			return writeStreams(cmd, streams)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "recipient address (defaults to the configured key)")
	cmd.Flags().StringVar(&streamID, "id", "", "show a single stream")
	return cmd
}

func writeStreams(cmd *cobra.Command, streams []*models.Stream) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTOKEN\tBALANCE\tWITHDRAWABLE\tRATE/MONTH\tSTATUS\tSENDER")
	for _, s := range streams {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Token.Symbol, s.FormattedBalance(), s.FormattedWithdrawable(),
			s.MonthlyRate(), s.Status.Label(), s.Sender.Hex())
	}
	return w.Flush()
}

func parseStreamID(value string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(value, 10)
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("%w: invalid stream id %q", models.ErrInvalidSchedule, value)
	}
	return id, nil
}
