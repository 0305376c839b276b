package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flowstate-hq/flowstate-intents/pkg/config"
	"github.com/flowstate-hq/flowstate-intents/pkg/intents"
	"github.com/flowstate-hq/flowstate-intents/pkg/models"
	"github.com/flowstate-hq/flowstate-intents/pkg/nonce"
	"github.com/flowstate-hq/flowstate-intents/pkg/poolkey"
	"github.com/flowstate-hq/flowstate-intents/pkg/relayer"
	"github.com/flowstate-hq/flowstate-intents/pkg/schedule"
	"github.com/flowstate-hq/flowstate-intents/pkg/signer"
)

// batchFlags are the schedule parameters shared by schedule and submit
type batchFlags struct {
	stream            string
	pool              string
	strategy          string
	amount            string
	batchSize         int
	interval          uint64
	skipApprovalCheck bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.stream, "stream", "", "Sablier Flow stream id")
	cmd.Flags().StringVar(&f.pool, "pool", "", "pool id or pair, e.g. pool-eth-usdc or ETH/USDC")
	cmd.Flags().StringVar(&f.strategy, "strategy", models.StrategyLP.String(), "LP or SWAP")
	cmd.Flags().StringVar(&f.amount, "amount", "0", "amount per intent in token base units, 0 withdraws everything available")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", schedule.DefaultBatchSize, "number of intents (1-20)")
	cmd.Flags().Uint64Var(&f.interval, "interval", schedule.DefaultInterval, "blocks between intents")
	cmd.Flags().BoolVar(&f.skipApprovalCheck, "skip-approval-check", false, "do not check the relayer operator approval")
	_ = cmd.MarkFlagRequired("stream")
	_ = cmd.MarkFlagRequired("pool")
}

func (f *batchFlags) request(a *app) (intents.PlanRequest, config.Pool, error) {
	streamID, err := parseStreamID(f.stream)
	if err != nil {
		return intents.PlanRequest{}, config.Pool{}, err
	}

	pool, ok := config.FindPool(config.CuratedPools(a.cfg.ChainID, a.cfg.Contracts.Hook), f.pool)
	if !ok {
		return intents.PlanRequest{}, config.Pool{}, fmt.Errorf("%w: unknown pool %q, see `flowstate pools`", models.ErrInvalidSchedule, f.pool)
	}

	strategy, err := models.ParseStrategy(f.strategy)
	if err != nil {
		return intents.PlanRequest{}, config.Pool{}, err
	}

	amount, ok := new(big.Int).SetString(strings.TrimSpace(f.amount), 10)
	if !ok || amount.Sign() < 0 {
		return intents.PlanRequest{}, config.Pool{}, fmt.Errorf("%w: invalid amount %q", models.ErrInvalidSchedule, f.amount)
	}

	return intents.PlanRequest{
		ScheduleRequest: models.ScheduleRequest{
			StreamID:  streamID,
			Pool:      pool.Key,
			Strategy:  strategy,
			BatchSize: f.batchSize,
			Interval:  f.interval,
			Amount:    amount,
		},
		SkipApprovalCheck: f.skipApprovalCheck,
	}, pool, nil
}

func (a *app) newService(chain chainAPI, rc *relayer.Client) (*intents.Service, error) {
	source, err := a.newSource(rc)
	if err != nil {
		return nil, err
	}
	allocator := nonce.NewAllocator(source, a.ledger, a.logger)
	return intents.NewService(chain, allocator, rc, intents.Deployment{
		Hook:     a.cfg.Contracts.Hook,
		Operator: a.cfg.Contracts.Operator,
	}, a.logger), nil
}

func newScheduleCmd(a *app) *cobra.Command {
	var flags batchFlags
	var account string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Preview a batch of intents without signing or submitting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, pool, err := flags.request(a)
			if err != nil {
				return err
			}
			req.Preview = true

			user, err := a.account(account)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			chain, err := a.dialChain(ctx)
			if err != nil {
				return err
			}
			defer chain.Close()

			svc, err := a.newService(chain, a.newRelayer())
			if err != nil {
				return err
			}
			plan, err := svc.Plan(ctx, intents.WatchSession(a.chainID(), user), req)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan, pool)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&account, "account", "", "recipient address (defaults to the configured key)")
	return cmd
}

func newSubmitCmd(a *app) *cobra.Command {
	var flags batchFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Sign a batch of intents and hand them to the relayer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, pool, err := flags.request(a)
			if err != nil {
				return err
			}

			key, err := a.requireKey()
			if err != nil {
				return err
			}
			var s signer.Signer = key
			if !yes {
				s = signer.NewPromptSigner(key, cmd.InOrStdin(), cmd.ErrOrStderr())
			}

			ctx := cmd.Context()
			chain, err := a.dialChain(ctx)
			if err != nil {
				return err
			}
			defer chain.Close()

			rc := a.newRelayer()
			a.startHealth(ctx, healthDeps(a, chain, rc, key.Address()))

			svc, err := a.newService(chain, rc)
			if err != nil {
				return err
			}
			plan, err := svc.Plan(ctx, intents.NewSession(a.chainID(), s), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := writePlan(out, plan, pool); err != nil {
				return err
			}

			result, err := svc.Execute(ctx, plan)
			if err != nil {
				return err
			}
			writeResult(out, result)
			if !result.Success() {
				return fmt.Errorf("batch incomplete: %s", result.Summary())
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "sign without asking for confirmation of each intent")
	return cmd
}

func writePlan(out io.Writer, plan *intents.Plan, pool config.Pool) error {
	stream := plan.Snapshot.Stream
	mode := "submit"
	if plan.Preview {
		mode = "preview, nonces are assigned on submit"
	}
	_, _ = fmt.Fprintf(out, "Stream %s (%s withdrawable %s) into %s %s, strategy %s\n",
		stream.ID, stream.Token.Symbol, stream.FormattedWithdrawable(), pool.Pair,
		poolkey.Hash(plan.Request.Pool).Hex(), plan.Request.Strategy)
	_, _ = fmt.Fprintf(out, "Current block %d, %d intents (%s)\n", plan.Snapshot.CurrentBlock, len(plan.Intents), mode)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tMIN BLOCK\tMAX BLOCK\tNONCE\tDIGEST")
	for i, in := range plan.Intents {
		digest, err := signer.Digest(in, plan.Domain)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", i+1, in.MinBlock, in.MaxBlock, in.Nonce, digest.Hex())
	}
	return w.Flush()
}

func writeResult(out io.Writer, result models.BatchResult) {
	for _, item := range result.Failed() {
		_, _ = fmt.Fprintf(out, "Intent %d (nonce %d, blocks %d-%d) failed at %s: %v\n",
			item.Index+1, item.Intent.Nonce, item.Intent.MinBlock, item.Intent.MaxBlock, item.Stage, item.Err)
	}
	_, _ = fmt.Fprintln(out, result.Summary())
	if n := len(result.Failed()); n > 0 && result.Succeeded > 0 {
		_, _ = fmt.Fprintf(out, "Run submit again with --batch-size %d to reschedule the failed intents with fresh nonces\n", n)
	}
}
