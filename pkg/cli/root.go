// Package cli is the flowstate command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../pkg/cli.Version=..."
var Version = "dev"

// Execute runs the command line until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(nil).ExecuteContext(ctx)
}

// newRootCmd builds the command tree. A nil app is wired from the environment.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "flowstate",
		Short:         "Schedule and submit FlowState withdrawal intents",
		Long:          "flowstate lists Sablier Flow streams and FlowState pools, builds schedules of signed withdrawal intents and hands them to the relayer.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	if a == nil {
		wired, err := wireApp()
		if err != nil {
			// commands other than version cannot run without configuration
			rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
				if cmd.Name() == "version" {
					return nil
				}
				return err
			}
		}
		a = wired
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStreamsCmd(a),
		newPoolsCmd(a),
		newScheduleCmd(a),
		newSubmitCmd(a),
		newApproveCmd(a),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(Version + "\n"))
			return err
		},
	}
}
