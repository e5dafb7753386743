package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/sharewalk/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one budgeted invocation of the walk",
	Long: `Resumes from the stored checkpoint, or starts a fresh walk when there is none,
and stops when the budget is spent or the tree is exhausted. An interrupt
suspends the walk and saves the checkpoint.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.RunOptions{Budget: app.Config.Budget}
		opts.ForceFresh, _ = cmd.Flags().GetBool("fresh")
		opts.StartPath, _ = cmd.Flags().GetString("start-path")
		if cmd.Flags().Changed("budget") {
			opts.Budget, _ = cmd.Flags().GetDuration("budget")
		}
		if !cmd.Flags().Changed("fresh") {
			opts.ForceFresh = app.Config.ForceFresh
		}
		if !cmd.Flags().Changed("start-path") {
			opts.StartPath = app.Config.StartPath
		}

		return cli.Run(ctx, app, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("fresh", false, "Discard the checkpoint and start a new walk from the root")
	runCmd.Flags().String("start-path", "", "Start a new walk at this slash-separated folder path")
	runCmd.Flags().Duration("budget", 0, "Time budget for this invocation (overrides budget)")
}
