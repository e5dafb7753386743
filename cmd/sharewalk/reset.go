package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored checkpoint",
	Long:  `Deletes the checkpoint so the next run starts a new walk and a new output table.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if err := app.Scanner.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "checkpoint deleted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
