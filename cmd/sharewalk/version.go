package main

import (
	"fmt"

	"github.com/aretw0/sharewalk"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sharewalk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sharewalk version %s\n", sharewalk.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
