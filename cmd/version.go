package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/clvecsum/internal/compute/opencl"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "clvecsum version %s (opencl: %t)\n", version, opencl.Available())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
