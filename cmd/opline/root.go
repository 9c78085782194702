package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opline",
	Short: "Opline is a toolbox for structured operation logs",
	Long: `Opline reads logs produced by the opline instrumentation library.
It decodes embedded operation messages, scans whole files, summarizes
per-operation statistics, and serves collected logs for inspection.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
