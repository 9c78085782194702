package main

import (
	"fmt"
	"strings"

	"github.com/opline/opline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of opline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("opline version %s\n", strings.TrimSpace(opline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
