package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/opline/opline/internal/scan"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarize the operations in a log file",
	Long: `Aggregates every ended operation in a log file (or standard input)
into per-operation statistics and renders them as a report.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStats(cmd, args); err != nil {
			fmt.Printf("Stats failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print the statistics as JSON")
	statsCmd.Flags().Bool("raw", false, "Print plain markdown without terminal styling")
}

func runStats(cmd *cobra.Command, args []string) error {
	res, err := scanInput(args)
	if err != nil {
		return err
	}
	st := scan.Summarize(res)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	md := st.Markdown()
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		fmt.Print(md)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	rendered, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
