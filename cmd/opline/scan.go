package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opline/opline/internal/scan"
	"github.com/opline/opline/pkg/collector"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan a log file for operation messages",
	Long: `Reads a log file (or standard input) line by line, decodes every
embedded operation message, and prints the records matching the filter
as JSON, one per line. A scan summary goes to standard error.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScan(cmd, args); err != nil {
			fmt.Printf("Scan failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("category", "", "Keep only this category")
	scanCmd.Flags().String("op", "", "Keep only this operation name")
	scanCmd.Flags().Bool("failed", false, "Keep only failed operations")
	scanCmd.Flags().Bool("slow", false, "Keep only operations over their time limit")
	scanCmd.Flags().Duration("min-duration", 0, "Keep only operations at least this long")
	scanCmd.Flags().Int("limit", 0, "Stop after this many matches (0 = no limit)")
}

func runScan(cmd *cobra.Command, args []string) error {
	res, err := scanInput(args)
	if err != nil {
		return err
	}

	var f collector.Filter
	f.Category, _ = cmd.Flags().GetString("category")
	f.Op, _ = cmd.Flags().GetString("op")
	f.FailedOnly, _ = cmd.Flags().GetBool("failed")
	f.SlowOnly, _ = cmd.Flags().GetBool("slow")
	f.MinDuration, _ = cmd.Flags().GetDuration("min-duration")
	limit, _ := cmd.Flags().GetInt("limit")

	enc := json.NewEncoder(os.Stdout)
	matched := 0
	for _, ln := range res.Lines {
		if !f.Matches(ln.Record) {
			continue
		}
		if limit > 0 && matched == limit {
			break
		}
		matched++
		if err := enc.Encode(ln.Record); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "scanned %d lines: %d messages, %d broken, %d matched\n",
		res.Scanned, len(res.Lines), len(res.Broken), matched)
	return nil
}

// scanInput reads the named file, or standard input for "-" or no argument.
func scanInput(args []string) (*scan.Result, error) {
	if len(args) > 0 && args[0] != "-" {
		return scan.File(args[0])
	}
	return scan.Reader(os.Stdin)
}
