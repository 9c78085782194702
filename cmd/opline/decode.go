package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/opline/opline/pkg/record"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [line]",
	Short: "Decode one log line into its operation record",
	Long: `Extracts the encoded operation message embedded in a log line and
prints the decoded record as JSON. The line comes from the argument or,
when omitted, from the first line of standard input.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDecode(cmd, args); err != nil {
			fmt.Printf("Decode failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().Bool("strict", false, "Fail on unknown property keys instead of skipping them")
}

func runDecode(cmd *cobra.Command, args []string) error {
	var line string
	if len(args) > 0 {
		line = args[0]
	} else {
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return fmt.Errorf("no input")
		}
		line = sc.Text()
	}
	line = strings.TrimRight(line, "\r\n")

	strict, _ := cmd.Flags().GetBool("strict")
	var opts []record.DecodeOption
	if !strict {
		opts = append(opts, record.Tolerant())
	}

	rec, family, err := record.DecodeAny(line, opts...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(struct {
		Family string         `json:"family"`
		Record *record.Record `json:"record"`
	}{string(family), rec}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
