package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/tokenizer"
)

// DecodeHandler reads token IDs from the arguments, or standard input when there are none,
// and writes the decoded bytes.
func DecodeHandler(cmd *cobra.Command, args []string) error {
	tablePath, _ := cmd.Flags().GetString("table")
	table, err := lookuptable.ReadFile(tablePath)
	if err != nil {
		return err
	}
	if n := len(table.Malformed); n > 0 {
		slog.Warn("lookup table has malformed records", "path", tablePath, "count", n)
	}

	var input string
	if len(args) > 0 {
		input = strings.Join(args, " ")
	} else {
		b, err := readInput(cmd, nil)
		if err != nil {
			return err
		}
		input = string(b)
	}

	tokens, err := tokenizer.ParseTokens(input)
	if err != nil {
		return err
	}

	out, err := tokenizer.Decode(table.Vocabulary, tokens)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [ID...]",
		Short: "Expand token IDs back into bytes",
		RunE:  DecodeHandler,
	}

	cmd.Flags().String("table", envconfig.LookupTable(), "Path of the lookup table to read")
	return cmd
}
