package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/tokenizer"
)

// EncodeHandler applies the merges of an existing lookup table to new input without
// learning anything, and prints the token IDs.
func EncodeHandler(cmd *cobra.Command, args []string) error {
	tablePath, _ := cmd.Flags().GetString("table")
	table, err := lookuptable.ReadFile(tablePath)
	if err != nil {
		return err
	}
	if n := len(table.Malformed); n > 0 {
		slog.Warn("lookup table has malformed records", "path", tablePath, "count", n)
	}

	tok, err := tokenizer.New(table.Vocabulary)
	if err != nil {
		return err
	}

	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	tokens := tok.Encode(input)
	slog.Debug("encoded input", "bytes", len(input), "tokens", len(tokens))

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, tokenizer.FormatTokens(tokens))

	if readable, _ := cmd.Flags().GetBool("readable"); readable {
		s, err := tokenizer.Readable(tok.Vocabulary(), tokens)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	}
	return nil
}

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [FILE]",
		Short: "Encode input with the merges of an existing lookup table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  EncodeHandler,
	}

	cmd.Flags().String("table", envconfig.LookupTable(), "Path of the lookup table to read")
	cmd.Flags().Bool("readable", false, "Also print the stream with merged tokens shown as [id]")
	return cmd
}
