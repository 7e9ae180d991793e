package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/tokenizer"
)

// TrainHandler compresses the input, writes the lookup table and prints the token stream.
func TrainHandler(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	opts, err := engineOptions(cmd)
	if err != nil {
		return err
	}

	res, err := tokenizer.RunContext(cmd.Context(), text, opts)
	if err != nil {
		return err
	}

	tablePath, _ := cmd.Flags().GetString("table")
	if err := lookuptable.WriteFile(tablePath, res.Vocabulary); err != nil {
		return err
	}
	slog.Info("wrote lookup table", "path", tablePath, "entries", res.Vocabulary.Len(), "merges", res.Merges, "stop", res.Stop)

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, tokenizer.FormatTokens(res.Tokens))

	if readable, _ := cmd.Flags().GetBool("readable"); readable {
		s, err := tokenizer.Readable(res.Vocabulary, res.Tokens)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats && len(text) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d bytes -> %d tokens (%.2f%%), %d merges, stopped: %s\n",
			len(text), len(res.Tokens), 100*float64(len(res.Tokens))/float64(len(text)), res.Merges, res.Stop)
	}

	return nil
}

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train [FILE]",
		Short: "Compress a file and write its lookup table",
		Long:  "Compress FILE (or standard input) by repeatedly merging the most frequent pair of adjacent tokens. The merge table is written to the lookup table and the token IDs to standard output.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  TrainHandler,
	}

	cmd.Flags().String("table", envconfig.LookupTable(), "Path of the lookup table to write")
	cmd.Flags().Bool("readable", false, "Also print the stream with merged tokens shown as [id]")
	cmd.Flags().Bool("stats", false, "Print compression statistics to standard error")
	addEngineFlags(cmd)
	return cmd
}
