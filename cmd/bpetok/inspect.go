package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/tokenizer"
	"github.com/bpetok/bpetok/internal/vocab"
)

// InspectHandler lists the entries of a lookup table with their expansions.
func InspectHandler(cmd *cobra.Command, args []string) error {
	tablePath, _ := cmd.Flags().GetString("table")
	lt, err := lookuptable.ReadFile(tablePath)
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	v := lt.Vocabulary
	var data [][]string
	for i, e := range v.Entries() {
		id := vocab.TokenID(i)
		if !all && e.Kind == vocab.KindLeaf {
			continue
		}

		row := []string{strconv.FormatUint(uint64(id), 10), e.Kind.String(), "", ""}
		switch e.Kind {
		case vocab.KindPair:
			row[2] = fmt.Sprintf("%d, %d", e.Left, e.Right)
			if b, err := v.Expand(id); err != nil {
				row[3] = "error: " + err.Error()
			} else {
				row[3] = strconv.Quote(string(b))
			}
		case vocab.KindLeaf:
			row[3] = strconv.Quote(string([]byte{e.Byte}))
		}
		data = append(data, row)
	}

	table := newTable(cmd.OutOrStdout(), []string{"ID", "KIND", "CHILDREN", "EXPANSION"})
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries, %d merges, %d holes, %d malformed lines\n",
		v.Len(), v.Merges(), len(v.Holes()), len(lt.Malformed))
	for _, rerr := range lt.Malformed {
		fmt.Fprintln(cmd.OutOrStdout(), rerr)
	}
	return nil
}

// PairsHandler prints the most frequent adjacent pairs of the input bytes, or of the
// compressed stream with --compressed.
func PairsHandler(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	tokens := make([]vocab.TokenID, len(text))
	for i, b := range text {
		tokens[i] = vocab.TokenID(b)
	}
	if compressed, _ := cmd.Flags().GetBool("compressed"); compressed {
		opts, err := engineOptions(cmd)
		if err != nil {
			return err
		}
		res, err := tokenizer.RunContext(cmd.Context(), text, opts)
		if err != nil {
			return err
		}
		tokens = res.Tokens
	}

	top, _ := cmd.Flags().GetInt("top")

	var data [][]string
	for _, pc := range tokenizer.TopPairs(tokens, top) {
		data = append(data, []string{
			strconv.FormatUint(uint64(pc.Pair.Left), 10),
			strconv.FormatUint(uint64(pc.Pair.Right), 10),
			strconv.Itoa(pc.Count),
		})
	}

	table := newTable(cmd.OutOrStdout(), []string{"LEFT", "RIGHT", "COUNT"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the merges of a lookup table",
		Args:  cobra.NoArgs,
		RunE:  InspectHandler,
	}

	cmd.Flags().String("table", envconfig.LookupTable(), "Path of the lookup table to read")
	cmd.Flags().Bool("all", false, "Include the 256 byte entries")
	return cmd
}

func newPairsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs [FILE]",
		Short: "Show the most frequent adjacent pairs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  PairsHandler,
	}

	cmd.Flags().Int("top", 10, "Number of pairs to show")
	cmd.Flags().Bool("compressed", false, "Count pairs in the compressed stream instead of the raw bytes")
	addEngineFlags(cmd)
	return cmd
}
