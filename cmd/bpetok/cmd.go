package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/logutil"
	"github.com/bpetok/bpetok/internal/tokenizer"
)

func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI builds the bpetok command tree.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "bpetok",
		Short:         "Byte pair encoding compressor and lookup table tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	trainCmd := newTrainCmd()
	encodeCmd := newEncodeCmd()
	decodeCmd := newDecodeCmd()
	inspectCmd := newInspectCmd()
	pairsCmd := newPairsCmd()
	datasetCmd := newDatasetCmd()

	envVars := envconfig.AsMap()
	appendEnvDocs(trainCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_LOOKUP_TABLE"], envVars["BPE_MIN_PAIR_COUNT"], envVars["BPE_MAX_MERGES"]})
	appendEnvDocs(encodeCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_LOOKUP_TABLE"]})
	appendEnvDocs(decodeCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_LOOKUP_TABLE"]})
	appendEnvDocs(inspectCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_LOOKUP_TABLE"]})
	appendEnvDocs(pairsCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_MIN_PAIR_COUNT"], envVars["BPE_MAX_MERGES"]})
	appendEnvDocs(datasetCmd, []envconfig.EnvVar{envVars["BPE_DEBUG"], envVars["BPE_MIN_PAIR_COUNT"], envVars["BPE_MAX_MERGES"], envVars["BPE_NUM_PARALLEL"], envVars["BPE_INPUT_SIZE"]})

	rootCmd.AddCommand(
		trainCmd,
		encodeCmd,
		decodeCmd,
		inspectCmd,
		pairsCmd,
		datasetCmd,
	)

	return rootCmd
}

// readInput returns the contents of the file named by args[0], or standard input when no
// file or "-" is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("min-pair-count", int(envconfig.MinPairCount()), "Smallest pair count worth merging")
	cmd.Flags().Int("max-merges", int(envconfig.MaxMerges()), "Maximum number of merges, 0 for no limit")
}

func engineOptions(cmd *cobra.Command) (tokenizer.Options, error) {
	minCount, err := cmd.Flags().GetInt("min-pair-count")
	if err != nil {
		return tokenizer.Options{}, err
	}
	maxMerges, err := cmd.Flags().GetInt("max-merges")
	if err != nil {
		return tokenizer.Options{}, err
	}
	return tokenizer.Options{MinPairCount: minCount, MaxMerges: maxMerges}, nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}
