package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bpetok/bpetok/internal/classifier"
	"github.com/bpetok/bpetok/internal/dataset"
	"github.com/bpetok/bpetok/internal/envconfig"
)

// DatasetHandler loads a labelled message file, splits it, balances the training set when
// needed, trains the spam classifier on it and reports how it scores on the held-out sets.
func DatasetHandler(cmd *cobra.Command, args []string) error {
	opts, err := engineOptions(cmd)
	if err != nil {
		return err
	}
	delim, _ := cmd.Flags().GetString("delimiter")
	parallel, _ := cmd.Flags().GetInt("parallel")
	inputSize, _ := cmd.Flags().GetInt("input-size")
	seed, _ := cmd.Flags().GetUint64("seed")
	topN, _ := cmd.Flags().GetInt("features")
	epochs, _ := cmd.Flags().GetInt("epochs")
	rate, _ := cmd.Flags().GetFloat64("learning-rate")

	d, err := dataset.LoadFile(cmd.Context(), args[0], dataset.Options{
		Delimiter: delim,
		Parallel:  parallel,
		Engine:    opts,
	})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	p, err := d.Split(rng, 0.7, 0.2, 0.1)
	if err != nil {
		return err
	}

	balanced := false
	if dataset.IsImbalanced(p.Train, dataset.DefaultImbalanceThreshold) {
		p.Train = dataset.BalanceSMOTE(p.Train, rng)
		balanced = true
	}

	w := cmd.OutOrStdout()

	var data [][]string
	for _, set := range []struct {
		name    string
		records []dataset.Record
	}{
		{"train", p.Train},
		{"test", p.Test},
		{"valid", p.Valid},
	} {
		ham, spam := dataset.ClassCounts(set.records)
		data = append(data, []string{set.name, strconv.Itoa(len(set.records)), strconv.Itoa(ham), strconv.Itoa(spam)})
	}

	table := newTable(w, []string{"SET", "RECORDS", "HAM", "SPAM"})
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(w, "\nrecords: %d, vocabulary size: %d, input size: %d, balanced: %t\n\n",
		len(d.Records), dataset.VocabularySize(d.Records), inputSize, balanced)

	data = data[:0]
	for _, fs := range dataset.SelectFeaturesChiSquare(p.Train, topN) {
		data = append(data, []string{strconv.FormatUint(uint64(fs.Token), 10), strconv.FormatFloat(fs.Score, 'f', 3, 64)})
	}

	table = newTable(w, []string{"TOKEN", "CHI2"})
	table.AppendBulk(data)
	table.Render()

	if len(p.Train) > 0 {
		fmt.Fprintf(w, "\nfirst training vector (%s): %v\n", p.Train[0].Label, dataset.PadOrTruncate(p.Train[0].Tokens, inputSize))
	}

	net, err := classifier.New(classifier.Config{
		InputSize:    inputSize,
		Epochs:       epochs,
		LearningRate: rate,
		Seed:         seed,
	})
	if err != nil {
		return err
	}
	xs, ys := dataset.Vectors(p.Train, inputSize)
	if err := net.Train(cmd.Context(), xs, ys); err != nil {
		return err
	}

	data = data[:0]
	for _, set := range []struct {
		name    string
		records []dataset.Record
	}{
		{"test", p.Test},
		{"valid", p.Valid},
	} {
		xs, ys := dataset.Vectors(set.records, inputSize)
		m, err := net.Evaluate(xs, ys)
		if err != nil {
			return err
		}
		data = append(data, []string{
			set.name,
			percent(m.Accuracy),
			strconv.FormatFloat(m.Precision, 'f', 3, 64),
			strconv.FormatFloat(m.Recall, 'f', 3, 64),
			strconv.FormatFloat(m.F1, 'f', 3, 64),
			strconv.Itoa(m.TP), strconv.Itoa(m.FP), strconv.Itoa(m.FN), strconv.Itoa(m.TN),
		})
	}

	fmt.Fprintln(w)
	table = newTable(w, []string{"SET", "ACCURACY", "PRECISION", "RECALL", "F1", "TP", "FP", "FN", "TN"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

func percent(f float64) string {
	return strconv.FormatFloat(100*f, 'f', 2, 64) + "%"
}

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset FILE",
		Short: "Encode a labelled message file and prepare it for training",
		Long:  "Encode each \"label<TAB>text\" line of FILE independently, split the records 70/20/10, balance the training set with synthetic spam when it is skewed, rank tokens by chi-square and train a spam classifier on the padded vectors.",
		Args:  cobra.ExactArgs(1),
		RunE:  DatasetHandler,
	}

	cmd.Flags().String("delimiter", "\t", "Separator between label and text")
	cmd.Flags().Int("parallel", int(envconfig.NumParallel()), "Records encoded in parallel")
	cmd.Flags().Int("input-size", int(envconfig.InputSize()), "Width of the padded feature vectors")
	cmd.Flags().Uint64("seed", 1, "Seed for shuffling and balancing")
	cmd.Flags().Int("features", 10, "Number of chi-square features to show")
	cmd.Flags().Int("epochs", classifier.DefaultConfig().Epochs, "Classifier training epochs")
	cmd.Flags().Float64("learning-rate", classifier.DefaultConfig().LearningRate, "Classifier learning rate")
	addEngineFlags(cmd)
	return cmd
}
