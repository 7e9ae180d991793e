// Package classifier is a small feed-forward spam classifier over padded token vectors:
// two sigmoid hidden units feeding one sigmoid output, trained by per-sample gradient
// descent on squared error.
package classifier

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const hiddenUnits = 2

// Threshold splits the output into spam (above) and ham.
const Threshold = 0.5

// Config controls New and Train.
type Config struct {
	// InputSize is the width of the input vectors. Longer vectors are truncated, shorter
	// ones zero padded.
	InputSize int
	// Epochs is the number of passes over the training set. Values below 1 mean 2000.
	Epochs int
	// LearningRate scales every update. Values <= 0 mean 0.1.
	LearningRate float64
	// Seed drives the weight initialisation.
	Seed uint64
}

// DefaultConfig returns the configuration used by the dataset command.
func DefaultConfig() Config {
	return Config{InputSize: 64, Epochs: 2000, LearningRate: 0.1, Seed: 1}
}

// Network holds the weights of the classifier.
type Network struct {
	cfg Config

	hidden     *mat.Dense    // hiddenUnits x InputSize
	hiddenBias *mat.VecDense // hiddenUnits
	output     *mat.VecDense // hiddenUnits
	outputBias float64

	// scale divides each input feature; Train sets it to the largest magnitude seen.
	scale []float64
}

// New returns an untrained network with weights drawn uniformly from [-0.5, 0.5).
func New(cfg Config) (*Network, error) {
	if cfg.InputSize < 1 {
		return nil, errors.Errorf("input size %d, need at least 1", cfg.InputSize)
	}
	if cfg.Epochs < 1 {
		cfg.Epochs = 2000
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	weight := func() float64 { return rng.Float64() - 0.5 }

	n := &Network{
		cfg:        cfg,
		hidden:     mat.NewDense(hiddenUnits, cfg.InputSize, nil),
		hiddenBias: mat.NewVecDense(hiddenUnits, nil),
		output:     mat.NewVecDense(hiddenUnits, nil),
		scale:      make([]float64, cfg.InputSize),
	}
	for i := range hiddenUnits {
		for j := range cfg.InputSize {
			n.hidden.Set(i, j, weight())
		}
		n.hiddenBias.SetVec(i, weight())
		n.output.SetVec(i, weight())
	}
	n.outputBias = weight()
	for j := range n.scale {
		n.scale[j] = 1
	}
	return n, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func sigmoidDerivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

// activations of one forward pass, kept for the backward pass.
type activations struct {
	hiddenIn  *mat.VecDense
	hiddenOut *mat.VecDense
	outputIn  float64
	predicted float64
}

func (n *Network) input(x []float32) *mat.VecDense {
	v := mat.NewVecDense(n.cfg.InputSize, nil)
	for j := range min(len(x), n.cfg.InputSize) {
		v.SetVec(j, float64(x[j])/n.scale[j])
	}
	return v
}

func (n *Network) forward(x *mat.VecDense) activations {
	a := activations{
		hiddenIn:  mat.NewVecDense(hiddenUnits, nil),
		hiddenOut: mat.NewVecDense(hiddenUnits, nil),
	}
	a.hiddenIn.MulVec(n.hidden, x)
	a.hiddenIn.AddVec(a.hiddenIn, n.hiddenBias)
	for i := range hiddenUnits {
		a.hiddenOut.SetVec(i, sigmoid(a.hiddenIn.AtVec(i)))
	}
	a.outputIn = mat.Dot(n.output, a.hiddenOut) + n.outputBias
	a.predicted = sigmoid(a.outputIn)
	return a
}

func (n *Network) backward(x *mat.VecDense, a activations, want float64) {
	rate := n.cfg.LearningRate

	dOut := 2 * (a.predicted - want) * sigmoidDerivative(a.outputIn)
	dHidden := mat.NewVecDense(hiddenUnits, nil)
	for i := range hiddenUnits {
		dHidden.SetVec(i, dOut*n.output.AtVec(i)*sigmoidDerivative(a.hiddenIn.AtVec(i)))
	}

	n.hidden.RankOne(n.hidden, -rate, dHidden, x)
	n.hiddenBias.AddScaledVec(n.hiddenBias, -rate, dHidden)
	n.output.AddScaledVec(n.output, -rate*dOut, a.hiddenOut)
	n.outputBias -= rate * dOut
}

// Train fits the network to xs with targets ys (1 for spam, 0 for ham). Features are first
// scaled by their largest magnitude in xs, and the same scale is applied by Predict.
func (n *Network) Train(ctx context.Context, xs [][]float32, ys []float64) error {
	if len(xs) != len(ys) {
		return errors.Errorf("%d inputs but %d targets", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil
	}

	for j := range n.scale {
		n.scale[j] = 1
	}
	for _, x := range xs {
		for j := range min(len(x), n.cfg.InputSize) {
			n.scale[j] = max(n.scale[j], math.Abs(float64(x[j])))
		}
	}

	inputs := make([]*mat.VecDense, len(xs))
	for i, x := range xs {
		inputs[i] = n.input(x)
	}

	for epoch := range n.cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "epoch %d", epoch)
		}
		for i, x := range inputs {
			n.backward(x, n.forward(x), ys[i])
		}
	}

	sq := make([]float64, len(inputs))
	for i, x := range inputs {
		d := n.forward(x).predicted - ys[i]
		sq[i] = d * d
	}
	slog.Info("trained classifier", "samples", len(xs), "epochs", n.cfg.Epochs, "loss", stat.Mean(sq, nil))
	return nil
}

// Predict returns the spam score of x, in (0, 1).
func (n *Network) Predict(x []float32) float64 {
	return n.forward(n.input(x)).predicted
}

// Metrics summarises predictions against known labels.
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	TP, FP, FN, TN int
}

// Evaluate scores the network on xs with targets ys, counting a prediction above Threshold
// as spam.
func (n *Network) Evaluate(xs [][]float32, ys []float64) (Metrics, error) {
	if len(xs) != len(ys) {
		return Metrics{}, errors.Errorf("%d inputs but %d targets", len(xs), len(ys))
	}

	predicted := make([]bool, len(xs))
	actual := make([]bool, len(ys))
	for i, x := range xs {
		predicted[i] = n.Predict(x) > Threshold
		actual[i] = ys[i] > Threshold
	}
	return Score(predicted, actual), nil
}

// Score builds the confusion matrix of predicted against actual. A ratio whose denominator
// is zero is reported as 0.
func Score(predicted, actual []bool) Metrics {
	var m Metrics
	hits := make([]float64, len(predicted))
	for i, p := range predicted {
		switch {
		case p && actual[i]:
			m.TP++
		case p:
			m.FP++
		case actual[i]:
			m.FN++
		default:
			m.TN++
		}
		if p == actual[i] {
			hits[i] = 1
		}
	}

	if len(hits) > 0 {
		m.Accuracy = stat.Mean(hits, nil)
	}
	m.Precision = ratio(m.TP, m.TP+m.FP)
	m.Recall = ratio(m.TP, m.TP+m.FN)
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
