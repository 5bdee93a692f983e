package trainer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"softmax-forge/internal/dataset"
	"softmax-forge/internal/gradcheck"
	"softmax-forge/internal/metrics"
	"softmax-forge/internal/model"
)

var quiet = log.New(io.Discard, "", 0)

func toySplit() *dataset.Split {
	labels := []int{0, 1}
	return &dataset.Split{
		X: mat.NewDense(2, 2, []float64{
			0.5, -1.0,
			1.5, 2.0,
		}),
		Y:      dataset.OneHot(labels, 2),
		Labels: labels,
	}
}

// clusteredSplit draws n examples around one centre per class.
func clusteredSplit(rng *rand.Rand, k, d, n int) *dataset.Split {
	x := mat.NewDense(d, n, nil)
	labels := make([]int, n)
	for j := 0; j < n; j++ {
		l := j % k
		labels[j] = l
		for i := 0; i < d; i++ {
			centre := 0.0
			if i%k == l {
				centre = 1
			}
			x.Set(i, j, centre+rng.NormFloat64()*0.1)
		}
	}
	return &dataset.Split{X: x, Y: dataset.OneHot(labels, k), Labels: labels}
}

func TestRunSingleStepMatchesReference(t *testing.T) {
	split := toySplit()
	clf := model.FromParams(
		mat.NewDense(2, 2, []float64{0.1, -0.2, 0.3, 0.05}),
		mat.NewVecDense(2, []float64{0.01, -0.02}),
		model.Options{},
	)

	res, err := Run(context.Background(), RunConfig{
		Train:        split,
		Valid:        split,
		Test:         split,
		Lambda:       0,
		LearningRate: 0.1,
		BatchSize:    2,
		Epochs:       1,
		Seed:         400,
		Classifier:   clf,
		Logger:       quiet,
	})
	require.NoError(t, err)

	W := res.Classifier.Weights()
	assert.InDelta(t, 0.13688159934243543, W.At(0, 0), 1e-12)
	assert.InDelta(t, -0.19758197573133018, W.At(0, 1), 1e-12)
	assert.InDelta(t, 0.2631184006575646, W.At(1, 0), 1e-12)
	assert.InDelta(t, 0.04758197573133019, W.At(1, 1), 1e-12)
	assert.InDelta(t, 0.01882713442968898, res.Classifier.Bias().AtVec(0), 1e-12)
	assert.InDelta(t, -0.02882713442968897, res.Classifier.Bias().AtVec(1), 1e-12)

	require.Equal(t, 1, res.Curves.Len())
	assert.InDelta(t, 0.7251953232807713, res.Curves.Train[0], 1e-12)
	assert.InDelta(t, 0.7251953232807713, res.Curves.Valid[0], 1e-12)
	assert.GreaterOrEqual(t, res.TestAccuracy, 0.0)
	assert.LessOrEqual(t, res.TestAccuracy, 1.0)
}

func TestRunSeededIsReproducible(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	train := clusteredSplit(rng, 3, 6, 30)
	valid := clusteredSplit(rng, 3, 6, 12)

	cfg := RunConfig{
		Train:        train,
		Valid:        valid,
		Test:         valid,
		Lambda:       0.01,
		LearningRate: 0.1,
		BatchSize:    7,
		Epochs:       4,
		Seed:         400,
		Shuffle:      true,
		Logger:       quiet,
	}
	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(400), a.Seed)
	assert.True(t, mat.Equal(a.Classifier.Weights(), b.Classifier.Weights()))
	assert.Equal(t, a.Curves.Train, b.Curves.Train)
	assert.Equal(t, a.TestAccuracy, b.TestAccuracy)
}

func TestRunCurvesCoverEveryEpoch(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	train := clusteredSplit(rng, 3, 9, 60)
	valid := clusteredSplit(rng, 3, 9, 30)
	test := clusteredSplit(rng, 3, 9, 30)

	res, err := Run(context.Background(), RunConfig{
		Train:        train,
		Valid:        valid,
		Test:         test,
		Lambda:       0.001,
		LearningRate: 0.5,
		BatchSize:    10,
		Epochs:       25,
		InitStd:      0.01,
		Seed:         9,
		LogEvery:     10,
		Logger:       quiet,
	})
	require.NoError(t, err)

	require.Equal(t, 25, res.Curves.Len())
	assert.True(t, res.Curves.Complete())
	assert.True(t, res.Curves.Finite())
	assert.Less(t, res.Curves.Train[24], res.Curves.Train[0])
	assert.Greater(t, res.TestAccuracy, 0.9, "well separated clusters should be learnt")
}

func TestRunRejectsBadConfig(t *testing.T) {
	split := toySplit()
	base := RunConfig{Train: split, Valid: split, Test: split, LearningRate: 0.1, BatchSize: 1, Epochs: 1, Logger: quiet}

	cases := map[string]func(*RunConfig){
		"missing test":   func(c *RunConfig) { c.Test = nil },
		"zero epochs":    func(c *RunConfig) { c.Epochs = 0 },
		"zero batch":     func(c *RunConfig) { c.BatchSize = 0 },
		"zero eta":       func(c *RunConfig) { c.LearningRate = 0 },
		"negative l2":    func(c *RunConfig) { c.Lambda = -0.1 },
		"wrong features": func(c *RunConfig) { c.FeatureDim = 5 },
		"wrong classifier": func(c *RunConfig) {
			c.Classifier = model.NewClassifier(3, 2, 0.01, 1, model.Options{})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := Run(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	split := toySplit()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, RunConfig{
		Train: split, Valid: split, Test: split,
		LearningRate: 0.1, BatchSize: 1, Epochs: 3, Seed: 1, Logger: quiet,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckGradientsOnFirstExample(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	split := clusteredSplit(rng, 4, 8, 5)
	clf := model.NewClassifier(4, 8, 0.1, 11, model.Options{})

	res, err := CheckGradients(split, clf, gradcheck.Settings{Step: 1e-6}, quiet)
	require.NoError(t, err)
	assert.Less(t, res.ErrW, 1e-4)
	assert.Less(t, res.ErrB, 1e-4)

	_, err = CheckGradients(nil, clf, gradcheck.Settings{}, quiet)
	assert.Error(t, err)
}

func TestResolveSeed(t *testing.T) {
	assert.Equal(t, int64(400), ResolveSeed(400))
	assert.NotZero(t, ResolveSeed(0))
}

func TestCheckAtInitLogsResolvedSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	split := clusteredSplit(rng, 3, 6, 4)

	var buf bytes.Buffer
	res, err := CheckAtInit(CheckConfig{
		Split:      split,
		NumClasses: 3,
		FeatureDim: 6,
		InitStd:    0.1,
		Settings:   gradcheck.Settings{Step: 1e-6},
		Logger:     log.New(&buf, "", 0),
	})
	require.NoError(t, err)
	assert.NotZero(t, res.Seed, "seed 0 must be resolved before initialising")
	assert.Contains(t, buf.String(), fmt.Sprintf("grad_check seed=%d", res.Seed))
	assert.Less(t, res.ErrW, 1e-4)

	fixed, err := CheckAtInit(CheckConfig{Split: split, NumClasses: 3, FeatureDim: 6, InitStd: 0.1, Seed: 17, Settings: gradcheck.Settings{Step: 1e-6}, Logger: quiet})
	require.NoError(t, err)
	again, err := CheckAtInit(CheckConfig{Split: split, NumClasses: 3, FeatureDim: 6, InitStd: 0.1, Seed: 17, Settings: gradcheck.Settings{Step: 1e-6}, Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, int64(17), fixed.Seed)
	assert.Equal(t, fixed.ErrW, again.ErrW)

	_, err = CheckAtInit(CheckConfig{Logger: quiet})
	assert.Error(t, err)
}

// fixedLossModel returns losses in turn and counts the examples it sees.
type fixedLossModel struct {
	losses   []float64
	steps    int
	examples int
}

func (m *fixedLossModel) TrainStep(batch model.Batch, eta, lambda float64) float64 {
	loss := m.losses[m.steps%len(m.losses)]
	m.steps++
	m.examples += batch.Size()
	return loss
}

func (m *fixedLossModel) Cost(X, Y mat.Matrix, lambda float64) float64 { return 0 }

func (m *fixedLossModel) Accuracy(X mat.Matrix, labels []int) float64 { return 0 }

func TestRunEpochAveragesBatchLoss(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	split := clusteredSplit(rng, 2, 4, 25)
	batches := dataset.NewBatches(split, 10, nil)
	m := &fixedLossModel{losses: []float64{1, 2, 4}}

	var window metrics.Window
	require.NoError(t, runEpoch(context.Background(), m, batches, 0.1, 0, &window))

	assert.Equal(t, 3, m.steps)
	assert.Equal(t, 25, m.examples)
	snap := window.Snapshot()
	assert.Equal(t, 3, snap.Batches)
	assert.InDelta(t, 2.0, snap.MeanLoss, 1e-12, "batches of 10, 10 and 5 weighted by size")
	assert.Equal(t, 4.0, snap.MaxLoss)
}

func TestRunLogsEpochMeanBatchLoss(t *testing.T) {
	split := toySplit()
	var buf bytes.Buffer
	_, err := Run(context.Background(), RunConfig{
		Train: split, Valid: split, Test: split,
		LearningRate: 0.1, BatchSize: 2, Epochs: 1, Seed: 400,
		Classifier: model.FromParams(
			mat.NewDense(2, 2, []float64{0.1, -0.2, 0.3, 0.05}),
			mat.NewVecDense(2, []float64{0.01, -0.02}),
			model.Options{},
		),
		Logger: log.New(&buf, "", 0),
	})
	require.NoError(t, err)

	var epochLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "epoch=0 ") {
			epochLine = line
		}
	}
	require.NotEmpty(t, epochLine)
	assert.Contains(t, epochLine, "batch_loss_mean=0.7537")
}
