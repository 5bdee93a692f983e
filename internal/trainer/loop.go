package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"softmax-forge/internal/dataset"
	"softmax-forge/internal/metrics"
	"softmax-forge/internal/model"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Train *dataset.Split
	Valid *dataset.Split
	Test  *dataset.Split

	NumClasses   int
	FeatureDim   int
	Lambda       float64
	LearningRate float64
	BatchSize    int
	Epochs       int
	InitStd      float64
	Seed         int64
	Shuffle      bool
	LogEvery     int
	Options      model.Options

	// Classifier, when set, is trained in place instead of a freshly
	// initialised one.
	Classifier *model.Classifier
	Logger     *log.Logger
}

// Result is the terminal state of a run.
type Result struct {
	Curves       *metrics.Curves
	Classifier   *model.Classifier
	TestAccuracy float64
	Seed         int64
}

// Run executes Epochs passes of mini-batch gradient descent over cfg.Train,
// records training and validation cost after every epoch and finally
// measures accuracy on cfg.Test. ctx is only consulted between batches.
func Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	cfg.Seed = ResolveSeed(cfg.Seed)

	clf := cfg.Classifier
	if clf == nil {
		clf = model.NewClassifier(cfg.NumClasses, cfg.FeatureDim, cfg.InitStd, cfg.Seed, cfg.Options)
	}
	if clf.NumClasses() != cfg.NumClasses || clf.InputSize() != cfg.FeatureDim {
		return nil, fmt.Errorf("trainer: classifier is %dx%d, data is %dx%d",
			clf.NumClasses(), clf.InputSize(), cfg.NumClasses, cfg.FeatureDim)
	}

	var rng *rand.Rand
	if cfg.Shuffle {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	batches := dataset.NewBatches(cfg.Train, cfg.BatchSize, rng)
	curves := metrics.NewCurves(cfg.Epochs)
	var window metrics.Window

	logger.Printf("seed=%d train=%d valid=%d test=%d batches_per_epoch=%d",
		cfg.Seed, cfg.Train.Len(), cfg.Valid.Len(), cfg.Test.Len(), batches.Len())

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := runEpoch(ctx, clf, batches, cfg.LearningRate, cfg.Lambda, &window); err != nil {
			return nil, err
		}
		snap := window.Snapshot()

		trainCost := clf.Cost(cfg.Train.X, cfg.Train.Y, cfg.Lambda)
		validCost := clf.Cost(cfg.Valid.X, cfg.Valid.Y, cfg.Lambda)
		if err := curves.Set(epoch, trainCost, validCost); err != nil {
			return nil, err
		}

		if (epoch+1)%cfg.LogEvery == 0 || epoch == cfg.Epochs-1 {
			logger.Printf("epoch=%d train_cost=%.4f valid_cost=%.4f batch_loss_mean=%.4f batch_loss_min=%.4f batch_loss_max=%.4f examples_per_sec=%.1f data_share=%.2f",
				epoch,
				trainCost,
				validCost,
				snap.MeanLoss,
				snap.MinLoss,
				snap.MaxLoss,
				snap.ExamplesPerSec,
				snap.DataShare,
			)
		}
	}

	acc := clf.Accuracy(cfg.Test.X, cfg.Test.Labels)
	logger.Printf("test_accuracy=%.4f", acc)

	return &Result{Curves: curves, Classifier: clf, TestAccuracy: acc, Seed: cfg.Seed}, nil
}

// ResolveSeed returns seed unchanged unless it is 0, in which case a seed is
// drawn from the clock.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// runEpoch makes one pass over batches, stepping m on each and recording the
// batch cost and timings in window.
func runEpoch(ctx context.Context, m model.Model, batches *dataset.Batches, eta, lambda float64, window *metrics.Window) error {
	batches.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		startData := time.Now()
		batch, ok := batches.Next()
		if !ok {
			return nil
		}
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss := m.TrainStep(batch, eta, lambda)
		window.Record(batch.Size(), dataTime, time.Since(startCompute), loss)
	}
}

func validate(cfg *RunConfig) error {
	if cfg.Train == nil || cfg.Valid == nil || cfg.Test == nil {
		return errors.New("trainer: train, valid and test splits are required")
	}
	if cfg.Epochs <= 0 {
		return errors.New("trainer: epochs must be > 0")
	}
	if cfg.BatchSize <= 0 {
		return errors.New("trainer: batch size must be > 0")
	}
	if cfg.LearningRate <= 0 {
		return errors.New("trainer: learning rate must be > 0")
	}
	if cfg.Lambda < 0 {
		return errors.New("trainer: lambda must be >= 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 1
	}
	for name, s := range map[string]*dataset.Split{"train": cfg.Train, "valid": cfg.Valid, "test": cfg.Test} {
		d, _ := s.X.Dims()
		k, _ := s.Y.Dims()
		if cfg.FeatureDim == 0 {
			cfg.FeatureDim = d
		}
		if cfg.NumClasses == 0 {
			cfg.NumClasses = k
		}
		if d != cfg.FeatureDim || k != cfg.NumClasses {
			return fmt.Errorf("trainer: %s split is %d features x %d classes, want %d x %d",
				name, d, k, cfg.FeatureDim, cfg.NumClasses)
		}
	}
	return nil
}
