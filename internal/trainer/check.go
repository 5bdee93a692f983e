package trainer

import (
	"errors"
	"log"

	"softmax-forge/internal/dataset"
	"softmax-forge/internal/gradcheck"
	"softmax-forge/internal/model"
)

// CheckConfig describes a gradient check on a freshly initialised classifier.
type CheckConfig struct {
	Split      *dataset.Split
	NumClasses int
	FeatureDim int
	InitStd    float64
	// Seed initialises the classifier; 0 draws one from the clock, as Run does.
	Seed       int64
	Settings   gradcheck.Settings
	Logger     *log.Logger
}

// CheckResult is a gradient check outcome with the seed it was run under.
type CheckResult struct {
	gradcheck.Result
	Seed int64
}

// CheckAtInit resolves the seed, initialises a classifier the way Run would
// and checks its gradients on the first example of cfg.Split.
func CheckAtInit(cfg CheckConfig) (CheckResult, error) {
	if cfg.Split == nil || cfg.Split.Len() == 0 {
		return CheckResult{}, errors.New("trainer: gradient check needs at least one example")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	seed := ResolveSeed(cfg.Seed)
	logger.Printf("grad_check seed=%d", seed)

	clf := model.NewClassifier(cfg.NumClasses, cfg.FeatureDim, cfg.InitStd, seed, cfg.Settings.Options)
	res, err := CheckGradients(cfg.Split, clf, cfg.Settings, logger)
	return CheckResult{Result: res, Seed: seed}, err
}

// CheckGradients compares analytic and numeric gradients of clf on the
// first example of split and logs the relative errors.
func CheckGradients(split *dataset.Split, clf *model.Classifier, s gradcheck.Settings, logger *log.Logger) (gradcheck.Result, error) {
	if split == nil || split.Len() == 0 {
		return gradcheck.Result{}, errors.New("trainer: gradient check needs at least one example")
	}
	if logger == nil {
		logger = log.Default()
	}
	res := gradcheck.Check(split.X, split.Y, clf.Weights(), clf.Bias(), s)
	logger.Printf("grad_check w_rel_err=%g b_rel_err=%g w_mean_rel_err=%g b_mean_rel_err=%g",
		res.ErrW, res.ErrB, res.MeanErrW, res.MeanErrB)
	return res, nil
}
