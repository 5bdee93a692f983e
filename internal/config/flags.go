package config

import "flag"

// BindFlags registers the override flags on fs. The returned function must
// be called after fs.Parse and reports only the flags given explicitly.
func BindFlags(fs *flag.FlagSet) func() Overrides {
	lambda := fs.Float64("lambda", 0, "L2 regularisation strength")
	eta := fs.Float64("eta", 0, "Learning rate")
	epochs := fs.Int("epochs", 0, "Number of epochs")
	batchSize := fs.Int("batch-size", 0, "Mini-batch size")
	seed := fs.Int64("seed", 0, "PRNG seed for initialisation and shuffling (0 = time)")
	dataDir := fs.String("data-dir", "", "Directory of CIFAR-10 batch files")
	archive := fs.String("archive", "", "Read batches from a cifar-10-binary.tar.gz instead of data-dir")
	maxSamples := fs.Int("max-samples", 0, "Cap examples per split (0 = all)")
	logEvery := fs.Int("log-every", 0, "Log every N epochs")
	plotPath := fs.String("plot", "", "Cost curve output path (empty disables)")
	weightsPath := fs.String("weights", "", "Weight visualisation output path (empty disables)")
	shuffle := fs.Bool("shuffle", false, "Shuffle training examples every epoch")
	stable := fs.Bool("stable-softmax", false, "Subtract the column max before exponentiating")
	checkGrads := fs.Bool("check-gradients", false, "Run the numeric gradient check instead of training")

	return func() Overrides {
		var o Overrides
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "lambda":
				o.Lambda = lambda
			case "eta":
				o.LearningRate = eta
			case "epochs":
				o.Epochs = epochs
			case "batch-size":
				o.BatchSize = batchSize
			case "seed":
				o.Seed = seed
			case "data-dir":
				o.DataDir = dataDir
			case "archive":
				o.Archive = archive
			case "max-samples":
				o.MaxSamples = maxSamples
			case "log-every":
				o.LogEvery = logEvery
			case "plot":
				o.PlotPath = plotPath
			case "weights":
				o.WeightsPath = weightsPath
			case "shuffle":
				o.Shuffle = shuffle
			case "stable-softmax":
				o.StableSoftmax = stable
			case "check-gradients":
				o.CheckGradients = checkGrads
			}
		})
		return o
	}
}
