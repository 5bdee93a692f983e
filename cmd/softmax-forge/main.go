package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"softmax-forge/internal/config"
	"softmax-forge/internal/dataset"
	"softmax-forge/internal/gradcheck"
	"softmax-forge/internal/model"
	"softmax-forge/internal/report"
	"softmax-forge/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "configs/cifar10.yaml", "Path to YAML config")
	overrides := config.BindFlags(flag.CommandLine)

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyOverrides(overrides())

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	splits, err := loadSplits(ctx, cfg)
	if err != nil {
		log.Fatalf("load data: %v", err)
	}
	train, valid, test := splits[cfg.TrainBatch], splits[cfg.ValidBatch], splits[cfg.TestBatch]

	opts := model.Options{StableSoftmax: cfg.StableSoftmax}

	if cfg.CheckGradients {
		_, err := trainer.CheckAtInit(trainer.CheckConfig{
			Split:      train,
			NumClasses: cfg.NumClasses,
			FeatureDim: cfg.FeatureDim,
			InitStd:    cfg.InitStd,
			Seed:       cfg.Seed,
			Settings: gradcheck.Settings{
				Lambda:  cfg.Lambda,
				Step:    cfg.GradStep,
				Eps:     cfg.GradEps,
				Options: opts,
			},
		})
		if err != nil {
			log.Fatalf("gradient check failed: %v", err)
		}
		return
	}

	res, err := trainer.Run(ctx, trainer.RunConfig{
		Train:        train,
		Valid:        valid,
		Test:         test,
		NumClasses:   cfg.NumClasses,
		FeatureDim:   cfg.FeatureDim,
		Lambda:       cfg.Lambda,
		LearningRate: cfg.LearningRate,
		BatchSize:    cfg.BatchSize,
		Epochs:       cfg.Epochs,
		InitStd:      cfg.InitStd,
		Seed:         cfg.Seed,
		Shuffle:      cfg.Shuffle,
		LogEvery:     cfg.LogEvery,
		Options:      opts,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	if cfg.PlotPath != "" {
		if err := report.SaveCostCurves(cfg.PlotPath, res.Curves); err != nil {
			log.Fatalf("plot costs: %v", err)
		}
		log.Printf("wrote %s", cfg.PlotPath)
	}
	if cfg.WeightsPath != "" {
		if cfg.FeatureDim != dataset.CIFARFeatureDim {
			log.Printf("skip weights image: feature_dim=%d is not a 32x32 RGB layout", cfg.FeatureDim)
			return
		}
		if err := report.SaveWeights(cfg.WeightsPath, res.Classifier.Weights(), dataset.CIFARSide, dataset.CIFARChannels); err != nil {
			log.Fatalf("plot weights: %v", err)
		}
		log.Printf("wrote %s", cfg.WeightsPath)
	}
}

func loadSplits(ctx context.Context, cfg *config.Config) (map[string]*dataset.Split, error) {
	format := dataset.Format{
		NumClasses: cfg.NumClasses,
		FeatureDim: cfg.FeatureDim,
		MaxSamples: cfg.MaxSamples,
	}
	names := []string{cfg.TrainBatch, cfg.ValidBatch, cfg.TestBatch}

	if cfg.Archive != "" {
		splits, err := dataset.LoadArchive(ctx, cfg.Archive, format, names...)
		if err != nil {
			return nil, err
		}
		log.Printf("archive=%s members=%d", cfg.Archive, len(splits))
		return splits, nil
	}

	files, err := dataset.DiscoverBatches(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	log.Printf("data_dir=%s batches=%d", cfg.DataDir, len(files))

	splits := make(map[string]*dataset.Split, len(names))
	for _, name := range names {
		if _, ok := splits[name]; ok {
			continue
		}
		file, err := dataset.ResolveBatch(files, name)
		if err != nil {
			return nil, err
		}
		split, err := dataset.LoadBatch(file.Path, format)
		if err != nil {
			return nil, err
		}
		log.Printf("split=%s examples=%d test=%t", file.Name, split.Len(), file.IsTest())
		splits[name] = split
	}
	return splits, nil
}
