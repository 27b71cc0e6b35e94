package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/factory"
	"github.com/mikey/email-classifier/internal/logging"
	"github.com/mikey/email-classifier/internal/registry"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "Path to config file")
	modelsDir  = flag.String("models-dir", "", "Directory for model artifacts (overrides registry.models_dir)")
	registryTy = flag.String("registry", "", "Artifact store type: file, sqlite or mysql (overrides registry.type)")
	seed       = flag.Int64("seed", -1, "Random seed for the train/test split (overrides training.seed)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("Training failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.NewFromFile(*configFile)
	if err != nil {
		return err
	}
	if *registryTy != "" {
		cfg.Set("registry.type", *registryTy)
	}
	if *modelsDir != "" {
		cfg.Set("registry.models_dir", *modelsDir)
	}
	if *seed >= 0 {
		cfg.Set("training.seed", *seed)
	}

	store, err := factory.NewStoreFactory(cfg, logger).CreateArtifactStore()
	if err != nil {
		return err
	}
	defer store.Close()

	trainer, err := factory.NewTrainerFactory(cfg, logger).CreateTrainer(registry.New(store, logger))
	if err != nil {
		return err
	}

	start := time.Now()
	_, report, err := trainer.Train(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Training complete ===\n")
	fmt.Printf("Samples: %d\n", report.Samples)
	fmt.Printf("Category accuracy: %.4f (%d test emails)\n", report.Category.Accuracy, len(report.CategoryTestIdx))
	fmt.Printf("Priority accuracy: %.4f (%d test emails)\n", report.Priority.Accuracy, len(report.PriorityTestIdx))
	for _, smoke := range report.Smoke {
		status := "ok"
		if !smoke.Matches() {
			status = "MISMATCH"
		}
		fmt.Printf("  [%s] %q -> %s/%s (expected %s/%s)\n",
			status, smoke.Case.Subject,
			smoke.Result.Category, smoke.Result.Priority,
			smoke.Case.ExpectedCategory, smoke.Case.ExpectedPriority)
	}
	fmt.Printf("Elapsed: %v\n", time.Since(start))

	return nil
}
