package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-classifier/internal/adapters/httpapi"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/factory"
	"github.com/mikey/email-classifier/internal/logging"
	"github.com/mikey/email-classifier/internal/pipeline"
	"github.com/mikey/email-classifier/internal/ports"
	"github.com/mikey/email-classifier/internal/registry"
	"github.com/mikey/email-classifier/internal/training"
	"github.com/mikey/email-classifier/internal/utils"
)

// BuildContainer creates the container for the classifier server.
// configPath may be empty to use the default search paths.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.NewFromFile(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register HTTP gateway
	if err := container.Provide(func(cfg *config.Config) (config.ServerConfig, error) {
		return cfg.GetServer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		service *core.ClassifierService,
		logger *zap.Logger,
		serverCfg config.ServerConfig,
	) *httpapi.Server {
		return httpapi.NewServer(service, logger, serverCfg)
	}); err != nil {
		return nil, err
	}

	// Register SMTP tagging filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter("smtp")
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassifier registers everything from the artifact store up to the
// classifier service. It needs *config.Config and *zap.Logger.
func provideClassifier(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewTextProcessorFactory,
		factory.NewStoreFactory,
		factory.NewTrainerFactory,
		factory.NewCacheFactory,
		factory.NewSummarizerFactory,
		factory.NewFilterFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register model registry
	if err := container.Provide(func(f *factory.StoreFactory) (ports.ArtifactStore, error) {
		return f.CreateArtifactStore()
	}); err != nil {
		return err
	}
	if err := container.Provide(registry.New); err != nil {
		return err
	}

	// Register trainer and bootstrap
	if err := container.Provide(func(f *factory.TrainerFactory, reg *registry.Registry) (*training.Trainer, error) {
		return f.CreateTrainer(reg)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(reg *registry.Registry, trainer *training.Trainer, logger *zap.Logger) *registry.Bootstrapper {
		return registry.NewBootstrapper(reg, trainer, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(b *registry.Bootstrapper) (*pipeline.Pipeline, error) {
		return b.Ensure(context.Background())
	}); err != nil {
		return err
	}

	// Register optional cache and summarizer
	if err := container.Provide(func(f *factory.CacheFactory) (core.PredictionCache, error) {
		return f.CreatePredictionCache()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.SummarizerFactory) (core.Summarizer, error) {
		return f.CreateSummarizer()
	}); err != nil {
		return err
	}

	// Register classifier service
	return container.Provide(func(
		p *pipeline.Pipeline,
		cache core.PredictionCache,
		summarizer core.Summarizer,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.ClassifierService {
		return core.NewClassifierService(p, cache, summarizer, logger, cfg.GetInt("server.batch_workers"))
	})
}
