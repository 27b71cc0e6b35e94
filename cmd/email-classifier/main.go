package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-classifier/internal/adapters/httpapi"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/di"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", dig.RootCause(err))
		os.Exit(1)
	}
}

type deps struct {
	dig.In

	Config      *config.Config
	Logger      *zap.Logger
	Server      *httpapi.Server
	ServerCfg   config.ServerConfig
	Service     *core.ClassifierService
	EmailFilter ports.EmailFilter
	Store       ports.ArtifactStore
	Summarizer  core.Summarizer
}

// run gets all dependencies injected. Building them loads the model set,
// training it first when no artifacts exist.
func run(d deps) error {
	logger := d.Logger
	defer logger.Sync()

	logger.Info("Models loaded", zap.String("model_version", d.Service.Metadata().Version()))

	if err := d.Server.Start(); err != nil {
		return err
	}

	smtpEnabled := d.Config.GetSMTP().Enabled
	if smtpEnabled {
		if err := d.EmailFilter.Start(); err != nil {
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), d.ServerCfg.ShutdownTimeout)
	defer cancel()

	if err := d.Server.Stop(ctx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	if smtpEnabled {
		if err := d.EmailFilter.Stop(); err != nil {
			logger.Error("Failed to stop SMTP filter", zap.Error(err))
		}
	}

	if closer, ok := d.Summarizer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close summary client", zap.Error(err))
		}
	}

	if err := d.Store.Close(); err != nil {
		logger.Error("Failed to close artifact store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
