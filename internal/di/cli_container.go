package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/factory"
	"github.com/mikey/email-classifier/internal/logging"
	"github.com/mikey/email-classifier/internal/ports"
)

// CLIFlags contains all command line flags for the classify-email command
type CLIFlags struct {
	InputFile  string
	ConfigFile string
	ModelsDir  string
	Summary    string
	Verbose    bool
	JSONLog    bool
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	flag.StringVar(&flags.ModelsDir, "models-dir", "", "Directory holding model artifacts (overrides registry.models_dir)")
	flag.StringVar(&flags.Summary, "summary", "", "Summary provider (none, gemini, openai, bedrock)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates the container for the classify-email command
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration, with flags taking precedence
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		applyCLIOverrides(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter("cli")
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func applyCLIOverrides(cfg *config.Config, flags *CLIFlags) {
	cfg.Set("cli.verbose", flags.Verbose)
	if flags.ModelsDir != "" {
		cfg.Set("registry.type", "file")
		cfg.Set("registry.models_dir", flags.ModelsDir)
	}
	if flags.Summary != "" {
		cfg.Set("summary.provider", flags.Summary)
	}
}
