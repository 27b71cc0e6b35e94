package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/email-classifier/internal/adapters/filter"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/di"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", dig.RootCause(err))
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, emailFilter ports.EmailFilter, summarizer core.Summarizer) error {
	defer logger.Sync()

	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Debug("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Debug("Reading email from stdin")
	}

	email, err := filter.ParseMessage(bufio.NewReader(reader))
	if err != nil {
		return err
	}

	_, err = emailFilter.ProcessEmail(context.Background(), email)

	if closer, ok := summarizer.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil {
			logger.Error("Failed to close summary client", zap.Error(cerr))
		}
	}
	return err
}
