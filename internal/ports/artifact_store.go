package ports

import (
	"context"
	"errors"
)

// ErrArtifactNotFound is returned by Read when the named artifact is absent
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore is durable storage for the fitted model artifacts
type ArtifactStore interface {
	// WriteAll replaces the stored artifact set with artifacts as one unit
	WriteAll(ctx context.Context, artifacts map[string][]byte) error

	// Read returns the named artifact
	Read(ctx context.Context, name string) ([]byte, error)

	// Close releases the underlying resources
	Close() error
}
