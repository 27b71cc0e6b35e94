package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/zap"
)

// FileStore keeps artifacts as files in one directory
type FileStore struct {
	dir    string
	logger *zap.Logger
	rename func(oldpath, newpath string) error
}

// NewFileStore creates a store rooted at dir, creating it if needed
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger, rename: os.Rename}, nil
}

// Dir returns the artifact directory
func (s *FileStore) Dir() string {
	return s.dir
}

// swap records one artifact moved into place so it can be undone
type swap struct {
	live      string
	backup    string
	installed bool
}

// WriteAll writes every artifact to a temp file first. Live files are then
// moved aside to backups while the new ones are renamed in; if any rename
// fails, every completed step is rolled back so the previous set stays intact.
func (s *FileStore) WriteAll(ctx context.Context, artifacts map[string][]byte) error {
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	temps := make(map[string]string, len(names))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := s.writeTemp(name, artifacts[name])
		if err != nil {
			cleanup()
			return err
		}
		temps[name] = tmp
	}

	swaps := make([]*swap, 0, len(names))
	for _, name := range names {
		sw, err := s.install(name, temps[name])
		if sw != nil {
			swaps = append(swaps, sw)
		}
		if err != nil {
			s.rollback(swaps)
			cleanup()
			return err
		}
		delete(temps, name)
	}

	for _, sw := range swaps {
		if sw.backup != "" {
			os.RemoveAll(sw.backup)
		}
	}

	s.logger.Debug("Wrote artifacts", zap.String("dir", s.dir), zap.Strings("artifacts", names))
	return nil
}

// install moves the live artifact aside, if any, and renames tmp into its
// place. The returned swap describes whatever was done before a failure.
func (s *FileStore) install(name, tmp string) (*swap, error) {
	sw := &swap{live: filepath.Join(s.dir, name)}

	if _, err := os.Lstat(sw.live); err == nil {
		suffix := strings.TrimPrefix(filepath.Base(tmp), "."+name+".tmp-")
		backup := filepath.Join(s.dir, "."+name+".bak-"+suffix)
		if err := s.rename(sw.live, backup); err != nil {
			return nil, fmt.Errorf("failed to back up artifact %s: %w", name, err)
		}
		sw.backup = backup
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}

	if err := s.rename(tmp, sw.live); err != nil {
		return sw, fmt.Errorf("failed to move artifact %s into place: %w", name, err)
	}
	sw.installed = true
	return sw, nil
}

// rollback undoes swaps in reverse order
func (s *FileStore) rollback(swaps []*swap) {
	for i := len(swaps) - 1; i >= 0; i-- {
		sw := swaps[i]
		if sw.installed && sw.backup == "" {
			if err := os.Remove(sw.live); err != nil {
				s.logger.Error("Failed to remove partially written artifact", zap.String("path", sw.live), zap.Error(err))
			}
			continue
		}
		if sw.backup == "" {
			continue
		}
		if err := s.rename(sw.backup, sw.live); err != nil {
			s.logger.Error("Failed to restore artifact backup",
				zap.String("path", sw.live),
				zap.String("backup", sw.backup),
				zap.Error(err))
		}
	}
}

func (s *FileStore) writeTemp(name string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to sync artifact %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close artifact %s: %w", name, err)
	}
	return f.Name(), nil
}

// Read returns the named artifact
func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
