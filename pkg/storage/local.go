package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Local writes evidence files under a fixed uploads directory and returns
// the relative URL they are served back from.
type Local struct {
	baseDir      string
	publicPrefix string
	logger       zerolog.Logger
}

// NewLocal constructs a disk-backed store rooted at baseDir. Files are
// referenced by URLs under publicPrefix.
func NewLocal(baseDir, publicPrefix string, logger zerolog.Logger) (*Local, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("uploads directory must be provided")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}

	return &Local{
		baseDir:      baseDir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		logger:       logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Upload persists the file and returns its relative URL.
func (l *Local) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	target := filepath.Join(l.baseDir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload subdirectory: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, reader)
	if err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	url := l.publicPrefix + clean
	l.logger.Debug().Str("path", target).Int64("bytes", written).Msg("evidence file stored")
	return url, nil
}

// BaseDir exposes the root directory for static serving.
func (l *Local) BaseDir() string {
	return l.baseDir
}

// PublicPrefix exposes the URL prefix uploads are served under.
func (l *Local) PublicPrefix() string {
	return l.publicPrefix
}
