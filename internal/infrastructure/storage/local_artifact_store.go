package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// LocalArtifactStore holds generated documents in the output directory.
type LocalArtifactStore struct {
	basePath string
	log      zerolog.Logger
}

func NewLocalArtifactStore(cfg *config.Config, log zerolog.Logger) (*LocalArtifactStore, error) {
	logger := log.With().Str("component", "artifact-store").Logger()

	basePath, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info().Str("path", basePath).Msg("artifact store initialized")
	return &LocalArtifactStore{basePath: basePath, log: logger}, nil
}

func (l *LocalArtifactStore) Path(name string) string {
	return filepath.Join(l.basePath, filepath.Base(name))
}

func (l *LocalArtifactStore) Open(ctx context.Context, name string) (io.ReadCloser, *artifact.Info, error) {
	file, err := os.Open(l.Path(name))
	if err != nil {
		return nil, nil, l.fsError(ctx, name, err, "failed to open artifact")
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, l.fsError(ctx, name, err, "failed to stat artifact")
	}
	return file, toInfo(stat), nil
}

func (l *LocalArtifactStore) Stat(ctx context.Context, name string) (*artifact.Info, error) {
	stat, err := os.Stat(l.Path(name))
	if err != nil {
		return nil, l.fsError(ctx, name, err, "failed to stat artifact")
	}
	return toInfo(stat), nil
}

// List returns every regular file in the output directory.
func (l *LocalArtifactStore) List(ctx context.Context) ([]artifact.Info, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to read output directory", err, "artifact-store-list-001")
	}

	infos := make([]artifact.Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		infos = append(infos, *toInfo(stat))
	}
	return infos, nil
}

func (l *LocalArtifactStore) Remove(ctx context.Context, name string) error {
	if err := os.Remove(l.Path(name)); err != nil && !os.IsNotExist(err) {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to remove artifact", err, "artifact-store-remove-001")
	}
	return nil
}

func (l *LocalArtifactStore) fsError(ctx context.Context, name string, err error, message string) error {
	if os.IsNotExist(err) {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeNotFound,
			"artifact not found", err, "artifact-store-missing-001", map[string]any{"file_name": name})
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
		message, err, "artifact-store-io-001")
}

func toInfo(stat os.FileInfo) *artifact.Info {
	return &artifact.Info{Name: stat.Name(), Size: stat.Size(), ModifiedAt: stat.ModTime()}
}
