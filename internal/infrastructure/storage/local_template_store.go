package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// LocalTemplateStore keeps template files in the templates directory, optionally mirrored to S3.
type LocalTemplateStore struct {
	basePath string
	mirror   *S3Mirror
	log      zerolog.Logger
}

// NewLocalTemplateStore creates the templates directory if needed.
func NewLocalTemplateStore(cfg *config.Config, mirror *S3Mirror, log zerolog.Logger) (*LocalTemplateStore, error) {
	logger := log.With().Str("component", "template-store").Logger()

	basePath, err := filepath.Abs(cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("resolve templates directory: %w", err)
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create templates directory: %w", err)
	}

	logger.Info().
		Str("path", basePath).
		Bool("mirror", mirror.Enabled()).
		Msg("template store initialized")

	return &LocalTemplateStore{basePath: basePath, mirror: mirror, log: logger}, nil
}

func (l *LocalTemplateStore) Path(name string) string {
	return filepath.Join(l.basePath, filepath.Base(name))
}

// Import moves srcPath into the store. A failed rename falls back to copy and delete.
func (l *LocalTemplateStore) Import(ctx context.Context, srcPath, name string) (string, error) {
	dst := l.Path(name)
	if err := os.Rename(srcPath, dst); err != nil {
		if _, copyErr := copyFile(srcPath, dst); copyErr != nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
				"failed to store template file", copyErr, "template-store-import-001")
		}
		if err := os.Remove(srcPath); err != nil && !os.IsNotExist(err) {
			l.log.Warn().Err(err).Str("path", srcPath).Msg("failed to remove upload after copy")
		}
	}
	l.mirrorUpload(ctx, name, dst)
	return dst, nil
}

func (l *LocalTemplateStore) Copy(ctx context.Context, srcName, dstName string) (string, error) {
	src := l.Path(srcName)
	dst := l.Path(dstName)
	if _, err := copyFile(src, dst); err != nil {
		if os.IsNotExist(err) {
			return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeNotFound,
				"template file not found", err, "template-store-copy-missing-001", map[string]any{"file_name": srcName})
		}
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to copy template file", err, "template-store-copy-001")
	}
	l.mirrorUpload(ctx, dstName, dst)
	return dst, nil
}

func (l *LocalTemplateStore) Remove(ctx context.Context, name string) error {
	if err := os.Remove(l.Path(name)); err != nil && !os.IsNotExist(err) {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeInternal,
			"failed to remove template file", err, "template-store-remove-001")
	}
	if l.mirror.Enabled() {
		if err := l.mirror.Delete(ctx, name); err != nil {
			l.log.Warn().Err(err).Str("file", name).Msg("failed to delete mirrored template")
		}
	}
	return nil
}

// Health checks that the templates directory is writable.
func (l *LocalTemplateStore) Health(ctx context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("templates directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

func (l *LocalTemplateStore) mirrorUpload(ctx context.Context, name, path string) {
	if !l.mirror.Enabled() {
		return
	}
	if err := l.mirror.Upload(ctx, name, path); err != nil {
		l.log.Warn().Err(err).Str("file", name).Msg("failed to mirror template")
	}
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return written, err
	}
	return written, nil
}
