package artifact

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// Service owns generated documents from allocation to deletion.
type Service interface {
	// Allocate reserves a new artifact name for owner and returns it with its path.
	Allocate(owner string) (string, string, error)
	// Discard removes a partially written artifact, logging failures.
	Discard(name string)
	Stat(ctx context.Context, name string) (*Info, error)
	// ServeOnce copies the artifact to w and then deletes it.
	ServeOnce(ctx context.Context, name string, w io.Writer) (int64, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) error
	// Sweep deletes every artifact last modified before now minus retention.
	Sweep(ctx context.Context, retention time.Duration) (int, error)
}

type service struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

func NewService(store Store, log zerolog.Logger) Service {
	return &service{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "artifact-service").Logger(),
	}
}

func (s *service) Allocate(owner string) (string, string, error) {
	name := NewName(owner)
	return name, s.store.Path(name), nil
}

func (s *service) Discard(name string) {
	if err := s.store.Remove(context.Background(), name); err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("failed to discard artifact")
	}
}

func (s *service) Stat(ctx context.Context, name string) (*Info, error) {
	if err := ValidateName(ctx, name); err != nil {
		return nil, err
	}
	info, err := s.store.Stat(ctx, name)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to stat artifact")
	}
	return info, nil
}

func (s *service) ServeOnce(ctx context.Context, name string, w io.Writer) (int64, error) {
	if err := ValidateName(ctx, name); err != nil {
		return 0, err
	}

	file, _, err := s.store.Open(ctx, name)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to open artifact")
	}

	written, copyErr := io.Copy(w, file)
	_ = file.Close()
	if copyErr != nil {
		return written, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to stream artifact", copyErr, "artifact-serve-stream-001")
	}

	if err := s.store.Remove(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("failed to delete served artifact")
	} else {
		s.log.Debug().Str("file", name).Int64("bytes", written).Msg("artifact served and deleted")
	}
	return written, nil
}

func (s *service) List(ctx context.Context) ([]Info, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list artifacts")
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ModifiedAt.After(infos[j].ModifiedAt) })
	return infos, nil
}

func (s *service) Delete(ctx context.Context, name string) error {
	if err := ValidateName(ctx, name); err != nil {
		return err
	}
	if _, err := s.store.Stat(ctx, name); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find artifact")
	}
	if err := s.store.Remove(ctx, name); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete artifact")
	}
	return nil
}

func (s *service) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list artifacts")
	}

	cutoff := s.now().Add(-retention)
	removed := 0
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !info.ModifiedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Remove(ctx, info.Name); err != nil {
			s.log.Warn().Err(err).Str("file", info.Name).Msg("failed to sweep artifact")
			continue
		}
		removed++
	}

	s.log.Info().
		Int("scanned", len(infos)).
		Int("removed", removed).
		Dur("retention", retention).
		Msg("artifact sweep completed")
	return removed, nil
}
