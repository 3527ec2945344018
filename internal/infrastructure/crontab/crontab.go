package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/infrastructure/metrics"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	CronJobTimeout = 10 * time.Minute // Timeout for each cron job execution
)

type Crontab struct {
	ctab      *crontab.Crontab
	artifacts artifact.Service
	schedule  string
	retention time.Duration
	log       zerolog.Logger
}

func NewCrontab(cfg *config.Config, artifacts artifact.Service, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:      crontab.New(),
		artifacts: artifacts,
		schedule:  cfg.ArtifactSweepSchedule,
		retention: cfg.ArtifactRetention(),
		log:       log.With().Str("component", "crontab").Logger(),
	}
}

// Run sweeps once on start, schedules the periodic sweep and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	c.sweepArtifacts(ctx)

	if err := c.ctab.AddJob(c.schedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		c.sweepArtifacts(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add artifact sweep job")
	}
	c.log.Info().Str("schedule", c.schedule).Dur("retention", c.retention).Msg("artifact sweep scheduled")

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) sweepArtifacts(ctx context.Context) {
	removed, err := c.artifacts.Sweep(ctx, c.retention)
	if err != nil {
		c.log.Error().Err(err).Msg("artifact sweep failed")
		return
	}
	metrics.RecordSweep(removed)
}
