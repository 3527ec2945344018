package crontab

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/infrastructure/storage"
)

func TestRun_SweepsOnStartAndStopsWithContext(t *testing.T) {
	cfg := &config.Config{OutputDir: t.TempDir(), ArtifactRetentionDays: 7, ArtifactSweepSchedule: "0 3 * * *"}
	store, err := storage.NewLocalArtifactStore(cfg, zerolog.Nop())
	require.NoError(t, err)
	artifacts := artifact.NewService(store, zerolog.Nop())

	_, stale, err := artifacts.Allocate("qc_1")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewCrontab(cfg, artifacts, zerolog.Nop()).Run(ctx) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(stale)
		return os.IsNotExist(err)
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("crontab did not stop")
	}
}

func TestRun_RejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{OutputDir: t.TempDir(), ArtifactRetentionDays: 7, ArtifactSweepSchedule: "not a schedule"}
	store, err := storage.NewLocalArtifactStore(cfg, zerolog.Nop())
	require.NoError(t, err)

	err = NewCrontab(cfg, artifact.NewService(store, zerolog.Nop()), zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
}
