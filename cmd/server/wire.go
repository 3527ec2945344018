//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/auth"
	"jan-server/services/quadchart-api/internal/infrastructure/crontab"
	"jan-server/services/quadchart-api/internal/infrastructure/database"
	"jan-server/services/quadchart-api/internal/infrastructure/logger"
	"jan-server/services/quadchart-api/internal/infrastructure/renderer"
	chartrepo "jan-server/services/quadchart-api/internal/infrastructure/repository/quadchart"
	templaterepo "jan-server/services/quadchart-api/internal/infrastructure/repository/template"
	"jan-server/services/quadchart-api/internal/infrastructure/storage"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/handlers"
)

var repositorySet = wire.NewSet(
	templaterepo.NewPostgresRepository,
	wire.Bind(new(template.Repository), new(*templaterepo.PostgresRepository)),
	chartrepo.NewPostgresRepository,
	wire.Bind(new(quadchart.Repository), new(*chartrepo.PostgresRepository)),
)

var storageSet = wire.NewSet(
	storage.NewS3Mirror,
	storage.NewLocalTemplateStore,
	wire.Bind(new(template.FileStore), new(*storage.LocalTemplateStore)),
	storage.NewLocalArtifactStore,
	wire.Bind(new(artifact.Store), new(*storage.LocalArtifactStore)),
)

var domainSet = wire.NewSet(
	newAnalyzer,
	wire.Bind(new(template.Analyzer), new(*renderer.Analyzer)),
	newRenderer,
	wire.Bind(new(generation.Renderer), new(*renderer.Renderer)),
	template.NewService,
	quadchart.NewService,
	artifact.NewService,
	wire.Bind(new(generation.ArtifactStore), new(artifact.Service)),
	newGenerationOptions,
	generation.NewService,
)

// BuildApplication assembles the Postgres-backed service graph with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		database.Open,
		repositorySet,
		storageSet,
		domainSet,
		newAuthValidator,
		handlers.NewProvider,
		newReadinessChecks,
		httpserver.New,
		crontab.NewCrontab,
		NewApplication,
	)
	return nil, nil
}

func newGenerationOptions(cfg *config.Config) generation.Options {
	return generation.Options{PublicBaseURL: cfg.PublicBaseURL}
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newReadinessChecks(db *gorm.DB, files *storage.LocalTemplateStore, mirror *storage.S3Mirror) map[string]httpserver.ReadinessCheck {
	checks := map[string]httpserver.ReadinessCheck{
		"database":  func(ctx context.Context) error { return database.Ping(ctx, db) },
		"templates": files.Health,
	}
	if mirror.Enabled() {
		checks["s3"] = mirror.Health
	}
	return checks
}
