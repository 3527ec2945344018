package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jan-server/services/quadchart-api/internal/config"
	"jan-server/services/quadchart-api/internal/domain/artifact"
	"jan-server/services/quadchart-api/internal/domain/generation"
	"jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/auth"
	"jan-server/services/quadchart-api/internal/infrastructure/crontab"
	"jan-server/services/quadchart-api/internal/infrastructure/database"
	"jan-server/services/quadchart-api/internal/infrastructure/logger"
	"jan-server/services/quadchart-api/internal/infrastructure/observability"
	"jan-server/services/quadchart-api/internal/infrastructure/renderer"
	chartrepo "jan-server/services/quadchart-api/internal/infrastructure/repository/quadchart"
	templaterepo "jan-server/services/quadchart-api/internal/infrastructure/repository/template"
	"jan-server/services/quadchart-api/internal/infrastructure/storage"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver"
	"jan-server/services/quadchart-api/internal/interfaces/httpserver/handlers"
)

// @title Quad Chart API
// @version 1.0
// @description PowerPoint quad chart template registry and document generation
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	crontab    *crontab.Crontab
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, cron *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		crontab:    cron,
		log:        log,
	}
}

// Start runs the HTTP server and the artifact sweeper until ctx is cancelled or one of them fails.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return a.httpServer.Run(groupCtx) })
	group.Go(func() error { return a.crontab.Run(groupCtx) })
	return group.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	checks := map[string]httpserver.ReadinessCheck{}

	var (
		templateRepository template.Repository
		chartRepository    quadchart.Repository
	)
	if cfg.UsesDatabase() {
		db, err := database.Open(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("connect database")
		}
		templateRepository = templaterepo.NewPostgresRepository(db)
		chartRepository = chartrepo.NewPostgresRepository(db)
		checks["database"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	} else {
		log.Warn().Msg("DB_POSTGRESQL_WRITE_DSN not set, records are kept in memory")
		templateRepository = templaterepo.NewInMemoryRepository()
		chartRepository = chartrepo.NewInMemoryRepository()
	}

	mirror, err := storage.NewS3Mirror(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize template mirror")
	}
	templateFiles, err := storage.NewLocalTemplateStore(cfg, mirror, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize template storage")
	}
	artifactFiles, err := storage.NewLocalArtifactStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize artifact storage")
	}
	checks["templates"] = templateFiles.Health
	if mirror.Enabled() {
		checks["s3"] = mirror.Health
	}

	templateService := template.NewService(templateRepository, templateFiles, newAnalyzer(cfg, log), log)
	chartService := quadchart.NewService(chartRepository, log)
	artifactService := artifact.NewService(artifactFiles, log)
	generationService := generation.NewService(templateService, chartService, newRenderer(cfg, log), artifactService,
		generation.Options{PublicBaseURL: cfg.PublicBaseURL}, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	provider := handlers.NewProvider(cfg, templateService, chartService, generationService, artifactService, log)
	httpServer := httpserver.New(cfg, log, provider, authValidator, checks)
	app := NewApplication(httpServer, crontab.NewCrontab(cfg, artifactService, log), log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newRenderer(cfg *config.Config, log zerolog.Logger) *renderer.Renderer {
	return renderer.NewRenderer(renderer.Options{
		PreferredInterpreter: cfg.PreferredInterpreter,
		FallbackInterpreter:  cfg.FallbackInterpreter,
		Script:               cfg.RendererScript,
		Timeout:              cfg.RenderTimeout,
	}, log)
}

func newAnalyzer(cfg *config.Config, log zerolog.Logger) *renderer.Analyzer {
	return renderer.NewAnalyzer(renderer.Options{
		PreferredInterpreter: cfg.PreferredInterpreter,
		FallbackInterpreter:  cfg.FallbackInterpreter,
		Script:               cfg.AnalyzerScript,
		Timeout:              cfg.AnalyzeTimeout,
	}, log)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
