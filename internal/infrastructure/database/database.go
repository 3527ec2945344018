package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"jan-server/services/quadchart-api/internal/config"
)

// Open connects to the write DSN, applies the connection pool settings from cfg
// and migrates the schema. A URL DSN naming a missing database gets it created first.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DBPostgresqlWriteDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DB_POSTGRESQL_WRITE_DSN is empty")
	}
	dbLog := log.With().Str("component", "database").Logger()

	if err := ensureDatabaseExists(ctx, dsn, dbLog); err != nil {
		return nil, fmt.Errorf("ensure database: %w", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(cfg, dbLog))
	if err != nil {
		dbLog.Error().Err(err).Msg("unable to connect to database")
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("retrieve sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)

	if err := Migrate(ctx, db, dbLog); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	dbLog.Info().
		Int("max_open_conns", cfg.DBMaxOpenConns).
		Int("max_idle_conns", cfg.DBMaxIdleConns).
		Msg("connected to database")
	return db, nil
}

func gormConfig(cfg *config.Config, log zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		PrepareStmt: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: NewGormLogger(log, ParseLogLevel(cfg.DBLogLevel), cfg.DBSlowQuery),
	}
}

// Ping checks that the pool can reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ParseLogLevel maps DB_LOG_LEVEL onto a gorm log level. Unknown names mean warn.
func ParseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func ensureDatabaseExists(ctx context.Context, dsn string, log zerolog.Logger) error {
	target, ok := maintenanceTarget(dsn)
	if !ok {
		return nil
	}

	admin, err := sql.Open("postgres", target.adminDSN)
	if err != nil {
		return err
	}
	defer admin.Close()

	var exists bool
	if err := admin.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", target.name).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(target.name)); err != nil {
		return err
	}
	log.Info().Str("database", target.name).Msg("created missing database")
	return nil
}

type maintenance struct {
	name     string
	adminDSN string
}

// maintenanceTarget returns the database named by a URL DSN together with a DSN
// for the postgres maintenance database on the same server. Key=value DSNs and
// DSNs that already point at postgres report false.
func maintenanceTarget(dsn string) (maintenance, bool) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return maintenance{}, false
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" || name == "postgres" {
		return maintenance{}, false
	}
	admin := *u
	admin.Path = "/postgres"
	return maintenance{name: name, adminDSN: admin.String()}, true
}

func quoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
