package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"jan-server/services/quadchart-api/internal/infrastructure/database/entities"
)

// Migrate applies the schema for every persisted entity.
func Migrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	models := entities.Models()
	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return err
	}
	log.Info().Int("tables", len(models)).Msg("applied schema migrations")
	return nil
}
