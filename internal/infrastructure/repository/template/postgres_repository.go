package template

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/infrastructure/database/entities"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// PostgresRepository persists template metadata with gorm.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new template row.
func (r *PostgresRepository) Create(ctx context.Context, tpl *domain.Template) error {
	entity, err := toEntity(tpl)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode template", err, "template-create-encode-001")
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create template", err, "template-create-db-001")
	}
	return nil
}

// Update overwrites the mutable columns of a template. Last write wins.
func (r *PostgresRepository) Update(ctx context.Context, tpl *domain.Template) error {
	entity, err := toEntity(tpl)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode template", err, "template-update-encode-001")
	}

	updates := map[string]interface{}{
		"name":         entity.Name,
		"description":  entity.Description,
		"client":       entity.Client,
		"category":     entity.Category,
		"placeholders": entity.Placeholders,
		"mappings":     entity.Mappings,
		"slide_count":  entity.SlideCount,
		"version":      entity.Version,
		"parent_id":    entity.ParentID,
		"active":       entity.Active,
		"updated_at":   entity.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Template{}).
		Where("id = ?", tpl.ID).
		Updates(updates)
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update template", result.Error, "template-update-db-001")
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, tpl.ID)
	}
	return nil
}

// FindByID loads a template by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	var entity entities.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, id)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to load template", err, "template-find-db-001")
	}
	return toDomain(&entity)
}

func filterScope(filter domain.Filter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		if filter.ActiveOnly {
			query = query.Where("active = ?", true)
		}
		if filter.ParentID != nil {
			query = query.Where("parent_id = ?", *filter.ParentID)
		}
		if filter.Client != "" {
			query = query.Where("client = ?", filter.Client)
		}
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
		return query.Order("created_at ASC, id ASC")
	}
}

// List returns templates ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Template, error) {
	var rows []entities.Template
	if err := r.db.WithContext(ctx).Model(&entities.Template{}).Scopes(filterScope(filter)).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list templates", err, "template-list-db-001")
	}

	out := make([]*domain.Template, 0, len(rows))
	for i := range rows {
		tpl, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

// Delete removes a template row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Template{})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete template", result.Error, "template-delete-db-001")
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, id)
	}
	return nil
}

func toEntity(tpl *domain.Template) (*entities.Template, error) {
	placeholders, err := json.Marshal(tpl.Placeholders)
	if err != nil {
		return nil, err
	}
	mappings, err := json.Marshal(tpl.Mappings)
	if err != nil {
		return nil, err
	}
	return &entities.Template{
		ID:           tpl.ID,
		Name:         tpl.Name,
		Description:  tpl.Description,
		FileName:     tpl.FileName,
		Client:       tpl.Client,
		Category:     tpl.Category,
		Placeholders: datatypes.JSON(placeholders),
		Mappings:     datatypes.JSON(mappings),
		SlideCount:   tpl.SlideCount,
		Version:      tpl.Version,
		ParentID:     tpl.ParentID,
		Active:       tpl.Active,
		CreatedBy:    tpl.CreatedBy,
		CreatedAt:    tpl.CreatedAt,
		UpdatedAt:    tpl.UpdatedAt,
	}, nil
}

func toDomain(entity *entities.Template) (*domain.Template, error) {
	tpl := &domain.Template{
		ID:          entity.ID,
		Name:        entity.Name,
		Description: entity.Description,
		FileName:    entity.FileName,
		Client:      entity.Client,
		Category:    entity.Category,
		SlideCount:  entity.SlideCount,
		Version:     entity.Version,
		ParentID:    entity.ParentID,
		Active:      entity.Active,
		CreatedBy:   entity.CreatedBy,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
	if len(entity.Placeholders) > 0 {
		if err := json.Unmarshal(entity.Placeholders, &tpl.Placeholders); err != nil {
			return nil, err
		}
	}
	if len(entity.Mappings) > 0 {
		if err := json.Unmarshal(entity.Mappings, &tpl.Mappings); err != nil {
			return nil, err
		}
	}
	if tpl.Placeholders == nil {
		tpl.Placeholders = []string{}
	}
	return tpl, nil
}
