package quadchart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/infrastructure/database/entities"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// PostgresRepository persists chart records with gorm.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, chart *domain.QuadChart, events ...*domain.Event) error {
	entity, err := toEntity(chart)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode quad chart", err, "quadchart-create-encode-001")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to create quad chart", err, "quadchart-create-db-001")
		}
		return insertEvents(ctx, tx, events)
	})
}

func (r *PostgresRepository) Update(ctx context.Context, chart *domain.QuadChart, events ...*domain.Event) error {
	entity, err := toEntity(chart)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
			"failed to encode quad chart", err, "quadchart-update-encode-001")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.QuadChart{}).
			Where("id = ?", chart.ID).
			Select("*").
			Omit("id", "created_at", "created_by").
			Updates(entity)
		if result.Error != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to update quad chart", result.Error, "quadchart-update-db-001")
		}
		if result.RowsAffected == 0 {
			return notFound(ctx, chart.ID)
		}
		return insertEvents(ctx, tx, events)
	})
}

func insertEvents(ctx context.Context, tx *gorm.DB, events []*domain.Event) error {
	rows := make([]*entities.QuadChartEvent, 0, len(events))
	for _, event := range events {
		if event != nil {
			rows = append(rows, eventToEntity(event))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to record quad chart history", err, "quadchart-event-db-001")
	}
	return nil
}

func (r *PostgresRepository) AppendEvent(ctx context.Context, event *domain.Event) error {
	return insertEvents(ctx, r.db.WithContext(ctx), []*domain.Event{event})
}

func (r *PostgresRepository) ListEvents(ctx context.Context, chartID string) ([]*domain.Event, error) {
	var rows []entities.QuadChartEvent
	if err := r.db.WithContext(ctx).
		Where("chart_id = ?", chartID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list quad chart history", err, "quadchart-event-list-db-001")
	}
	out := make([]*domain.Event, 0, len(rows))
	for i := range rows {
		out = append(out, eventToDomain(&rows[i]))
	}
	return out, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.QuadChart, error) {
	var entity entities.QuadChart
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, id)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to load quad chart", err, "quadchart-find-db-001")
	}
	return toDomain(&entity)
}

// filterScope narrows a chart query by status and a case-insensitive substring search.
func filterScope(filter domain.Filter) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			query = query.Where("status = ?", string(filter.Status))
		}
		if filter.Search != "" {
			like := "%" + escapeLike(filter.Search) + "%"
			query = query.Where(`opportunity_name ILIKE ? ESCAPE '\' OR company_name ILIKE ? ESCAPE '\' OR client_name ILIKE ? ESCAPE '\'`,
				like, like, like)
		}
		return query
	}
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}

func (r *PostgresRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.QuadChart, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.QuadChart{}).Scopes(filterScope(filter))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to count quad charts", err, "quadchart-count-db-001")
	}

	var rows []entities.QuadChart
	if err := query.Order("updated_at DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list quad charts", err, "quadchart-list-db-001")
	}

	out := make([]*domain.QuadChart, 0, len(rows))
	for i := range rows {
		chart, err := toDomain(&rows[i])
		if err != nil {
			return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
				"failed to decode quad chart", err, "quadchart-list-decode-001")
		}
		out = append(out, chart)
	}
	return out, total, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.QuadChart, error) {
	var rows []entities.QuadChart
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list quad charts", err, "quadchart-list-all-db-001")
	}
	out := make([]*domain.QuadChart, 0, len(rows))
	for i := range rows {
		chart, err := toDomain(&rows[i])
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeInternal,
				"failed to decode quad chart", err, "quadchart-list-all-decode-001")
		}
		out = append(out, chart)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&entities.QuadChart{})
		if result.Error != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to delete quad chart", result.Error, "quadchart-delete-db-001")
		}
		if result.RowsAffected == 0 {
			return notFound(ctx, id)
		}
		if err := tx.Where("chart_id = ?", id).Delete(&entities.QuadChartEvent{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
				"failed to delete quad chart history", err, "quadchart-delete-db-002")
		}
		return nil
	})
}

func toEntity(chart *domain.QuadChart) (*entities.QuadChart, error) {
	entity := &entities.QuadChart{
		ID:              chart.ID,
		OpportunityName: chart.OpportunityName,
		CompanyName:     chart.CompanyName,
		ClientName:      chart.ClientName,
		SubmissionDate:  chart.SubmissionDate,
		ContractValue:   string(chart.ContractValue),
		RFPDate:         chart.RFPDate,
		AwardDate:       chart.AwardDate,
		TechnicalPOC:    chart.TechnicalPOC,
		Email:           chart.Email,
		Phone:           string(chart.Phone),
		Status:          string(chart.Status),
		TemplateID:      chart.TemplateID,
		VersionNumber:   chart.VersionNumber,
		CreatedBy:       chart.CreatedBy,
		SubmittedAt:     chart.SubmittedAt,
		ApprovedBy:      chart.ApprovedBy,
		ApprovedAt:      chart.ApprovedAt,
		RejectionReason: chart.RejectionReason,
		CreatedAt:       chart.CreatedAt,
		UpdatedAt:       chart.UpdatedAt,
	}

	var err error
	if entity.TechnicalData, err = encodeJSON(chart.TechnicalData); err != nil {
		return nil, err
	}
	if entity.ManagementData, err = encodeJSON(chart.ManagementData); err != nil {
		return nil, err
	}
	if entity.PastPerformanceData, err = encodeJSON(chart.PastPerformanceData); err != nil {
		return nil, err
	}
	if entity.CostScheduleData, err = encodeJSON(chart.CostScheduleData); err != nil {
		return nil, err
	}
	if entity.AdditionalData, err = encodeJSON(chart.AdditionalData); err != nil {
		return nil, err
	}
	return entity, nil
}

func toDomain(entity *entities.QuadChart) (*domain.QuadChart, error) {
	chart := &domain.QuadChart{
		ID:              entity.ID,
		OpportunityName: entity.OpportunityName,
		CompanyName:     entity.CompanyName,
		ClientName:      entity.ClientName,
		SubmissionDate:  entity.SubmissionDate,
		ContractValue:   domain.FlexString(entity.ContractValue),
		RFPDate:         entity.RFPDate,
		AwardDate:       entity.AwardDate,
		TechnicalPOC:    entity.TechnicalPOC,
		Email:           entity.Email,
		Phone:           domain.FlexString(entity.Phone),
		Status:          domain.Status(entity.Status),
		TemplateID:      entity.TemplateID,
		VersionNumber:   entity.VersionNumber,
		CreatedBy:       entity.CreatedBy,
		SubmittedAt:     entity.SubmittedAt,
		ApprovedBy:      entity.ApprovedBy,
		ApprovedAt:      entity.ApprovedAt,
		RejectionReason: entity.RejectionReason,
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}

	quadrants := []struct {
		raw datatypes.JSON
		dst **domain.QuadrantContent
	}{
		{entity.TechnicalData, &chart.TechnicalData},
		{entity.ManagementData, &chart.ManagementData},
		{entity.PastPerformanceData, &chart.PastPerformanceData},
		{entity.CostScheduleData, &chart.CostScheduleData},
	}
	for _, q := range quadrants {
		if len(q.raw) == 0 || string(q.raw) == "null" {
			continue
		}
		var content domain.QuadrantContent
		if err := json.Unmarshal(q.raw, &content); err != nil {
			return nil, err
		}
		*q.dst = &content
	}

	if len(entity.AdditionalData) > 0 && string(entity.AdditionalData) != "null" {
		if err := json.Unmarshal(entity.AdditionalData, &chart.AdditionalData); err != nil {
			return nil, err
		}
	}
	return chart, nil
}

func eventToEntity(event *domain.Event) *entities.QuadChartEvent {
	return &entities.QuadChartEvent{
		ID:            event.ID,
		ChartID:       event.ChartID,
		Action:        string(event.Action),
		Actor:         event.Actor,
		Notes:         event.Notes,
		Quadrant:      event.Quadrant,
		ParentID:      event.ParentID,
		VersionNumber: event.VersionNumber,
		CreatedAt:     event.CreatedAt,
	}
}

func eventToDomain(entity *entities.QuadChartEvent) *domain.Event {
	return &domain.Event{
		ID:            entity.ID,
		ChartID:       entity.ChartID,
		Action:        domain.EventAction(entity.Action),
		Actor:         entity.Actor,
		Notes:         entity.Notes,
		Quadrant:      entity.Quadrant,
		ParentID:      entity.ParentID,
		VersionNumber: entity.VersionNumber,
		CreatedAt:     entity.CreatedAt,
	}
}

func encodeJSON(value any) (datatypes.JSON, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
