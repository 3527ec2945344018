package quadchart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/utils/idgen"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Repository persists chart records and their history. Events passed to Create
// and Update are stored in the same write as the chart.
type Repository interface {
	Create(ctx context.Context, chart *QuadChart, events ...*Event) error
	Update(ctx context.Context, chart *QuadChart, events ...*Event) error
	FindByID(ctx context.Context, id string) (*QuadChart, error)
	List(ctx context.Context, filter Filter) ([]*QuadChart, int64, error)
	ListAll(ctx context.Context) ([]*QuadChart, error)
	Delete(ctx context.Context, id string) error
	AppendEvent(ctx context.Context, event *Event) error
	// ListEvents returns a chart's history newest first.
	ListEvents(ctx context.Context, chartID string) ([]*Event, error)
}

// Service manages chart records and moves them through review.
type Service interface {
	Create(ctx context.Context, chart *QuadChart) (*QuadChart, error)
	Get(ctx context.Context, id string) (*QuadChart, error)
	List(ctx context.Context, filter Filter) ([]*QuadChart, int64, error)
	Update(ctx context.Context, id string, chart *QuadChart) (*QuadChart, error)
	Delete(ctx context.Context, id string) error

	// Submit moves a draft to submitted.
	Submit(ctx context.Context, id string) (*QuadChart, error)
	// Approve moves a submitted chart to approved.
	Approve(ctx context.Context, id, notes string) (*QuadChart, error)
	// Reject moves a submitted chart to rejected. A reason is required.
	Reject(ctx context.Context, id, reason string) (*QuadChart, error)
	Comment(ctx context.Context, id string, input CommentInput) (*Event, error)
	History(ctx context.Context, id string) ([]*Event, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	log  zerolog.Logger
}

// NewService constructs the chart record service.
func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  log.With().Str("component", "quadchart-service").Logger(),
	}
}

func (s *service) Create(ctx context.Context, chart *QuadChart) (*QuadChart, error) {
	if chart == nil {
		return nil, validationError(ctx, "chart is required", "quadchart-create-empty-001")
	}
	record := chart.Copy()
	if record.Status == "" {
		record.Status = StatusDraft
	}
	if err := validate(ctx, record); err != nil {
		return nil, err
	}
	if !record.Status.Editable() {
		return nil, validationError(ctx, fmt.Sprintf("new quad charts start as %s or %s, not %q", StatusDraft, StatusInReview, record.Status),
			"quadchart-create-status-001")
	}

	now := s.now()
	record.ID = idgen.New(idgen.QuadChartPrefix)
	record.VersionNumber = 1
	if actor := ActorFromContext(ctx); actor != "" {
		record.CreatedBy = actor
	}
	record.SubmittedAt, record.ApprovedAt = nil, nil
	record.ApprovedBy, record.RejectionReason = "", ""
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.repo.Create(ctx, record, s.event(ctx, record, ActionCreated, "")); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create quad chart")
	}
	s.log.Info().Str("quad_chart_id", record.ID).Msg("quad chart created")
	return record, nil
}

func (s *service) Get(ctx context.Context, id string) (*QuadChart, error) {
	chart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}
	return chart, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*QuadChart, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, validationError(ctx, fmt.Sprintf("unknown status %q", filter.Status), "quadchart-list-status-001")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)

	charts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list quad charts")
	}
	return charts, total, nil
}

// Update replaces the editable content of a chart. Submitted and later states are
// frozen, and the status itself only moves between draft and in_review here.
func (s *service) Update(ctx context.Context, id string, chart *QuadChart) (*QuadChart, error) {
	if chart == nil {
		return nil, validationError(ctx, "chart is required", "quadchart-update-empty-001")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}
	if !existing.Status.Editable() {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("quad chart in status %q can no longer be edited", existing.Status), nil, "quadchart-update-status-001",
			map[string]any{"quad_chart_id": id})
	}

	updated := chart.Copy()
	if updated.Status == "" {
		updated.Status = existing.Status
	}
	if err := validate(ctx, updated); err != nil {
		return nil, err
	}
	if updated.Status != existing.Status && !updated.Status.Editable() {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("status %q is reached through the review workflow, not an update", updated.Status), nil,
			"quadchart-update-status-002", map[string]any{"quad_chart_id": id})
	}
	updated.ID = existing.ID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.SubmittedAt = existing.SubmittedAt
	updated.ApprovedBy = existing.ApprovedBy
	updated.ApprovedAt = existing.ApprovedAt
	updated.RejectionReason = existing.RejectionReason
	updated.VersionNumber = existing.VersionNumber + 1
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated, s.event(ctx, updated, ActionUpdated, "")); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update quad chart")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete quad chart")
	}
	return nil
}

func validate(ctx context.Context, chart *QuadChart) error {
	chart.OpportunityName = strings.TrimSpace(chart.OpportunityName)
	if chart.OpportunityName == "" {
		return validationError(ctx, "opportunityName is required", "quadchart-validate-name-001")
	}
	if !chart.Status.Valid() {
		return validationError(ctx, fmt.Sprintf("unknown status %q", chart.Status), "quadchart-validate-status-001")
	}
	chart.Email = strings.TrimSpace(chart.Email)
	if err := structValidator.Struct(chart); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return validationError(ctx, describeFieldError(fieldErrs[0]), "quadchart-validate-fields-001")
		}
		return validationError(ctx, err.Error(), "quadchart-validate-fields-002")
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "email is not a valid address"
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s characters", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}

func validationError(ctx context.Context, message, code string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, nil, code)
}
