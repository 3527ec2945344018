package quadchart

import (
	"context"
	"fmt"
	"strings"

	"jan-server/services/quadchart-api/internal/utils/idgen"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

type contextKey string

const actorKey contextKey = "quadchart-actor"

// ContextWithActor records who is acting on charts for the rest of the request.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil || actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting subject, or "" for anonymous calls.
func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if actor, ok := ctx.Value(actorKey).(string); ok {
		return actor
	}
	return ""
}

func (s *service) Submit(ctx context.Context, id string) (*QuadChart, error) {
	return s.transition(ctx, id, StatusDraft, ActionSubmitted, "", func(chart *QuadChart) {
		now := s.now()
		chart.Status = StatusSubmitted
		chart.SubmittedAt = &now
		chart.RejectionReason = ""
	})
}

func (s *service) Approve(ctx context.Context, id, notes string) (*QuadChart, error) {
	notes = strings.TrimSpace(notes)
	return s.transition(ctx, id, StatusSubmitted, ActionApproved, notes, func(chart *QuadChart) {
		now := s.now()
		chart.Status = StatusApproved
		chart.ApprovedBy = ActorFromContext(ctx)
		chart.ApprovedAt = &now
	})
}

func (s *service) Reject(ctx context.Context, id, reason string) (*QuadChart, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError(ctx, "rejection reason is required", "quadchart-reject-reason-001")
	}
	return s.transition(ctx, id, StatusSubmitted, ActionRejected, reason, func(chart *QuadChart) {
		chart.Status = StatusRejected
		chart.RejectionReason = reason
	})
}

// transition applies apply to a chart currently in from, then stores the chart and its
// history entry together. Transitions do not bump the content version.
func (s *service) transition(ctx context.Context, id string, from Status, action EventAction, notes string, apply func(*QuadChart)) (*QuadChart, error) {
	chart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}
	if chart.Status != from {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			fmt.Sprintf("quad chart must be %s to be %s, it is %s", from, action, chart.Status), nil,
			"quadchart-transition-status-001", map[string]any{"quad_chart_id": id, "status": string(chart.Status)})
	}

	apply(chart)
	chart.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, chart, s.event(ctx, chart, action, notes)); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update quad chart status")
	}
	s.log.Info().
		Str("quad_chart_id", chart.ID).
		Str("action", string(action)).
		Str("status", string(chart.Status)).
		Msg("quad chart status changed")
	return chart, nil
}

// Comment files a reviewer note. A reply names the comment it answers, which must belong to the same chart.
func (s *service) Comment(ctx context.Context, id string, input CommentInput) (*Event, error) {
	text := strings.TrimSpace(input.Comment)
	if text == "" {
		return nil, validationError(ctx, "comment is required", "quadchart-comment-empty-001")
	}
	chart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}

	event := s.event(ctx, chart, ActionCommented, text)
	event.Quadrant = strings.TrimSpace(input.Quadrant)
	if event.Quadrant == "" {
		event.Quadrant = GeneralQuadrant
	}
	if parentID := strings.TrimSpace(input.ParentID); parentID != "" {
		if err := s.requireComment(ctx, chart.ID, parentID); err != nil {
			return nil, err
		}
		event.ParentID = &parentID
	}

	if err := s.repo.AppendEvent(ctx, event); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store comment")
	}
	return event, nil
}

func (s *service) requireComment(ctx context.Context, chartID, eventID string) error {
	events, err := s.repo.ListEvents(ctx, chartID)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart history")
	}
	for _, event := range events {
		if event.ID == eventID && event.Action == ActionCommented {
			return nil
		}
	}
	return validationError(ctx, fmt.Sprintf("parent comment %q does not exist on this quad chart", eventID),
		"quadchart-comment-parent-001")
}

func (s *service) History(ctx context.Context, id string) ([]*Event, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart")
	}
	events, err := s.repo.ListEvents(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load quad chart history")
	}
	return events, nil
}

func (s *service) event(ctx context.Context, chart *QuadChart, action EventAction, notes string) *Event {
	return &Event{
		ID:            idgen.New(idgen.EventPrefix),
		ChartID:       chart.ID,
		Action:        action,
		Actor:         ActorFromContext(ctx),
		Notes:         notes,
		VersionNumber: chart.VersionNumber,
		CreatedAt:     s.now(),
	}
}
