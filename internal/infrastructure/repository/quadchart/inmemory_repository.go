package quadchart

import (
	"context"
	"sort"
	"strings"
	"sync"

	domain "jan-server/services/quadchart-api/internal/domain/quadchart"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// InMemoryRepository keeps chart records and their history in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.QuadChart
	events  map[string][]domain.Event
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		entries: make(map[string]*domain.QuadChart),
		events:  make(map[string][]domain.Event),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, chart *domain.QuadChart, events ...*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[chart.ID]; exists {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			"quad chart already exists", nil, "quadchart-create-conflict-001")
	}
	r.entries[chart.ID] = chart.Copy()
	r.appendLocked(events)
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, chart *domain.QuadChart, events ...*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[chart.ID]; !exists {
		return notFound(ctx, chart.ID)
	}
	r.entries[chart.ID] = chart.Copy()
	r.appendLocked(events)
	return nil
}

func (r *InMemoryRepository) appendLocked(events []*domain.Event) {
	for _, event := range events {
		if event != nil {
			r.events[event.ChartID] = append(r.events[event.ChartID], copyEvent(event))
		}
	}
}

func (r *InMemoryRepository) AppendEvent(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[event.ChartID]; !exists {
		return notFound(ctx, event.ChartID)
	}
	r.appendLocked([]*domain.Event{event})
	return nil
}

// ListEvents returns the newest entry first. Entries stamped at the same instant keep reverse insertion order.
func (r *InMemoryRepository) ListEvents(ctx context.Context, chartID string) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.events[chartID]
	out := make([]*domain.Event, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		event := copyEvent(&stored[i])
		out = append(out, &event)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*domain.QuadChart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.QuadChart, 0, len(r.entries))
	for _, chart := range r.entries {
		out = append(out, chart.Copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyEvent(event *domain.Event) domain.Event {
	out := *event
	if event.ParentID != nil {
		parent := *event.ParentID
		out.ParentID = &parent
	}
	return out
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*domain.QuadChart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chart, ok := r.entries[id]
	if !ok {
		return nil, notFound(ctx, id)
	}
	return chart.Copy(), nil
}

// List returns the newest charts first.
func (r *InMemoryRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.QuadChart, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*domain.QuadChart, 0, len(r.entries))
	for _, chart := range r.entries {
		if filter.Status != "" && chart.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(chart.OpportunityName), search) &&
			!strings.Contains(strings.ToLower(chart.CompanyName), search) &&
			!strings.Contains(strings.ToLower(chart.ClientName), search) {
			continue
		}
		matched = append(matched, chart)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	out := make([]*domain.QuadChart, 0, end-start)
	for _, chart := range matched[start:end] {
		out = append(out, chart.Copy())
	}
	return out, total, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return notFound(ctx, id)
	}
	delete(r.entries, id)
	delete(r.events, id)
	return nil
}

func notFound(ctx context.Context, id string) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"quad chart not found", nil, "quadchart-not-found-001", map[string]any{"quad_chart_id": id})
}
