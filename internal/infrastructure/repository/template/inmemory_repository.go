package template

import (
	"context"
	"sort"
	"sync"

	domain "jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

// InMemoryRepository is a thread-safe repository used when no database is configured and in tests.
// Concurrent updates of the same template are last-write-wins.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Template
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]*domain.Template)}
}

func (r *InMemoryRepository) Create(ctx context.Context, tpl *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tpl.ID]; exists {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			"template already exists", nil, "template-create-conflict-001")
	}
	r.entries[tpl.ID] = tpl.Copy()
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, tpl *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tpl.ID]; !exists {
		return notFound(ctx, tpl.ID)
	}
	r.entries[tpl.ID] = tpl.Copy()
	return nil
}

func (r *InMemoryRepository) FindByID(ctx context.Context, id string) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.entries[id]
	if !ok {
		return nil, notFound(ctx, id)
	}
	return tpl.Copy(), nil
}

func (r *InMemoryRepository) List(ctx context.Context, filter domain.Filter) ([]*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Template, 0, len(r.entries))
	for _, tpl := range r.entries {
		if !matches(tpl, filter) {
			continue
		}
		out = append(out, tpl.Copy())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return notFound(ctx, id)
	}
	delete(r.entries, id)
	return nil
}

func matches(tpl *domain.Template, filter domain.Filter) bool {
	if filter.ActiveOnly && !tpl.Active {
		return false
	}
	if filter.ParentID != nil && (tpl.ParentID == nil || *tpl.ParentID != *filter.ParentID) {
		return false
	}
	if filter.Client != "" && tpl.Client != filter.Client {
		return false
	}
	if filter.Category != "" && tpl.Category != filter.Category {
		return false
	}
	return true
}

func notFound(ctx context.Context, id string) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"template not found", nil, "template-not-found-001", map[string]any{"template_id": id})
}
