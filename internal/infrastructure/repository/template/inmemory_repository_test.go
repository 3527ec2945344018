package template

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "jan-server/services/quadchart-api/internal/domain/template"
	"jan-server/services/quadchart-api/internal/utils/platformerrors"
)

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	tpl := &domain.Template{
		ID:           "tpl_1",
		Placeholders: []string{"[A]"},
		Mappings:     map[string]domain.FieldMapping{"[A]": {Field: "a", Type: domain.FieldTypeText}},
		Active:       true,
	}
	require.NoError(t, repo.Create(ctx, tpl))

	tpl.Placeholders[0] = "[mutated]"
	loaded, err := repo.FindByID(ctx, "tpl_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"[A]"}, loaded.Placeholders)

	loaded.Mappings["[A]"] = domain.FieldMapping{Field: "changed"}
	again, err := repo.FindByID(ctx, "tpl_1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.Mappings["[A]"].Field)
}

func TestInMemoryRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	parent := "tpl_1"
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &domain.Template{ID: "tpl_1", Active: true, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &domain.Template{ID: "tpl_2", Active: false, ParentID: &parent, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.Template{ID: "tpl_3", Active: true, ParentID: &parent, CreatedAt: base.Add(2 * time.Hour)}))

	all, err := repo.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "tpl_1", all[0].ID)

	active, err := repo.List(ctx, domain.Filter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	children, err := repo.List(ctx, domain.Filter{ParentID: &parent})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "tpl_2", children[0].ID)
}

func TestInMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.FindByID(ctx, "missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = repo.Delete(ctx, "missing")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	err = repo.Update(ctx, &domain.Template{ID: "missing"})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
