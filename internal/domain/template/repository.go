package template

import "context"

// Repository persists template metadata.
type Repository interface {
	Create(ctx context.Context, tpl *Template) error
	Update(ctx context.Context, tpl *Template) error
	FindByID(ctx context.Context, id string) (*Template, error)
	List(ctx context.Context, filter Filter) ([]*Template, error)
	Delete(ctx context.Context, id string) error
}
