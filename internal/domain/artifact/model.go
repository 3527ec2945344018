package artifact

import (
	"context"
	"io"
	"time"
)

// Info describes a stored artifact file.
type Info struct {
	Name       string    `json:"fileName"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Store is the file layer under the output directory. Names are bare file names.
type Store interface {
	Path(name string) string
	Open(ctx context.Context, name string) (io.ReadCloser, *Info, error)
	Stat(ctx context.Context, name string) (*Info, error)
	List(ctx context.Context) ([]Info, error)
	// Remove deletes a file. Removing a file that is already gone is not an error.
	Remove(ctx context.Context, name string) error
}
