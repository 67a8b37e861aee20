package project

import (
	"context"

	"table-manager/core/table"
	"table-manager/feature/tablestore"
)

// Store is the table persistence the pipelines need.
type Store interface {
	Save(ctx context.Context, f *table.File) error
	Load(ctx context.Context, name string) (*table.File, error)
	List(ctx context.Context) ([]tablestore.Summary, error)
}
