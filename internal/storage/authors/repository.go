package authors

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetAll returns authors ordered by name
	GetAll(ctx context.Context) ([]*types.Author, error)

	Save(ctx context.Context, authors ...*types.Author) error
}
