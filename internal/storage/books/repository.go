package books

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetAll returns every book with its genre ids, in insertion order
	GetAll(ctx context.Context) ([]*types.Book, error)

	// Save upserts book rows and replaces their genre links. Either all of it lands or none.
	Save(ctx context.Context, books ...*types.Book) error
}
