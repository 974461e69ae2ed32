package genres

import (
	"context"

	"bookshelf/internal/types"
)

type Repository interface {
	// GetAll returns genres ordered by name
	GetAll(ctx context.Context) ([]*types.Genre, error)

	Save(ctx context.Context, genres ...*types.Genre) error
}
