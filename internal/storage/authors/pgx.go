package authors

import (
	"context"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/types"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxAuthor struct {
	Id   string `db:"id"`
	Name string `db:"name"`
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Author, error) {
	sql, params, err := p.g.From("author").
		Select("id", "name").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxAuthor

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &types.Author{Id: row.Id, Name: row.Name})
	}

	return ret, nil
}

func (p *pgxRepo) Save(ctx context.Context, authors ...*types.Author) error {
	if len(authors) == 0 {
		return nil
	}

	rows := make([]any, 0, len(authors))
	for _, author := range authors {
		rows = append(rows, pgxAuthor{
			Id:   author.Id,
			Name: author.Name,
		})
	}

	sql, params, err := p.g.Insert("author").
		Rows(rows...).
		OnConflict(goqu.DoUpdate("id", map[string]any{
			"name": goqu.L("excluded.name"),
		})).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	if err == nil {
		p.l.DebugContext(ctx, "Saved authors", slog.Int("count", len(authors)))
	}

	return err
}
