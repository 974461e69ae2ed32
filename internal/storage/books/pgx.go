package books

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/types"
)

var (
	subGenres = goqu.Select(goqu.L("coalesce(array_agg(genre_id order by genre_order), '{}')")).
		From("book_genre").
		Where(goqu.C("book_id").Eq(goqu.C("id").Table("book")))
)

// db is the part of *pgxpool.Pool the repository uses
type db interface {
	pgxscan.Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return newRepo(pg, l)
}

func newRepo(pg db, l *slog.Logger) *pgxRepo {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg db
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxBook struct {
	Id          string     `db:"id"`
	Title       string     `db:"title"`
	AuthorId    string     `db:"author_id"`
	Image       string     `db:"image"`
	Published   *time.Time `db:"published"`
	Description string     `db:"description"`
}

type pgxBookFull struct {
	Base   pgxBook  `db:""` // follow
	Genres []string `db:"genres"`
}

func (b *pgxBook) intoCommon(genres []string, l *slog.Logger, ctx context.Context) *types.Book {
	image := b.Image
	if image != "" {
		u, err := url.Parse(image)
		if err != nil {
			l.ErrorContext(ctx, "Failed to parse image URL stored in DB ("+image+"): "+err.Error())
			image = ""
		} else {
			image = u.String()
		}
	}

	var published time.Time
	if b.Published != nil {
		published = b.Published.UTC()
	}

	return &types.Book{
		Id:          b.Id,
		Title:       b.Title,
		Author:      b.AuthorId,
		Image:       image,
		Genres:      genres,
		Published:   published,
		Description: b.Description,
	}
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Book, error) {
	sql, params, err := p.g.From("book").
		Select("id", "title", "author_id", "image", "published", "description",
			subGenres.As("genres")).
		Order(goqu.C("seq").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBookFull

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.Base.intoCommon(row.Genres, p.l, ctx))
	}

	return ret, nil
}

func (p *pgxRepo) Save(ctx context.Context, books ...*types.Book) error {
	if len(books) == 0 {
		return nil
	}

	rows := make([]any, 0, len(books))
	for _, book := range books {
		var published *time.Time
		if !book.Published.IsZero() {
			t := book.Published
			published = &t
		}

		rows = append(rows, pgxBook{
			Id:          book.Id,
			Title:       book.Title,
			AuthorId:    book.Author,
			Image:       book.Image,
			Published:   published,
			Description: book.Description,
		})
	}

	sql, params, err := p.g.Insert("book").
		Rows(rows...).
		OnConflict(goqu.DoUpdate("id", map[string]any{
			"title":       goqu.L("excluded.title"),
			"author_id":   goqu.L("excluded.author_id"),
			"image":       goqu.L("excluded.image"),
			"published":   goqu.L("excluded.published"),
			"description": goqu.L("excluded.description"),
		})).
		ToSQL()
	if err != nil {
		return err
	}

	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, sql, params...)
	if err != nil {
		return fmt.Errorf("upsert books: %w", err)
	}

	for _, book := range books {
		err = p.linkGenres(ctx, tx, book.Id, book.Genres...)
		if err != nil {
			return fmt.Errorf("linking genres of book %s: %w", book.Id, err)
		}
	}

	return tx.Commit(ctx)
}

func (p *pgxRepo) linkGenres(ctx context.Context, tx pgx.Tx, bookId string, genreIds ...string) error {
	sql, params, err := p.g.Delete("book_genre").
		Where(goqu.C("book_id").Eq(bookId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, params...)
	if err != nil {
		return err
	}

	if len(genreIds) == 0 {
		return nil
	}

	type row struct {
		BookId     string `db:"book_id"`
		GenreId    string `db:"genre_id"`
		GenreOrder uint16 `db:"genre_order"`
	}

	rows := make([]any, 0, len(genreIds))

	for ix, genreId := range genreIds {
		rows = append(rows, row{
			BookId:     bookId,
			GenreId:    genreId,
			GenreOrder: uint16(ix + 1),
		})
	}

	sql, params, err = p.g.Insert("book_genre").
		Rows(rows...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, params...)
	return err
}
