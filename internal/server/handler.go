package server

import (
	"encoding/xml"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/opds-community/libopds2-go/opds1"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/response"
	"bookshelf/internal/theme"
)

const (
	contentTypeAcquisition = "application/atom+xml;profile=opds-catalog;kind=acquisition"
	linkRelImage           = "http://opds-spec.org/image"
	linkRelNext            = "next"
	linkRelSelf            = "self"

	headerPrefersColorScheme = "Sec-CH-Prefers-Color-Scheme"
)

type viewResponse struct {
	browse.View
	State string `json:"state"`
}

type atomFeed struct {
	XMLName xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	opds1.Feed
}

type browser struct {
	c            *catalog.Catalog
	pageSize     int
	defaultTheme theme.Name
	rr           *response.Responder
}

func Handler(c *catalog.Catalog, pageSize int, defaultTheme theme.Name, rr *response.Responder) http.Handler {
	b := &browser{c: c, pageSize: pageSize, defaultTheme: defaultTheme, rr: rr}

	r := chi.NewRouter()

	r.Get("/authors", func(w http.ResponseWriter, r *http.Request) {
		rr.SendJson(w, r.Context(), struct {
			Authors []catalog.Option `json:"authors"`
		}{Authors: c.AuthorOptions()})
	})

	r.Get("/genres", func(w http.ResponseWriter, r *http.Request) {
		rr.SendJson(w, r.Context(), struct {
			Genres []catalog.Option `json:"genres"`
		}{Genres: c.GenreOptions()})
	})

	r.Get("/books", b.handle(func(r *http.Request) (browse.Event, error) {
		return nil, nil
	}))

	r.Get("/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		book, ok := c.Book(id)
		if !ok {
			slog.DebugContext(r.Context(), "Book not found", slog.String("id", id))
			rr.SendJsonStatus(w, r.Context(), http.StatusNotFound, struct {
				Book *browse.Detail `json:"book"`
			}{})
			return
		}

		rr.SendJson(w, r.Context(), struct {
			Book *browse.Detail `json:"book"`
		}{Book: browse.DetailOf(c, book)})
	})

	r.Get("/theme", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-CH", headerPrefersColorScheme)
		w.Header().Add("Vary", headerPrefersColorScheme)

		prefers := r.URL.Query().Get("prefers")
		if prefers == "" {
			prefers = strings.Trim(r.Header.Get(headerPrefersColorScheme), `" `)
		}

		rr.SendJson(w, r.Context(), browse.ThemeViewOf(theme.Preferred(strings.EqualFold(prefers, "dark"))))
	})

	search := b.handle(func(r *http.Request) (browse.Event, error) {
		return browse.SubmitFilter{Criteria: catalog.Criteria{
			Title:  r.FormValue("title"),
			Author: formValueOrDefault(r, "author", catalog.AnyId),
			Genre:  formValueOrDefault(r, "genre", catalog.AnyId),
		}}, nil
	})
	r.Get("/search", search)
	r.Post("/search", search)

	more := b.handle(func(r *http.Request) (browse.Event, error) {
		return browse.ShowMore{}, nil
	})
	r.Get("/more", more)
	r.Post("/more", more)

	sel := b.handle(func(r *http.Request) (browse.Event, error) {
		return browse.SelectBook{Id: strings.TrimSpace(r.FormValue("id"))}, nil
	})
	r.Get("/select", sel)
	r.Post("/select", sel)

	cls := b.handle(func(r *http.Request) (browse.Event, error) {
		return browse.CloseDetail{}, nil
	})
	r.Get("/close", cls)
	r.Post("/close", cls)

	settings := b.handle(func(r *http.Request) (browse.Event, error) {
		th, ok := theme.Parse(r.FormValue("theme"))
		if !ok {
			return nil, badRequest("unknown theme " + r.FormValue("theme"))
		}

		return browse.ChangeTheme{Theme: th}, nil
	})
	r.Get("/settings", settings)
	r.Post("/settings", settings)

	r.Get("/opds", b.opds)

	return r
}

type badRequest string

func (e badRequest) Error() string {
	return string(e)
}

// handle restores the session from the state param, applies the event and responds with the view
func (b *browser) handle(event func(r *http.Request) (browse.Event, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := b.restore(w, r)
		if !ok {
			return
		}

		ev, err := event(r)
		if err != nil {
			b.rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusBadRequest)
			return
		}

		s = browse.Update(b.c, s, ev)

		b.rr.SendJson(w, r.Context(), viewResponse{
			View:  s.View(b.c),
			State: browse.EncodeToken(s),
		})
	}
}

func (b *browser) restore(w http.ResponseWriter, r *http.Request) (browse.Session, bool) {
	s, err := browse.Restore(b.c, strings.TrimSpace(r.FormValue("state")), b.pageSize, b.defaultTheme)
	if err != nil {
		b.rr.RespondAndLogCustom(w, r.Context(), err, slog.LevelInfo, http.StatusBadRequest)
		return s, false
	}

	return s, true
}

// opds renders the visible slice as an acquisition feed, the next link reveals one more page
func (b *browser) opds(w http.ResponseWriter, r *http.Request) {
	s, ok := b.restore(w, r)
	if !ok {
		return
	}

	feed := atomFeed{Feed: opds1.Feed{
		ID:    "urn:bookshelf:books",
		Title: "Bookshelf",
		Links: []opds1.Link{{
			Rel:      linkRelSelf,
			Href:     opdsHref(browse.EncodeToken(s)),
			TypeLink: contentTypeAcquisition,
		}},
	}}

	if s.Remaining() > 0 {
		next := browse.Update(b.c, s, browse.ShowMore{})
		feed.Links = append(feed.Links, opds1.Link{
			Rel:      linkRelNext,
			Href:     opdsHref(browse.EncodeToken(next)),
			TypeLink: contentTypeAcquisition,
		})
	}

	for _, book := range s.Visible() {
		entry := opds1.Entry{
			ID:     book.Id,
			Title:  book.Title,
			Author: []opds1.Author{{Name: b.c.AuthorName(book.Author)}},
		}

		for _, genreId := range book.Genres {
			entry.Category = append(entry.Category, opds1.Category{Term: genreId})
		}

		if !book.Published.IsZero() {
			entry.Issued = book.Published.Format("2006-01-02")
		}

		if book.Image != "" {
			entry.Links = append(entry.Links, opds1.Link{
				Rel:      linkRelImage,
				Href:     book.Image,
				TypeLink: imageType(book.Image),
			})
		}

		entry.Content.Content = book.Description

		feed.Entries = append(feed.Entries, entry)
	}

	b.rr.SendXml(w, r.Context(), contentTypeAcquisition, feed)
}

func opdsHref(token string) string {
	if token == "" {
		return "opds"
	}

	return "opds?state=" + url.QueryEscape(token)
}

func imageType(href string) string {
	if u, err := url.Parse(href); err == nil {
		if t := mime.TypeByExtension(path.Ext(u.Path)); strings.HasPrefix(t, "image/") {
			return t
		}
	}

	return "image/jpeg"
}

func formValueOrDefault(r *http.Request, key, default_ string) string {
	if val := strings.TrimSpace(r.FormValue(key)); val != "" {
		return val
	}

	return default_
}
