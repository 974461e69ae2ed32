package crawler

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/opds-community/libopds2-go/opds1"

	"bookshelf/internal/types"
)

const (
	linkTypeCatalog     = "application/atom+xml;profile=opds-catalog"
	linkRelImage        = "http://opds-spec.org/image"
	linkRelThumbnail    = "http://opds-spec.org/image/thumbnail"
	linkRelAcquisition  = "http://opds-spec.org/acquisition"
	linkRelNext         = "next"
	defaultMaxFeedPages = 1000
)

var (
	regLinkTypeImage = regexp.MustCompile("^image/[^/]+$")

	issuedLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006"}
)

type Crawler interface {
	Crawl(ctx context.Context, feed *url.URL, consumer Consumer) error
}

// OPDS walks an OPDS 1 acquisition feed: book entries go to the consumer, `next` links and
// navigation entries are followed. Every feed URL is fetched at most once.
type OPDS struct {
	Client   *http.Client
	Logger   *slog.Logger
	MaxPages int // defaults to 1000
}

func (o *OPDS) Crawl(ctx context.Context, feed *url.URL, consumer Consumer) error {
	maxPages := o.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxFeedPages
	}

	w := &walk{
		client:      o.Client,
		logger:      o.Logger,
		consumer:    consumer,
		seenFeeds:   make(map[string]struct{}),
		seenAuthors: make(map[string]struct{}),
		seenGenres:  make(map[string]struct{}),
	}
	if w.client == nil {
		w.client = http.DefaultClient
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	queue := []*url.URL{feed}
	for len(queue) > 0 {
		if len(w.seenFeeds) >= maxPages {
			w.logger.Warn("Stop crawling: page limit reached", slog.Int("limit", maxPages))
			break
		}

		next := queue[0]
		queue = queue[1:]

		if _, ok := w.seenFeeds[next.String()]; ok {
			continue
		}
		w.seenFeeds[next.String()] = struct{}{}

		more, err := w.page(ctx, next)
		if err != nil {
			return err
		}

		queue = append(queue, more...)
	}

	return nil
}

type walk struct {
	client   *http.Client
	logger   *slog.Logger
	consumer Consumer

	seenFeeds   map[string]struct{}
	seenAuthors map[string]struct{}
	seenGenres  map[string]struct{}
}

// page consumes one feed document and returns the feeds it links to
func (w *walk) page(ctx context.Context, feedUrl *url.URL) ([]*url.URL, error) {
	w.logger.Debug("Begin processing feed " + feedUrl.String())

	feed, err := w.fetch(ctx, feedUrl)
	if err != nil {
		return nil, err
	}

	l := w.logger.With(slog.String("feed", feedUrl.Path))

	var more []*url.URL
	var bks []*types.Book
	seenBooks := make(map[string]struct{}, len(feed.Entries))

	for _, entry := range feed.Entries {
		entry.ID = strings.TrimSpace(entry.ID)
		el := l.With(slog.String("entry", entry.ID))

		if !isBookEntry(&entry) {
			link := chooseLink(&entry, func(link *opds1.Link) string {
				if link.TypeLink != linkTypeCatalog {
					return "unknown type: " + link.TypeLink
				}

				return ""
			}, clLogger{logger: el, levelSkipLink: slog.LevelDebug})

			if link == nil {
				el.Warn("Found entry which is neither a book nor a navigation link")
				continue
			}

			nested, err := resolve(feedUrl, link.Href)
			if err != nil {
				el.Error("Failed to parse link to nested feed: " + err.Error())
				continue
			}

			el.Debug("Found nested feed " + nested.String())
			more = append(more, nested)
			continue
		}

		book, author, genres := entryToBook(&entry, feedUrl, el)
		if book == nil {
			continue
		}

		if _, ok := seenBooks[book.Id]; ok {
			el.Warn("Found duplicate of book")
			continue
		}
		seenBooks[book.Id] = struct{}{}

		if _, ok := w.seenAuthors[author.Id]; !ok {
			w.seenAuthors[author.Id] = struct{}{}
			if err := ignorable(w.consumer.ConsumeAuthor(ctx, author)); err != nil {
				return nil, fmt.Errorf("failed to consume author: %w", err)
			}
		}

		for _, g := range genres {
			if _, ok := w.seenGenres[g.Id]; ok {
				continue
			}
			w.seenGenres[g.Id] = struct{}{}
			if err := ignorable(w.consumer.ConsumeGenre(ctx, g)); err != nil {
				return nil, fmt.Errorf("failed to consume genre: %w", err)
			}
		}

		bks = append(bks, book)
	}

	if len(bks) > 0 {
		if err := ignorable(w.consumer.ConsumeBooks(ctx, bks)); err != nil {
			return nil, fmt.Errorf("failed to consume books: %w", err)
		}
	}

	linkNext := chooseLink(&opds1.Entry{Links: feed.Links}, func(link *opds1.Link) string {
		if link.Rel != linkRelNext {
			return "unknown rel " + link.Rel
		}

		return ""
	}, clLogger{logger: l})

	if linkNext != nil {
		u, err := resolve(feedUrl, linkNext.Href)
		if err != nil {
			l.Error("Failed to parse link to next page: " + err.Error())
		} else {
			more = append(more, u)
		}
	}

	return more, nil
}

func (w *walk) fetch(ctx context.Context, feedUrl *url.URL) (*opds1.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedUrl.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	res, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("Failed to fetch feed " + feedUrl.String() + ": " + err.Error())
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	var bs []byte
	func() {
		defer res.Body.Close()
		bs, err = io.ReadAll(res.Body)
	}()

	if err != nil {
		w.logger.Error("Failed to read body of feed " + feedUrl.String() + ": " + err.Error())
		return nil, fmt.Errorf("fetching feed (reading response): %w", err)
	}

	if res.StatusCode != http.StatusOK {
		w.logger.Error("Unexpected status of feed "+feedUrl.String(), slog.Int("status", res.StatusCode))
		return nil, fmt.Errorf("fetching feed: unexpected status %d", res.StatusCode)
	}

	var feed opds1.Feed
	err = xml.Unmarshal(removeDisallowedCodepoints(bs, w.logger), &feed)
	if err != nil {
		w.logger.Error("Failed to unmarshal feed " + feedUrl.String() + ": " + err.Error())
		return nil, fmt.Errorf("unmarshalling feed: %w", err)
	}

	return &feed, nil
}

func isBookEntry(e *opds1.Entry) bool {
	if len(e.Author) > 0 {
		return true
	}

	for _, link := range e.Links {
		if strings.HasPrefix(strings.TrimSpace(link.Rel), linkRelAcquisition) {
			return true
		}
	}

	return false
}

// entryToBook returns nil book when the entry cannot satisfy catalog invariants
func entryToBook(entry *opds1.Entry, feedUrl *url.URL, l *slog.Logger) (*types.Book, *types.Author, []*types.Genre) {
	if entry.ID == "" {
		l.Warn("Skip book without id")
		return nil, nil, nil
	}

	var author *types.Author
	for _, auth := range entry.Author {
		a := authorOf(auth)
		if a == nil {
			continue
		}

		if author != nil {
			l.Debug("Book has more than one author, keeping the first one", slog.String("dropped", a.Id))
			continue
		}

		author = a
	}

	if author == nil {
		l.Warn("Skip book without author")
		return nil, nil, nil
	}

	var genres []*types.Genre
	var genreIds []string
	seenGenres := make(map[string]struct{}, len(entry.Category))
	for _, cat := range entry.Category {
		name := strings.TrimSpace(cat.Term)
		id := Slug(name)
		if id == "" {
			continue
		}

		if _, ok := seenGenres[id]; ok {
			l.Warn("In the same book found duplicate of genre " + name)
			continue
		}
		seenGenres[id] = struct{}{}

		genres = append(genres, &types.Genre{Id: id, Name: name})
		genreIds = append(genreIds, id)
	}

	if len(genres) == 0 {
		l.Warn("Skip book without genres")
		return nil, nil, nil
	}

	var published time.Time
	if issued := strings.TrimSpace(entry.Issued); issued != "" {
		var err error
		published, err = parseIssued(issued)
		if err != nil {
			l.Error("Failed to parse book issue date " + issued + ": " + err.Error())
		}
	}

	var image string
	for _, rel := range []string{linkRelImage, linkRelThumbnail} {
		link := chooseLink(entry, func(link *opds1.Link) string {
			if link.Rel != rel {
				return "unknown rel: " + link.Rel
			}

			if !regLinkTypeImage.MatchString(link.TypeLink) {
				return "unknown type: " + link.TypeLink
			}

			return ""
		}, clLogger{logger: l})

		if link == nil {
			continue
		}

		u, err := resolve(feedUrl, link.Href)
		if err != nil {
			l.Error("Failed to parse book cover link: " + err.Error())
			continue
		}

		image = u.String()
		break
	}

	if image == "" {
		l.Info("Not found book cover link")
	}

	return &types.Book{
		Id:          entry.ID,
		Title:       strings.TrimSpace(entry.Title),
		Author:      author.Id,
		Image:       image,
		Genres:      genreIds,
		Published:   published,
		Description: strings.TrimSpace(entry.Content.Content),
	}, author, genres
}

func authorOf(auth opds1.Author) *types.Author {
	name := strings.TrimSpace(auth.Name)
	id := strings.TrimSpace(auth.URI)
	if id == "" {
		id = Slug(name)
	}

	if id == "" {
		return nil
	}

	if name == "" {
		name = id
	}

	return &types.Author{Id: id, Name: name}
}

func parseIssued(s string) (time.Time, error) {
	var err error
	for _, layout := range issuedLayouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, err
}

func resolve(base *url.URL, href string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}

	return base.ResolveReference(u), nil
}

// Slug turns a display name into an id: lower case letters and digits separated by dashes
func Slug(s string) string {
	var sb strings.Builder
	dash := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(r)
		} else {
			dash = true
		}
	}

	return sb.String()
}

func ignorable(err error) error {
	var ie IgnoreError
	if errors.As(err, &ie) {
		return nil
	}

	return err
}

type clLogger struct {
	logger        *slog.Logger
	levelSkipLink slog.Leveler
}

func chooseLink(e *opds1.Entry, matcher func(link *opds1.Link) string, l clLogger) *opds1.Link {
	var ret *opds1.Link

	for _, link := range e.Links {
		link := link
		link.Rel = strings.TrimSpace(link.Rel)
		link.TypeLink = strings.TrimSpace(link.TypeLink)

		if matcher != nil {
			mismatch := matcher(&link)
			if mismatch != "" {
				if l.levelSkipLink != nil {
					l.logger.LogAttrs(context.Background(), l.levelSkipLink.Level(), "Skip non-matching link: "+mismatch)
				}

				continue
			}
		}

		if ret != nil {
			l.logger.Warn("Skip duplicate matching link: " + link.Href)
			continue
		}

		ret = &link
	}

	return ret
}

// Inspect each rune for being a disallowed character.
// Some feeds include control characters which make encoding/xml fail.
func removeDisallowedCodepoints(bs []byte, l *slog.Logger) []byte {
	ret := make([]byte, 0, len(bs))
	buf := bs

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			l.Warn("Going to fail XML parsing because the bytes do not represent valid UTF8")
			return bs
		}

		if isInCharacterRange(r) {
			ret = append(ret, buf[:size]...)
		} else {
			l.Warn("Removed invalid rune from XML")
		}

		buf = buf[size:]
	}

	return ret
}

// Decide whether the given rune is in the XML Character Range, per
// the Char production of https://www.xml.com/axml/testaxml.htm,
// Section 2.2 Characters.
func isInCharacterRange(r rune) (inrange bool) {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
