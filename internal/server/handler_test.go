package server

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/opds-community/libopds2-go/opds1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/catalog"
	"bookshelf/internal/response"
	"bookshelf/internal/theme"
	"bookshelf/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	c, err := catalog.New(
		[]*types.Author{{Id: "herbert", Name: "Frank Herbert"}, {Id: "asimov", Name: "Isaac Asimov"}},
		[]*types.Genre{{Id: "sci-fi", Name: "Science Fiction"}},
		[]*types.Book{
			{Id: "dune", Title: "Dune", Author: "herbert", Genres: []string{"sci-fi"},
				Image: "http://img.example.com/dune.png", Published: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
				Description: "Desert planet."},
			{Id: "messiah", Title: "Dune Messiah", Author: "herbert", Genres: []string{"sci-fi"}},
			{Id: "foundation", Title: "Foundation", Author: "asimov", Genres: []string{"sci-fi"}},
		},
	)
	require.NoError(t, err)

	srv := httptest.NewServer(Handler(c, 2, theme.Day, &response.Responder{}))
	t.Cleanup(srv.Close)

	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, v any) *http.Response {
	t.Helper()

	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}

	return resp
}

func bookIds(v viewResponse) []string {
	ids := make([]string, 0, len(v.Books))
	for _, b := range v.Books {
		ids = append(ids, b.Id)
	}

	return ids
}

func TestHandler_Options(t *testing.T) {
	srv := testServer(t)

	var authors struct {
		Authors []catalog.Option `json:"authors"`
	}
	resp := get(t, srv, "/authors", &authors)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []catalog.Option{
		{Id: catalog.AnyId, Name: "All Authors"},
		{Id: "herbert", Name: "Frank Herbert"},
		{Id: "asimov", Name: "Isaac Asimov"},
	}, authors.Authors)

	var genres struct {
		Genres []catalog.Option `json:"genres"`
	}
	get(t, srv, "/genres", &genres)
	assert.Equal(t, []catalog.Option{
		{Id: catalog.AnyId, Name: "All Genres"},
		{Id: "sci-fi", Name: "Science Fiction"},
	}, genres.Genres)
}

func TestHandler_BrowseFlow(t *testing.T) {
	srv := testServer(t)

	var v viewResponse
	get(t, srv, "/books", &v)
	assert.Equal(t, []string{"dune", "messiah"}, bookIds(v))
	assert.Equal(t, 1, v.Remaining)
	assert.False(t, v.Empty)
	assert.Nil(t, v.Active)
	assert.Equal(t, theme.Day, v.Theme.Name)
	require.NotEmpty(t, v.State)

	get(t, srv, "/more?state="+url.QueryEscape(v.State), &v)
	assert.Equal(t, []string{"dune", "messiah", "foundation"}, bookIds(v))
	assert.Equal(t, 0, v.Remaining)

	get(t, srv, "/select?id=dune&state="+url.QueryEscape(v.State), &v)
	require.NotNil(t, v.Active)
	assert.Equal(t, "Frank Herbert (1965)", v.Active.Subtitle)
	assert.Len(t, v.Books, 3)

	get(t, srv, "/close?state="+url.QueryEscape(v.State), &v)
	assert.Nil(t, v.Active)

	get(t, srv, "/settings?theme=night&state="+url.QueryEscape(v.State), &v)
	assert.Equal(t, theme.Night, v.Theme.Name)
	assert.Equal(t, "255, 255, 255", v.Theme.CSS["--color-dark"])
	assert.Len(t, v.Books, 3)
}

func TestHandler_Search(t *testing.T) {
	srv := testServer(t)

	form := url.Values{"title": {"dune"}, "author": {"herbert"}}
	resp, err := srv.Client().Post(srv.URL+"/search", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	var v viewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, []string{"dune", "messiah"}, bookIds(v))
	assert.Equal(t, 0, v.Remaining)

	get(t, srv, "/search?title=nothing", &v)
	assert.Empty(t, v.Books)
	assert.True(t, v.Empty)

	get(t, srv, "/search?author=nobody", &v)
	assert.True(t, v.Empty)
}

func TestHandler_SelectMiss(t *testing.T) {
	srv := testServer(t)

	var v viewResponse
	resp := get(t, srv, "/select?id=ghost", &v)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, v.Active)
}

func TestHandler_BadInput(t *testing.T) {
	srv := testServer(t)

	var body map[string]any
	resp := get(t, srv, "/books?state=%25%25%25", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["err_id"])

	resp = get(t, srv, "/settings?theme=sepia", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Unknown theme sepia", body["error"])
}

func TestHandler_BookDetail(t *testing.T) {
	srv := testServer(t)

	var hit struct {
		Book map[string]any `json:"book"`
	}
	resp := get(t, srv, "/books/dune", &hit)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Dune", hit.Book["title"])
	assert.Equal(t, "Desert planet.", hit.Book["description"])

	resp, err := srv.Client().Get(srv.URL + "/books/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var miss map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&miss))
	assert.Equal(t, map[string]any{"book": nil}, miss)
}

func TestHandler_Theme(t *testing.T) {
	srv := testServer(t)

	var v struct {
		Name theme.Name `json:"name"`
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/theme", nil)
	require.NoError(t, err)
	req.Header.Set(headerPrefersColorScheme, `"dark"`)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, theme.Night, v.Name)
	assert.Equal(t, headerPrefersColorScheme, resp.Header.Get("Accept-CH"))

	get(t, srv, "/theme?prefers=light", &v)
	assert.Equal(t, theme.Day, v.Name)

	get(t, srv, "/theme", &v)
	assert.Equal(t, theme.Day, v.Name)
}

func TestHandler_OPDS(t *testing.T) {
	srv := testServer(t)

	resp := get(t, srv, "/opds", nil)
	assert.Equal(t, contentTypeAcquisition, resp.Header.Get("Content-Type"))

	var feed opds1.Feed
	require.NoError(t, xml.NewDecoder(resp.Body).Decode(&feed))
	require.Len(t, feed.Entries, 2)

	dune := feed.Entries[0]
	assert.Equal(t, "dune", dune.ID)
	assert.Equal(t, "Frank Herbert", dune.Author[0].Name)
	assert.Equal(t, "1965-08-01", dune.Issued)
	require.Len(t, dune.Links, 1)
	assert.Equal(t, "image/png", dune.Links[0].TypeLink)

	var next string
	for _, l := range feed.Links {
		if l.Rel == linkRelNext {
			next = l.Href
		}
	}
	require.NotEmpty(t, next)

	resp = get(t, srv, "/"+next, nil)
	feed = opds1.Feed{}
	require.NoError(t, xml.NewDecoder(resp.Body).Decode(&feed))
	assert.Len(t, feed.Entries, 3)

	for _, l := range feed.Links {
		assert.NotEqual(t, linkRelNext, l.Rel)
	}
}
