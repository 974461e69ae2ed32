package browse

import (
	"encoding/base64"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInvalidToken = errors.New("invalid session token")

// tokenData is what survives between two requests: matches are recomputed from criteria
type tokenData struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Page   int    `json:"page,omitempty"`
	Active string `json:"active,omitempty"`
	Theme  string `json:"theme,omitempty"`
}

// EncodeToken packs the session into a URL-safe string
func EncodeToken(s Session) string {
	data := tokenData{
		Title:  s.Criteria.Title,
		Author: s.Criteria.Author,
		Genre:  s.Criteria.Genre,
		Page:   s.Cursor.Page,
		Theme:  string(s.Theme),
	}
	if s.Active != nil {
		data.Active = s.Active.Id
	}

	bs, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(bs)
}

// Restore rebuilds a session from a token. An empty token gives the initial session.
// Ids in the token that are no longer known behave like any other lookup miss.
func Restore(c *catalog.Catalog, token string, pageSize int, defaultTheme theme.Name) (Session, error) {
	s := NewSession(c, pageSize, defaultTheme)
	if token == "" {
		return s, nil
	}

	bs, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var data tokenData
	err = json.Unmarshal(bs, &data)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	s = Update(c, s, SubmitFilter{Criteria: catalog.Criteria{
		Title:  data.Title,
		Author: data.Author,
		Genre:  data.Genre,
	}})

	s.Cursor.Page = data.Page
	s.Cursor = s.Cursor.Clamp(s.Matches)

	if data.Active != "" {
		s = Update(c, s, SelectBook{Id: data.Active})
	}

	if th, ok := theme.Parse(data.Theme); ok {
		s.Theme = th
	}

	return s, nil
}
