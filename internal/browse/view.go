package browse

import (
	"strconv"

	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
	"bookshelf/internal/types"
)

type Preview struct {
	Id     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

type Detail struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type ThemeView struct {
	Name theme.Name        `json:"name"`
	CSS  map[string]string `json:"css"`
}

// View is everything a presentation adapter needs to draw the current state
type View struct {
	Books     []Preview `json:"books"`
	Remaining int       `json:"remaining"`
	Empty     bool      `json:"empty"`
	Active    *Detail   `json:"active"`
	Theme     ThemeView `json:"theme"`
}

func PreviewOf(c *catalog.Catalog, b *types.Book) Preview {
	return Preview{
		Id:     b.Id,
		Title:  b.Title,
		Author: c.AuthorName(b.Author),
		Image:  b.Image,
	}
}

func Previews(c *catalog.Catalog, books []*types.Book) []Preview {
	ret := make([]Preview, 0, len(books))
	for _, b := range books {
		ret = append(ret, PreviewOf(c, b))
	}

	return ret
}

// DetailOf renders the subtitle as "Author Name (year)"
func DetailOf(c *catalog.Catalog, b *types.Book) *Detail {
	if b == nil {
		return nil
	}

	subtitle := c.AuthorName(b.Author)
	if !b.Published.IsZero() {
		subtitle += " (" + strconv.Itoa(b.Published.Year()) + ")"
	}

	return &Detail{
		Id:          b.Id,
		Title:       b.Title,
		Subtitle:    subtitle,
		Image:       b.Image,
		Description: b.Description,
	}
}

func ThemeViewOf(n theme.Name) ThemeView {
	return ThemeView{Name: n, CSS: theme.Apply(n).CSSVariables()}
}

func (s Session) View(c *catalog.Catalog) View {
	return View{
		Books:     Previews(c, s.Visible()),
		Remaining: s.Remaining(),
		Empty:     len(s.Matches) == 0,
		Active:    DetailOf(c, s.Active),
		Theme:     ThemeViewOf(s.Theme),
	}
}
