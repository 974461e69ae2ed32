package catalog

type Option struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// AuthorOptions lists choices for the author criterion, "All Authors" first
func (c *Catalog) AuthorOptions() []Option {
	ret := make([]Option, 0, len(c.authors)+1)
	ret = append(ret, Option{Id: AnyId, Name: "All Authors"})
	for _, a := range c.authors {
		ret = append(ret, Option{Id: a.Id, Name: a.Name})
	}

	return ret
}

// GenreOptions lists choices for the genre criterion, "All Genres" first
func (c *Catalog) GenreOptions() []Option {
	ret := make([]Option, 0, len(c.genres)+1)
	ret = append(ret, Option{Id: AnyId, Name: "All Genres"})
	for _, g := range c.genres {
		ret = append(ret, Option{Id: g.Id, Name: g.Name})
	}

	return ret
}
