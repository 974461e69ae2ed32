// Package tui is the terminal front end over the browsing session.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/theme"
)

type styles struct {
	base     lipgloss.Style
	title    lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	prompt   lipgloss.Style
	detail   lipgloss.Style
	footer   lipgloss.Style
}

func stylesFor(n theme.Name) styles {
	p := theme.Apply(n)
	fg := lipgloss.Color(theme.Hex(p.Dark))
	bg := lipgloss.Color(theme.Hex(p.Light))

	base := lipgloss.NewStyle().Foreground(fg).Background(bg)

	return styles{
		base:     base,
		title:    base.Bold(true),
		selected: lipgloss.NewStyle().Foreground(bg).Background(fg).Bold(true),
		muted:    base.Faint(true),
		prompt:   base.Bold(true).Underline(true),
		detail:   base.Border(lipgloss.RoundedBorder()).BorderForeground(fg).Padding(0, 1),
		footer:   base.Faint(true).Padding(0, 1),
	}
}

type Model struct {
	c *catalog.Catalog
	s browse.Session

	authors   []catalog.Option
	genres    []catalog.Option
	authorIdx int
	genreIdx  int

	query   string
	editing bool
	cursor  int

	width int
	st    styles
}

func New(c *catalog.Catalog, s browse.Session) Model {
	return Model{
		c:       c,
		s:       s,
		authors: c.AuthorOptions(),
		genres:  c.GenreOptions(),
		query:   s.Criteria.Title,
		st:      stylesFor(s.Theme),
	}
}

// Session exposes the state the model is drawing
func (m Model) Session() browse.Session {
	return m.s
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateQuery(msg)
		}
		if m.s.Active != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) apply(ev browse.Event) Model {
	m.s = browse.Update(m.c, m.s, ev)
	m.st = stylesFor(m.s.Theme)
	if n := len(m.s.Visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}

	return m
}

func (m Model) submit() Model {
	m.cursor = 0
	return m.apply(browse.SubmitFilter{Criteria: catalog.Criteria{
		Title:  m.query,
		Author: m.authors[m.authorIdx].Id,
		Genre:  m.genres[m.genreIdx].Id,
	}})
}

func (m Model) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.query = m.s.Criteria.Title
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		return m.submit(), nil
	case tea.KeyBackspace:
		if rs := []rune(m.query); len(rs) > 0 {
			m.query = string(rs[:len(rs)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.query += " "
		return m, nil
	case tea.KeyRunes:
		m.query += string(msg.Runes)
		return m, nil
	}

	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		return m.apply(browse.CloseDetail{}), nil
	case "t":
		return m.apply(browse.ChangeTheme{Theme: m.s.Theme.Toggle()}), nil
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.s.Visible()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.editing = true
		return m, nil
	case "a":
		m.authorIdx = (m.authorIdx + 1) % len(m.authors)
		return m.submit(), nil
	case "g":
		m.genreIdx = (m.genreIdx + 1) % len(m.genres)
		return m.submit(), nil
	case "m":
		return m.apply(browse.ShowMore{}), nil
	case "t":
		return m.apply(browse.ChangeTheme{Theme: m.s.Theme.Toggle()}), nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < len(visible) {
			return m.apply(browse.SelectBook{Id: visible[m.cursor].Id}), nil
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.st.title.Render("Bookshelf") + "\n\n")
	b.WriteString(m.filterLine() + "\n\n")

	if d := browse.DetailOf(m.c, m.s.Active); d != nil {
		body := m.st.title.Render(d.Title) + "\n" + m.st.muted.Render(d.Subtitle)
		if d.Description != "" {
			body += "\n\n" + m.st.base.Render(d.Description)
		}
		if d.Image != "" {
			body += "\n\n" + m.st.muted.Render(d.Image)
		}

		detail := m.st.detail
		if m.width > 4 {
			detail = detail.Width(min(m.width-4, 80))
		}
		b.WriteString(detail.Render(body) + "\n")
		b.WriteString(m.st.footer.Render("esc close • t theme • q quit"))
		return b.String()
	}

	if len(m.s.Matches) == 0 {
		b.WriteString(m.st.muted.Render("No books match your filter.") + "\n")
	}

	for i, p := range browse.Previews(m.c, m.s.Visible()) {
		line := p.Title + " by " + p.Author
		if i == m.cursor {
			b.WriteString(m.st.selected.Render("> "+line) + "\n")
		} else {
			b.WriteString(m.st.base.Render("  "+line) + "\n")
		}
	}

	if rest := m.s.Remaining(); rest > 0 {
		b.WriteString("\n" + m.st.muted.Render(fmt.Sprintf("%d more, press m to show", rest)) + "\n")
	}

	b.WriteString("\n" + m.st.footer.Render("/ title • a author • g genre • enter open • m more • t theme • q quit"))
	return b.String()
}

func (m Model) filterLine() string {
	q := m.query
	if m.editing {
		q += "_"
	}

	title := m.st.base.Render("title: ")
	if m.editing {
		title = m.st.prompt.Render("title:") + m.st.base.Render(" ")
	}

	return title + m.st.base.Render(q) +
		m.st.muted.Render("  author: ") + m.st.base.Render(m.authors[m.authorIdx].Name) +
		m.st.muted.Render("  genre: ") + m.st.base.Render(m.genres[m.genreIdx].Name)
}

// DetectTheme picks the initial theme from an explicit setting, falling back to the
// terminal background hint in COLORFGBG ("fg;bg")
func DetectTheme(setting, colorFgBg string) theme.Name {
	if n, ok := theme.Parse(setting); ok {
		return n
	}

	parts := strings.Split(colorFgBg, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return theme.Day
	}

	// ANSI 0-6 and 8 are dark backgrounds
	return theme.Preferred(bg < 7 || bg == 8)
}
