package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/clubreport/pkg/layout"
)

var (
	previewBannerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	previewHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Underline(true)
	previewRowStyle    = lipgloss.NewStyle().Foreground(colorGray)
	previewDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	previewPageStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// previewColumnWidth is the terminal width of one report column.
const previewColumnWidth = 30

// PreviewModel is the bubbletea model that pages through a planned report.
type PreviewModel struct {
	Doc   layout.Document
	Title string
	Page  int
}

// NewPreviewModel creates a preview starting at the first page.
func NewPreviewModel(doc layout.Document, title string) PreviewModel {
	return PreviewModel{Doc: doc, Title: title}
}

func (m PreviewModel) Init() tea.Cmd {
	return nil
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	last := max(m.Doc.Pages-1, 0)
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l", "pgdown", " ", "n":
		m.Page = min(m.Page+1, last)
	case "left", "h", "pgup", "p":
		m.Page = max(m.Page-1, 0)
	case "home", "g":
		m.Page = 0
	case "end", "G":
		m.Page = last
	}
	return m, nil
}

func (m PreviewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(previewDimStyle.Render("←/→ page  g/G first/last  q quit"))
	b.WriteString("\n\n")
	if m.Doc.Empty() {
		b.WriteString(previewDimStyle.Render("empty report"))
		return b.String()
	}
	b.WriteString(previewPageStyle.Render(pageView(m.Doc, m.Page, m.Title)))
	b.WriteString("\n")
	b.WriteString(previewDimStyle.Render(fmt.Sprintf("  [page %d/%d]", m.Page+1, m.Doc.Pages)))
	return b.String()
}

// pageView renders one page as side-by-side columns. Sections that share the
// page are stacked in placement order; banners show as a title line.
func pageView(doc layout.Document, page int, title string) string {
	type block struct {
		section int
		columns map[int][]string
		order   []int
	}
	var blocks []*block
	var lines []string
	flush := func() {
		for _, bl := range blocks {
			cols := make([]string, len(bl.order))
			for i, c := range bl.order {
				cols[i] = lipgloss.NewStyle().Width(previewColumnWidth).Render(strings.Join(bl.columns[c], "\n"))
			}
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
		}
		blocks = nil
	}

	for _, p := range doc.Page(page) {
		switch p.Kind {
		case layout.KindBanner:
			flush()
			lines = append(lines, previewBannerStyle.Render("▌ "+title))
			continue
		case layout.KindPageBreak:
			continue
		}
		if len(blocks) == 0 || blocks[len(blocks)-1].section != p.Section {
			blocks = append(blocks, &block{section: p.Section, columns: make(map[int][]string)})
		}
		bl := blocks[len(blocks)-1]
		if _, seen := bl.columns[p.Column]; !seen {
			bl.order = append(bl.order, p.Column)
		}
		text := previewRowStyle.Render(p.Text)
		if p.Kind == layout.KindHeader {
			text = previewHeaderStyle.Render(p.Text)
		}
		bl.columns[p.Column] = append(bl.columns[p.Column], text)
	}
	flush()
	return strings.Join(lines, "\n\n")
}
