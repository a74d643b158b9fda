package layout

import (
	stderrors "errors"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
)

// ErrNoRowCapacity is wrapped by errors returned when a header row leaves no room
// for a single data row on a fresh page. Retrying on another page could never
// make progress, so the planner stops instead.
var ErrNoRowCapacity = stderrors.New("no room for a data row below the column headers")

// Plan is the result of paginating one section.
type Plan struct {
	Placements []Placement
	End        Cursor

	// Pages is the number of pages the section touched (zero when skipped).
	Pages int
}

// queue is a read cursor over an immutable item list.
type queue struct {
	items []string
	next  int
}

func (q *queue) remaining() int { return len(q.items) - q.next }

func (q *queue) take(n int) []string {
	n = min(n, q.remaining())
	out := q.items[q.next : q.next+n]
	q.next += n
	return out
}

// paginator holds the explicit per-section state: the page index, the y on that
// page and one queue per column.
type paginator struct {
	g       geometry.Geometry
	sec     Section
	index   int
	startY  float64
	queues  []queue
	page    int
	y       float64
	bannerY float64
	out     []Placement
	touched int
}

// Paginate drains sec starting at cur and returns the placements it produced.
// A section with no items produces no placements and returns cur unchanged.
func Paginate(sec Section, g geometry.Geometry, cur Cursor) (Plan, error) {
	return paginate(sec, 0, g, cur)
}

func paginate(sec Section, index int, g geometry.Geometry, cur Cursor) (Plan, error) {
	if sec.Empty() {
		return Plan{End: cur}, nil
	}

	p := &paginator{
		g:      g,
		sec:    sec,
		index:  index,
		startY: sec.StartY,
		queues: make([]queue, len(sec.Columns)),
	}
	if p.startY == 0 {
		p.startY = g.StartY
	}
	for i, c := range sec.Columns {
		p.queues[i] = queue{items: c.Items}
	}

	// Continuation pages restart at startY; if that cannot hold a row the loop
	// below would never drain anything.
	if g.RowsThatFit(p.startY+g.HeaderHeight) < 1 {
		return Plan{}, errors.Wrap(errors.ErrCodeInvalidGeometry, ErrNoRowCapacity,
			"section %q: header at y=%g leaves no row below usable height %g", sec.Name, p.startY, g.UsableHeight)
	}

	p.begin(cur)
	if err := p.run(); err != nil {
		return Plan{}, err
	}
	return Plan{
		Placements: p.out,
		End:        Cursor{Page: p.page, Y: p.y},
		Pages:      p.touched,
	}, nil
}

// begin positions the section on its first page and decides where its banner goes.
func (p *paginator) begin(cur Cursor) {
	p.page, p.y = cur.Page, cur.Y
	switch {
	case cur.Blank:
		p.top()
	case p.sec.FreshPage || !p.fitsHere():
		p.breakPage()
		p.top()
	default:
		p.bannerY = p.y
		if p.sec.Banner {
			p.y += p.g.BannerHeight
		}
	}
	p.touched = 1
}

// top places the cursor on a page the section opens at the top edge.
func (p *paginator) top() {
	p.bannerY = 0
	p.y = p.startY
	if p.sec.Banner {
		p.y = max(p.y, p.g.BannerHeight)
	}
}

// fitsHere reports whether the section can open on the current page below y.
func (p *paginator) fitsHere() bool {
	need := p.g.HeaderHeight
	if p.sec.Banner {
		need += p.g.BannerHeight
	}
	return p.g.RowsThatFit(p.y+need) >= 1
}

// run loops header and row passes until every queue is drained. begin and the
// up-front start check guarantee capacity on every page the loop reaches, so a
// page without room is a configuration error rather than a reason to retry.
func (p *paginator) run() error {
	first := true
	for {
		if first && p.sec.Banner {
			p.banner()
		}
		p.headers()

		fit := p.g.RowsThatFit(p.y)
		if fit < 1 {
			return errors.Wrap(errors.ErrCodeInvalidGeometry, ErrNoRowCapacity,
				"section %q: page %d has no row capacity at y=%g", p.sec.Name, p.page+1, p.y)
		}
		p.rows(fit)

		if p.drained() {
			return nil
		}
		p.breakPage()
		p.touched++
		first = false
	}
}

// banner emits the section banner at the position chosen by begin.
func (p *paginator) banner() {
	p.out = append(p.out, Placement{
		Kind:    KindBanner,
		Page:    p.page,
		Section: p.index,
		Column:  -1,
		Text:    p.sec.Name,
		X:       0,
		Y:       p.bannerY,
	})
}

func (p *paginator) headers() {
	for i, c := range p.sec.Columns {
		if c.Title == "" {
			continue
		}
		p.out = append(p.out, Placement{
			Kind:     KindHeader,
			Page:     p.page,
			Section:  p.index,
			Column:   i,
			Text:     c.Title,
			X:        c.X,
			Y:        p.y,
			FontSize: p.g.HeaderFontSize,
		})
	}
	p.y += p.g.HeaderHeight
}

// rows places up to fit items per column below the shared header line.
func (p *paginator) rows(fit int) {
	tallest := 0
	for i := range p.queues {
		col := p.sec.Columns[i]
		taken := p.queues[i].take(fit)
		for j, text := range taken {
			p.out = append(p.out, Placement{
				Kind:     KindRow,
				Page:     p.page,
				Section:  p.index,
				Column:   i,
				Text:     text,
				X:        col.X,
				Y:        p.y + float64(j)*p.g.RowHeight,
				FontSize: p.g.RowFontSize,
			})
		}
		tallest = max(tallest, len(taken))
	}
	p.y += float64(tallest)*p.g.RowHeight + p.g.TrailingGap
}

func (p *paginator) drained() bool {
	for i := range p.queues {
		if p.queues[i].remaining() > 0 {
			return false
		}
	}
	return true
}

func (p *paginator) breakPage() {
	p.page++
	p.y = p.startY
	p.out = append(p.out, Placement{
		Kind:    KindPageBreak,
		Page:    p.page,
		Section: p.index,
		Column:  -1,
	})
}
