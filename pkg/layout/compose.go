package layout

import (
	"github.com/matzehuels/clubreport/pkg/geometry"
)

// Document is a fully planned multi-page layout.
type Document struct {
	Geometry   geometry.Geometry `json:"geometry"`
	Placements []Placement       `json:"placements"`

	// Pages is the number of pages in the document.
	Pages int `json:"pages"`

	// Sections holds one plan summary per input section, in input order.
	Sections []SectionSummary `json:"sections"`
}

// SectionSummary records how a section was rendered.
type SectionSummary struct {
	Name    string `json:"name"`
	Items   int    `json:"items"`
	Pages   int    `json:"pages"`
	Skipped bool   `json:"skipped"`
}

// Compose plans sections in order on a shared sequence of pages.
//
// The geometry is validated first; a section that cannot make progress aborts the
// whole document so that no partial layout is ever returned.
func Compose(sections []Section, g geometry.Geometry) (Document, error) {
	if err := g.Validate(); err != nil {
		return Document{}, err
	}

	doc := Document{Geometry: g}
	cur := Start()
	for i, sec := range sections {
		plan, err := paginate(sec, i, g, cur)
		if err != nil {
			return Document{}, err
		}
		doc.Placements = append(doc.Placements, plan.Placements...)
		doc.Sections = append(doc.Sections, SectionSummary{
			Name:    sec.Name,
			Items:   sec.Len(),
			Pages:   plan.Pages,
			Skipped: plan.Pages == 0,
		})
		cur = plan.End
	}
	if !cur.Blank {
		doc.Pages = cur.Page + 1
	}
	return doc, nil
}

// Empty reports whether the document has no pages.
func (d Document) Empty() bool { return d.Pages == 0 }

// Count returns the number of placements of the given kind.
func (d Document) Count(k Kind) int {
	n := 0
	for _, p := range d.Placements {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// Page returns the drawing placements of page i (page breaks excluded).
func (d Document) Page(i int) []Placement {
	var out []Placement
	for _, p := range d.Placements {
		if p.Page == i && p.Kind != KindPageBreak {
			out = append(out, p)
		}
	}
	return out
}

// Rows returns the row texts placed for one column of one section, in placement order.
func (d Document) Rows(section, column int) []string {
	var out []string
	for _, p := range d.Placements {
		if p.Kind == KindRow && p.Section == section && p.Column == column {
			out = append(out, p.Text)
		}
	}
	return out
}
