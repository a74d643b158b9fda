package layout

import (
	"fmt"

	"github.com/matzehuels/clubreport/pkg/geometry"
)

// Kind identifies what a [Placement] draws.
type Kind int

// Placement kinds.
const (
	KindBanner Kind = iota
	KindHeader
	KindRow
	KindPageBreak
)

var kindNames = [...]string{"banner", "header", "row", "page-break"}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown placement kind %q", b)
}

// Column is one display lane: a title, a left edge and the rows it must place.
// An empty Title is a placeholder that holds its x-slot but gets no header text.
type Column struct {
	Title string
	X     float64
	Items []string
}

// Section is a group of columns drained together across as many pages as needed.
type Section struct {
	Name    string
	Columns []Column

	// Banner requests a banner placement on the section's first page.
	Banner bool

	// FreshPage forces the section to begin on a new page.
	FreshPage bool

	// StartY is where headers go on continuation pages. Zero means geometry.StartY.
	StartY float64
}

// Empty reports whether no column holds any item.
func (s Section) Empty() bool {
	return s.Len() == 0
}

// Len returns the total number of items across all columns.
func (s Section) Len() int {
	n := 0
	for _, c := range s.Columns {
		n += len(c.Items)
	}
	return n
}

// NewColumns pairs titles with item lists and assigns x positions from g.
// Missing item lists are treated as empty.
func NewColumns(g geometry.Geometry, titles []string, items [][]string) []Column {
	xs := g.XPositions(len(titles))
	cols := make([]Column, len(titles))
	for i, t := range titles {
		cols[i] = Column{Title: t, X: xs[i]}
		if i < len(items) {
			cols[i].Items = items[i]
		}
	}
	return cols
}

// Placement is a single layout instruction.
//
// Page is the zero-based page index the placement belongs to; for a page break it
// is the index of the page being started. Column is -1 for banners and page breaks.
type Placement struct {
	Kind     Kind    `json:"kind"`
	Page     int     `json:"page"`
	Section  int     `json:"section"`
	Column   int     `json:"column"`
	Text     string  `json:"text,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Cursor is the position at which the next section may begin.
type Cursor struct {
	Page int     `json:"page"`
	Y    float64 `json:"y"`

	// Blank is true while the current page carries no placement yet.
	Blank bool `json:"blank"`
}

// Start is the cursor of an empty document.
func Start() Cursor { return Cursor{Blank: true} }
