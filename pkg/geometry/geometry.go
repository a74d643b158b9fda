package geometry

import (
	"math"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// Default layout constants in points.
const (
	DefaultPageWidth        = 612.0
	DefaultPageHeight       = 792.0
	DefaultMargin           = 40.0
	DefaultStartY           = 150.0
	DefaultHeaderHeight     = 20.0
	DefaultRowHeight        = 14.0
	DefaultTrailingGap      = 20.0
	DefaultColumnWidth      = 180.0
	DefaultHeaderFontSize   = 12.0
	DefaultRowFontSize      = 10.0
	DefaultTitleFontSize    = 18.0
	DefaultSubtitleFontSize = 14.0
)

// Geometry is the immutable page configuration shared by every page of a document.
type Geometry struct {
	PageWidth  float64 `toml:"page_width" json:"page_width"`
	PageHeight float64 `toml:"page_height" json:"page_height"`
	Margin     float64 `toml:"margin" json:"margin"`

	// UsableHeight is the y limit for content (page height minus top and bottom margins).
	UsableHeight float64 `toml:"usable_height" json:"usable_height"`

	// StartY is the y of the first header on a page that carries the banner.
	StartY float64 `toml:"start_y" json:"start_y"`

	// BannerHeight is the vertical extent of the banner/title block at the top of a page.
	BannerHeight float64 `toml:"banner_height" json:"banner_height"`

	HeaderHeight float64 `toml:"header_height" json:"header_height"`
	RowHeight    float64 `toml:"row_height" json:"row_height"`
	TrailingGap  float64 `toml:"trailing_gap" json:"trailing_gap"`

	// ColumnWidth is the horizontal pitch between columns. Zero spreads the
	// columns evenly across the printable width.
	ColumnWidth float64 `toml:"column_width" json:"column_width"`

	HeaderFontSize   float64 `toml:"header_font_size" json:"header_font_size"`
	RowFontSize      float64 `toml:"row_font_size" json:"row_font_size"`
	TitleFontSize    float64 `toml:"title_font_size" json:"title_font_size"`
	SubtitleFontSize float64 `toml:"subtitle_font_size" json:"subtitle_font_size"`
}

// Default returns the US Letter geometry used by the daily report.
func Default() Geometry {
	return Geometry{
		PageWidth:        DefaultPageWidth,
		PageHeight:       DefaultPageHeight,
		Margin:           DefaultMargin,
		UsableHeight:     DefaultPageHeight - 2*DefaultMargin,
		StartY:           DefaultStartY,
		BannerHeight:     DefaultStartY,
		HeaderHeight:     DefaultHeaderHeight,
		RowHeight:        DefaultRowHeight,
		TrailingGap:      DefaultTrailingGap,
		ColumnWidth:      DefaultColumnWidth,
		HeaderFontSize:   DefaultHeaderFontSize,
		RowFontSize:      DefaultRowFontSize,
		TitleFontSize:    DefaultTitleFontSize,
		SubtitleFontSize: DefaultSubtitleFontSize,
	}
}

// WithDefaults fills zero fields from [Default]. ColumnWidth is left alone:
// zero there means the columns are spread evenly.
func (g Geometry) WithDefaults() Geometry {
	d := Default()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&g.PageWidth, d.PageWidth)
	fill(&g.PageHeight, d.PageHeight)
	fill(&g.Margin, d.Margin)
	if g.UsableHeight == 0 {
		g.UsableHeight = g.PageHeight - 2*g.Margin
	}
	fill(&g.StartY, d.StartY)
	fill(&g.BannerHeight, g.StartY)
	fill(&g.HeaderHeight, d.HeaderHeight)
	fill(&g.RowHeight, d.RowHeight)
	fill(&g.TrailingGap, d.TrailingGap)
	fill(&g.HeaderFontSize, d.HeaderFontSize)
	fill(&g.RowFontSize, d.RowFontSize)
	fill(&g.TitleFontSize, d.TitleFontSize)
	fill(&g.SubtitleFontSize, d.SubtitleFontSize)
	return g
}

// RemainingHeight returns the vertical room left between y and the bottom of
// the usable area. It never returns a negative value; zero means the page is full.
func (g Geometry) RemainingHeight(y float64) float64 {
	return math.Max(0, g.UsableHeight-y)
}

// RowsThatFit returns how many data rows fit starting at y.
func (g Geometry) RowsThatFit(y float64) int {
	if g.RowHeight <= 0 {
		return 0
	}
	return int(math.Floor(g.RemainingHeight(y) / g.RowHeight))
}

// XPositions returns the left edge of each of count columns. Positions are
// computed from the column index, so the same count always yields the same
// coordinates on every page.
func (g Geometry) XPositions(count int) []float64 {
	if count <= 0 {
		return nil
	}
	pitch := g.ColumnWidth
	if pitch <= 0 {
		pitch = (g.PageWidth - 2*g.Margin) / float64(count)
	}
	xs := make([]float64, count)
	for i := range xs {
		xs[i] = g.Margin + float64(i)*pitch
	}
	return xs
}

// ContentWidth returns the printable width between the left and right margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// Validate reports configurations that cannot produce a single complete page.
// All failures carry [errors.ErrCodeInvalidGeometry].
func (g Geometry) Validate() error {
	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return errors.New(errors.ErrCodeInvalidGeometry, "page size must be positive (got %gx%g)", g.PageWidth, g.PageHeight)
	case g.RowHeight <= 0:
		return errors.New(errors.ErrCodeInvalidGeometry, "row height must be positive (got %g)", g.RowHeight)
	case g.HeaderHeight < 0 || g.TrailingGap < 0:
		return errors.New(errors.ErrCodeInvalidGeometry, "header height and trailing gap must not be negative")
	case g.UsableHeight <= 0 || g.UsableHeight > g.PageHeight:
		return errors.New(errors.ErrCodeInvalidGeometry, "usable height %g must be within (0, %g]", g.UsableHeight, g.PageHeight)
	case g.HeaderHeight >= g.UsableHeight:
		return errors.New(errors.ErrCodeInvalidGeometry, "header height %g consumes the usable page height %g", g.HeaderHeight, g.UsableHeight)
	case g.StartY < 0:
		return errors.New(errors.ErrCodeInvalidGeometry, "start y must not be negative (got %g)", g.StartY)
	}
	return g.ValidateStart(g.StartY)
}

// ValidateColumns checks that count columns fit across the page: the last
// one must end inside the right page edge.
func (g Geometry) ValidateColumns(count int) error {
	if count <= 0 || g.ColumnWidth <= 0 {
		return nil
	}
	if right := g.Margin + float64(count)*g.ColumnWidth; right > g.PageWidth {
		return errors.New(errors.ErrCodeInvalidGeometry,
			"%d columns of width %g starting at x=%g end at x=%g, past the page width %g",
			count, g.ColumnWidth, g.Margin, right, g.PageWidth)
	}
	return nil
}

// ValidateStart checks that a page starting at y can hold a header and at least one row.
func (g Geometry) ValidateStart(y float64) error {
	if g.RowsThatFit(y+g.HeaderHeight) < 1 {
		return errors.New(errors.ErrCodeInvalidGeometry,
			"no data row fits below a header starting at y=%g (usable height %g, header %g, row %g)",
			y, g.UsableHeight, g.HeaderHeight, g.RowHeight)
	}
	return nil
}
