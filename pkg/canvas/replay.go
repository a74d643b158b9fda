package canvas

import (
	"fmt"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/layout"
)

// titleGap separates the title and subtitle lines of a banner.
const titleGap = 6

// ReplayOption configures [Replay].
type ReplayOption func(*replayer)

type replayer struct {
	banners map[string]Banner
	banner  *Banner
}

// WithBanner sets the banner drawn for every banner placement.
func WithBanner(b Banner) ReplayOption {
	return func(r *replayer) { r.banner = &b }
}

// WithSectionBanner sets the banner for the named section, overriding WithBanner.
func WithSectionBanner(section string, b Banner) ReplayOption {
	return func(r *replayer) {
		if r.banners == nil {
			r.banners = make(map[string]Banner)
		}
		r.banners[section] = b
	}
}

// Replay issues the drawing commands of doc on c. The first page is opened
// before the first placement; every page break opens the next one.
//
// An empty document returns an EMPTY_REPORT error without touching c. Errors
// from c are returned with the failing placement for context.
func Replay(doc layout.Document, c Canvas, opts ...ReplayOption) error {
	if doc.Empty() {
		return errors.New(errors.ErrCodeEmptyReport, "report has no pages")
	}
	r := replayer{}
	for _, opt := range opts {
		opt(&r)
	}

	if err := c.NewPage(); err != nil {
		return fmt.Errorf("open page 1: %w", err)
	}
	for i, p := range doc.Placements {
		var err error
		switch p.Kind {
		case layout.KindPageBreak:
			err = c.NewPage()
		case layout.KindBanner:
			err = r.drawBanner(doc, c, p)
		case layout.KindHeader, layout.KindRow:
			err = c.DrawText(p.Text, p.X, p.Y, p.FontSize)
		}
		if err != nil {
			return fmt.Errorf("placement %d (%s on page %d): %w", i, p.Kind, p.Page+1, err)
		}
	}
	return nil
}

func (r *replayer) drawBanner(doc layout.Document, c Canvas, p layout.Placement) error {
	b, ok := r.banners[p.Text]
	if !ok {
		if r.banner == nil {
			return nil
		}
		b = *r.banner
	}

	g := doc.Geometry
	if len(b.Image) > 0 {
		if err := c.DrawImage(b.Image, p.X, p.Y, g.PageWidth); err != nil {
			return err
		}
	}

	// Title lines sit at the bottom of the banner area, above the first header.
	y := p.Y + g.BannerHeight - g.TitleFontSize - titleGap - g.SubtitleFontSize - g.HeaderHeight
	if b.Title != "" {
		if err := c.DrawText(b.Title, centered(c, g.PageWidth, g.Margin, b.Title, g.TitleFontSize), y, g.TitleFontSize); err != nil {
			return err
		}
	}
	y += g.TitleFontSize + titleGap
	if b.Subtitle != "" {
		if err := c.DrawText(b.Subtitle, centered(c, g.PageWidth, g.Margin, b.Subtitle, g.SubtitleFontSize), y, g.SubtitleFontSize); err != nil {
			return err
		}
	}
	return nil
}

// centered returns the x that centers text on the page, or the margin when the
// canvas cannot measure text.
func centered(c Canvas, pageWidth, margin float64, text string, size float64) float64 {
	m, ok := c.(Measurer)
	if !ok {
		return margin
	}
	return max(margin, (pageWidth-m.TextWidth(text, size))/2)
}
