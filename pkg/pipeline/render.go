package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/clubreport/pkg/buildinfo"
	"github.com/matzehuels/clubreport/pkg/canvas"
	"github.com/matzehuels/clubreport/pkg/canvas/pdf"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/layout"
)

// NewCanvas returns an empty canvas for format.
func NewCanvas(format string, opts Options) (canvas.Finalizer, error) {
	switch format {
	case FormatPDF:
		return pdf.New(opts.Geometry,
			pdf.WithTitle(opts.Title+" "+opts.DateString()),
			pdf.WithCreator(buildinfo.Creator()),
			pdf.WithCreationDate(opts.Date),
		), nil
	case FormatJSON:
		return canvas.NewRecorder(), nil
	default:
		return nil, ValidateFormat(format)
	}
}

// Banner returns the banner block for the report date.
func Banner(opts Options, image []byte) canvas.Banner {
	return canvas.Banner{
		Image:    image,
		Title:    opts.Title,
		Subtitle: opts.Date.Format(delivery.LabelLayout),
	}
}

// bannerOptions draws banner for every section, with the title replaced in
// sections that set BannerTitle.
func bannerOptions(banner canvas.Banner, specs []SectionSpec) []canvas.ReplayOption {
	opts := []canvas.ReplayOption{canvas.WithBanner(banner)}
	for _, spec := range specs {
		if spec.BannerTitle == "" {
			continue
		}
		b := banner
		b.Title = spec.BannerTitle
		opts = append(opts, canvas.WithSectionBanner(spec.Name, b))
	}
	return opts
}

// RenderFormat replays doc on a fresh canvas for format and returns the
// finalized artifact.
func RenderFormat(doc layout.Document, format string, banner canvas.Banner, opts Options) (delivery.Artifact, error) {
	c, err := NewCanvas(format, opts)
	if err != nil {
		return delivery.Artifact{}, err
	}
	if err := canvas.Replay(doc, c, bannerOptions(banner, opts.Sections)...); err != nil {
		return delivery.Artifact{}, err
	}
	var buf bytes.Buffer
	if err := c.Finalize(&buf); err != nil {
		return delivery.Artifact{}, fmt.Errorf("finalize %s: %w", format, err)
	}
	return delivery.Artifact{
		Name:   FileName(opts.Date, format),
		Date:   opts.DateString(),
		Format: format,
		Data:   buf.Bytes(),
	}, nil
}
