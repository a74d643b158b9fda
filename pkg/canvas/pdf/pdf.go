// Package pdf implements a canvas that produces PDF documents with go-pdf/fpdf.
//
// Text uses the core Helvetica font translated to cp1252, which covers the
// accented Latin names and the em dash used in report rows. Images may be
// PNG, JPEG or GIF.
package pdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
)

const (
	fontFamily = "Helvetica"

	// ascent is Helvetica's ascender as a fraction of the font size; fpdf
	// positions text by baseline while canvas callers pass the line top.
	ascent = 0.718
)

// Option configures a [Canvas].
type Option func(*Canvas)

// WithTitle sets the document title metadata.
func WithTitle(title string) Option { return func(c *Canvas) { c.title = title } }

// WithCreator sets the document creator metadata.
func WithCreator(creator string) Option { return func(c *Canvas) { c.creator = creator } }

// WithCreationDate pins creation and modification dates, making output for
// identical input byte-identical.
func WithCreationDate(t time.Time) Option { return func(c *Canvas) { c.created = t } }

// Canvas draws onto an in-memory fpdf document.
type Canvas struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	images    map[string]string
	pages     int

	title   string
	creator string
	created time.Time
}

// New returns a canvas whose pages match the geometry's page size in points.
func New(g geometry.Geometry, opts ...Option) *Canvas {
	c := &Canvas{images: make(map[string]string)}
	for _, opt := range opts {
		opt(c)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(g.Margin, g.Margin, g.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", g.RowFontSize)
	pdf.SetCatalogSort(true)
	if c.title != "" {
		pdf.SetTitle(c.title, true)
	}
	if c.creator != "" {
		pdf.SetCreator(c.creator, true)
	}
	if !c.created.IsZero() {
		pdf.SetCreationDate(c.created)
		pdf.SetModificationDate(c.created)
	}

	c.pdf = pdf
	c.translate = pdf.UnicodeTranslatorFromDescriptor("")
	return c
}

// NewPage starts a new page.
func (c *Canvas) NewPage() error {
	c.pdf.AddPage()
	c.pages++
	return c.pdf.Error()
}

// DrawText draws text with its top at y.
func (c *Canvas) DrawText(text string, x, y, size float64) error {
	if c.pages == 0 {
		return errors.New(errors.ErrCodeInternal, "pdf: draw before the first page")
	}
	c.pdf.SetFontSize(size)
	c.pdf.Text(x, y+size*ascent, c.translate(text))
	return c.pdf.Error()
}

// TextWidth returns the rendered width of text at size.
func (c *Canvas) TextWidth(text string, size float64) float64 {
	c.pdf.SetFontSize(size)
	return c.pdf.GetStringWidth(c.translate(text))
}

// DrawImage draws img scaled to width with its top-left corner at (x, y).
// The height follows the image's aspect ratio.
func (c *Canvas) DrawImage(img []byte, x, y, width float64) error {
	if c.pages == 0 {
		return errors.New(errors.ErrCodeInternal, "pdf: draw before the first page")
	}
	name, err := c.register(img)
	if err != nil {
		return err
	}
	c.pdf.ImageOptions(name, x, y, width, 0, false, fpdf.ImageOptions{}, 0, "")
	return c.pdf.Error()
}

// register adds img to the document once and returns its resource name.
func (c *Canvas) register(img []byte) (string, error) {
	sum := sha256.Sum256(img)
	key := hex.EncodeToString(sum[:8])
	if name, ok := c.images[key]; ok {
		return name, nil
	}

	typ, err := imageType(img)
	if err != nil {
		return "", err
	}
	name := "img-" + key
	c.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(img))
	if err := c.pdf.Error(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "pdf: register %s image", typ)
	}
	c.images[key] = name
	return name, nil
}

func imageType(img []byte) (string, error) {
	switch ct := http.DetectContentType(img); ct {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "pdf: unsupported image type %s", ct)
	}
}

// Pages returns the number of pages started so far.
func (c *Canvas) Pages() int { return c.pages }

// Finalize writes the PDF to w. The canvas cannot be used afterwards.
func (c *Canvas) Finalize(w io.Writer) error {
	if c.pages == 0 {
		return errors.New(errors.ErrCodeEmptyReport, "pdf: document has no pages")
	}
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write document: %w", err)
	}
	return nil
}
