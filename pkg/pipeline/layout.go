package pipeline

import (
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
	"github.com/matzehuels/clubreport/pkg/layout"
	"github.com/matzehuels/clubreport/pkg/roster"
)

// categories resolves the column names of s. Empty names stay empty.
func categories(s SectionSpec) ([]roster.Category, error) {
	if len(s.Columns) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "section %q has no columns", s.Name)
	}
	out := make([]roster.Category, len(s.Columns))
	for i, name := range s.Columns {
		if name == "" {
			continue
		}
		if err := out[i].UnmarshalText([]byte(name)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "section %q", s.Name)
		}
	}
	return out, nil
}

// Sections turns aggregated totals into layout sections.
//
// Every section keeps its own banner flag. A section without rows is skipped
// by the layout, so a banner it asked for moves to the next section that has
// rows; when no later section has rows it goes to the first one that does.
func Sections(t *roster.Totals, specs []SectionSpec, g geometry.Geometry) ([]layout.Section, error) {
	out := make([]layout.Section, len(specs))
	for i, spec := range specs {
		cats, err := categories(spec)
		if err != nil {
			return nil, err
		}
		if err := g.ValidateColumns(len(cats)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "section %q", spec.Name)
		}
		titles := make([]string, len(cats))
		items := make([][]string, len(cats))
		for j, c := range cats {
			if c == "" {
				continue
			}
			titles[j] = c.Title()
			items[j] = t.Items(c)
		}
		out[i] = layout.Section{
			Name:      spec.Name,
			Columns:   layout.NewColumns(g, titles, items),
			Banner:    spec.Banner,
			FreshPage: spec.FreshPage,
		}
	}

	pending := false
	for i := range out {
		if out[i].Empty() {
			pending = pending || out[i].Banner
			out[i].Banner = false
			continue
		}
		out[i].Banner = out[i].Banner || pending
		pending = false
	}
	if pending {
		for i := range out {
			if !out[i].Empty() {
				out[i].Banner = true
				break
			}
		}
	}
	return out, nil
}

// Plan lays out aggregated totals with the sections and geometry of opts.
func Plan(t *roster.Totals, opts Options) (layout.Document, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Document{}, err
	}
	secs, err := Sections(t, opts.Sections, opts.Geometry)
	if err != nil {
		return layout.Document{}, err
	}
	return layout.Compose(secs, opts.Geometry)
}
