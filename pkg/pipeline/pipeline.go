// Package pipeline runs the daily club report.
//
// A run has four explicit stages connected by fully materialized values:
//
//  1. Fetch: the [source.Source] returns a [source.Snapshot] for the report date
//  2. Aggregate: the snapshot becomes sorted line items per category ([roster.Totals])
//  3. Layout: line items are planned into pages ([layout.Document])
//  4. Render: the plan is replayed on one canvas per output format
//
// Fetching completes before planning starts, and planning completes before the
// first canvas call, so a failure in any stage leaves no partial artifact.
// Delivery is separate ([Runner.Deliver]) and only accepts rendered results.
//
// # Usage
//
//	runner := pipeline.NewRunner(src, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Formats: []string{"pdf"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = runner.Deliver(ctx, delivery.Directory{Dir: "reports"}, result)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
	"github.com/matzehuels/clubreport/pkg/layout"
	"github.com/matzehuels/clubreport/pkg/roster"
	"github.com/matzehuels/clubreport/pkg/source"
)

const (
	// DefaultTitle is the banner title of the report.
	DefaultTitle = "Strava Daily Report"

	// BannerTTL is how long a downloaded banner image stays cached.
	BannerTTL = 7 * 24 * time.Hour
)

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// SectionSpec describes one report section in terms of categories.
// An empty column name is a placeholder slot.
type SectionSpec struct {
	Name      string   `toml:"name" json:"name"`
	Columns   []string `toml:"columns" json:"columns"`
	Banner    bool     `toml:"banner" json:"banner"`
	FreshPage bool     `toml:"fresh_page" json:"fresh_page"`

	// BannerTitle replaces the report title in this section's banner.
	BannerTitle string `toml:"banner_title" json:"banner_title,omitempty"`
}

// DefaultSections returns the two sections of the daily report.
func DefaultSections() []SectionSpec {
	return []SectionSpec{
		{Name: "moving", Columns: []string{"Walk", "Run", "Ride"}, Banner: true, FreshPage: true},
		{Name: "outdoors", Columns: []string{"Hike", "NoActivity", ""}, FreshPage: true},
	}
}

// Options contains the configuration of one report run.
type Options struct {
	// Date is the report day. Zero means yesterday in Location.
	Date     time.Time      `json:"date"`
	Location *time.Location `json:"-"`

	// Club identifies the data source in cache keys.
	Club string `json:"club,omitempty"`

	Title   string         `json:"title,omitempty"`
	Unit    roster.Unit    `json:"unit,omitempty"`
	SortKey roster.SortKey `json:"sort,omitempty"`
	Locale  string         `json:"locale,omitempty"`

	Formats   []string          `json:"formats,omitempty"`
	BannerURL string            `json:"banner_url,omitempty"`
	Sections  []SectionSpec     `json:"sections,omitempty"`
	Geometry  geometry.Geometry `json:"geometry"`

	// RefreshBanner downloads the banner image even when it is cached.
	RefreshBanner bool `json:"-"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks all fields and applies defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Date.IsZero() {
		o.Date = Yesterday(time.Now(), o.Location)
	} else {
		y, m, d := o.Date.In(o.Location).Date()
		o.Date = time.Date(y, m, d, 0, 0, 0, 0, o.Location)
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}

	ro := o.RosterOptions()
	if err := ro.Validate(); err != nil {
		return err
	}
	o.Unit, o.SortKey, o.Locale = ro.Unit, ro.SortKey, ro.Locale

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPDF}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if len(o.Sections) == 0 {
		o.Sections = DefaultSections()
	}
	for _, s := range o.Sections {
		if _, err := categories(s); err != nil {
			return err
		}
	}
	if o.BannerURL != "" {
		if err := errors.ValidateURL(o.BannerURL); err != nil {
			return err
		}
	}

	o.Geometry = o.Geometry.WithDefaults()
	if err := o.Geometry.Validate(); err != nil {
		return err
	}
	for _, s := range o.Sections {
		if err := o.Geometry.ValidateColumns(len(s.Columns)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidGeometry, err, "section %q", s.Name)
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RosterOptions returns the aggregation options with defaults applied.
func (o *Options) RosterOptions() roster.Options {
	return roster.Options{Unit: o.Unit, SortKey: o.SortKey, Locale: o.Locale}.WithDefaults()
}

// DateString returns the report date as YYYY-MM-DD.
func (o *Options) DateString() string {
	return o.Date.Format(errors.DateLayout)
}

// ReportKeyOpts returns the cache key options of rendered artifacts.
func (o *Options) ReportKeyOpts() cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		Club:     o.Club,
		Title:    o.Title,
		Unit:     string(o.Unit),
		Sort:     string(o.SortKey),
		Locale:   o.Locale,
		Geometry: struct {
			G        geometry.Geometry
			Sections []SectionSpec
			Banner   string
		}{o.Geometry, o.Sections, o.BannerURL},
	}
}

// Yesterday returns midnight of the day before now in loc.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, loc)
}

// FileName returns the artifact name for a report date, e.g. report-2024-03-05.pdf.
func FileName(date time.Time, ext string) string {
	return fmt.Sprintf("report-%s.%s", date.Format(errors.DateLayout), ext)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	RunID    string
	Date     time.Time
	Snapshot *source.Snapshot
	Totals   *roster.Totals
	Document layout.Document

	// Artifacts holds one finalized artifact per requested format, in order.
	Artifacts []delivery.Artifact

	Stats Stats
}

// Artifact returns the artifact of the given format.
func (r *Result) Artifact(format string) (delivery.Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Format == format {
			return a, true
		}
	}
	return delivery.Artifact{}, false
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Activities int
	Members    int
	Items      int
	Pages      int
	FetchTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}
