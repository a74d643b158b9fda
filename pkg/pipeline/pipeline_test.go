package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/canvas"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
	"github.com/matzehuels/clubreport/pkg/integrations"
	"github.com/matzehuels/clubreport/pkg/layout"
	"github.com/matzehuels/clubreport/pkg/roster"
	"github.com/matzehuels/clubreport/pkg/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var reportDay = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

func snapshot() *source.Snapshot {
	return &source.Snapshot{
		Activities: []roster.Activity{
			{FirstName: "Jane", LastName: "Doe", Type: "Walk", Distance: 3218.68},
			{FirstName: "Rick", LastName: "Roe", Type: "Run", Distance: 8046.7},
			{FirstName: "Ann", LastName: "Bee", Type: "Hike", Distance: 10000},
		},
		Members: []roster.Member{
			{FirstName: "Jane", LastName: "Doe"},
			{FirstName: "Rick", LastName: "Roe"},
			{FirstName: "Ann", LastName: "Bee"},
			{FirstName: "Sam", LastName: "Idle"},
		},
	}
}

func testOptions() Options {
	return Options{Date: reportDay, Location: time.UTC, Formats: []string{FormatPDF, FormatJSON}}
}

func TestFileName(t *testing.T) {
	if got := FileName(reportDay, "pdf"); got != "report-2024-03-05.pdf" {
		t.Errorf("FileName = %q", got)
	}
}

func TestYesterday(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	tests := []struct {
		now  time.Time
		loc  *time.Location
		want string
	}{
		{time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.UTC, "2024-02-29"},
		{time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC), time.UTC, "2023-12-31"},
		// 23:30 UTC is already the next day in CET
		{time.Date(2024, 6, 10, 23, 30, 0, 0, time.UTC), berlin, "2024-06-10"},
	}
	for _, tt := range tests {
		got := Yesterday(tt.now, tt.loc)
		if got.Format(errors.DateLayout) != tt.want || got.Location() != tt.loc {
			t.Errorf("Yesterday(%v) = %v, want %s", tt.now, got, tt.want)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Location: time.UTC}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Title != DefaultTitle || opts.Unit != roster.Miles || opts.SortKey != roster.BySurname || opts.Locale != "en" {
		t.Errorf("defaults = %+v", opts)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPDF {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if len(opts.Sections) != 2 || opts.Geometry.PageWidth == 0 {
		t.Errorf("Sections = %v, Geometry = %+v", opts.Sections, opts.Geometry)
	}
	if want := Yesterday(time.Now(), time.UTC); !opts.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", opts.Date, want)
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		code errors.Code
	}{
		{"format", func(o *Options) { o.Formats = []string{"svg"} }, errors.ErrCodeInvalidFormat},
		{"unit", func(o *Options) { o.Unit = "furlong" }, errors.ErrCodeInvalidInput},
		{"column", func(o *Options) { o.Sections = []SectionSpec{{Name: "x", Columns: []string{"Swim"}}} }, errors.ErrCodeInvalidConfig},
		{"no columns", func(o *Options) { o.Sections = []SectionSpec{{Name: "x"}} }, errors.ErrCodeInvalidConfig},
		{"banner url", func(o *Options) { o.BannerURL = "ftp://logo" }, errors.ErrCodeInvalidInput},
		{"columns past page edge", func(o *Options) {
			o.Geometry = geometry.Default()
			o.Sections = []SectionSpec{{Name: "wide", Columns: []string{"Walk", "Run", "Ride", "Hike"}}}
		}, errors.ErrCodeInvalidGeometry},
		{"geometry", func(o *Options) {
			o.Geometry.UsableHeight = 100
			o.Geometry.HeaderHeight = 120
		}, errors.ErrCodeInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mod(&opts)
			err := opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSectionsBanners(t *testing.T) {
	totals, err := roster.Aggregate([]roster.Activity{
		{FirstName: "Jane", LastName: "Doe", Type: "Walk", Distance: 3218.68},
		{FirstName: "Ann", LastName: "Bee", Type: "Hike", Distance: 10000},
	}, nil, roster.Options{}.WithDefaults())
	if err != nil {
		t.Fatal(err)
	}
	walk := SectionSpec{Name: "walk", Columns: []string{"Walk"}}
	ride := SectionSpec{Name: "ride", Columns: []string{"Ride"}}
	hike := SectionSpec{Name: "hike", Columns: []string{"Hike"}}
	banner := func(s SectionSpec) SectionSpec { s.Banner = true; return s }

	tests := []struct {
		name  string
		specs []SectionSpec
		want  []bool
	}{
		{"each section keeps its own", []SectionSpec{banner(walk), banner(hike)}, []bool{true, true}},
		{"only where asked", []SectionSpec{walk, banner(hike)}, []bool{false, true}},
		{"skipped section passes it on", []SectionSpec{banner(ride), hike}, []bool{false, true}},
		{"passed on to a section with its own", []SectionSpec{banner(ride), banner(hike)}, []bool{false, true}},
		{"trailing skipped section", []SectionSpec{walk, banner(ride)}, []bool{true, false}},
		{"no banner", []SectionSpec{walk, hike}, []bool{false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secs, err := Sections(totals, tt.specs, geometry.Default())
			if err != nil {
				t.Fatal(err)
			}
			got := make([]bool, len(secs))
			for i, s := range secs {
				got[i] = s.Banner
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("banner flags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSectionsColumnTitles(t *testing.T) {
	totals, err := roster.Aggregate(nil, []roster.Member{{FirstName: "Sam", LastName: "Idle"}}, roster.Options{}.WithDefaults())
	if err != nil {
		t.Fatal(err)
	}
	secs, err := Sections(totals, DefaultSections(), geometry.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got := secs[1].Columns[1].Title; got != "No Activity" {
		t.Errorf("column title = %q", got)
	}
	if got := secs[1].Columns[2].Title; got != "" {
		t.Errorf("placeholder title = %q", got)
	}
}

func TestPlanBannerPerSection(t *testing.T) {
	totals, err := roster.Aggregate([]roster.Activity{
		{FirstName: "Jane", LastName: "Doe", Type: "Walk", Distance: 3218.68},
		{FirstName: "Ann", LastName: "Bee", Type: "Hike", Distance: 10000},
	}, nil, roster.Options{}.WithDefaults())
	if err != nil {
		t.Fatal(err)
	}
	opts := testOptions()
	opts.Sections = []SectionSpec{
		{Name: "a", Columns: []string{"Walk"}, Banner: true},
		{Name: "b", Columns: []string{"Hike"}, Banner: true},
	}
	doc, err := Plan(totals, opts)
	if err != nil {
		t.Fatal(err)
	}
	if n := doc.Count(layout.KindBanner); n != 2 {
		t.Errorf("banner placements = %d, want 2", n)
	}
}

func TestRenderSectionBannerTitle(t *testing.T) {
	opts := testOptions()
	opts.Formats = []string{FormatJSON}
	opts.Sections = []SectionSpec{
		{Name: "moving", Columns: []string{"Walk", "Run"}, Banner: true, BannerTitle: "Movers and Shakers", FreshPage: true},
		{Name: "outdoors", Columns: []string{"Hike", "NoActivity"}, Banner: true, FreshPage: true},
	}
	r := NewRunner(source.Static{Snapshot: snapshot()}, nil, nil, nil)
	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := result.Artifact(FormatJSON)
	for _, want := range []string{"Movers and Shakers", DefaultTitle} {
		if !bytes.Contains(a.Data, []byte(want)) {
			t.Errorf("json artifact has no banner title %q", want)
		}
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(source.Static{Snapshot: snapshot()}, nil, nil, nil)
	result, err := r.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if result.RunID == "" || result.Stats.Activities != 3 || result.Stats.Members != 4 {
		t.Errorf("result = %+v", result.Stats)
	}
	if result.Document.Pages != 2 {
		t.Errorf("Pages = %d, want 2 (each section starts fresh)", result.Document.Pages)
	}
	if got := result.Totals.Items(roster.NoActivity); len(got) != 1 || got[0] != "Idle, Sam — 0.00 mi" {
		t.Errorf("no-activity items = %q", got)
	}

	pdfArt, ok := result.Artifact(FormatPDF)
	if !ok || pdfArt.Name != "report-2024-03-05.pdf" || !bytes.HasPrefix(pdfArt.Data, []byte("%PDF-")) {
		t.Fatalf("pdf artifact = %q %d bytes", pdfArt.Name, len(pdfArt.Data))
	}
	if pdfArt.RunID != result.RunID {
		t.Errorf("artifact run id = %q, want %q", pdfArt.RunID, result.RunID)
	}

	jsonArt, ok := result.Artifact(FormatJSON)
	if !ok {
		t.Fatal("no json artifact")
	}
	var rec canvas.Recorder
	if err := json.Unmarshal(jsonArt.Data, &rec); err != nil {
		t.Fatal(err)
	}
	texts := rec.Texts(1)
	if len(texts) < 2 || texts[0] != DefaultTitle || texts[1] != "March 5, 2024" {
		t.Errorf("page 1 texts = %q", texts)
	}
}

func TestExecuteDeterministic(t *testing.T) {
	r := NewRunner(source.Static{Snapshot: snapshot()}, nil, nil, nil)
	a, err := r.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Artifacts {
		if !bytes.Equal(a.Artifacts[i].Data, b.Artifacts[i].Data) {
			t.Errorf("%s output differs between runs", a.Artifacts[i].Format)
		}
	}
}

func TestExecuteEmpty(t *testing.T) {
	r := NewRunner(source.Static{Snapshot: &source.Snapshot{}}, nil, nil, nil)
	_, err := r.Execute(context.Background(), testOptions())
	if !errors.Is(err, errors.ErrCodeEmptyReport) {
		t.Errorf("err = %v, want EMPTY_REPORT", err)
	}
}

type brokenSource struct{ err error }

func (s brokenSource) Fetch(context.Context, time.Time) (*source.Snapshot, error) { return nil, s.err }

func TestExecuteSourceError(t *testing.T) {
	cause := stderrors.New("club feed down")
	r := NewRunner(brokenSource{err: cause}, nil, nil, nil)
	if _, err := r.Execute(context.Background(), testOptions()); !stderrors.Is(err, cause) {
		t.Errorf("err = %v, want the source error", err)
	}

	r = NewRunner(nil, nil, nil, nil)
	if _, err := r.Execute(context.Background(), testOptions()); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want INVALID_CONFIG without a source", err)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 1))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestBannerImageCached(t *testing.T) {
	img := pngBytes(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer srv.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(source.Static{Snapshot: snapshot()}, fc, nil, nil)
	r.HTTP = integrations.NewClient(nil, "banner", 0, nil).WithHTTPClient(srv.Client())

	opts := testOptions()
	opts.BannerURL = srv.URL + "/logo.png"
	for range 2 {
		result, err := r.Execute(context.Background(), opts)
		if err != nil {
			t.Fatal(err)
		}
		a, _ := result.Artifact(FormatJSON)
		var rec canvas.Recorder
		if err := json.Unmarshal(a.Data, &rec); err != nil {
			t.Fatal(err)
		}
		if rec.Commands[1].Op != canvas.OpImage || rec.Commands[1].Bytes != len(img) {
			t.Errorf("second command = %+v, want the banner image", rec.Commands[1])
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("banner downloaded %d times, want 1", n)
	}
}

func TestBannerImageFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := NewRunner(source.Static{Snapshot: snapshot()}, nil, nil, nil)
	r.HTTP = integrations.NewClient(nil, "banner", 0, nil).WithHTTPClient(srv.Client())
	opts := testOptions()
	opts.BannerURL = srv.URL + "/missing.png"
	if _, err := r.Execute(context.Background(), opts); !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("err = %v, want NETWORK_ERROR", err)
	}
}

func TestDeliver(t *testing.T) {
	r := NewRunner(source.Static{Snapshot: snapshot()}, nil, nil, nil)
	result, err := r.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := r.Deliver(context.Background(), delivery.Directory{Dir: dir}, result); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"report-2024-03-05.pdf", "report-2024-03-05.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	if err := r.Deliver(context.Background(), delivery.Directory{Dir: dir}, &Result{}); !errors.Is(err, errors.ErrCodeEmptyReport) {
		t.Errorf("err = %v, want EMPTY_REPORT", err)
	}
}
