package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/httputil"
	"github.com/matzehuels/clubreport/pkg/integrations"
	"github.com/matzehuels/clubreport/pkg/layout"
	"github.com/matzehuels/clubreport/pkg/observability"
	"github.com/matzehuels/clubreport/pkg/roster"
	"github.com/matzehuels/clubreport/pkg/source"
)

// Runner executes report runs against one source.
//
// The Runner holds no per-run state; multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Source source.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	HTTP   *integrations.Client
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// means cache.DefaultKeyer.
func NewRunner(src source.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		HTTP:   integrations.NewClient(nil, "banner", 0, nil),
		Logger: logger,
	}
}

// Execute runs fetch, aggregate, layout and render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{RunID: uuid.NewString(), Date: opts.Date}
	logger := r.Logger.With("run", result.RunID[:8], "date", opts.DateString())

	start := time.Now()
	snap, err := r.Fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Snapshot = snap
	result.Stats.FetchTime = time.Since(start)
	result.Stats.Activities = len(snap.Activities)
	result.Stats.Members = len(snap.Members)
	logger.Info("fetched club data",
		"activities", len(snap.Activities),
		"members", len(snap.Members),
		"duration", result.Stats.FetchTime)

	totals, err := r.Aggregate(snap, opts)
	if err != nil {
		return nil, err
	}
	result.Totals = totals
	result.Stats.Items = totals.Count()
	logger.Debug("aggregated", "items", totals.Count(), "active", totals.Active, "inactive", totals.Inactive, "skipped", totals.Skipped)

	start = time.Now()
	doc, err := r.Layout(ctx, totals, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Pages = doc.Pages
	logger.Info("planned report", "pages", doc.Pages, "duration", result.Stats.LayoutTime)

	start = time.Now()
	artifacts, err := r.Render(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	for i := range artifacts {
		artifacts[i].RunID = result.RunID
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	logger.Info("rendered report", "formats", opts.Formats, "duration", result.Stats.RenderTime)

	return result, nil
}

// Fetch returns the snapshot for the report date.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*source.Snapshot, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if r.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no data source configured")
	}
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, opts.DateString())
	start := time.Now()
	snap, err := r.Source.Fetch(ctx, opts.Date)
	if err != nil {
		hooks.OnFetchComplete(ctx, opts.DateString(), 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnFetchComplete(ctx, opts.DateString(), len(snap.Activities), len(snap.Members), time.Since(start), nil)
	return snap, nil
}

// Aggregate turns a snapshot into sorted line items.
func (r *Runner) Aggregate(snap *source.Snapshot, opts Options) (*roster.Totals, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return roster.Aggregate(snap.Activities, snap.Members, opts.RosterOptions())
}

// Layout plans the document. It performs no I/O.
func (r *Runner) Layout(ctx context.Context, t *roster.Totals, opts Options) (layout.Document, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, t.Count())
	start := time.Now()
	doc, err := Plan(t, opts)
	hooks.OnLayoutComplete(ctx, doc.Pages, time.Since(start), err)
	return doc, err
}

// Render draws doc in every requested format. The banner image is fetched
// before the first canvas is created; an empty document is EMPTY_REPORT.
func (r *Runner) Render(ctx context.Context, doc layout.Document, opts Options) ([]delivery.Artifact, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if doc.Empty() {
		return nil, errors.New(errors.ErrCodeEmptyReport, "no activities or members for %s", opts.DateString())
	}

	image, err := r.BannerImage(ctx, opts)
	if err != nil {
		return nil, err
	}
	banner := Banner(opts, image)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts := make([]delivery.Artifact, 0, len(opts.Formats))
	for _, format := range opts.Formats {
		a, err := RenderFormat(doc, format, banner, opts)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, nil
}

// BannerImage returns the banner image bytes, or nil when no banner URL is set.
// Downloads are cached for BannerTTL.
func (r *Runner) BannerImage(ctx context.Context, opts Options) ([]byte, error) {
	if opts.BannerURL == "" {
		return nil, nil
	}
	key := r.Keyer.BannerKey(opts.BannerURL)
	hooks := observability.Cache()
	if !opts.RefreshBanner {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "banner")
			return data, nil
		}
		hooks.OnCacheMiss(ctx, "banner")
	}

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = r.HTTP.GetBytes(ctx, opts.BannerURL)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "download banner image")
	}
	if err := r.Cache.Set(ctx, key, data, BannerTTL); err == nil {
		hooks.OnCacheSet(ctx, "banner", len(data))
	} else {
		r.Logger.Warn("cache banner image", "error", err)
	}
	return data, nil
}

// Deliver hands every artifact of a rendered result to d.
func (r *Runner) Deliver(ctx context.Context, d delivery.Deliverer, result *Result) error {
	if result == nil || len(result.Artifacts) == 0 {
		return errors.New(errors.ErrCodeEmptyReport, "nothing to deliver")
	}
	for _, a := range result.Artifacts {
		if err := d.Deliver(ctx, a); err != nil {
			return err
		}
		r.Logger.Info("delivered", "artifact", a.Name, "to", d.Name())
	}
	return nil
}
