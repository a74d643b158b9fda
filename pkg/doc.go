// Package pkg provides the libraries behind clubreport, the daily Strava club
// activity report.
//
// # Overview
//
// A report run is a fixed sequence of stages, each in its own package:
//
//	Strava API / snapshot file
//	         ↓
//	    [source] (activities and roster for one day)
//	         ↓
//	    [roster] (categorize, aggregate, sort)
//	         ↓
//	    [layout] (pure page planning against [geometry])
//	         ↓
//	    [canvas] (replay onto PDF or a recorder)
//	         ↓
//	    [delivery] (directory, SMTP, MongoDB archive)
//
// [pipeline] wires the stages together, [config] loads the TOML settings and
// [cache] keeps members, banner images and rendered reports between runs.
//
// # Quick Start
//
//	cfg, _ := config.Load("")
//	ch, _ := cfg.OpenCache(ctx)
//	client, _ := strava.NewClient(cfg.Strava, ch)
//	src := &strava.Source{Client: client}
//	runner := pipeline.NewRunner(src, ch, cache.NewDefaultKeyer(), logger)
//
//	opts, _ := cfg.PipelineOptions()
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	return runner.Deliver(ctx, delivery.Directory{Dir: "reports"}, result)
package pkg
