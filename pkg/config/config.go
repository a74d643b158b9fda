// Package config loads the clubreport configuration.
//
// Settings come from a TOML file (by default $XDG_CONFIG_HOME/clubreport/config.toml)
// and are then overridden by the environment variables of the original
// deployment, so a container can run with environment variables alone:
//
//	STRAVA_CLIENT_ID  STRAVA_CLIENT_SECRET  STRAVA_REFRESH_TOKEN  STRAVA_CLUB_ID
//	STRAVA_LOGO_URL   EMAIL_HOST  EMAIL_PORT  EMAIL_USER  EMAIL_PASS  EMAIL_BCC
//	REDIS_URL         MONGO_URI
package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/delivery"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/geometry"
	"github.com/matzehuels/clubreport/pkg/integrations/strava"
	"github.com/matzehuels/clubreport/pkg/pipeline"
	"github.com/matzehuels/clubreport/pkg/roster"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete configuration.
type Config struct {
	Strava  strava.Config          `toml:"strava"`
	Report  Report                 `toml:"report"`
	Page    geometry.Geometry      `toml:"page"`
	Cache   Cache                  `toml:"cache"`
	Mail    delivery.MailConfig    `toml:"mail"`
	Archive delivery.ArchiveConfig `toml:"archive"`
	Output  Output                 `toml:"output"`
	Server  Server                 `toml:"server"`
}

// Report controls the content of the report.
type Report struct {
	Title     string                 `toml:"title"`
	Unit      roster.Unit            `toml:"unit"`
	Sort      roster.SortKey         `toml:"sort"`
	Locale    string                 `toml:"locale"`
	Timezone  string                 `toml:"timezone"`
	BannerURL string                 `toml:"banner_url"`
	Formats   []string               `toml:"formats"`
	Sections  []pipeline.SectionSpec `toml:"sections"`
}

// Cache selects the cache backend.
type Cache struct {
	Backend  string        `toml:"backend"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

// Output is the local report directory. Empty disables directory delivery.
type Output struct {
	Dir string `toml:"dir"`
}

// Server configures the HTTP server.
type Server struct {
	Addr string `toml:"addr"`
}

// Default returns a configuration that renders reports into ./reports with a
// file cache. Strava credentials still have to be provided.
func Default() *Config {
	return &Config{
		Strava: strava.Config{
			BaseURL:    strava.DefaultBaseURL,
			MembersTTL: 6 * time.Hour,
		},
		Report: Report{
			Title:    pipeline.DefaultTitle,
			Unit:     roster.Miles,
			Sort:     roster.BySurname,
			Locale:   "en",
			Timezone: "Local",
			Formats:  []string{pipeline.FormatPDF},
			Sections: pipeline.DefaultSections(),
		},
		Page:   geometry.Default(),
		Cache:  Cache{Backend: CacheFile, TTL: 6 * time.Hour},
		Mail:   delivery.MailConfig{Port: 587, Subject: pipeline.DefaultTitle, Formats: []string{pipeline.FormatPDF}},
		Output: Output{Dir: "reports"},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/clubreport/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "clubreport", "config.toml"), nil
}

// Load reads the file at path over [Default] and applies environment
// overrides. An empty path means [DefaultPath], which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()
	optional := path == ""
	if optional {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config file")
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
		}
	case stderrors.Is(err, os.ErrNotExist):
		if !optional {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML data over [Default] without reading the environment.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables read with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("STRAVA_CLIENT_ID", &c.Strava.ClientID)
	str("STRAVA_CLIENT_SECRET", &c.Strava.ClientSecret)
	str("STRAVA_REFRESH_TOKEN", &c.Strava.RefreshToken)
	str("STRAVA_CLUB_ID", &c.Strava.ClubID)
	str("STRAVA_LOGO_URL", &c.Report.BannerURL)
	str("EMAIL_HOST", &c.Mail.Host)
	str("EMAIL_USER", &c.Mail.Username)
	str("EMAIL_PASS", &c.Mail.Password)
	str("MONGO_URI", &c.Archive.URI)

	if v, ok := lookup("EMAIL_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return errors.New(errors.ErrCodeInvalidConfig, "EMAIL_PORT: invalid port %q", v)
		}
		c.Mail.Port = port
	}
	if v, ok := lookup("EMAIL_BCC"); ok && v != "" {
		c.Mail.Bcc = delivery.SplitAddresses(v)
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		c.Cache.RedisURL = v
		c.Cache.Backend = CacheRedis
	}
	return nil
}

// Check names a group of settings a command depends on.
type Check int

// Setting groups for [Config.Validate].
const (
	CheckStrava Check = iota
	CheckMail
	CheckArchive
)

// Validate checks the report settings and every requested group. All
// problems are reported at once.
func (c *Config) Validate(checks ...Check) error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.PipelineOptions(); err != nil {
		errs = append(errs, err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New(errors.ErrCodeInvalidConfig, "cache: redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, errors.New(errors.ErrCodeInvalidConfig, "cache: unknown backend %q (want file, redis or none)", c.Cache.Backend))
	}
	for _, check := range checks {
		var err error
		switch check {
		case CheckStrava:
			err = c.Strava.Validate()
		case CheckMail:
			err = c.Mail.Validate()
		case CheckArchive:
			if c.Archive.URI == "" {
				err = errors.New(errors.ErrCodeInvalidConfig, "archive: uri is required")
			}
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Wrap(errors.ErrCodeInvalidConfig, stderrors.Join(errs...), "%d configuration problems", len(errs))
}

// Location returns the report time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" || c.Report.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "report: timezone %q", c.Report.Timezone)
	}
	return loc, nil
}

// PipelineOptions returns validated pipeline options for yesterday's report.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		Location:  loc,
		Club:      c.Strava.ClubID,
		Title:     c.Report.Title,
		Unit:      c.Report.Unit,
		SortKey:   c.Report.Sort,
		Locale:    c.Report.Locale,
		Formats:   c.Report.Formats,
		BannerURL: c.Report.BannerURL,
		Sections:  c.Report.Sections,
		Geometry:  c.Page,
	}
	return opts, opts.ValidateAndSetDefaults()
}

// OpenCache opens the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisURL, "clubreport:")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to redis")
		}
		return rc, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// Deliverers opens every configured destination: the output directory, mail
// when a host is set and the archive when a URI is set. release closes
// connections and must be called when delivery is done.
func (c *Config) Deliverers(ctx context.Context) (d delivery.Multi, release func(context.Context) error, err error) {
	release = func(context.Context) error { return nil }
	if c.Output.Dir != "" {
		d = append(d, delivery.Directory{Dir: c.Output.Dir})
	}
	if c.Mail.Host != "" {
		m, err := delivery.NewMailer(c.Mail)
		if err != nil {
			return nil, release, err
		}
		d = append(d, m)
	}
	if c.Archive.URI != "" {
		a, err := delivery.OpenArchive(ctx, c.Archive)
		if err != nil {
			return nil, release, err
		}
		d = append(d, a)
		release = a.Close
	}
	return d, release, nil
}
