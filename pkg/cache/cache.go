// Package cache stores byte blobs under string keys with an expiry.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON envelope per key under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// Keys are built by a [Keyer] so that every component derives them the same
// way. The report pipeline caches the banner image, paged Strava member lists
// and, when serving over HTTP, finished report artifacts.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store for opaque byte blobs.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss or an
// expired entry. A ttl of zero in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey names a cached API response within a namespace such as "strava:".
	HTTPKey(namespace, key string) string

	// BannerKey names the banner image downloaded from url.
	BannerKey(url string) string

	// ReportKey names a rendered report artifact.
	ReportKey(date, format string, opts ReportKeyOpts) string
}

// ReportKeyOpts holds everything besides date and format that changes the
// bytes of a rendered report.
type ReportKeyOpts struct {
	Club     string `json:"club"`
	Title    string `json:"title"`
	Unit     string `json:"unit"`
	Sort     string `json:"sort"`
	Locale   string `json:"locale"`
	Geometry any    `json:"geometry"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// BannerKey returns "banner:<sha256(url)>".
func (DefaultKeyer) BannerKey(url string) string {
	return hashKey("banner", url)
}

// ReportKey returns "report:<date>:<format>:<sha256(opts)>".
func (DefaultKeyer) ReportKey(date, format string, opts ReportKeyOpts) string {
	return hashKey("report:"+date+":"+format, opts)
}
