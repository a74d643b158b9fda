package cache

// ScopedKeyer prefixes every key of an inner [Keyer], so that several clubs
// can share one Redis instance without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey implements [Keyer].
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// BannerKey implements [Keyer].
func (k *ScopedKeyer) BannerKey(url string) string {
	return k.prefix + k.inner.BannerKey(url)
}

// ReportKey implements [Keyer].
func (k *ScopedKeyer) ReportKey(date, format string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(date, format, opts)
}
