// Package integrations provides the HTTP client shared by remote data
// sources.
//
// [Client] adds default headers, maps status codes onto sentinel errors
// ([ErrNotFound], [ErrUnauthorized], [ErrNetwork]), marks transient failures
// as retryable and caches decoded responses in a [cache.Cache]:
//
//	c := integrations.NewClient(fileCache, "strava", 12*time.Hour, nil)
//	var members []Member
//	err := c.Cached(ctx, "clubs/1/members?page=1", false, &members, func() error {
//	    return c.GetWithHeaders(ctx, url, auth, &members)
//	})
//
// API-specific clients live in subpackages, such as [strava].
//
// [cache.Cache]: github.com/matzehuels/clubreport/pkg/cache.Cache
// [strava]: github.com/matzehuels/clubreport/pkg/integrations/strava
package integrations
