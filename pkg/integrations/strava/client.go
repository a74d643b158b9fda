package strava

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/clubreport/pkg/cache"
	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/httputil"
	"github.com/matzehuels/clubreport/pkg/integrations"
	"github.com/matzehuels/clubreport/pkg/roster"
)

// DefaultBaseURL is the Strava web origin; the API lives under /api/v3.
const DefaultBaseURL = "https://www.strava.com"

// Config holds the credentials and club of a [Client].
type Config struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	ClubID       string `toml:"club_id"`

	// BaseURL overrides DefaultBaseURL.
	BaseURL string `toml:"base_url"`

	// MembersTTL is how long member pages stay cached. Zero disables caching.
	MembersTTL time.Duration `toml:"members_ttl"`
}

// Validate reports missing credentials.
func (c Config) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"client_id", c.ClientID},
		{"client_secret", c.ClientSecret},
		{"refresh_token", c.RefreshToken},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "strava: missing %s", strings.Join(missing, ", "))
	}
	return errors.ValidateClubID(c.ClubID)
}

// Client calls the Strava club endpoints.
type Client struct {
	*integrations.Client
	cfg     Config
	baseURL string

	mu    sync.Mutex
	token *Token
	now   func() time.Time
}

// NewClient returns a client for cfg. Member pages are cached in c for
// cfg.MembersTTL; c may be nil.
func NewClient(cfg Config, c cache.Cache) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MembersTTL <= 0 {
		c = nil
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if err := errors.ValidateURL(base); err != nil {
		return nil, err
	}
	return &Client{
		Client:  integrations.NewClient(c, "strava", cfg.MembersTTL, nil),
		cfg:     cfg,
		baseURL: base,
		now:     time.Now,
	}, nil
}

// WithHTTPClient replaces the HTTP client and returns c.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.Client.WithHTTPClient(h)
	return c
}

// tokenMargin is how long before its expiry an access token is replaced.
const tokenMargin = 5 * time.Minute

// Token returns the access token. The refresh-token grant runs on first use
// and again once the current token is within tokenMargin of its expiry.
func (c *Client) Token(ctx context.Context) (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && !c.token.expiresWithin(c.now(), tokenMargin) {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {c.cfg.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	var tok Token
	err := httputil.RetryWithBackoff(ctx, func() error {
		return c.PostForm(ctx, c.baseURL+"/oauth/token", form, &tok)
	})
	switch {
	case stderrors.Is(err, integrations.ErrUnauthorized), stderrors.Is(err, integrations.ErrNetwork) && !httputil.IsRetryable(err):
		return nil, errors.Wrap(errors.ErrCodeUnauthorized, err, "strava: refresh token rejected")
	case err != nil:
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "strava: token request")
	case tok.AccessToken == "":
		return nil, errors.New(errors.ErrCodeUnauthorized, "strava: token response carried no access token")
	}
	c.token = &tok
	return c.token, nil
}

func (c *Client) clubURL(resource string, page, perPage int) string {
	return c.baseURL + "/api/v3/clubs/" + url.PathEscape(c.cfg.ClubID) + "/" + resource + pageQuery(page, perPage)
}

// Activities returns one page of recent club activities.
func (c *Client) Activities(ctx context.Context, page, perPage int) ([]roster.Activity, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	var raw []clubActivity
	err = httputil.RetryWithBackoff(ctx, func() error {
		raw = nil
		return c.GetWithHeaders(ctx, c.clubURL("activities", page, perPage), tok.header(), &raw)
	})
	if err != nil {
		return nil, wrap(err, "activities page %d", page)
	}
	out := make([]roster.Activity, len(raw))
	for i, a := range raw {
		out[i] = a.record()
	}
	return out, nil
}

// Members returns one page of club members. Pages are cached for
// Config.MembersTTL unless refresh is set.
func (c *Client) Members(ctx context.Context, page, perPage int, refresh bool) ([]roster.Member, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	var raw []clubMember
	key := "clubs/" + c.cfg.ClubID + "/members" + pageQuery(page, perPage)
	err = c.Cached(ctx, key, refresh, &raw, func() error {
		raw = nil
		return c.GetWithHeaders(ctx, c.clubURL("members", page, perPage), tok.header(), &raw)
	})
	if err != nil {
		return nil, wrap(err, "members page %d", page)
	}
	out := make([]roster.Member, len(raw))
	for i, m := range raw {
		out[i] = m.record()
	}
	return out, nil
}

func wrap(err error, format string, args ...any) error {
	code := errors.ErrCodeNetwork
	switch {
	case stderrors.Is(err, integrations.ErrUnauthorized):
		code = errors.ErrCodeUnauthorized
	case stderrors.Is(err, integrations.ErrNotFound):
		code = errors.ErrCodeNotFound
	case stderrors.As(err, new(*errors.RateLimitedError)):
		code = errors.ErrCodeRateLimited
	case errors.GetCode(err) != "":
		return err
	}
	return errors.Wrap(code, err, "strava: "+format, args...)
}
