package site

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nexusofthings/nexus/internal/cachemanager"
	"github.com/nexusofthings/nexus/internal/log"
)

// DefaultCSRFCookie is the cookie Django stores its CSRF token in.
const DefaultCSRFCookie = "csrftoken"

// DefaultCSRFHeader is the header Django reads the token from.
const DefaultCSRFHeader = "X-CSRFToken"

// TokenProvider supplies the CSRF token for state-changing requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by providers that cache tokens.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// NewHTTPClient returns a client with a cookie jar so the CSRF cookie set
// by the site is kept between requests. A zero timeout means none.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// CookieTokens reads the CSRF token from a cookie jar. When the jar has no
// token yet it primes it with a GET of the site root, which is where the
// site hands out the cookie. Found tokens are cached.
type CookieTokens struct {
	jar    http.CookieJar
	doer   Doer
	base   *url.URL
	cookie string
	ttl    time.Duration
	cache  cachemanager.CacheManager[string, string]
}

// NewCookieTokens builds a provider for the site at base. doer must use
// jar so the priming request stores the cookie.
func NewCookieTokens(jar http.CookieJar, doer Doer, base *url.URL, cookie string, ttl time.Duration) *CookieTokens {
	if cookie == "" {
		cookie = DefaultCSRFCookie
	}
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	return &CookieTokens{
		jar:    jar,
		doer:   doer,
		base:   base,
		cookie: cookie,
		ttl:    ttl,
		cache:  cachemanager.NewInMemoryCacheManager[string, string]("csrf", ttl, cachemanager.DefaultCleanupInterval),
	}
}

// Token implements TokenProvider.
func (c *CookieTokens) Token(ctx context.Context) (string, error) {
	key := c.base.String()
	if tok, ok := c.cache.Get(ctx, key); ok {
		return tok, nil
	}

	tok := c.fromJar()
	if tok == "" {
		if err := c.prime(ctx); err != nil {
			return "", err
		}
		tok = c.fromJar()
	}
	if tok == "" {
		return "", ErrNoToken
	}

	c.cache.Set(ctx, key, tok, c.ttl)
	return tok, nil
}

// Invalidate drops the cached token so the next call re-reads the jar.
func (c *CookieTokens) Invalidate(ctx context.Context) {
	_ = c.cache.Delete(ctx, c.base.String())
}

func (c *CookieTokens) fromJar() string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == c.cookie {
			// Percent-decoded; a literal + stays a +.
			if v, err := url.PathUnescape(ck.Value); err == nil {
				return v
			}
			return ck.Value
		}
	}
	return ""
}

func (c *CookieTokens) prime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String(), nil)
	if err != nil {
		return fmt.Errorf("building csrf priming request: %w", err)
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return &TransportError{Op: "request", URL: req.URL.String(), Err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	log.Debug(log.CatHTTP, "primed csrf cookie", "url", req.URL.String(), "status", resp.StatusCode)
	return nil
}
