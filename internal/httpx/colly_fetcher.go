package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// RawContent is a fetched page body together with where and when it was fetched.
type RawContent struct {
	URL       string
	Body      string
	Status    int
	FetchedAt time.Time
}

// CollyFetcher wraps Colly for polite single-attempt HTML fetching.
type CollyFetcher struct {
	userAgent    string
	timeout      time.Duration
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	hosts        map[string]*rate.Limiter
}

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	if userAgent == "" {
		userAgent = "review-monitor-bot/1.0"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CollyFetcher{
		userAgent:    userAgent,
		timeout:      timeout,
		defaultRate:  rate.Every(time.Second),
		defaultBurst: 2,
		hosts:        make(map[string]*rate.Limiter),
	}
}

// SetHostLimit overrides the request rate allowed for one host.
func (f *CollyFetcher) SetHostLimit(host string, per time.Duration, burst int) {
	if host == "" || per <= 0 || burst <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hosts[normalizeHost(host)] = rate.NewLimiter(rate.Every(per), burst)
}

// Fetch performs exactly one GET. Any transport failure, timeout or
// non-2xx status comes back as *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (RawContent, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return RawContent{}, &FetchError{Err: err}
	}
	if err := f.limiterFor(hostKey(target)).Wait(ctx); err != nil {
		return RawContent{}, &FetchError{Err: err}
	}

	var body []byte
	status, err := f.fetchOnce(ctx, target, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			body = append([]byte(nil), r.Body...)
		})
	})
	if err != nil {
		return RawContent{}, &FetchError{Status: status, Err: err}
	}

	return RawContent{
		URL:       target,
		Body:      string(body),
		Status:    status,
		FetchedAt: time.Now(),
	}, nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, register func(*colly.Collector)) (int, error) {
	c := f.newCollector(ctx)
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Request(http.MethodGet, target, nil, nil, nil); err != nil {
		if ctx.Err() != nil {
			return status, ctx.Err()
		}
		return status, err
	}
	if ctx.Err() != nil {
		return status, ctx.Err()
	}
	if reqErr != nil {
		return status, reqErr
	}
	if status == 0 {
		status = http.StatusOK
	}
	if status < 200 || status > 299 {
		return status, fmt.Errorf("status %d", status)
	}
	return status, nil
}

// newCollector builds a collector whose requests, robots.txt included,
// are bound to ctx.
func (f *CollyFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
	)
	c.IgnoreRobotsTxt = false
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

func (f *CollyFetcher) limiterFor(host string) *rate.Limiter {
	if host == "" {
		host = "default"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.defaultRate, f.defaultBurst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	return normalizeHost(u.Hostname())
}
