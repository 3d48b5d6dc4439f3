package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nao1215/studysight/internal/model"
)

// ErrUnexpectedStatus is returned when an HTTP response is not 2xx.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// defaultUserAgent is used when no User-Agent option is given.
const defaultUserAgent = "StudySight/1.0"

// Fetcher reads pages and resources from files or HTTP(S) URLs.
type Fetcher struct {
	// client performs HTTP requests.
	client *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of bodies to read.
	maxBodySize int64

	// now returns the current time. Replaced in tests.
	now func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the maximum body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// NewFetcher creates a Fetcher using client for HTTP sources.
// A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:      client,
		userAgent:   defaultUserAgent,
		maxBodySize: model.MaxPageSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Fetch loads the page at source, which is either a file path or an
// http(s) URL.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*model.Page, error) {
	if IsURL(source) {
		return f.fetchURL(ctx, source)
	}
	return f.fetchFile(ctx, source)
}

// Open returns the body of source for streaming reads. The caller must close
// it. HTTP responses outside 2xx are reported as ErrUnexpectedStatus.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !IsURL(source) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := os.Open(source) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, err
		}
		return limitedReadCloser{Reader: io.LimitReader(file, f.maxBodySize), Closer: file}, nil
	}

	resp, err := f.do(ctx, source, "application/json, text/html;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, source, resp.StatusCode)
	}
	return limitedReadCloser{Reader: io.LimitReader(resp.Body, f.maxBodySize), Closer: resp.Body}, nil
}

// do sends a GET request with the configured headers.
func (f *Fetcher) do(ctx context.Context, source, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	return f.client.Do(req)
}

func (f *Fetcher) fetchURL(ctx context.Context, source string) (*model.Page, error) {
	resp, err := f.do(ctx, source, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	page := &model.Page{
		Source:      source,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Raw:         body,
		FetchedAt:   f.now(),
	}
	page.ComputeHash()
	page.TruncateRaw()
	return page, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, source string) (*model.Page, error) {
	rc, err := f.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	page := &model.Page{
		Source:      source,
		ContentType: "text/html",
		Raw:         body,
		FetchedAt:   f.now(),
	}
	page.ComputeHash()
	page.TruncateRaw()
	return page, nil
}

// limitedReadCloser closes the underlying body of a limited reader.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
