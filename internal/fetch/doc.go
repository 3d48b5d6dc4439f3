// Package fetch loads listing pages and classifier resources.
//
// A Fetcher reads from local files or over HTTP(S). Every read is bounded by
// a body size limit, and HTTP requests carry the configured User-Agent.
//
// # Usage
//
//	f := fetch.NewFetcher(&http.Client{Timeout: 30 * time.Second},
//		fetch.WithUserAgent(cfg.UserAgent))
//	page, err := f.Fetch(ctx, "testdata/home.html")
package fetch
