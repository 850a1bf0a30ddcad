// Package fetcher implements C3: a pooled HTTP client that fetches
// upstream manifests and segments with bounded, timeout-only retries,
// grounded on the teacher's tuned httpClient in proxy/stream/m3u8_stream.go.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"hlsgate/gatewayerr"
	"hlsgate/logger"
)

// Options mirrors config.HTTPSettings; kept separate so this package has
// no import-time dependency on the config package.
type Options struct {
	Timeout                 time.Duration
	MaxConnections          int
	MaxKeepaliveConnections int
	KeepaliveExpiry         time.Duration
	Retries                 int
	MaxRedirects            int
}

const backoffInterval = time.Second

// Fetcher is the pooled upstream client.
type Fetcher struct {
	client  *http.Client
	retries int
	log     logger.Logger
}

// New builds a Fetcher. The transport is sized once and reused for every
// request, the way the teacher's package-level httpClient is.
func New(opts Options, log logger.Logger) *Fetcher {
	transport := &http.Transport{
		MaxConnsPerHost:     opts.MaxConnections,
		MaxIdleConnsPerHost: opts.MaxKeepaliveConnections,
		IdleConnTimeout:     opts.KeepaliveExpiry,
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:       opts.Timeout,
			Transport:     transport,
			CheckRedirect: maxRedirectsPolicy(opts.MaxRedirects),
		},
		retries: opts.Retries,
		log:     log,
	}
}

// maxRedirectsPolicy enforces spec §4.3's "follows redirects up to
// max_redirects" on the upstream fetch itself. A non-positive limit falls
// back to Go's default http.Client redirect policy (10 redirects).
func maxRedirectsPolicy(maxRedirects int) func(req *http.Request, via []*http.Request) error {
	if maxRedirects <= 0 {
		return nil
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
}

// Result is a fetched upstream response: status, header subset needed by
// callers, and body bytes.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetch issues GET url, passing rangeHeader through verbatim when
// non-empty (spec §4.3's range-header pass-through), retrying up to
// Options.Retries times on timeout only (spec §4.3, Testable Property #8).
// A non-timeout error or any HTTP status is returned immediately without
// retry.
func (f *Fetcher) Fetch(ctx context.Context, url string, rangeHeader string) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			f.log.Debugf("retrying upstream fetch, attempt %d/%d", attempt+1, f.retries+1)
			b := newBackoffStrategy(backoffInterval)
			b.sleep(ctx)
			if ctx.Err() != nil {
				return nil, gatewayerr.UpstreamTimeout("request timeout", ctx.Err())
			}
		}

		res, err := f.attempt(ctx, url, rangeHeader)
		if err == nil {
			return res, nil
		}

		if !isTimeout(err) {
			return nil, gatewayerr.UpstreamStatus(0, "upstream error", err)
		}
		lastErr = err
	}

	return nil, gatewayerr.UpstreamTimeout("request timeout", lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string, rangeHeader string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
