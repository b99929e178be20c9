// Package autocomplete is the HTTP client for a variant's autocomplete endpoint
//
//	GET {base}/{variant}/autocomplete?query={text}
//
// 200 carries {"version","count","results"}; 429 means throttled
package autocomplete

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "lexiscan/internal/platform/errors"
	"lexiscan/internal/platform/logger"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 5 * time.Second
	defaultUA      = "lexiscan-extract"
	maxBodyBytes   = 1 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// HTTP overrides the transport, mainly for tests
	HTTP *http.Client
}

// Response is the body of a successful autocomplete call
type Response struct {
	Version string   `json:"version"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

// Client sends autocomplete requests; it never retries, retry policy lives with the caller
type Client struct {
	http *http.Client
	opts Options
	base *url.URL
	log  *logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) (*Client, error) {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	base, err := url.Parse(strings.TrimRight(o.BaseURL, "/"))
	if err != nil || !base.IsAbs() {
		return nil, perr.Newf(perr.ErrorCodeConfig, "autocomplete: invalid base url %q", o.BaseURL)
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http: hc,
		opts: o,
		base: base,
		log:  logger.Named("autocomplete"),
		now:  time.Now,
	}, nil
}

// URL builds the request url for variant and text
func (c *Client) URL(variant, text string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + url.PathEscape(variant) + "/autocomplete"
	u.RawQuery = url.Values{"query": []string{text}}.Encode()
	return u.String()
}

// Send issues one request and classifies the outcome
func (c *Client) Send(ctx context.Context, variant, text string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(variant, text), nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "autocomplete new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "autocomplete %s request failed", variant)
	}

	c.log.Trace().
		Str("variant", variant).
		Str("query", text).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("autocomplete http response")

	switch resp.StatusCode {
	case http.StatusOK:
		defer func() { _ = resp.Body.Close() }()
		var body Response
		dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
		if err := dec.Decode(&body); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "autocomplete %s: undecodable body", variant)
		}
		if body.Results == nil {
			return []string{}, nil
		}
		return body.Results, nil
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		_ = drainAndClose(resp.Body)
		c.log.Debug().Str("variant", variant).Str("query", text).Dur("retry_after", retryAfter).Msg("autocomplete throttled")
		return nil, perr.Throttledf("autocomplete %s throttled", variant)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, perr.Malformedf("autocomplete %s unexpected status %d body %s", variant, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// parseRetryAfter reads delta-seconds or an HTTP date; 0 when absent or unparsable
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
