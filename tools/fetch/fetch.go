// Package fetch provides the content-fetch tool family: one GET per call,
// with the body returned raw, as Markdown, as plain text or as indented JSON.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/voocel/toolbridge/pkg/logger"
	"github.com/voocel/toolbridge/schema"
	"github.com/voocel/toolbridge/tools"
	"github.com/voocel/toolbridge/utils"
)

// Tool names.
const (
	ToolHTML     = "fetch_html"
	ToolMarkdown = "fetch_markdown"
	ToolText     = "fetch_txt"
	ToolJSON     = "fetch_json"
)

// DefaultUserAgent is sent unless the caller overrides User-Agent.
const DefaultUserAgent = "Mozilla/5.0 (compatible; toolbridge/1.0; +https://github.com/voocel/toolbridge)"

// DefaultMaxBytes bounds the response body a fetch accepts.
const DefaultMaxBytes = 5 << 20

// Options configures the fetcher shared by the tool family. MaxBytes bounds
// the response body; a larger body fails the call. MaxLines bounds the
// Markdown and text renderings only.
type Options struct {
	Timeout   time.Duration
	MaxBytes  int
	MaxLines  int
	UserAgent string
	Retry     utils.RetryConfig
	Client    *http.Client
}

// DefaultOptions returns the defaults used by the fetch server.
func DefaultOptions() Options {
	return Options{
		Timeout:   30 * time.Second,
		MaxBytes:  DefaultMaxBytes,
		MaxLines:  tools.DefaultMaxLines * 2,
		UserAgent: DefaultUserAgent,
		Retry:     utils.DefaultRetryConfig(),
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// Is matches ErrFetchStatus, and ErrFetchTransient for codes worth retrying.
func (e *StatusError) Is(target error) bool {
	switch target {
	case schema.ErrFetchStatus:
		return true
	case schema.ErrFetchTransient:
		switch e.Code {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// SizeError is returned when the body exceeds Options.MaxBytes.
type SizeError struct {
	Limit int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("response exceeds %d bytes", e.Limit)
}

// Request is a validated fetch request.
type Request struct {
	URL     *url.URL
	Headers map[string]string
}

// Fetcher performs GETs for the tool family.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// NewFetcher creates a fetcher, filling unset options with defaults.
func NewFetcher(opts Options) *Fetcher {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = def.MaxLines
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = def.Retry
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Fetcher{opts: opts, client: client}
}

// ArgumentError carries the model-facing message for rejected arguments.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Is(target error) bool {
	return target == schema.ErrInvalidInput
}

// ParseArgs validates tool arguments: an absolute http(s) url and optional
// string headers, merged over the defaults with the caller's winning.
func (f *Fetcher) ParseArgs(args map[string]any) (*Request, error) {
	raw, ok := tools.StringArg(args, "url")
	if !ok {
		if v, present := args["url"]; present && v != nil {
			return nil, &ArgumentError{Message: fmt.Sprintf("Invalid URL: %v", v)}
		}
		return nil, &ArgumentError{Message: "Invalid arguments: url is required"}
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ArgumentError{Message: "Invalid URL: " + raw}
	}

	headers, err := tools.StringMapArg(args, "headers")
	if err != nil {
		return nil, &ArgumentError{Message: "Invalid headers: " + err.Error()}
	}

	return &Request{
		URL:     u,
		Headers: lo.Assign(f.defaultHeaders(), canonicalHeaders(headers)),
	}, nil
}

func (f *Fetcher) defaultHeaders() map[string]string {
	return map[string]string{"User-Agent": f.opts.UserAgent}
}

func canonicalHeaders(h map[string]string) map[string]string {
	return lo.MapKeys(h, func(_ string, k string) string {
		return http.CanonicalHeaderKey(k)
	})
}

// Get issues the GET, retrying transient failures, and returns the body.
func (f *Fetcher) Get(ctx context.Context, req *Request) (string, error) {
	start := time.Now()
	body, err := utils.Do(ctx, f.opts.Retry, schema.IsRetryable, func(ctx context.Context) (string, error) {
		return f.get(ctx, req)
	})
	if err != nil {
		logger.Warn("[FETCH] GET %s failed after %s: %v", req.URL, time.Since(start), err)
		return "", err
	}
	logger.Debug("[FETCH] GET %s ok (%s, %s)", req.URL, tools.FormatSize(len(body)), time.Since(start))
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, req *Request) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if isTransient(err) {
			return "", fmt.Errorf("%w: %v", schema.ErrFetchTransient, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Code: resp.StatusCode}
	}

	// One byte past the limit tells a body of exactly MaxBytes from a longer one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.opts.MaxBytes)+1))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", schema.ErrFetchTransient, err)
	}
	if len(data) > f.opts.MaxBytes {
		return "", &SizeError{Limit: f.opts.MaxBytes}
	}
	return string(data), nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

// failure turns a fetch error into the model-facing message.
func failure(req *Request, err error) *tools.CallResult {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return tools.ErrorResult(statusErr.Error())
	}
	var sizeErr *SizeError
	if errors.As(err, &sizeErr) {
		return tools.Errorf("Response from %s exceeds %d bytes", req.URL, sizeErr.Limit)
	}
	return tools.Errorf("Failed to fetch %s: %v", req.URL, err)
}
