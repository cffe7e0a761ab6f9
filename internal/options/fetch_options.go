package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/voocel/toolbridge/tools/fetch"
	"github.com/voocel/toolbridge/utils"
)

// FetchOptions configures the content-fetch tools.
type FetchOptions struct {
	Enabled   bool          `json:"enabled"    mapstructure:"enabled"`
	Timeout   time.Duration `json:"timeout"    mapstructure:"timeout"`
	MaxBytes  int           `json:"max-bytes"  mapstructure:"max-bytes"`
	MaxLines  int           `json:"max-lines"  mapstructure:"max-lines"`
	UserAgent string        `json:"user-agent" mapstructure:"user-agent"`
	Retries   int           `json:"retries"    mapstructure:"retries"`
}

// NewFetchOptions creates a default FetchOptions instance.
func NewFetchOptions() *FetchOptions {
	d := fetch.DefaultOptions()
	return &FetchOptions{
		Enabled:   true,
		Timeout:   d.Timeout,
		MaxBytes:  d.MaxBytes,
		MaxLines:  d.MaxLines,
		UserAgent: d.UserAgent,
		Retries:   d.Retry.MaxAttempts,
	}
}

func (o *FetchOptions) Validate() []error {
	var errs []error
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if o.MaxBytes <= 0 {
		errs = append(errs, errors.New("fetch max-bytes must be positive"))
	}
	if o.MaxLines <= 0 {
		errs = append(errs, errors.New("fetch max-lines must be positive"))
	}
	if o.Retries < 1 {
		errs = append(errs, errors.New("fetch retries must be at least 1"))
	}
	return errs
}

func (o *FetchOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "fetch.enabled", o.Enabled, "Serve the content-fetch tools.")
	fs.DurationVar(&o.Timeout, "fetch.timeout", o.Timeout, "Timeout of a single fetch attempt.")
	fs.IntVar(&o.MaxBytes, "fetch.max-bytes", o.MaxBytes, "Largest response body a fetch accepts; larger bodies fail the call.")
	fs.IntVar(&o.MaxLines, "fetch.max-lines", o.MaxLines, "Most lines the Markdown and text fetch tools return before truncating.")
	fs.StringVar(&o.UserAgent, "fetch.user-agent", o.UserAgent, "Default User-Agent header.")
	fs.IntVar(&o.Retries, "fetch.retries", o.Retries, "Attempts per fetch, including the first.")
}

// Fetch converts the options for fetch.NewFetcher.
func (o *FetchOptions) Fetch() fetch.Options {
	opts := fetch.DefaultOptions()
	opts.Timeout = o.Timeout
	opts.MaxBytes = o.MaxBytes
	opts.MaxLines = o.MaxLines
	opts.UserAgent = o.UserAgent
	opts.Retry = utils.DefaultRetryConfig()
	opts.Retry.MaxAttempts = o.Retries
	return opts
}
