package fetcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"book-scraper/model"
	"book-scraper/utils"
)

type Options struct {
	Kind           string        `mapstructure:"kind"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Settle         time.Duration `mapstructure:"settle"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	Headless       bool          `mapstructure:"headless"`
	ChromePath     string        `mapstructure:"chrome_path"`
	// Retries is the transport-level retry count of the http fetcher.
	Retries int `mapstructure:"retries"`
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = utils.DefaultUserAgent
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = "en-US,en;q=0.9"
	}
	return o
}

// Factory returns a constructor for the configured fetcher kind. Every call
// creates an independent instance.
func Factory(opts Options, log zerolog.Logger) (func() (model.Fetcher, error), error) {
	switch strings.ToLower(opts.Kind) {
	case "", "browser":
		return func() (model.Fetcher, error) { return NewBrowser(opts, log) }, nil
	case "http":
		return func() (model.Fetcher, error) { return NewHTTP(opts, log), nil }, nil
	default:
		return nil, fmt.Errorf("unknown fetcher kind %q", opts.Kind)
	}
}
