package utils

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

type RestyOptions struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	UserAgent string
}

// NewRestyClient builds a client that retries connection errors and 429s at
// the transport level. Anything it gives up on is reported to the caller,
// which applies its own retry policy on top.
func NewRestyClient(opts RestyOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 3 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	client.SetTimeout(opts.Timeout).
		SetLogger(disableLogger{}).
		SetHeader("Accept-Charset", "utf-8").
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				return RetryAfter(resp.Header().Get("Retry-After"), opts.RetryWait), nil
			}
			return opts.RetryWait, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests
		})
	return client
}

// RetryAfter interprets a Retry-After header value, either delta seconds or
// an HTTP date, falling back to def.
func RetryAfter(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return def
}

type disableLogger struct{}

func (d disableLogger) Errorf(string, ...interface{}) {}
func (d disableLogger) Warnf(string, ...interface{})  {}
func (d disableLogger) Debugf(string, ...interface{}) {}

// WithTimeout is context.WithTimeout that treats a non-positive timeout as none.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
