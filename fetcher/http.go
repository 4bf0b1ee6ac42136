package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/htmlindex"

	"book-scraper/model"
	"book-scraper/utils"
)

// HTTP fetches raw markup without rendering it. Suitable for sites that
// serve complete pages.
type HTTP struct {
	client *resty.Client
	log    zerolog.Logger

	mu   sync.Mutex
	last model.Page
}

func NewHTTP(opts Options, log zerolog.Logger) *HTTP {
	opts = opts.withDefaults()
	client := utils.NewRestyClient(utils.RestyOptions{
		Timeout:   opts.Timeout,
		Retries:   opts.Retries,
		UserAgent: opts.UserAgent,
	})
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", opts.AcceptLanguage)
	return &HTTP{client: client, log: log}
}

func (h *HTTP) Fetch(ctx context.Context, address string) (*model.Page, error) {
	resp, err := h.client.R().SetContext(ctx).Get(address)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, model.Transientf("failed to get %s: %v", address, err)
	}

	html, err := decode(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, model.Structuralf("failed to decode %s: %v", address, err)
	}
	page := model.Page{Url: resp.RawResponse.Request.URL.String(), Html: html}

	h.mu.Lock()
	h.last = page
	h.mu.Unlock()

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, model.Transientf("failed to get %s: %v", address, resp.Status())
	default:
		return nil, model.Structuralf("failed to get %s: %v", address, resp.Status())
	}

	h.log.Debug().Str("url", page.Url).Int("bytes", len(html)).Msg("page fetched")
	return &page, nil
}

func (h *HTTP) Snapshot(ctx context.Context) (*model.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	page := h.last
	return &page, nil
}

func (h *HTTP) Close() error { return nil }

// decode converts body to UTF-8 using the charset named in contentType.
// Unknown or missing charsets are passed through unchanged.
func decode(body []byte, contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}
	name := strings.TrimSpace(params["charset"])
	if name == "" || strings.EqualFold(name, "utf-8") {
		return string(body), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body), nil
	}
	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return "", fmt.Errorf("charset %s: %w", name, err)
	}
	return string(out), nil
}
