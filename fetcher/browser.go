package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"book-scraper/model"
	"book-scraper/utils"
)

// Browser renders pages in a headless Chrome. One instance drives one tab and
// must not be shared between concurrent books.
type Browser struct {
	opts Options
	log  zerolog.Logger

	mu sync.Mutex

	// 浏览器实例复用
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewBrowser(opts Options, log zerolog.Logger) (*Browser, error) {
	b := &Browser{opts: opts.withDefaults(), log: log}
	if err := b.initBrowser(); err != nil {
		return nil, fmt.Errorf("failed to init browser: %w", err)
	}
	return b, nil
}

// initBrowser 初始化浏览器实例
func (b *Browser) initBrowser() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.UserAgent(b.opts.UserAgent),
	)
	if b.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.opts.ChromePath))
	}

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	// 预热浏览器
	err := chromedp.Run(b.browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": b.opts.AcceptLanguage}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		b.closeBrowser()
		return fmt.Errorf("failed to initialize browser: %w", err)
	}

	b.log.Debug().Msg("browser initialized")
	return nil
}

func (b *Browser) closeBrowser() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

func (b *Browser) Close() error {
	b.closeBrowser()
	return nil
}

// tab derives a context bound to the browser tab that is also cancelled when
// ctx is.
func (b *Browser) tab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancel := utils.WithTimeout(b.browserCtx, b.opts.Timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tabCtx, func() {
		stop()
		cancel()
	}
}

func (b *Browser) Fetch(ctx context.Context, address string) (*model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tabCtx, cancel := b.tab(ctx)
	defer cancel()

	var html, location string
	actions := []chromedp.Action{
		chromedp.Navigate(address),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if b.opts.Settle > 0 {
		actions = append(actions, chromedp.Sleep(b.opts.Settle))
	}
	actions = append(actions,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	start := time.Now()
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.Canceled) && b.browserCtx.Err() != nil {
			return nil, model.Structuralf("browser closed: %v", err)
		}
		return nil, model.Transientf("failed to render %s: %v", address, err)
	}
	b.log.Debug().Str("url", location).Dur("took", time.Since(start)).Int("bytes", len(html)).Msg("page rendered")

	return &model.Page{Url: location, Html: html}, nil
}

// Snapshot reads whatever the tab currently shows.
func (b *Browser) Snapshot(ctx context.Context) (*model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tabCtx, cancel := b.tab(ctx)
	defer cancel()

	var html, location string
	err := chromedp.Run(tabCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read current page: %w", err)
	}
	return &model.Page{Url: location, Html: html}, nil
}
