package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"book-scraper/index"
	"book-scraper/model"
	"book-scraper/parser"
	"book-scraper/retrier"
)

const loadingPage = `<html><body><div class="spinner">loading</div></body></html>`

// site is an in-memory web of book and chapter pages in the novelbin layout.
type site struct {
	mu     sync.Mutex
	pages  map[string]string
	broken map[string]bool
	flaky  map[string]int
}

func newSite() *site {
	return &site{pages: map[string]string{}, broken: map[string]bool{}, flaky: map[string]int{}}
}

func chapterURL(book string, i int) string {
	return fmt.Sprintf("%s/c/%d", book, i)
}

// addBook registers a book page with n chapters plus every chapter page.
func (s *site) addBook(address, title string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><span class="title">%s</span>`, title)
	b.WriteString(`<span class="author">by <a href="/author/x">Jane Doe</a></span>`)
	b.WriteString(`<div class="description"> A long story. </div><ul id="chapter-list">`)
	path := strings.TrimPrefix(address, "http://example")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<li><a href="%s/c/%d">Chapter %d: Part?</a></li>`, path, i, i)
		s.pages[chapterURL(address, i)] = fmt.Sprintf(
			`<html><body><div class="name">Chapter %d</div><div class="content"><p>Body %d</p></div></body></html>`, i, i)
	}
	b.WriteString(`</ul></body></html>`)
	s.pages[address] = b.String()
}

func (s *site) addPage(address, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[address] = html
}

func (s *site) breakPage(address string, broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[address] = broken
}

func (s *site) fetcher() *fakeFetcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	flaky := make(map[string]int, len(s.flaky))
	for k, v := range s.flaky {
		flaky[k] = v
	}
	return &fakeFetcher{site: s, flaky: flaky}
}

type fakeFetcher struct {
	site *site

	mu      sync.Mutex
	flaky   map[string]int
	calls   []string
	current model.Page
	closed  bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, address string) (*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)

	f.site.mu.Lock()
	html, ok := f.site.pages[address]
	broken := f.site.broken[address]
	f.site.mu.Unlock()

	if !ok {
		return nil, model.Structuralf("404 %s", address)
	}
	if broken || f.flaky[address] > 0 {
		if f.flaky[address] > 0 {
			f.flaky[address]--
		}
		html = loadingPage
	}
	f.current = model.Page{Url: address, Html: html}
	page := f.current
	return &page, nil
}

func (f *fakeFetcher) Snapshot(ctx context.Context) (*model.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := f.current
	return &page, nil
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFetcher) callCount(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == address {
			n++
		}
	}
	return n
}

type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (t *recordingTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	c := make(chan time.Time, 1)
	c <- time.Now()
	return c
}

func (t *recordingTimer) recorded() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

type env struct {
	dir     string
	opts    Options
	index   *index.File
	parsers *parser.Registry
	timer   *recordingTimer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	idx, err := index.Open(filepath.Join(dir, "targets.bak.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	parsers, err := parser.NewRegistry("novelbin", nil, nil)
	require.NoError(t, err)

	return &env{
		dir: dir,
		opts: Options{
			OutputDir:      filepath.Join(dir, "output"),
			SectionSize:    500,
			ResumeMode:     ResumeAppend,
			OnFailure:      FailAbort,
			Concurrency:    1,
			DiagnosticFile: filepath.Join(dir, "debug.txt"),
			MetadataRetry:  retrier.Policy{MaxAttempts: 5},
			ChapterRetry:   retrier.Policy{MaxAttempts: 5, Delay: 500 * time.Millisecond, Increment: time.Second},
		},
		index:   idx,
		parsers: parsers,
		timer:   &recordingTimer{},
	}
}

func (e *env) downloader(newFetcher func() (model.Fetcher, error)) *Downloader {
	return New(e.opts, e.index, e.parsers, newFetcher, zerolog.Nop()).WithTimer(e.timer)
}

// sectionTitles returns the chapter titles in a section file, in file order.
func sectionTitles(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	titles := make([]string, 0)
	for _, entry := range strings.Split(string(data), Separator+"\n\n\n") {
		if entry == "" {
			continue
		}
		titles = append(titles, strings.SplitN(entry, "\n\n", 2)[0])
	}
	return titles
}

func chapterTitles(from, to int) []string {
	titles := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		titles = append(titles, fmt.Sprintf("Chapter %d", i))
	}
	return titles
}
