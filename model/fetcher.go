package model

import "context"

type Fetcher interface {
	Fetch(ctx context.Context, address string) (*Page, error)
	// Snapshot returns the page the fetcher currently holds, for post-mortem dumps.
	Snapshot(ctx context.Context) (*Page, error)
	Close() error
}

type Parser interface {
	Name() string
	ParseBook(page *Page) (*BookInfo, error)
	ParseChapter(page *Page) (*Chapter, error)
}
