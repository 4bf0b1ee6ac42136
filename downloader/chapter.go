package downloader

import (
	"context"
	"strings"

	"book-scraper/model"
)

type ChapterFetcher struct {
	fetcher model.Fetcher
	parser  model.Parser
}

func NewChapterFetcher(fetcher model.Fetcher, parser model.Parser) *ChapterFetcher {
	return &ChapterFetcher{fetcher: fetcher, parser: parser}
}

// Fetch makes a single attempt at one chapter. Chapters split over several
// pages are followed to the last page; a failure on any page fails the
// attempt and the next attempt starts again from the first page.
func (c *ChapterFetcher) Fetch(ctx context.Context, address string) (*model.Chapter, error) {
	var chapter *model.Chapter
	bodies := make([]string, 0, 1)
	seen := make(map[string]bool)

	for next := address; next != ""; {
		if seen[next] {
			return nil, model.Structuralf("chapter page %s links back to an earlier page", next)
		}
		seen[next] = true

		part, err := c.page(ctx, next)
		if err != nil {
			return nil, err
		}
		if chapter == nil {
			chapter = &model.Chapter{Title: part.Title}
		}
		if part.Body != "" {
			bodies = append(bodies, part.Body)
		}
		next = part.Next
	}

	chapter.Body = strings.Join(bodies, "\n\n")
	return chapter, nil
}

func (c *ChapterFetcher) page(ctx context.Context, address string) (*model.Chapter, error) {
	page, err := c.fetcher.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	if page.Url == "" {
		page.Url = address
	}
	return c.parser.ParseChapter(page)
}
