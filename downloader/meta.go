package downloader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"book-scraper/model"
	"book-scraper/utils"
)

// MetadataFetcher reads a book page and persists what it contains.
type MetadataFetcher struct {
	fetcher   model.Fetcher
	parser    model.Parser
	outputDir string
	log       zerolog.Logger
}

func NewMetadataFetcher(fetcher model.Fetcher, parser model.Parser, outputDir string, log zerolog.Logger) *MetadataFetcher {
	return &MetadataFetcher{fetcher: fetcher, parser: parser, outputDir: outputDir, log: log}
}

// Fetch makes a single attempt. Missing page fields come back as transient
// errors for the caller's retry policy.
func (m *MetadataFetcher) Fetch(ctx context.Context, address string) (*model.BookMetadata, error) {
	page, err := m.fetcher.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	if page.Url == "" {
		page.Url = address
	}

	info, err := m.parser.ParseBook(page)
	if err != nil {
		return nil, err
	}

	title := utils.FormatFilename(info.Title)
	if title == "" {
		return nil, model.Structuralf("book title %q has no usable characters", info.Title)
	}

	meta := &model.BookMetadata{
		Title:       title,
		Url:         address,
		Author:      info.Author,
		Description: info.Description,
		Chapters:    make([]model.ChapterRef, 0, len(info.Chapters)),
	}
	for i, ch := range info.Chapters {
		meta.Chapters = append(meta.Chapters, model.ChapterRef{
			Index: i,
			Url:   ch.Url,
			Title: utils.FormatFilename(ch.Title),
		})
	}
	meta.Length = len(meta.Chapters)

	path, err := WriteMetadata(m.outputDir, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to save metadata: %w", err)
	}
	m.log.Info().Str("file", path).Str("parser", m.parser.Name()).Int("chapters", meta.Length).Msg("meta acquired")
	return meta, nil
}
