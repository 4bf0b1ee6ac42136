package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"book-scraper/model"
	"book-scraper/retrier"
)

var Separator = strings.Repeat("=", 56)

type ResumeMode string

const (
	// ResumeAppend appends to whatever the section file already holds. A
	// resumed run therefore repeats the chapters between the section start
	// and the requested offset.
	ResumeAppend ResumeMode = "append"
	// ResumeRebuild truncates each section file the first time a run writes
	// to it, so every section touched by a run is rewritten from its start.
	ResumeRebuild ResumeMode = "rebuild"
)

func ParseResumeMode(s string) (ResumeMode, error) {
	switch ResumeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ResumeAppend:
		return ResumeAppend, nil
	case ResumeRebuild:
		return ResumeRebuild, nil
	default:
		return "", fmt.Errorf("unknown resume mode %q", s)
	}
}

// Aggregator fetches chapters in order and appends them to section files.
type Aggregator struct {
	outputDir   string
	sectionSize int
	mode        ResumeMode
	chapters    *ChapterFetcher
	runner      *retrier.Runner
	log         zerolog.Logger
}

func NewAggregator(outputDir string, sectionSize int, mode ResumeMode, chapters *ChapterFetcher, runner *retrier.Runner, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		outputDir:   outputDir,
		sectionSize: sectionSize,
		mode:        mode,
		chapters:    chapters,
		runner:      runner,
		log:         log,
	}
}

// Run fetches chapters start..Length-1 strictly in order and returns how many
// were written. It stops at the first chapter that cannot be fetched.
func (a *Aggregator) Run(ctx context.Context, meta *model.BookMetadata, start int) (int, error) {
	if a.sectionSize <= 0 {
		return 0, model.Structuralf("section size must be positive, got %d", a.sectionSize)
	}
	if err := validate(meta); err != nil {
		return 0, err
	}
	if start < 0 {
		start = 0
	}
	if err := os.MkdirAll(BookDir(a.outputDir, meta.Title), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	touched := make(map[int]bool)
	written := 0
	for i := start; i < meta.Length; i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		ref := meta.Chapters[i]
		section := SectionNumber(i, a.sectionSize)
		sectionFile := SectionPath(a.outputDir, meta.Title, section)
		a.log.Info().
			Str("progress", fmt.Sprintf("%4d/%d", i, meta.Length)).
			Str("file", sectionFile).
			Str("url", ref.Url).
			Msg("scraping chapter")

		chapter, attempts, err := retrier.Run(ctx, a.runner, ref.Url, func(ctx context.Context) (*model.Chapter, error) {
			return a.chapters.Fetch(ctx, ref.Url)
		})
		if err != nil {
			return written, fmt.Errorf("chapter %d: %w", i, err)
		}
		if strings.TrimSpace(chapter.Title) == "" {
			chapter.Title = ref.Title
		}

		truncate := a.mode == ResumeRebuild && !touched[section]
		if err := appendChapter(sectionFile, chapter, truncate); err != nil {
			return written, err
		}
		touched[section] = true
		written++
		a.log.Debug().Int("chapter", i).Int("attempts", attempts).Msg("completed chapter")
	}
	return written, nil
}

func appendChapter(path string, chapter *model.Chapter, truncate bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create section directory: %w", err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open section file: %w", err)
	}
	_, err = fmt.Fprintf(file, "%s\n\n%s\n\n%s\n\n\n", chapter.Title, chapter.Body, Separator)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to write section file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close section file: %w", err)
	}
	return nil
}
