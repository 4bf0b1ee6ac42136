package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"book-scraper/model"
	"book-scraper/retrier"
)

type CompletionIndex interface {
	Contains(address string) bool
	Record(address string) error
}

type ParserResolver interface {
	For(address string) (model.Parser, error)
}

type State int

const (
	Pending State = iota
	MetadataLoaded
	ChaptersInProgress
	Completed
	Skipped
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case MetadataLoaded:
		return "METADATA_LOADED"
	case ChaptersInProgress:
		return "CHAPTERS_IN_PROGRESS"
	case Completed:
		return "COMPLETED"
	case Skipped:
		return "SKIPPED"
	case Aborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// FailurePolicy decides what a batch does when one book is aborted.
type FailurePolicy string

const (
	FailAbort FailurePolicy = "abort"
	FailSkip  FailurePolicy = "skip"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailAbort:
		return FailAbort, nil
	case FailSkip:
		return FailSkip, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

type Options struct {
	OutputDir      string
	SectionSize    int
	ResumeMode     ResumeMode
	OnFailure      FailurePolicy
	Concurrency    int
	DiagnosticFile string
	MetadataRetry  retrier.Policy
	ChapterRetry   retrier.Policy
}

// Result is the outcome of one target.
type Result struct {
	Target   model.Target
	State    State
	Title    string
	Start    int
	Chapters int
	Duration time.Duration
	Err      error
}

// AbortError stops a batch. Targets after the failing one are left untouched.
type AbortError struct {
	Target model.Target
	Err    error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborted at %s: %v", e.Target.Address, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

type Downloader struct {
	opts       Options
	index      CompletionIndex
	parsers    ParserResolver
	newFetcher func() (model.Fetcher, error)
	log        zerolog.Logger
	timer      retry.Timer
}

func New(opts Options, index CompletionIndex, parsers ParserResolver, newFetcher func() (model.Fetcher, error), log zerolog.Logger) *Downloader {
	if opts.SectionSize <= 0 {
		opts.SectionSize = 500
	}
	if opts.ResumeMode == "" {
		opts.ResumeMode = ResumeAppend
	}
	if opts.OnFailure == "" {
		opts.OnFailure = FailAbort
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Downloader{
		opts:       opts,
		index:      index,
		parsers:    parsers,
		newFetcher: newFetcher,
		log:        log,
	}
}

// WithTimer replaces the clock used for retry backoff.
func (d *Downloader) WithTimer(timer retry.Timer) *Downloader {
	d.timer = timer
	return d
}

func (d *Downloader) runner(stage model.Stage, policy retrier.Policy, log zerolog.Logger) *retrier.Runner {
	r := retrier.New(stage, policy, log)
	if d.timer != nil {
		r.WithTimer(d.timer)
	}
	return r
}

// Process drives one target from PENDING to COMPLETED, SKIPPED or ABORTED.
// The address is recorded in the completion index only once every chapter
// has been written.
func (d *Downloader) Process(ctx context.Context, fetcher model.Fetcher, target model.Target) Result {
	start := time.Now()
	res := Result{Target: target, State: Pending}
	log := d.log.With().Str("book", target.Address).Logger()
	abort := func(err error) Result {
		res.State = Aborted
		res.Err = err
		res.Duration = time.Since(start)
		log.Error().Err(err).Msg("book aborted")
		return res
	}

	if d.index.Contains(target.Address) {
		log.Info().Msg("book already downloaded")
		res.State = Skipped
		return res
	}

	parser, err := d.parsers.For(target.Address)
	if err != nil {
		return abort(err)
	}

	metaRunner := d.runner(model.StageMetadata, d.opts.MetadataRetry, log)
	metaFetcher := NewMetadataFetcher(fetcher, parser, d.opts.OutputDir, log)
	meta, _, err := retrier.Run(ctx, metaRunner, target.Address, func(ctx context.Context) (*model.BookMetadata, error) {
		return metaFetcher.Fetch(ctx, target.Address)
	})
	if err != nil {
		return abort(err)
	}
	res.State = MetadataLoaded
	res.Title = meta.Title

	res.Start = StartIndex(target.Offset, d.opts.SectionSize)
	res.State = ChaptersInProgress
	log.Info().
		Str("title", meta.Title).
		Int("offset", target.Offset).
		Int("start", res.Start).
		Int("length", meta.Length).
		Msg("book scraping")

	chapterRunner := d.runner(model.StageChapter, d.opts.ChapterRetry, log)
	agg := NewAggregator(d.opts.OutputDir, d.opts.SectionSize, d.opts.ResumeMode, NewChapterFetcher(fetcher, parser), chapterRunner, log)
	written, err := agg.Run(ctx, meta, res.Start)
	res.Chapters = written
	if err != nil {
		var exhausted *model.ExhaustedError
		if errors.As(err, &exhausted) && exhausted.Stage == model.StageChapter && d.opts.DiagnosticFile != "" {
			if derr := WriteDiagnostic(context.WithoutCancel(ctx), fetcher, d.opts.DiagnosticFile); derr != nil {
				log.Warn().Err(derr).Msg("failed to write diagnostic dump")
			} else {
				log.Info().Str("file", d.opts.DiagnosticFile).Msg("diagnostic dump written")
			}
		}
		return abort(err)
	}
	log.Info().Int("chapters", written).Msg("completed book")

	if err := d.index.Record(target.Address); err != nil {
		return abort(fmt.Errorf("failed to record completion: %w", err))
	}
	log.Info().Msg("logged book")

	res.State = Completed
	res.Duration = time.Since(start)
	return res
}
