package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"book-scraper/downloader"
	"book-scraper/model"
)

func TestResults(t *testing.T) {
	out := Results([]downloader.Result{
		{Target: model.Target{Address: "http://example/book/1"}, State: downloader.Completed, Title: "First", Chapters: 1200, Duration: 90 * time.Second},
		{Target: model.Target{Address: "http://example/book/2", Offset: 650}, State: downloader.Aborted, Start: 500, Err: errors.New("chapter 651: max attempts (5) reached")},
		{Target: model.Target{Address: "http://example/book/3"}, State: downloader.Pending},
	})

	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, "http://example/book/1")
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "1200")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "ABORTED")
	assert.Contains(t, out, "max attempts (5) reached")
	assert.Contains(t, out, "PENDING")
	assert.Contains(t, out, "╭")
}

func TestCounts(t *testing.T) {
	out := Counts([]downloader.Result{
		{State: downloader.Completed},
		{State: downloader.Completed},
		{State: downloader.Skipped},
	})
	lines := strings.Split(out, "\n")
	var completed, skipped int
	for i, l := range lines {
		if strings.Contains(l, "COMPLETED") {
			completed = i
			assert.Contains(t, l, "2")
		}
		if strings.Contains(l, "SKIPPED") {
			skipped = i
			assert.Contains(t, l, "1")
		}
	}
	assert.NotZero(t, completed)
	assert.Greater(t, skipped, completed)
	assert.NotContains(t, out, "ABORTED")
}

func TestTargets(t *testing.T) {
	out := Targets(
		[]model.Target{{Address: "http://example/book/1", Offset: 650}, {Address: "http://example/book/2"}},
		func(address string) bool { return address == "http://example/book/2" },
		500,
	)
	assert.Contains(t, out, "500 (section 2)")
	assert.Contains(t, out, "0 (section 1)")
	assert.Contains(t, out, "downloaded")
	assert.Contains(t, out, "pending")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestCountsEmpty(t *testing.T) {
	out := Counts(nil)
	assert.Contains(t, out, "STATE")
	assert.NotContains(t, out, "PENDING")
}
