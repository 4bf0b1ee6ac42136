package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"book-scraper/model"
)

// WriteDiagnostic dumps the fetcher's current URL and raw page to path,
// overwriting any previous dump.
func WriteDiagnostic(ctx context.Context, fetcher model.Fetcher, path string) error {
	page, err := fetcher.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot page: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create diagnostic directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(page.Url+"\n"+page.Html), 0644); err != nil {
		return fmt.Errorf("failed to write diagnostic file: %w", err)
	}
	return nil
}
