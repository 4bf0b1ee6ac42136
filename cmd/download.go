package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"book-scraper/downloader"
	"book-scraper/fetcher"
	"book-scraper/index"
	"book-scraper/report"
	"book-scraper/targets"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download every book in the target list",
	Long:  "Download every book in the target list that is not yet in the completion index, resuming each from its offset",
	RunE:  runDownload,
}

func init() {
	flags := downloadCmd.Flags()
	flags.StringP("output-dir", "o", "", "output directory")
	flags.Int("section-size", 0, "chapters per section file")
	flags.String("resume-mode", "", "append or rebuild")
	flags.String("on-exhausted", "", "abort or skip a book whose retries run out")
	flags.IntP("concurrency", "j", 0, "books downloaded at once")
	flags.String("fetcher", "", "browser or http")
	flags.String("index", "", "completion index path")

	bindFlags(flags, map[string]string{
		"output-dir":   "output_dir",
		"section-size": "section_size",
		"resume-mode":  "resume_mode",
		"on-exhausted": "on_exhausted",
		"concurrency":  "concurrency",
		"fetcher":      "fetcher.kind",
		"index":        "index.path",
	})
	RootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, base, err := loadConfig()
	if err != nil {
		return err
	}
	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to create run id: %w", err)
	}
	log := base.With().Str("run", runID.String()).Logger()

	list, err := targets.Load(cfg.Targets, log)
	if err != nil {
		return err
	}
	log.Info().Str("file", cfg.Targets).Int("targets", len(list)).Msg("targets loaded")

	idx, err := index.OpenBackend(cfg.Index.Backend, cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("failed to open completion index: %w", err)
	}
	defer idx.Close()

	parsers, err := cfg.Parsers()
	if err != nil {
		return err
	}
	newFetcher, err := fetcher.Factory(cfg.Fetcher, log)
	if err != nil {
		return err
	}

	d := downloader.New(cfg.DownloaderOptions(), idx, parsers, newFetcher, log)
	results, runErr := d.Run(cmd.Context(), list)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Results(results))
	fmt.Fprintln(out, report.Counts(results))

	if runErr != nil {
		var abort *downloader.AbortError
		if errors.As(runErr, &abort) {
			log.Error().Str("book", abort.Target.Address).Msg("run aborted")
		}
		return fmt.Errorf("download failed: %w", runErr)
	}
	for _, r := range results {
		if r.State == downloader.Aborted {
			return fmt.Errorf("download finished with failed books")
		}
	}
	return nil
}
