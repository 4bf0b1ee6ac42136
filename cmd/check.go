package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"book-scraper/index"
	"book-scraper/report"
	"book-scraper/targets"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which targets are already downloaded",
	Long:  "Show the target list, the chapter each book would resume from and whether it is already in the completion index",
	RunE:  runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	list, err := targets.Load(cfg.Targets, log)
	if err != nil {
		return err
	}

	idx, err := index.OpenBackend(cfg.Index.Backend, cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("failed to open completion index: %w", err)
	}
	defer idx.Close()

	fmt.Fprintln(cmd.OutOrStdout(), report.Targets(list, idx.Contains, cfg.SectionSize))
	return nil
}
