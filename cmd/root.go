package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"book-scraper/config"
	"book-scraper/logger"
)

var (
	cfgFile string
	v       = config.New()
)

var RootCmd = &cobra.Command{
	Use:           "book-scraper",
	Short:         "Download serialized books into section files",
	Long:          "Download serialized books chapter by chapter into fixed-size section files, resuming where a previous run stopped",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, cfgFile)
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.yaml if present)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")
	flags.StringP("targets", "t", "", "target list file")

	bindFlags(flags, map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
		"targets":    "targets",
	})
}

// bindFlags maps command line flags onto config keys. A flag only wins over
// the config file and environment when it is set explicitly.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// loadConfig reads the merged configuration and installs the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: logger.ParseFormat(cfg.Log.Format),
	})
	return cfg, log, nil
}
