package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"book-scraper/downloader"
	"book-scraper/fetcher"
	"book-scraper/index"
	"book-scraper/model"
	"book-scraper/parser"
	"book-scraper/retrier"
)

const EnvPrefix = "BOOKSCRAPER"

type Config struct {
	Targets        string `mapstructure:"targets"`
	OutputDir      string `mapstructure:"output_dir"`
	SectionSize    int    `mapstructure:"section_size"`
	ResumeMode     string `mapstructure:"resume_mode"`
	OnExhausted    string `mapstructure:"on_exhausted"`
	Concurrency    int    `mapstructure:"concurrency"`
	DiagnosticFile string `mapstructure:"diagnostic_file"`

	Index   IndexConfig     `mapstructure:"index"`
	Fetcher fetcher.Options `mapstructure:"fetcher"`
	Retry   RetryConfig     `mapstructure:"retry"`
	Parser  ParserConfig    `mapstructure:"parser"`
	Log     LogConfig       `mapstructure:"log"`
}

type IndexConfig struct {
	Path    string `mapstructure:"path"`
	Backend string `mapstructure:"backend"`
}

type RetryConfig struct {
	Metadata retrier.Policy `mapstructure:"metadata"`
	Chapter  retrier.Policy `mapstructure:"chapter"`
}

// ParserConfig routes hosts to parsers. Hosts is a list rather than a map
// because viper splits map keys on dots.
type ParserConfig struct {
	Default string                   `mapstructure:"default"`
	Hosts   []HostRule               `mapstructure:"hosts"`
	Layouts map[string]parser.Layout `mapstructure:"layouts"`
}

type HostRule struct {
	Host   string `mapstructure:"host"`
	Parser string `mapstructure:"parser"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so that environment variables can
// override keys that appear in no config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("targets", "targets.txt")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("section_size", 500)
	v.SetDefault("resume_mode", string(downloader.ResumeAppend))
	v.SetDefault("on_exhausted", string(downloader.FailAbort))
	v.SetDefault("concurrency", 1)
	v.SetDefault("diagnostic_file", "debug.txt")

	v.SetDefault("index.path", "targets.bak.txt")
	v.SetDefault("index.backend", "file")

	v.SetDefault("fetcher.kind", "browser")
	v.SetDefault("fetcher.timeout", 30*time.Second)
	v.SetDefault("fetcher.settle", time.Duration(0))
	v.SetDefault("fetcher.user_agent", "")
	v.SetDefault("fetcher.accept_language", "en-US,en;q=0.9")
	v.SetDefault("fetcher.headless", true)
	v.SetDefault("fetcher.chrome_path", "")
	v.SetDefault("fetcher.retries", 3)

	v.SetDefault("retry.metadata.max_attempts", 5)
	v.SetDefault("retry.metadata.delay", time.Duration(0))
	v.SetDefault("retry.metadata.increment", time.Duration(0))
	v.SetDefault("retry.chapter.max_attempts", 5)
	v.SetDefault("retry.chapter.delay", 500*time.Millisecond)
	v.SetDefault("retry.chapter.increment", time.Second)

	v.SetDefault("parser.default", "novelbin")
	v.SetDefault("parser.hosts", []map[string]string{
		{"host": "www.bilinovel.com", "parser": "bilinovel"},
		{"host": "bilinovel.com", "parser": "bilinovel"},
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// New returns a viper instance with defaults and BOOKSCRAPER_ environment
// overrides, e.g. BOOKSCRAPER_RETRY_CHAPTER_MAX_ATTEMPTS.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads cfgFile into v. An empty cfgFile looks for config.yaml in
// the working directory, which may be absent.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return &model.ConfigError{Source: configSource(cfgFile), Err: err}
	}
	return nil
}

func configSource(cfgFile string) string {
	if cfgFile == "" {
		return "config.yaml"
	}
	return cfgFile
}

// Load parses the current state of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &model.ConfigError{Source: "config", Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	invalid := func(format string, a ...any) error {
		return &model.ConfigError{Source: "config", Err: fmt.Errorf(format, a...)}
	}

	if strings.TrimSpace(c.Targets) == "" {
		return invalid("targets must not be empty")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return invalid("output_dir must not be empty")
	}
	if c.SectionSize < 1 {
		return invalid("section_size must be at least 1, got %d", c.SectionSize)
	}
	if c.Concurrency < 1 {
		return invalid("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := downloader.ParseResumeMode(c.ResumeMode); err != nil {
		return invalid("resume_mode: %w", err)
	}
	if _, err := downloader.ParseFailurePolicy(c.OnExhausted); err != nil {
		return invalid("on_exhausted: %w", err)
	}
	if err := index.ValidBackend(c.Index.Backend); err != nil {
		return invalid("index.backend: %w", err)
	}
	if strings.TrimSpace(c.Index.Path) == "" {
		return invalid("index.path must not be empty")
	}
	for name, p := range map[string]retrier.Policy{"metadata": c.Retry.Metadata, "chapter": c.Retry.Chapter} {
		if p.MaxAttempts < 1 {
			return invalid("retry.%s.max_attempts must be at least 1, got %d", name, p.MaxAttempts)
		}
		if p.Delay < 0 || p.Increment < 0 {
			return invalid("retry.%s delays must not be negative", name)
		}
	}
	switch strings.ToLower(c.Fetcher.Kind) {
	case "", "browser", "http":
	default:
		return invalid("fetcher.kind must be browser or http, got %q", c.Fetcher.Kind)
	}
	return nil
}

// DownloaderOptions maps the config onto the pipeline options.
func (c *Config) DownloaderOptions() downloader.Options {
	mode, _ := downloader.ParseResumeMode(c.ResumeMode)
	policy, _ := downloader.ParseFailurePolicy(c.OnExhausted)
	return downloader.Options{
		OutputDir:      c.OutputDir,
		SectionSize:    c.SectionSize,
		ResumeMode:     mode,
		OnFailure:      policy,
		Concurrency:    c.Concurrency,
		DiagnosticFile: c.DiagnosticFile,
		MetadataRetry:  c.Retry.Metadata,
		ChapterRetry:   c.Retry.Chapter,
	}
}

func (c *Config) Parsers() (*parser.Registry, error) {
	hosts := make(map[string]string, len(c.Parser.Hosts))
	for _, rule := range c.Parser.Hosts {
		hosts[rule.Host] = rule.Parser
	}
	r, err := parser.NewRegistry(c.Parser.Default, hosts, c.Parser.Layouts)
	if err != nil {
		return nil, &model.ConfigError{Source: "parser", Err: err}
	}
	return r, nil
}
