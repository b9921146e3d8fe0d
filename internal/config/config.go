// Package config loads imgfill settings from defaults, an optional YAML file
// and IMGFILL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default query decorations, matching the phrasing that produced usable
// landmark photos during manual runs.
const (
	DefaultAutoSuffix        = "travel landmark"
	DefaultInteractiveSuffix = "travel landmark scenery real photography 4k -clipart -icon -vector -logo -cartoon"
	DefaultUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"
)

// Config holds all configuration values.
type Config struct {
	// Source document and the directory image paths are relative to.
	// BaseDir defaults to the document's directory.
	Document string `mapstructure:"document"`
	BaseDir  string `mapstructure:"base_dir"`

	// Only img: references containing Marker are considered by the
	// automatic workflow.
	Marker string `mapstructure:"marker"`

	// Scratch area for candidate downloads and the skip ledger location.
	// A relative LedgerFile is resolved against BaseDir.
	ScratchDir string `mapstructure:"scratch_dir"`
	LedgerFile string `mapstructure:"ledger_file"`

	// Query decoration
	AutoSuffix        string `mapstructure:"auto_suffix"`
	InteractiveSuffix string `mapstructure:"interactive_suffix"`

	// Engines in cascade order, and the one used for interactive picks.
	Engines           []string `mapstructure:"engines"`
	InteractiveEngine string   `mapstructure:"interactive_engine"`
	Candidates        int      `mapstructure:"candidates"`

	// Download behaviour
	Threads   int           `mapstructure:"threads"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second per engine
	RateBurst int           `mapstructure:"rate_burst"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`

	// Backend endpoints (overridable for tests and mirrors)
	BingURL    string `mapstructure:"bing_url"`
	GoogleURL  string `mapstructure:"google_url"`
	BrowserBin string `mapstructure:"browser_bin"`

	// Logging
	LogFile     string     `mapstructure:"log_file"`
	LogLevelRaw string     `mapstructure:"log_level"`
	LogLevel    slog.Level `mapstructure:"-"`
}

// Load reads configuration. configFile may be empty, in which case
// imgfill.yaml is looked up in the working directory and
// $HOME/.config/imgfill. A missing file is not an error.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("imgfill")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "imgfill"))
		}
	}

	v.SetEnvPrefix("imgfill")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configFile == "" && os.IsNotExist(err)) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// AutomaticEnv does not split comma lists for slices.
	if raw := os.Getenv("IMGFILL_ENGINES"); raw != "" {
		cfg.Engines = splitList(raw)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("document", "index.html")
	v.SetDefault("base_dir", "")
	v.SetDefault("marker", "images/")
	v.SetDefault("scratch_dir", filepath.Join(os.TempDir(), "imgfill"))
	v.SetDefault("ledger_file", "skipped_list.txt")
	v.SetDefault("auto_suffix", DefaultAutoSuffix)
	v.SetDefault("interactive_suffix", DefaultInteractiveSuffix)
	v.SetDefault("engines", []string{"google", "bing"})
	v.SetDefault("interactive_engine", "bing")
	v.SetDefault("candidates", 4)
	v.SetDefault("threads", 4)
	v.SetDefault("rate_limit", 2.0)
	v.SetDefault("rate_burst", 4)
	v.SetDefault("timeout", "30s")
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("bing_url", "https://www.bing.com/images/async")
	v.SetDefault("google_url", "https://www.google.com/search")
	v.SetDefault("browser_bin", "")
	v.SetDefault("log_file", filepath.Join(os.TempDir(), "imgfill.log"))
	v.SetDefault("log_level", "INFO")
}

// ResolveBaseDir returns BaseDir, falling back to the document's directory.
func (c Config) ResolveBaseDir() string {
	if c.BaseDir != "" {
		return c.BaseDir
	}
	return filepath.Dir(c.Document)
}

// LedgerPath returns the absolute-or-base-relative ledger location.
func (c Config) LedgerPath() string {
	if filepath.IsAbs(c.LedgerFile) {
		return c.LedgerFile
	}
	return filepath.Join(c.ResolveBaseDir(), c.LedgerFile)
}

// Validate checks values the workflow cannot run without.
func (c Config) Validate() error {
	if c.Document == "" {
		return errors.New("document path must be set")
	}
	if len(c.Engines) == 0 {
		return errors.New("at least one engine must be configured")
	}
	if c.Candidates < 1 {
		return fmt.Errorf("candidates must be >= 1, got %d", c.Candidates)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
