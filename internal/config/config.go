package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName       string `mapstructure:"app_name"`
	Env           string `mapstructure:"app_env"`
	LogLevel      string `mapstructure:"log_level"`
	CouncilsFile  string `mapstructure:"councils_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`

	// NotifyRecipient enables the notify stage when non-empty.
	NotifyRecipient string `mapstructure:"notify_recipient"`
	// SaveFiles keeps the downloaded document and extracted text after a successful run.
	SaveFiles bool   `mapstructure:"save_files"`
	WorkDir   string `mapstructure:"work_dir"`

	StorageType string `mapstructure:"storage_type"`
	StoragePath string `mapstructure:"storage_path"`

	FetchTimeoutSeconds   int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout          time.Duration `mapstructure:"-"`
	MaxDocumentBytes      int64         `mapstructure:"max_document_bytes"`
	UserAgent             string        `mapstructure:"user_agent"`
	BrowserHeadless       bool          `mapstructure:"browser_headless"`
	BrowserTimeoutSeconds int64         `mapstructure:"browser_timeout_seconds"`
	BrowserTimeout        time.Duration `mapstructure:"-"`

	RunIntervalSeconds int64         `mapstructure:"run_interval_seconds"`
	RunInterval        time.Duration `mapstructure:"-"`
	MetricsTextfile    string        `mapstructure:"metrics_textfile"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "council-agendas")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("councils_file", "./configs/councils.yaml")
	v.SetDefault("notifiers_file", "./configs/notifiers.yaml")
	v.SetDefault("notify_recipient", "")
	v.SetDefault("save_files", false)
	v.SetDefault("work_dir", "./files")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("storage_path", "./data/agendas.db")
	v.SetDefault("fetch_timeout_seconds", 60)
	v.SetDefault("max_document_bytes", int64(64<<20))
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("browser_headless", true)
	v.SetDefault("browser_timeout_seconds", 90)
	v.SetDefault("run_interval_seconds", 0)
	v.SetDefault("metrics_textfile", "")

	v.AutomaticEnv()
	// Older deployments configure the recipient through the mail account variable.
	if err := v.BindEnv("notify_recipient", "NOTIFY_RECIPIENT", "GMAIL_ACCOUNT_RECEIVE"); err != nil {
		return nil, fmt.Errorf("bind notify_recipient: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.NotifyRecipient = strings.TrimSpace(c.NotifyRecipient)
	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))

	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	c.FetchTimeout = time.Duration(c.FetchTimeoutSeconds) * time.Second

	if c.BrowserTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid browser_timeout_seconds (must be positive seconds)")
	}
	c.BrowserTimeout = time.Duration(c.BrowserTimeoutSeconds) * time.Second

	if c.MaxDocumentBytes <= 0 {
		return fmt.Errorf("invalid max_document_bytes (must be positive)")
	}
	if c.RunIntervalSeconds < 0 {
		return fmt.Errorf("invalid run_interval_seconds (must not be negative)")
	}
	c.RunInterval = time.Duration(c.RunIntervalSeconds) * time.Second

	switch c.StorageType {
	case "bbolt", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported storage_type %q", c.StorageType)
	}
	if strings.TrimSpace(c.WorkDir) == "" {
		return fmt.Errorf("work_dir must not be empty")
	}
	return nil
}

// NotifyEnabled reports whether a notification recipient is configured.
func (c *Config) NotifyEnabled() bool {
	return c != nil && c.NotifyRecipient != ""
}
