package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"decisiondash/internal/models"
)

// EnvPrefix prefixes every environment override, e.g. DASH_API_URL
const EnvPrefix = "DASH"

// Config holds application configuration
type Config struct {
	// API settings
	APIURL     string        `mapstructure:"api_url"`
	APITimeout time.Duration `mapstructure:"api_timeout"`

	// Server settings
	ListenAddr string `mapstructure:"listen_addr"`
	Debug      bool   `mapstructure:"debug"`

	// Directories
	DataDirectory      string `mapstructure:"data_dir"`
	TemplatesDirectory string `mapstructure:"templates_dir"`
	StaticDirectory    string `mapstructure:"static_dir"`

	// SessionPassphrase unlocks an encrypted session file without prompting
	SessionPassphrase string `mapstructure:"session_passphrase"`

	DefaultPeriod models.Period `mapstructure:"default_period"`

	// ConfigFile is the file that was read, if any
	ConfigFile string `mapstructure:"-"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		APIURL:             "http://localhost:5000",
		APITimeout:         30 * time.Second,
		ListenAddr:         ":8080",
		Debug:              false,
		DataDirectory:      filepath.Join(wd, "data"),
		TemplatesDirectory: filepath.Join(wd, "web", "templates"),
		StaticDirectory:    filepath.Join(wd, "web", "static"),
		DefaultPeriod:      models.DefaultPeriod,
	}
}

// Load reads defaults, an optional TOML file and DASH_* environment overrides.
// The file is $DASH_CONFIG, or config.toml under ~/.config/decisiondash.
func Load() (*Config, error) {
	def := DefaultConfig()
	v := viper.New()

	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("api_timeout", def.APITimeout)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("debug", def.Debug)
	v.SetDefault("data_dir", def.DataDirectory)
	v.SetDefault("templates_dir", def.TemplatesDirectory)
	v.SetDefault("static_dir", def.StaticDirectory)
	v.SetDefault("session_passphrase", "")
	v.SetDefault("default_period", int(def.DefaultPeriod))

	v.SetConfigType("toml")
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "decisiondash"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ensureDirectories()
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url %q must start with http:// or https://", c.APIURL)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("api_timeout must not be negative")
	}
	if !c.DefaultPeriod.Valid() {
		return fmt.Errorf("default_period %d: choose one of 7, 30, 90 or 365", int(c.DefaultPeriod))
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist
func (c *Config) ensureDirectories() {
	if err := os.MkdirAll(c.DataDirectory, 0700); err != nil {
		log.Printf("Warning: could not create directory %s: %v", c.DataDirectory, err)
	}
}
