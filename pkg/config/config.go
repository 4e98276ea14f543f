package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/vouch/pkg/log"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultAPIBase          = "https://vouch.to"
	DefaultScriptName       = "widget.js"
	DefaultAutoplayInterval = 5 * time.Second
	DefaultFetchTimeout     = 10 * time.Second
	DefaultLocale           = "en-US"
	DefaultListen           = "localhost:8080"
)

// Environment variables that override file settings.
const (
	EnvAPIBase = "VOUCH_API_BASE"
	EnvLocale  = "VOUCH_LOCALE"
)

type Config struct {
	APIBase          string        `toml:"api_base"`
	ScriptName       string        `toml:"script_name"`
	AutoplayInterval Duration      `toml:"autoplay_interval"`
	FetchTimeout     Duration      `toml:"fetch_timeout"`
	Locale           string        `toml:"locale"`
	Timezone         string        `toml:"timezone,omitempty"`
	Preview          PreviewConfig `toml:"preview"`
}

type PreviewConfig struct {
	Listen string `toml:"listen"`
	// Page is an HTML file served as the host page. When empty a generated
	// page embedding Widgets is used instead.
	Page    string   `toml:"page,omitempty"`
	Widgets []string `toml:"widgets"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.ScriptName == "" {
		c.ScriptName = DefaultScriptName
	}
	if c.AutoplayInterval.Duration == 0 {
		c.AutoplayInterval = Duration{DefaultAutoplayInterval}
	}
	if c.FetchTimeout.Duration <= 0 {
		c.FetchTimeout = Duration{DefaultFetchTimeout}
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Preview.Listen == "" {
		c.Preview.Listen = DefaultListen
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		c.APIBase = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLocale)); v != "" {
		c.Locale = v
	}
}

// LoadConfig reads configPath. A missing file yields the defaults; the
// environment overrides either.
func LoadConfig(configPath string) (*Config, error) {
	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		log.ForService("config").Debugf("%s not found, using defaults", configPath)
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api_base %q must be an http(s) origin", c.APIBase)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone dates are rendered in: Timezone when set,
// the local zone otherwise.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(configPath, []byte(c.generateConfigTemplate()), 0644)
}

func (c *Config) generateConfigTemplate() string {
	apiBase := c.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return strings.Replace(configTemplate, `api_base = "`+DefaultAPIBase+`"`, `api_base = "`+apiBase+`"`, 1)
}

// GetConfigDir returns the configuration directory for vouch
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	vouchConfigDir := filepath.Join(configDir, "vouch")

	if err := os.MkdirAll(vouchConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", vouchConfigDir, err)
	}

	return vouchConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
