package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	errs "paystubdl/pkg/errors"
)

const (
	// DefaultConfigFile is the config file name looked up in the user's home directory
	DefaultConfigFile = ".adp-downloader-config.json"

	// AllYears disables the year filter when used as only_year
	AllYears = "all"

	DefaultRequestLimit        = 200
	DefaultMaxConsecutiveSkips = 10
	DefaultUserAgent           = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_12_1) AppleWebKit/602.2.14 (KHTML, like Gecko) Version/10.0.1 Safari/602.2.14"
)

// Config holds all configuration options for the paystub downloader
type Config struct {
	Username     string `yaml:"username" json:"username" toml:"username"`
	Password     string `yaml:"password" json:"password" toml:"password"`
	RequestLimit int    `yaml:"request_limit" json:"request_limit" toml:"request_limit"`
	OnlyYear     string `yaml:"only_year" json:"only_year" toml:"only_year"`
	Debug        bool   `yaml:"debug" json:"debug" toml:"debug"`

	// Portal endpoints and session behaviour
	Portal PortalConfig `yaml:"portal" json:"portal" toml:"portal"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download" toml:"download"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications" toml:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging" toml:"logging"`

	// Metrics output
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" toml:"metrics"`
}

// PortalConfig holds the payroll portal endpoints and request policy
type PortalConfig struct {
	BaseURL             string  `yaml:"base_url" json:"base_url" toml:"base_url"`
	WarmupURL           string  `yaml:"warmup_url" json:"warmup_url" toml:"warmup_url"`
	AuthDomain          string  `yaml:"auth_domain" json:"auth_domain" toml:"auth_domain"`
	UserAgent           string  `yaml:"user_agent" json:"user_agent" toml:"user_agent"`
	TimeBetweenRequests float64 `yaml:"time_between_requests" json:"time_between_requests" toml:"time_between_requests"`
	TimeoutSeconds      int     `yaml:"timeout_seconds" json:"timeout_seconds" toml:"timeout_seconds"`
}

// RequestInterval returns the minimum gap between requests
func (p PortalConfig) RequestInterval() time.Duration {
	return time.Duration(p.TimeBetweenRequests * float64(time.Second))
}

// Timeout returns the per-request timeout; zero means none
func (p PortalConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDir           string `yaml:"output_dir" json:"output_dir" toml:"output_dir"`
	MaxConsecutiveSkips int    `yaml:"max_consecutive_skips" json:"max_consecutive_skips" toml:"max_consecutive_skips"`
	VerifyPDF           bool   `yaml:"verify_pdf" json:"verify_pdf" toml:"verify_pdf"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" toml:"level"`
	File  string `yaml:"file" json:"file" toml:"file"`
}

// MetricsConfig holds metrics output configuration
type MetricsConfig struct {
	// Textfile is a node_exporter textfile-collector path; empty disables it
	Textfile string `yaml:"textfile" json:"textfile" toml:"textfile"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RequestLimit: DefaultRequestLimit,
		OnlyYear:     strconv.Itoa(time.Now().Year()),
		Portal: PortalConfig{
			BaseURL:             "https://my.adp.com",
			WarmupURL:           "https://ipay.adp.com/iPay/private/index.jsf",
			AuthDomain:          "adp.com",
			UserAgent:           DefaultUserAgent,
			TimeBetweenRequests: 1,
			TimeoutSeconds:      0,
		},
		Download: DownloadConfig{
			OutputDir:           ".",
			MaxConsecutiveSkips: DefaultMaxConsecutiveSkips,
			VerifyPDF:           true,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the fixed config location in the user's home directory
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), DefaultConfigFile)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("PAYSTUBDL_USERNAME"); username != "" {
		c.Username = username
	}
	if password := os.Getenv("PAYSTUBDL_PASSWORD"); password != "" {
		c.Password = password
	}
	if limit := os.Getenv("PAYSTUBDL_REQUEST_LIMIT"); limit != "" {
		val, err := strconv.Atoi(limit)
		if err != nil {
			return fmt.Errorf("invalid PAYSTUBDL_REQUEST_LIMIT %q: %w", limit, err)
		}
		c.RequestLimit = val
	}
	if year := os.Getenv("PAYSTUBDL_ONLY_YEAR"); year != "" {
		c.OnlyYear = year
	}
	if outputDir := os.Getenv("PAYSTUBDL_OUTPUT_DIR"); outputDir != "" {
		c.Download.OutputDir = outputDir
	}
	if logLevel := os.Getenv("PAYSTUBDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a JSON, YAML or TOML file, chosen by extension.
// An empty path falls back to the standard locations; finding none is an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return errs.New(errs.ErrorTypeConfig, fmt.Sprintf("config file not found (expected %s)", DefaultPath()))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to read config file")
	}

	if err := unmarshal(path, data, c); err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to parse config file "+path)
	}

	return nil
}

func unmarshal(path string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".toml":
		return toml.Unmarshal(data, c)
	default:
		return json.Unmarshal(data, c)
	}
}

func marshal(path string, c *Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(c)
	case ".toml":
		return toml.Marshal(c)
	default:
		return json.MarshalIndent(c, "", "    ")
	}
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		DefaultPath(),
		filepath.Join(home, ".config", "paystubdl", "config.json"),
		filepath.Join(home, ".config", "paystubdl", "config.yaml"),
		filepath.Join(home, ".config", "paystubdl", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []error

	if c.Username == "" {
		problems = append(problems, errors.New("username is required"))
	}
	if c.RequestLimit <= 0 {
		problems = append(problems, errors.New("request_limit must be positive"))
	}
	if !c.EveryYear() && !isYear(c.OnlyYear) {
		problems = append(problems, fmt.Errorf("only_year must be a four digit year, %q or empty", AllYears))
	}

	if !isAbsoluteURL(c.Portal.BaseURL) {
		problems = append(problems, errors.New("portal.base_url must be an absolute URL"))
	}
	if !isAbsoluteURL(c.Portal.WarmupURL) {
		problems = append(problems, errors.New("portal.warmup_url must be an absolute URL"))
	}
	if c.Portal.UserAgent == "" {
		problems = append(problems, errors.New("portal.user_agent is required"))
	}
	if c.Portal.TimeBetweenRequests < 0 {
		problems = append(problems, errors.New("portal.time_between_requests cannot be negative"))
	}
	if c.Portal.TimeoutSeconds < 0 {
		problems = append(problems, errors.New("portal.timeout_seconds cannot be negative"))
	}

	if c.Download.OutputDir == "" {
		problems = append(problems, errors.New("download.output_dir is required"))
	}
	if c.Download.MaxConsecutiveSkips < 0 {
		problems = append(problems, errors.New("download.max_consecutive_skips cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		problems = append(problems, errors.New("invalid log level"))
	}

	if len(problems) > 0 {
		return errs.Wrap(errs.ErrorTypeConfig, errors.Join(problems...), "invalid configuration")
	}

	return nil
}

// EveryYear reports whether only_year disables the year filter
func (c *Config) EveryYear() bool {
	return c.OnlyYear == "" || strings.EqualFold(c.OnlyYear, AllYears)
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Save saves the configuration to a file, encoded by extension
func (c *Config) Save(path string) error {
	data, err := marshal(path, c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// the file may hold the portal password
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Username = username
	}
	if limit, ok := flags["request-limit"].(int); ok && limit > 0 {
		c.RequestLimit = limit
	}
	if year, ok := flags["only-year"].(string); ok && year != "" {
		c.OnlyYear = year
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDir = outputDir
	}
	if skips, ok := flags["max-skips"].(int); ok && skips >= 0 {
		c.Download.MaxConsecutiveSkips = skips
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if metricsFile, ok := flags["metrics-file"].(string); ok && metricsFile != "" {
		c.Metrics.Textfile = metricsFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".paystubdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, err
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "failed to load environment variables")
	}

	config.MergeCommandLineFlags(flags)

	if config.Debug {
		config.Logging.Level = "debug"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Redacted returns a copy of the configuration with the password masked
func (c *Config) Redacted() *Config {
	copied := *c
	if copied.Password != "" {
		copied.Password = "********"
	}
	return &copied
}
