// Package config loads scrapebot.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/metrics"
	"github.com/arnavsurve/scrapebot/pkg/screenshot"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "scrapebot.yml"

type Config struct {
	Instance    InstanceConfig   `yaml:"instance"`
	Database    DatabaseConfig   `yaml:"database"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Log         LogConfig        `yaml:"log"`
}

// InstanceConfig names this execution node and describes its browser.
type InstanceConfig struct {
	Name      string `yaml:"name"`
	Browser   string `yaml:"browser"`
	Binary    string `yaml:"binary"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	UserAgent string `yaml:"user_agent"`
	Language  string `yaml:"language"`
	// Timeout is the settle pause between steps, e.g. "2s". Empty disables it.
	Timeout      string `yaml:"timeout"`
	QueryTimeout string `yaml:"query_timeout"`
	Headless     *bool  `yaml:"headless"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
	// History is how many recent runs sometimes_screenshot checks.
	History int       `yaml:"history"`
	S3      *S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

var envRe = regexp.MustCompile(`^\s*\{\{\s*env\.([A-Za-z0-9_]+)\s*}}\s*$`)

// Load reads a .env file next to the working directory if present, then the
// YAML config at path. String values of the form {{ env.NAME }} are replaced
// by the environment variable NAME. Relative paths are taken relative to the
// config file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes, resolves and validates a config document.
func Parse(data []byte) (*Config, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := resolveEnv(&node); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if len(node.Content) > 0 {
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveEnv(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		if m := envRe.FindStringSubmatch(n.Value); m != nil {
			val, ok := os.LookupEnv(m[1])
			if !ok {
				return fmt.Errorf("environment variable %q referenced at line %d is not set", m[1], n.Line)
			}
			n.Value = val
		}
	}
	for _, c := range n.Content {
		if err := resolveEnv(c); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.Instance.Name == "" {
		if host, err := os.Hostname(); err == nil {
			c.Instance.Name = host
		}
	}
	if c.Instance.Browser == "" {
		c.Instance.Browser = "chrome"
	}
	if c.Instance.Width == 0 {
		c.Instance.Width = 1024
	}
	if c.Instance.Height == 0 {
		c.Instance.Height = 768
	}
	if c.Instance.Language == "" {
		c.Instance.Language = "en"
	}
	if c.Database.Path == "" {
		c.Database.Path = "scrapebot.db"
	}
	if c.Screenshots.History == 0 {
		c.Screenshots.History = 20
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "scrapebot"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Instance.Name) == "" {
		errs = append(errs, errors.New("instance.name is required"))
	}
	if c.Instance.Width < 0 || c.Instance.Height < 0 {
		errs = append(errs, fmt.Errorf("instance window %dx%d is invalid", c.Instance.Width, c.Instance.Height))
	}
	if c.Screenshots.History < 0 {
		errs = append(errs, fmt.Errorf("screenshots.history must be positive, got %d", c.Screenshots.History))
	}
	for field, v := range map[string]string{"instance.timeout": c.Instance.Timeout, "instance.query_timeout": c.Instance.QueryTimeout} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", field, v, err))
		}
	}
	if s3 := c.Screenshots.S3; s3 != nil {
		if s3.Bucket == "" {
			errs = append(errs, errors.New("screenshots.s3.bucket is required"))
		}
		if (s3.AccessKey == "") != (s3.SecretKey == "") {
			errs = append(errs, errors.New("screenshots.s3 access_key and secret_key must be set together"))
		}
	}
	return errors.Join(errs...)
}

// SessionConfig builds the driver session settings for this node.
func (c *Config) SessionConfig() driver.SessionConfig {
	sc := driver.DefaultSessionConfig()
	sc.Browser = c.Instance.Browser
	sc.BinaryPath = c.Instance.Binary
	sc.Width = c.Instance.Width
	sc.Height = c.Instance.Height
	sc.UserAgent = c.Instance.UserAgent
	sc.Language = c.Instance.Language
	if c.Instance.Headless != nil {
		sc.Headless = *c.Instance.Headless
	}
	if d, err := time.ParseDuration(c.Instance.Timeout); err == nil {
		sc.SettleTimeout = d
	}
	if d, err := time.ParseDuration(c.Instance.QueryTimeout); err == nil {
		sc.QueryTimeout = d
	}
	return sc
}

// S3 returns the screenshot bucket settings, or nil when not configured.
func (c *Config) S3() *screenshot.S3Config {
	if c.Screenshots.S3 == nil {
		return nil
	}
	s := c.Screenshots.S3
	return &screenshot.S3Config{
		Bucket:    s.Bucket,
		Region:    s.Region,
		Prefix:    s.Prefix,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Endpoint:  s.Endpoint,
	}
}

// Push returns the Pushgateway settings, or nil when metrics are not pushed.
func (c *Config) Push() *metrics.PushConfig {
	if c.Metrics.Pushgateway == "" {
		return nil
	}
	return &metrics.PushConfig{
		URL:      c.Metrics.Pushgateway,
		Job:      c.Metrics.Job,
		Username: c.Metrics.Username,
		Password: c.Metrics.Password,
	}
}

// Secrets lists values that must never reach a log sink.
func (c *Config) Secrets() []string {
	var out []string
	if c.Screenshots.S3 != nil {
		out = append(out, c.Screenshots.S3.SecretKey, c.Screenshots.S3.AccessKey)
	}
	out = append(out, c.Metrics.Password)
	return out
}
