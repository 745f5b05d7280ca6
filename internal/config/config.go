package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/subscriber"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "kanban.yml"

// Defaults applied by Validate.
const (
	DefaultRedisURL  = "redis://localhost:6379/0"
	DefaultNamespace = "default"
	DefaultListen    = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// KanbanConfig represents the top-level kanban.yml configuration
type KanbanConfig struct {
	Version    string            `yaml:"version"`
	Redis      *RedisConfig      `yaml:"redis,omitempty"`
	Boards     []string          `yaml:"boards,omitempty"`
	Subscriber *SubscriberConfig `yaml:"subscriber,omitempty"`
	Server     *ServerConfig     `yaml:"server,omitempty"`
	Links      *LinksConfig      `yaml:"links,omitempty"`
	Log        *LogConfig        `yaml:"log,omitempty"`
}

// RedisConfig locates the board store
type RedisConfig struct {
	URL       string `yaml:"url,omitempty"`
	Namespace string `yaml:"namespace,omitempty"` // Key prefix, lets several deployments share one Redis
}

// SubscriberConfig tunes realtime reconnects
type SubscriberConfig struct {
	MaxRetries *int   `yaml:"max_retries,omitempty"` // default = 5
	RetryDelay string `yaml:"retry_delay,omitempty"` // Go duration, default = 0s

	retryDelay time.Duration
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// LinksConfig configures record deep links
type LinksConfig struct {
	Base string `yaml:"base,omitempty"`
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "text" or "json"
}

// Default returns a validated configuration with every default applied.
func Default() *KanbanConfig {
	c := &KanbanConfig{Version: "1.0"}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

// Validate performs strict validation on the configuration and fills in defaults
func (c *KanbanConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if _, err := redis.ParseURL(c.Redis.URL); err != nil {
		return fmt.Errorf("redis.url: %w", err)
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = DefaultNamespace
	}
	if strings.ContainsAny(c.Redis.Namespace, ": ") {
		return fmt.Errorf("redis.namespace must not contain ':' or spaces, got %q", c.Redis.Namespace)
	}

	seen := make(map[string]bool, len(c.Boards))
	for _, id := range c.Boards {
		if id == "" {
			return fmt.Errorf("boards: empty board id")
		}
		if seen[id] {
			return fmt.Errorf("boards: duplicate board id '%s'", id)
		}
		seen[id] = true
	}

	if c.Subscriber == nil {
		c.Subscriber = &SubscriberConfig{}
	}
	if c.Subscriber.MaxRetries == nil {
		retries := subscriber.DefaultMaxRetries
		c.Subscriber.MaxRetries = &retries
	}
	if *c.Subscriber.MaxRetries < 1 {
		return fmt.Errorf("subscriber.max_retries must be >= 1, got %d", *c.Subscriber.MaxRetries)
	}
	if c.Subscriber.RetryDelay != "" {
		d, err := time.ParseDuration(c.Subscriber.RetryDelay)
		if err != nil {
			return fmt.Errorf("subscriber.retry_delay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("subscriber.retry_delay must not be negative, got %s", d)
		}
		c.Subscriber.retryDelay = d
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Links == nil {
		c.Links = &LinksConfig{}
	}
	if c.Links.Base == "" {
		c.Links.Base = mapper.DefaultLinkBase
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format: %s (must be 'text' or 'json')", c.Log.Format)
	}

	return nil
}

// RedisOptions returns client options for the configured URL.
func (c *KanbanConfig) RedisOptions() (*redis.Options, error) {
	return redis.ParseURL(c.Redis.URL)
}

// SubscriberOptions returns the subscriber retry settings.
func (c *KanbanConfig) SubscriberOptions() subscriber.Config {
	return subscriber.Config{
		MaxRetries: *c.Subscriber.MaxRetries,
		RetryDelay: c.Subscriber.retryDelay,
	}
}

// ConfigureLogger applies the log level and format to l.
func (c *KanbanConfig) ConfigureLogger(l *log.Logger) error {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	if c.Log.Format == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Load reads and validates kanban.yml from the specified path
func Load(path string) (*KanbanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config KanbanConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
