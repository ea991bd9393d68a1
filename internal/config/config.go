package config

import (
	"errors"
	"fmt"
	"strings"

	"bestsellers/scraper/internal/domain"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Site     SiteConfig     `mapstructure:"site"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// CrawlerConfig holds tree building and collection settings
type CrawlerConfig struct {
	Seeds           []string `mapstructure:"seeds"`
	MaxDepth        int      `mapstructure:"max_depth"`        // 0 disables the limit
	SeedConcurrency int      `mapstructure:"seed_concurrency"` // seeds crawled in parallel
	Dedup           string   `mapstructure:"dedup"`            // "none" or "global"
	StrictItems     bool     `mapstructure:"strict_items"`     // abort a page on a malformed item entry
	ReadUnpaginated bool     `mapstructure:"read_unpaginated"` // read a category without pagination links as its own listing
}

// SiteConfig holds page fetching configuration
type SiteConfig struct {
	Timeout              int      `mapstructure:"timeout"` // seconds, per fetch
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"` // 0 means unlimited
	UserAgent            string   `mapstructure:"user_agent"`
	CooldownMinutes      int      `mapstructure:"cooldown_minutes"` // pause after a captcha wall
	Proxies              []string `mapstructure:"proxies"`
	ProxyTestURL         string   `mapstructure:"proxy_test_url"`
}

// DatabaseConfig holds the optional Postgres sink configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details for checkpoints and the retry stream
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	CheckpointTTL int    `mapstructure:"checkpoint_ttl"` // seconds, 0 keeps checkpoints forever
}

// LogConfig holds logrus settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// Load loads configuration from an optional config.yaml in the working
// directory with environment variable overrides
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if len(c.Crawler.Seeds) == 0 {
		return fmt.Errorf("crawler.seeds must not be empty")
	}
	if c.Crawler.SeedConcurrency < 1 {
		return fmt.Errorf("crawler.seed_concurrency must be at least 1, got %d", c.Crawler.SeedConcurrency)
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must not be negative, got %d", c.Crawler.MaxDepth)
	}
	if c.Site.Timeout <= 0 {
		return fmt.Errorf("site.timeout must be positive, got %d", c.Site.Timeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.seeds", domain.DefaultSeedURLs)
	v.SetDefault("crawler.max_depth", 8)
	v.SetDefault("crawler.seed_concurrency", 1)
	v.SetDefault("crawler.dedup", "none")
	v.SetDefault("crawler.strict_items", false)
	v.SetDefault("crawler.read_unpaginated", false)

	v.SetDefault("site.timeout", 30)
	v.SetDefault("site.max_retries", 2)
	v.SetDefault("site.max_requests_per_second", 2)
	v.SetDefault("site.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("site.cooldown_minutes", 30)
	v.SetDefault("site.proxies", []string{})
	v.SetDefault("site.proxy_test_url", "http://www.amazon.com")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "bestsellers")
	v.SetDefault("database.user", "bestsellers_user")
	v.SetDefault("database.password", "bestsellers_pass")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "bestsellers_retry")
	v.SetDefault("redis.checkpoint_ttl", 86400)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
