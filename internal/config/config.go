package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "NEWS_REFINERY_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	redisAddrEnv    = "REDIS_ADDR"
	httpAddrEnv     = "HTTP_ADDR"
	refinerKeyEnv   = "OPENAI_API_KEY"
	refinerModelEnv = "OPENAI_MODEL"
	webhookURLEnv   = "PUBLISH_WEBHOOK_URL"
	webhookTokenEnv = "PUBLISH_WEBHOOK_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Crawl    CrawlConfig    `yaml:"crawl"`
	Refiner  RefinerConfig  `yaml:"refiner"`
	Publish  PublishConfig  `yaml:"publish"`
	Batch    BatchConfig    `yaml:"batch"`
	Sources  []SourceConfig `yaml:"sources"`
}

// LoggingConfig controls the console logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig describes the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// everything in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the dedup backing store. An empty address falls back
// to the in-process set.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// CrawlConfig bounds run execution.
type CrawlConfig struct {
	RunTimeoutMinutes    int `yaml:"runTimeoutMinutes"`
	BudgetPerLanguage    int `yaml:"budgetPerLanguage"`
	MaxArticlesPerSource int `yaml:"maxArticlesPerSource"`
}

// RunTimeout resolves the configured minutes to a duration.
func (c CrawlConfig) RunTimeout() time.Duration {
	if c.RunTimeoutMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.RunTimeoutMinutes) * time.Minute
}

// RefinerConfig defines how to contact the refinement backend.
type RefinerConfig struct {
	Endpoint           string `yaml:"endpoint"`
	Model              string `yaml:"model"`
	APIKey             string `yaml:"apiKey"`
	CallTimeoutSeconds int    `yaml:"callTimeoutSeconds"`
	InjectKeywords     bool   `yaml:"injectKeywords"`
}

// CallTimeout resolves the configured seconds to a duration.
func (c RefinerConfig) CallTimeout() time.Duration {
	if c.CallTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// PublishConfig wires the outbound webhook channel.
type PublishConfig struct {
	WebhookURL   string `yaml:"webhookUrl"`
	WebhookToken string `yaml:"webhookToken"`
}

// BatchConfig bounds batch job concurrency.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// SourceConfig describes one content source loaded into the registry at
// startup.
type SourceConfig struct {
	ID                   string  `yaml:"id"`
	Name                 string  `yaml:"name"`
	Language             string  `yaml:"language"`
	Country              string  `yaml:"country"`
	Region               string  `yaml:"region"`
	Category             string  `yaml:"category"`
	FeedURL              string  `yaml:"feedUrl"`
	Fetcher              string  `yaml:"fetcher"`
	Priority             int     `yaml:"priority"`
	QualityScore         float64 `yaml:"qualityScore"`
	Active               bool    `yaml:"active"`
	CrawlIntervalMinutes int     `yaml:"crawlIntervalMinutes"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(refinerKeyEnv); v != "" {
		c.Refiner.APIKey = v
	}
	if v := os.Getenv(refinerModelEnv); v != "" {
		c.Refiner.Model = v
	}
	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Publish.WebhookURL = v
	}
	if v := os.Getenv(webhookTokenEnv); v != "" {
		c.Publish.WebhookToken = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.Redis.Addr != "" {
		base.Redis = override.Redis
	}

	if override.Crawl.RunTimeoutMinutes != 0 {
		base.Crawl.RunTimeoutMinutes = override.Crawl.RunTimeoutMinutes
	}
	if override.Crawl.BudgetPerLanguage != 0 {
		base.Crawl.BudgetPerLanguage = override.Crawl.BudgetPerLanguage
	}
	if override.Crawl.MaxArticlesPerSource != 0 {
		base.Crawl.MaxArticlesPerSource = override.Crawl.MaxArticlesPerSource
	}

	if override.Refiner.Endpoint != "" {
		base.Refiner.Endpoint = override.Refiner.Endpoint
	}
	if override.Refiner.Model != "" {
		base.Refiner.Model = override.Refiner.Model
	}
	if override.Refiner.APIKey != "" {
		base.Refiner.APIKey = override.Refiner.APIKey
	}
	if override.Refiner.CallTimeoutSeconds != 0 {
		base.Refiner.CallTimeoutSeconds = override.Refiner.CallTimeoutSeconds
	}
	if override.Refiner.InjectKeywords {
		base.Refiner.InjectKeywords = true
	}

	if override.Publish.WebhookURL != "" {
		base.Publish.WebhookURL = override.Publish.WebhookURL
	}
	if override.Publish.WebhookToken != "" {
		base.Publish.WebhookToken = override.Publish.WebhookToken
	}

	if override.Batch.Concurrency != 0 {
		base.Batch.Concurrency = override.Batch.Concurrency
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Crawl: CrawlConfig{
			RunTimeoutMinutes:    10,
			BudgetPerLanguage:    50,
			MaxArticlesPerSource: 10,
		},
		Refiner: RefinerConfig{
			Endpoint:           "https://api.openai.com/v1/chat/completions",
			Model:              "gpt-4o-mini",
			CallTimeoutSeconds: 30,
		},
		Batch: BatchConfig{Concurrency: 4},
	}
}
