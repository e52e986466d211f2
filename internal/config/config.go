// Package config loads runtime settings from the environment and the query file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/newslens/internal/article"
	"github.com/deusflow/newslens/internal/storage"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverFile     = "file"
)

type Config struct {
	// Upstream APIs
	NYTAPIKey          string
	GNewsAPIKey        string
	NYTMaxPages        int
	NYTRequestInterval time.Duration
	GNewsMax           int
	RequestTimeout     time.Duration

	// Query
	QueryConfigPath string
	Query           string
	BeginDate       time.Time
	EndDate         time.Time
	Feeds           []Feed

	// Storage
	DBDriver      string
	DatabaseURL   string
	NYTTable      string
	GNewsTable    string
	FeedTable     string
	RetryAttempts int
	RetryDelay    time.Duration

	// Clustering
	NumClusters int
	TopTerms    int
	MaxFeatures int
	// ClusterSeed seeds k-means++. It must be non-zero; 0 would fall back to
	// the clusterer's default of 42.
	ClusterSeed int64

	// Serving
	HTTPAddr  string
	RedisAddr string

	// App settings
	Debug     bool
	LogFormat string
}

// Feed is one RSS/Atom feed to ingest.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Bias string `yaml:"bias"`
}

// QueryFile is the YAML layout of QUERY_CONFIG_PATH:
//
//	query: climate OR politics
//	begin_date: 2024-06-01
//	end_date: 2024-06-30
//	feeds:
//	  - name: BBC World
//	    url: https://feeds.bbci.co.uk/news/world/rss.xml
//	    bias: Center
type QueryFile struct {
	Query     string `yaml:"query"`
	BeginDate string `yaml:"begin_date"`
	EndDate   string `yaml:"end_date"`
	Feeds     []Feed `yaml:"feeds"`
}

const (
	DefaultQuery     = "climate OR politics OR economy OR technology OR environment"
	DefaultBeginDate = "2024-06-01"
	DefaultEndDate   = "2024-06-30"
	DefaultFeedBias  = "Unknown"
)

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		QueryConfigPath:    "configs/query.yaml",
		Query:              DefaultQuery,
		NYTMaxPages:        5,
		NYTRequestInterval: 12 * time.Second,
		GNewsMax:           50,
		RequestTimeout:     30 * time.Second,
		RetryAttempts:      5,
		RetryDelay:         2 * time.Second,
		NumClusters:        5,
		TopTerms:           5,
		MaxFeatures:        1000,
		ClusterSeed:        42,
	}
	cfg.BeginDate, _ = article.ParseDate(DefaultBeginDate)
	cfg.EndDate, _ = article.ParseDate(DefaultEndDate)

	// Load from environment
	cfg.NYTAPIKey = os.Getenv("NYT_API_KEY")
	cfg.GNewsAPIKey = os.Getenv("GNEWS_API_KEY")

	cfg.DBDriver = getEnvOrDefault("DB_DRIVER", DriverSQLite)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "news_data.db")
	cfg.NYTTable = getEnvOrDefault("NYT_TABLE", "nyt_articles")
	cfg.GNewsTable = getEnvOrDefault("GNEWS_TABLE", "gnews_articles")
	cfg.FeedTable = getEnvOrDefault("FEED_TABLE", "feed_articles")

	cfg.NYTMaxPages = getEnvIntOrDefault("NYT_MAX_PAGES", cfg.NYTMaxPages)
	cfg.GNewsMax = getEnvIntOrDefault("GNEWS_MAX", cfg.GNewsMax)
	cfg.NYTRequestInterval = getEnvDurationOrDefault("NYT_REQUEST_INTERVAL", cfg.NYTRequestInterval)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.NumClusters = getEnvIntOrDefault("NUM_CLUSTERS", cfg.NumClusters)
	cfg.TopTerms = getEnvIntOrDefault("TOP_TERMS", cfg.TopTerms)
	cfg.MaxFeatures = getEnvIntOrDefault("MAX_FEATURES", cfg.MaxFeatures)
	cfg.ClusterSeed = int64(getEnvIntOrDefault("CLUSTER_SEED", int(cfg.ClusterSeed)))

	cfg.HTTPAddr = getEnvOrDefault("HTTP_ADDR", ":8080")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", "text")

	cfg.QueryConfigPath = getEnvOrDefault("QUERY_CONFIG_PATH", cfg.QueryConfigPath)
	if err := cfg.applyQueryFile(cfg.QueryConfigPath); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// applyQueryFile overlays the query file. A missing file keeps the defaults.
func (c *Config) applyQueryFile(path string) error {
	qf, err := LoadQueryFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	if qf.Query != "" {
		c.Query = qf.Query
	}
	if qf.BeginDate != "" {
		d, err := article.ParseDate(qf.BeginDate)
		if err != nil {
			return fmt.Errorf("query file begin_date: %w", err)
		}
		c.BeginDate = d
	}
	if qf.EndDate != "" {
		d, err := article.ParseDate(qf.EndDate)
		if err != nil {
			return fmt.Errorf("query file end_date: %w", err)
		}
		c.EndDate = d
	}
	for _, f := range qf.Feeds {
		if f.URL == "" {
			continue
		}
		if f.Bias == "" {
			f.Bias = DefaultFeedBias
		}
		if f.Name == "" {
			f.Name = f.URL
		}
		c.Feeds = append(c.Feeds, f)
	}
	return nil
}

// LoadQueryFile reads the YAML query file at path.
func LoadQueryFile(path string) (*QueryFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var qf QueryFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&qf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &qf, nil
}

// Tables lists every configured source table.
func (c *Config) Tables() []string {
	return []string{c.NYTTable, c.GNewsTable, c.FeedTable}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite, DriverFile:
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres', 'sqlite3' or 'file'")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BeginDate.After(c.EndDate) {
		return fmt.Errorf("begin date %s is after end date %s",
			c.BeginDate.Format(article.DateLayout), c.EndDate.Format(article.DateLayout))
	}
	if c.NumClusters <= 0 {
		return fmt.Errorf("NUM_CLUSTERS must be positive")
	}
	if c.NYTMaxPages <= 0 {
		return fmt.Errorf("NYT_MAX_PAGES must be positive")
	}
	if c.GNewsMax < 0 {
		return fmt.Errorf("GNEWS_MAX must not be negative")
	}
	if c.ClusterSeed == 0 {
		return fmt.Errorf("CLUSTER_SEED must be non-zero")
	}
	for _, table := range c.Tables() {
		if err := storage.ValidateTable(table); err != nil {
			return fmt.Errorf("table name: %w", err)
		}
	}
	return nil
}

// ValidateIngest checks that at least one source can run.
func (c *Config) ValidateIngest() error {
	if c.NYTAPIKey == "" && c.GNewsAPIKey == "" && len(c.Feeds) == 0 {
		return fmt.Errorf("NYT_API_KEY, GNEWS_API_KEY or a feed list is required for ingestion")
	}
	return nil
}
