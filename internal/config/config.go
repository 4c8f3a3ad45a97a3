package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Data sources the dashboard can load trips from
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds all configuration for the dashboard and the importer
type Config struct {
	// HTTP
	Port           string   `yaml:"port"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Dataset
	DataSource  string `yaml:"data_source"`
	DataDir     string `yaml:"data_dir"`
	DataYear    int    `yaml:"data_year"`
	DataMonths  []int  `yaml:"data_months"`
	SQLitePath  string `yaml:"sqlite_database"`
	DatabaseURL string `yaml:"database_url"`

	// Dataset archive refresh
	DataArchiveURL  string `yaml:"data_archive_url"`
	DataRefreshDays int    `yaml:"data_refresh_days"`

	// Figures
	FigureSeed        int64 `yaml:"figure_seed"`
	DefaultSampleSize int   `yaml:"default_sample_size"`
	MaxSampleSize     int   `yaml:"max_sample_size"`
	Sample3D          int   `yaml:"sample_3d"`

	// Logging
	LogLevel string `yaml:"log_level"`

	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// Defaults returns the configuration used when nothing is overridden
func Defaults() *Config {
	return &Config{
		Port:              "8050",
		AllowedOrigins:    []string{"http://localhost:5173"},
		DataSource:        SourceCSV,
		DataDir:           "data/BixiMontrealRentals2017",
		DataYear:          2017,
		DataMonths:        []int{4, 5, 6, 7, 8, 9, 10},
		SQLitePath:        "data/trips.db",
		DataRefreshDays:   30,
		DefaultSampleSize: 100000,
		MaxSampleSize:     1000000,
		Sample3D:          100000,
		LogLevel:          "info",
		ReadTimeout:       30 * time.Second,
	}
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", cfg.DataSource))
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.DataYear = getEnvInt("DATA_YEAR", cfg.DataYear)
	cfg.SQLitePath = getEnv("SQLITE_DATABASE", cfg.SQLitePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DataArchiveURL = getEnv("DATA_ARCHIVE_URL", cfg.DataArchiveURL)
	cfg.DataRefreshDays = getEnvInt("DATA_REFRESH_DAYS", cfg.DataRefreshDays)

	if v := os.Getenv("DATA_MONTHS"); v != "" {
		months, err := ParseMonths(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse DATA_MONTHS: %w", err)
		}
		cfg.DataMonths = months
	}

	cfg.FigureSeed = int64(getEnvInt("FIGURE_SEED", int(cfg.FigureSeed)))
	cfg.DefaultSampleSize = getEnvInt("DEFAULT_SAMPLE_SIZE", cfg.DefaultSampleSize)
	cfg.MaxSampleSize = getEnvInt("MAX_SAMPLE_SIZE", cfg.MaxSampleSize)
	cfg.Sample3D = getEnvInt("SAMPLE_3D", cfg.Sample3D)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at request time
func (c *Config) Validate() error {
	switch c.DataSource {
	case SourceCSV, SourceSQLite:
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for data source %q", c.DataSource)
		}
	default:
		return fmt.Errorf("config: unknown data source %q", c.DataSource)
	}
	if c.MaxSampleSize < 0 || c.DefaultSampleSize < 0 || c.Sample3D < 0 {
		return fmt.Errorf("config: sample sizes must not be negative")
	}
	if c.DefaultSampleSize > c.MaxSampleSize {
		return fmt.Errorf("config: default sample size %d exceeds maximum %d", c.DefaultSampleSize, c.MaxSampleSize)
	}
	if len(c.DataMonths) == 0 {
		return fmt.Errorf("config: no data months configured")
	}
	return nil
}

// ParseMonths accepts "4-10" ranges and "4,5,6" lists, or a mix of both
func ParseMonths(s string) ([]int, error) {
	var months []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi := part, part
		if i := strings.Index(part, "-"); i > 0 {
			lo, hi = part[:i], part[i+1:]
		}
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, err
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, err
		}
		if from < 1 || to > 12 || from > to {
			return nil, fmt.Errorf("invalid month range %q", part)
		}
		for m := from; m <= to; m++ {
			months = append(months, m)
		}
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("empty month list")
	}
	return months, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
