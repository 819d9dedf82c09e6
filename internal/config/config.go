package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Triage   TriageConfig   `yaml:"triage"`
	LogLevel string         `yaml:"log_level"`
}

type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures ranking fan-out. An empty URL disables it.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool { return r.URL != "" }

type TriageConfig struct {
	SettingsPath string `yaml:"settings_path"`
	ArtifactDir  string `yaml:"artifact_dir"`
	// ScoreNoise perturbs linear scores by their calibration error. Unset
	// means enabled.
	ScoreNoise    *bool         `yaml:"score_noise"`
	TagTopN       int           `yaml:"tag_top_n"`
	MinDocFreq    int           `yaml:"min_doc_freq"`
	// MinChi2 unset means 0.02; 0 disables the chi-squared filter.
	MinChi2       *float64      `yaml:"min_chi2"`
	Alphas        []float64     `yaml:"alphas"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	RankTimeout   time.Duration `yaml:"rank_timeout"`
}

func (t TriageConfig) Noise() bool {
	return t.ScoreNoise == nil || *t.ScoreNoise
}

// Load reads the YAML config at path, expanding ${VAR} references from the
// environment and an optional .env file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = filepath.Join(dataDir(), "entries.db")
	}
	if c.Storage.Postgres.Host == "" {
		c.Storage.Postgres.Host = "localhost"
	}
	if c.Storage.Postgres.Port == 0 {
		c.Storage.Postgres.Port = 5432
	}
	if c.Storage.Postgres.DBName == "" {
		c.Storage.Postgres.DBName = "feed_triage"
	}
	if c.Storage.Postgres.SSLMode == "" {
		c.Storage.Postgres.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "feed_triage"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "rankings"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "reader_rankings"
	}
	if c.Triage.SettingsPath == "" {
		c.Triage.SettingsPath = filepath.Join(dataDir(), "settings.yaml")
	}
	if c.Triage.ArtifactDir == "" {
		c.Triage.ArtifactDir = filepath.Join(dataDir(), "artifacts")
	}
	if c.Triage.TagTopN == 0 {
		c.Triage.TagTopN = 30
	}
	if c.Triage.MinDocFreq == 0 {
		c.Triage.MinDocFreq = 2
	}
	if c.Triage.MinChi2 == nil {
		minChi2 := 0.02
		c.Triage.MinChi2 = &minChi2
	}
	if len(c.Triage.Alphas) == 0 {
		c.Triage.Alphas = []float64{1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1}
	}
	if c.Triage.WatchInterval == 0 {
		c.Triage.WatchInterval = 30 * time.Minute
	}
	if c.Triage.RankTimeout == 0 {
		c.Triage.RankTimeout = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	for _, a := range c.Triage.Alphas {
		if a <= 0 {
			return fmt.Errorf("alphas must be positive, got %g", a)
		}
	}
	if *c.Triage.MinChi2 < 0 {
		return fmt.Errorf("min_chi2 must not be negative, got %g", *c.Triage.MinChi2)
	}
	if c.Triage.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %s", c.Triage.WatchInterval)
	}
	if c.Triage.RankTimeout <= 0 {
		return fmt.Errorf("rank_timeout must be positive, got %s", c.Triage.RankTimeout)
	}
	return nil
}

// dataDir is where local state lives unless configured otherwise.
func dataDir() string {
	if dir := os.Getenv("FEED_TRIAGE_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".feed_triage")
	}
	return ".feed_triage"
}
