package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"HedgeDesk/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Risk struct {
		DefaultConfidence     float64       `yaml:"default_confidence"`
		HistoryDays           int           `yaml:"history_days"`
		TradingPeriodsPerYear float64       `yaml:"trading_periods_per_year"`
		VolatilityFloor       float64       `yaml:"volatility_floor"`
		SnapshotCacheTTL      time.Duration `yaml:"snapshot_cache_ttl"`
		MaxRangeMonths        int           `yaml:"max_range_months"`
	} `yaml:"risk"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		CommitmentsTopic string   `yaml:"commitments_topic"`
		RebuiltTopic     string   `yaml:"rebuilt_topic"`
		RequiredAcks     int      `yaml:"required_acks"`
		Compression      string   `yaml:"compression"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	PriceFeed struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RestURL        string        `yaml:"rest_url"`
		APIKey         string        `yaml:"api_key"`
		Commodities    []string      `yaml:"commodities"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		BatchSize      int           `yaml:"batch_size"`
		BatchTimeout   time.Duration `yaml:"batch_timeout"`
		BackfillDays   int           `yaml:"backfill_days"`
	} `yaml:"pricefeed"`
	Rebuild struct {
		Async      bool          `yaml:"async"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		LockTTL    time.Duration `yaml:"lock_ttl"`
	} `yaml:"rebuild"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PRICEFEED_API_KEY"); v != "" {
		c.PriceFeed.APIKey = v
	}
	if v := os.Getenv("COMMODITIES"); v != "" {
		c.PriceFeed.Commodities = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = util.ParseIntDefault(v, c.Redis.Port)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Risk.DefaultConfidence == 0 {
		c.Risk.DefaultConfidence = 0.95
	}
	if c.Risk.HistoryDays == 0 {
		c.Risk.HistoryDays = 252
	}
	if c.Risk.TradingPeriodsPerYear == 0 {
		c.Risk.TradingPeriodsPerYear = 252
	}
	if c.Risk.SnapshotCacheTTL == 0 {
		c.Risk.SnapshotCacheTTL = 5 * time.Minute
	}
	if c.Risk.MaxRangeMonths == 0 {
		c.Risk.MaxRangeMonths = 36
	}
	if c.Rebuild.Workers == 0 {
		c.Rebuild.Workers = 2
	}
	if c.Rebuild.QueueSize == 0 {
		c.Rebuild.QueueSize = 64
	}
	if c.Rebuild.LockTTL == 0 {
		c.Rebuild.LockTTL = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Risk.DefaultConfidence <= 0 || c.Risk.DefaultConfidence >= 1 {
		return fmt.Errorf("risk.default_confidence must be in (0, 1), got %v", c.Risk.DefaultConfidence)
	}
	if c.Risk.VolatilityFloor < 0 {
		return fmt.Errorf("risk.volatility_floor cannot be negative")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if c.PriceFeed.Enabled && c.PriceFeed.WebSocketURL == "" {
		return fmt.Errorf("pricefeed.websocket_url is required when pricefeed is enabled")
	}
	return nil
}
