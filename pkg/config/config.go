package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Data struct {
		PricesPath string `yaml:"prices_path" default:"data/raw/BrentOilPrices.csv"`
		EventsPath string `yaml:"events_path" default:"data/events/key_events.csv"`
	} `yaml:"data"`
	Model struct {
		Name         string  `yaml:"name" default:"brent_change_point"`
		Draws        int     `yaml:"draws" default:"2000"`
		Tune         int     `yaml:"tune" default:"1000"`
		Chains       int     `yaml:"chains" default:"4"`
		TargetAccept float64 `yaml:"target_accept" default:"0.95"`
		Seed         *int64  `yaml:"seed"`
		RHatMax      float64 `yaml:"rhat_max" default:"1.01"`
	} `yaml:"model"`
	Association struct {
		WindowDays int `yaml:"window_days" default:"90"`
	} `yaml:"association"`
	Storage struct {
		Type       string `yaml:"type" default:"file"`
		ReportsDir string `yaml:"reports_dir" default:"reports"`
		Format     string `yaml:"format" default:"csv"`
	} `yaml:"storage"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"brent"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"brent.analysis.completed"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"snappy"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
	} `yaml:"kafka"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"5m"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled" default:"true"`
		RPS     float64 `yaml:"rps" default:"20"`
		Burst   int     `yaml:"burst" default:"40"`
	} `yaml:"ratelimit"`
}

// Default returns a configuration holding only default values.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("BRENT_PRICES_PATH"); v != "" {
		c.Data.PricesPath = v
	}
	if v := getenv("BRENT_EVENTS_PATH"); v != "" {
		c.Data.EventsPath = v
	}
	if v := getenv("BRENT_REPORTS_DIR"); v != "" {
		c.Storage.ReportsDir = v
	}
	if v := getenv("BRENT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BRENT_SEED: %w", err)
		}
		c.Model.Seed = &seed
	}
	if v := getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Data.PricesPath == "" || c.Data.EventsPath == "" {
		return fmt.Errorf("data.prices_path and data.events_path are required")
	}
	if c.Model.Chains < 2 {
		return fmt.Errorf("model.chains must be at least 2 for convergence checks, got %d", c.Model.Chains)
	}
	if c.Model.Draws < 100 {
		return fmt.Errorf("model.draws must be at least 100, got %d", c.Model.Draws)
	}
	if c.Model.Tune < 0 {
		return fmt.Errorf("model.tune cannot be negative")
	}
	if c.Model.TargetAccept <= 0 || c.Model.TargetAccept >= 1 {
		return fmt.Errorf("model.target_accept must be in (0, 1), got %g", c.Model.TargetAccept)
	}
	if c.Association.WindowDays < 0 {
		return fmt.Errorf("association.window_days cannot be negative")
	}
	switch c.Storage.Type {
	case "file":
		if c.Storage.Format != "csv" && c.Storage.Format != "xlsx" {
			return fmt.Errorf("storage.format must be 'csv' or 'xlsx', got '%s'", c.Storage.Format)
		}
	case "clickhouse":
	default:
		return fmt.Errorf("storage.type must be 'file' or 'clickhouse', got '%s'", c.Storage.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
