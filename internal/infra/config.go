package infra

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of a batch run. Values are loaded from YAML,
// then overridden by environment variables where present, then validated.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Arena struct {
		Rounds     int     `yaml:"rounds"`
		Ticks      int     `yaml:"ticks"`
		Workers    int     `yaml:"workers"`
		Seed       uint64  `yaml:"seed"`
		AssetName  string  `yaml:"asset_name"`
		StartPrice float64 `yaml:"start_price"`
		StartMoney float64 `yaml:"start_money"`
	} `yaml:"arena"`

	Prices struct {
		// Model picks the simulator preset: balanced, rising or falling.
		// When CSVFile is set the replay provider is used instead.
		Model   string `yaml:"model"`
		CSVFile string `yaml:"csv_file"`
	} `yaml:"prices"`

	Fees struct {
		// Schedule is one of: free, flat, mini, small, medium.
		Schedule string  `yaml:"schedule"`
		FlatFee  float64 `yaml:"flat_fee"`
	} `yaml:"fees"`

	Strategies struct {
		// Empty lists mean the full registry.
		Buys  []string `yaml:"buys"`
		Sells []string `yaml:"sells"`
	} `yaml:"strategies"`

	Report struct {
		OutFile   string `yaml:"out_file"`
		ChartFile string `yaml:"chart_file"`
	} `yaml:"report"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		DBFile  string `yaml:"db_file"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file. A .env file in the working
// directory is honored before environment overrides are applied.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig is a complete runnable configuration; the YAML file only
// needs to state deviations.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "bot_arena"
	cfg.Arena.Rounds = 100
	cfg.Arena.Ticks = 200
	cfg.Arena.Workers = 4
	cfg.Arena.Seed = 1
	cfg.Arena.AssetName = "A"
	cfg.Arena.StartPrice = 100
	cfg.Arena.StartMoney = 10000
	cfg.Prices.Model = "balanced"
	cfg.Fees.Schedule = "free"
	cfg.Storage.DBFile = "arena.db"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Arena.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Arena.Rounds)
	}
	if c.Arena.Ticks <= 0 {
		return fmt.Errorf("ticks must be positive, got %d", c.Arena.Ticks)
	}
	if c.Arena.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Arena.Workers)
	}
	if c.Arena.StartPrice <= 0 {
		return fmt.Errorf("start price must be positive, got %f", c.Arena.StartPrice)
	}
	if c.Arena.StartMoney <= 0 {
		return fmt.Errorf("start money must be positive, got %f", c.Arena.StartMoney)
	}

	switch c.Prices.Model {
	case "balanced", "rising", "falling":
	default:
		if c.Prices.CSVFile == "" {
			return fmt.Errorf("unknown price model %q", c.Prices.Model)
		}
	}

	switch c.Fees.Schedule {
	case "free", "mini", "small", "medium":
	case "flat":
		if c.Fees.FlatFee < 0 {
			return fmt.Errorf("flat fee must not be negative, got %f", c.Fees.FlatFee)
		}
	default:
		return fmt.Errorf("unknown fee schedule %q", c.Fees.Schedule)
	}

	if c.Storage.Enabled && c.Storage.DBFile == "" {
		return fmt.Errorf("storage enabled but no db_file configured")
	}

	return nil
}

// overrideWithEnv applies ARENA_* environment variables on top of the
// parsed file. Only the operationally interesting knobs are exposed.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("ARENA_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Arena.Rounds = n
		}
	}
	if v := os.Getenv("ARENA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Arena.Workers = n
		}
	}
	if v := os.Getenv("ARENA_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Arena.Seed = n
		}
	}
	if v := os.Getenv("ARENA_DB_FILE"); v != "" {
		cfg.Storage.DBFile = v
	}
	if v := os.Getenv("ARENA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
