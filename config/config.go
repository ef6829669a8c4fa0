package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid marks configuration that fails validation. Callers match it
// with errors.Is to map config problems onto the right exit code.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration, loaded from defaults, an
// optional YAML file, and DEALRADAR_* environment variables, in that order.
type Config struct {
	Mode      string `mapstructure:"mode"`
	OutputDir string `mapstructure:"output_dir"`
	StatePath string `mapstructure:"state_path"`
	TopN      int    `mapstructure:"top_n"`

	Demo     DemoConfig     `mapstructure:"demo"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Live     LiveConfig     `mapstructure:"live"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

// DemoConfig controls the synthetic data generator. Seed 0 means "derive
// from the UTC date", which keeps same-day runs identical.
type DemoConfig struct {
	Listings int      `mapstructure:"listings"`
	Cities   []string `mapstructure:"cities"`
	Seed     int64    `mapstructure:"seed"`
}

// SeedConfig points at the local file used in seed mode.
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// LiveConfig describes the external JSON feed and the client's limits.
type LiveConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Cities      []string      `mapstructure:"cities"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Concurrency int           `mapstructure:"concurrency"`
	Delay       time.Duration `mapstructure:"delay"`
}

// ScoringConfig carries the named scoring weights.
//
//   - discount_weight scales the price-per-area discount against the
//     baseline, the primary signal. The discount itself is clipped to
//     ±max_discount before weighting so outliers cannot dominate.
//   - freshness_weight scales the secondary recency signal, which decays
//     linearly to zero at freshness_horizon_days.
//   - keyword_bonus is added per matched motivated-seller phrase, at most
//     keyword_max_hits times.
//   - baseline_price_per_area, when positive, replaces the computed median.
//     Otherwise the median over listings with a known area is used, and at
//     least min_baseline_sample such listings are required.
type ScoringConfig struct {
	DiscountWeight       float64  `mapstructure:"discount_weight"`
	MaxDiscount          float64  `mapstructure:"max_discount"`
	FreshnessWeight      float64  `mapstructure:"freshness_weight"`
	FreshnessHorizonDays int      `mapstructure:"freshness_horizon_days"`
	KeywordBonus         float64  `mapstructure:"keyword_bonus"`
	KeywordMaxHits       int      `mapstructure:"keyword_max_hits"`
	Keywords             []string `mapstructure:"keywords"`
	BaselinePricePerArea float64  `mapstructure:"baseline_price_per_area"`
	MinBaselineSample    int      `mapstructure:"min_baseline_sample"`
}

// ScheduleConfig holds the cron expression for the schedule command.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// defaultKeywords are the motivated-seller phrases matched in descriptions.
var defaultKeywords = []string{
	"priced to sell", "motivated", "must sell", "bring your offer",
	"急售", "诚意卖", "降价", "低于评估",
}

// Load reads .env, the config file (explicit path, or config.yaml found in
// the working directory), and environment overrides, and returns a
// validated Config.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DEALRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config: %v", ErrInvalid, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %v", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "demo")
	v.SetDefault("output_dir", "public")
	v.SetDefault("state_path", "data/run_state.json")
	v.SetDefault("top_n", 50)

	v.SetDefault("demo.listings", 200)
	v.SetDefault("demo.cities", []string{"Vancouver", "Burnaby", "Richmond"})
	v.SetDefault("demo.seed", 0)

	v.SetDefault("seed.file", "data/seed_listings.json")

	v.SetDefault("live.base_url", "")
	v.SetDefault("live.cities", []string{"Vancouver", "Burnaby", "Richmond"})
	v.SetDefault("live.timeout", "10s")
	v.SetDefault("live.max_retries", 3)
	v.SetDefault("live.concurrency", 2)
	v.SetDefault("live.delay", "700ms")

	v.SetDefault("scoring.discount_weight", 100.0)
	v.SetDefault("scoring.max_discount", 0.5)
	v.SetDefault("scoring.freshness_weight", 10.0)
	v.SetDefault("scoring.freshness_horizon_days", 30)
	v.SetDefault("scoring.keyword_bonus", 2.0)
	v.SetDefault("scoring.keyword_max_hits", 3)
	v.SetDefault("scoring.keywords", defaultKeywords)
	v.SetDefault("scoring.baseline_price_per_area", 0.0)
	v.SetDefault("scoring.min_baseline_sample", 5)

	v.SetDefault("schedule.cron", "0 7 * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks field constraints. Every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	switch c.Mode {
	case "demo", "seed", "live":
	default:
		return fmt.Errorf("%w: mode %q (want demo, seed or live)", ErrInvalid, c.Mode)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}
	if c.StatePath == "" {
		return fmt.Errorf("%w: state_path is required", ErrInvalid)
	}
	if c.TopN < 1 {
		return fmt.Errorf("%w: top_n must be >= 1, got %d", ErrInvalid, c.TopN)
	}
	if c.Mode == "seed" && c.Seed.File == "" {
		return fmt.Errorf("%w: seed.file is required in seed mode", ErrInvalid)
	}
	if c.Mode == "live" && c.Live.BaseURL == "" {
		return fmt.Errorf("%w: live.base_url is required in live mode", ErrInvalid)
	}
	if c.Demo.Listings < 1 {
		return fmt.Errorf("%w: demo.listings must be >= 1, got %d", ErrInvalid, c.Demo.Listings)
	}
	if c.Live.Concurrency < 1 {
		return fmt.Errorf("%w: live.concurrency must be >= 1, got %d", ErrInvalid, c.Live.Concurrency)
	}
	if c.Live.MaxRetries < 1 {
		return fmt.Errorf("%w: live.max_retries must be >= 1, got %d", ErrInvalid, c.Live.MaxRetries)
	}
	if c.Scoring.MaxDiscount <= 0 || c.Scoring.MaxDiscount > 1 {
		return fmt.Errorf("%w: scoring.max_discount must be in (0, 1], got %g", ErrInvalid, c.Scoring.MaxDiscount)
	}
	if c.Scoring.FreshnessHorizonDays < 1 {
		return fmt.Errorf("%w: scoring.freshness_horizon_days must be >= 1, got %d",
			ErrInvalid, c.Scoring.FreshnessHorizonDays)
	}
	if c.Scoring.MinBaselineSample < 1 {
		return fmt.Errorf("%w: scoring.min_baseline_sample must be >= 1, got %d",
			ErrInvalid, c.Scoring.MinBaselineSample)
	}
	return nil
}
