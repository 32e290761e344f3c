// Package config
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/amirphl/signal-engine/internal/tfutils"
)

/*
YAML config example:
mode: "backtest"
symbol: "BTCUSDT"
timeframe: "5m"
from: "2024-01-01"
to: "2024-06-30"
trend_mode: "pullback"
profile: "current"
initial_capital: 10000
commission: 1.0
slippage: 0.001
output_dir: "out"
export_formats: ["csv", "json"]
wallex_api_key: "..."
db_conn_str: "..."
*/

type Config struct {
	Mode      string `yaml:"mode" validate:"oneof=backtest compare"`
	Symbol    string `yaml:"symbol" validate:"required"`
	Timeframe string `yaml:"timeframe" validate:"required"`
	From      string `yaml:"from" validate:"required,datetime=2006-01-02"`
	To        string `yaml:"to" validate:"required,datetime=2006-01-02"`

	TrendMode string `yaml:"trend_mode" validate:"oneof=pullback stacked"`
	Profile   string `yaml:"profile" validate:"required"`

	InitialCapital float64 `yaml:"initial_capital" validate:"gt=0"`
	Commission     float64 `yaml:"commission" validate:"gte=0"`
	Slippage       float64 `yaml:"slippage" validate:"gte=0,lt=1"`

	OutputDir     string   `yaml:"output_dir"`
	ExportFormats []string `yaml:"export_formats" validate:"dive,oneof=csv json parquet"`

	WallexAPIKey string `yaml:"wallex_api_key"`

	DBConnStr string `yaml:"db_conn_str"`
	DBMaxOpen int    `yaml:"db_max_open" validate:"gte=0"`
	DBMaxIdle int    `yaml:"db_max_idle" validate:"gte=0"`

	TelegramToken       string        `yaml:"telegram_token"`
	TelegramChatID      string        `yaml:"telegram_chat_id"`
	NotificationRetries int           `yaml:"notification_retries" validate:"gte=0"`
	NotificationDelay   time.Duration `yaml:"notification_delay"`
}

// FromTime parses the configured backtest start date.
func (c Config) FromTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.From)
}

// ToTime parses the configured backtest end date.
func (c Config) ToTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.To)
}

// Validate checks field constraints plus the cross-field rules the
// struct tags cannot express.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !tfutils.IsValidTimeframe(c.Timeframe) {
		return fmt.Errorf("invalid config: unsupported timeframe %q", c.Timeframe)
	}
	from, err := c.FromTime()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	to, err := c.ToTime()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !from.Before(to) {
		return fmt.Errorf("invalid config: from %s is not before to %s", c.From, c.To)
	}
	return nil
}

// Load builds the configuration from flags, falling back to a YAML file
// when -config is given. Environment variables supply the secrets either
// way. The result is validated before being returned.
func Load() (Config, error) {
	mode := flag.String("mode", "backtest", "Mode: backtest or compare")
	symbol := flag.String("symbol", "BTCUSDT", "Trading symbol")
	timeframe := flag.String("timeframe", "5m", "Candle timeframe")
	from := flag.String("from", time.Now().AddDate(-1, 0, 0).Format("2006-01-02"), "Backtest start date (YYYY-MM-DD)")
	to := flag.String("to", time.Now().Format("2006-01-02"), "Backtest end date (YYYY-MM-DD)")
	trendMode := flag.String("trend-mode", "pullback", "Trend filter mode: pullback or stacked")
	profileName := flag.String("profile", "current", "Strategy profile: current, aggressive or conservative")
	initialCapital := flag.Float64("initial-capital", 10000, "Starting capital for the simulation")
	commission := flag.Float64("commission", 0.0, "Flat commission charged per order")
	slippage := flag.Float64("slippage", 0.0, "Slippage fraction per fill (e.g., 0.001 for 0.1%)")
	outputDir := flag.String("output-dir", "out", "Directory for exported reports")
	formatsFlag := flag.String("export-formats", "csv", "Comma-separated export formats (csv, json, parquet)")
	notificationRetries := flag.Int("notification-retries", 3, "Number of notification send attempts")
	notificationDelay := flag.Duration("notification-delay", 5*time.Second, "Delay between notification retries (e.g., 5s)")
	configFile := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	var cfg Config
	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		cfg = Config{
			Mode:                *mode,
			Symbol:              *symbol,
			Timeframe:           *timeframe,
			From:                *from,
			To:                  *to,
			TrendMode:           *trendMode,
			Profile:             *profileName,
			InitialCapital:      *initialCapital,
			Commission:          *commission,
			Slippage:            *slippage,
			OutputDir:           *outputDir,
			ExportFormats:       strings.Split(*formatsFlag, ","),
			NotificationRetries: *notificationRetries,
			NotificationDelay:   *notificationDelay,
		}
	}

	if cfg.WallexAPIKey == "" {
		cfg.WallexAPIKey = os.Getenv("WALLEX_API_KEY")
	}
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = os.Getenv("DB_CONN_STR")
	}
	if cfg.DBMaxOpen == 0 {
		cfg.DBMaxOpen = 10
	}
	if cfg.DBMaxIdle == 0 {
		cfg.DBMaxIdle = 5
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
