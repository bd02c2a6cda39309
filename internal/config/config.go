package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"LootLedger/internal/analyzer"
	"LootLedger/internal/calculator"
	"LootLedger/internal/extractor"
	"LootLedger/internal/history"
	"LootLedger/internal/matcher"
	"LootLedger/internal/ocr"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Dir           string `yaml:"dir"`
		Catalog       string `yaml:"catalog"`
		History       string `yaml:"history"`
		CurrentPrices string `yaml:"current_prices"`
		Unknown       string `yaml:"unknown_items"`
		Pending       string `yaml:"pending_items"`
		Processed     string `yaml:"processed_images"`
	} `yaml:"data"`
	Screenshots struct {
		Dir        string   `yaml:"dir"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"screenshots"`
	OCR       ocr.Options      `yaml:"ocr"`
	Analyzer  analyzer.Options `yaml:"analyzer"`
	Extractor struct {
		MinPrice int `yaml:"min_price"`
		MaxPrice int `yaml:"max_price"`
	} `yaml:"extractor"`
	Matcher matcher.Params `yaml:"matcher"`
	History struct {
		Retention int                    `yaml:"retention"`
		Trend     calculator.TrendParams `yaml:",inline"`
	} `yaml:"history"`
	Schedule struct {
		ScanCron   string `yaml:"scan_cron"`
		ReportCron string `yaml:"report_cron"`
		ReportTop  int    `yaml:"report_top"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Listen string `yaml:"listen"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error; every field has a default.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("SCREENSHOT_DIR"); v != "" {
		cfg.Screenshots.Dir = v
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := os.Getenv("REPORT_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.ReportTop = n
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.Catalog == "" {
		c.Data.Catalog = "items/items_database.json"
	}
	if c.Data.History == "" {
		c.Data.History = "price_history.json"
	}
	if c.Data.CurrentPrices == "" {
		c.Data.CurrentPrices = "current_prices.json"
	}
	if c.Data.Unknown == "" {
		c.Data.Unknown = "unknown_items.json"
	}
	if c.Data.Pending == "" {
		c.Data.Pending = "pending_items.txt"
	}
	if c.Data.Processed == "" {
		c.Data.Processed = "processed_images.json"
	}
	if c.Screenshots.Dir == "" {
		c.Screenshots.Dir = "screenshots"
	}
	if len(c.Screenshots.Extensions) == 0 {
		c.Screenshots.Extensions = []string{".png", ".jpg", ".jpeg"}
	}
	for i, ext := range c.Screenshots.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Screenshots.Extensions[i] = ext
	}

	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = ocr.DefaultOptions.Languages
	}
	if c.OCR.Level == "" {
		c.OCR.Level = ocr.DefaultOptions.Level
	}
	if c.OCR.MinHeight == 0 {
		c.OCR.MinHeight = ocr.DefaultOptions.MinHeight
	}

	if c.Analyzer.MinConfidence == 0 {
		c.Analyzer.MinConfidence = analyzer.DefaultOptions.MinConfidence
	}
	if c.Analyzer.MinTextLength == 0 {
		c.Analyzer.MinTextLength = analyzer.DefaultOptions.MinTextLength
	}
	if c.Extractor.MinPrice == 0 {
		c.Extractor.MinPrice = extractor.DefaultMinPrice
	}
	if c.Extractor.MaxPrice == 0 {
		c.Extractor.MaxPrice = extractor.DefaultMaxPrice
	}

	if c.Matcher.MaxVertical == 0 {
		c.Matcher.MaxVertical = matcher.DefaultParams.MaxVertical
	}
	if c.Matcher.MaxHorizontal == 0 {
		c.Matcher.MaxHorizontal = matcher.DefaultParams.MaxHorizontal
	}
	if c.Matcher.VerticalWeight == 0 {
		c.Matcher.VerticalWeight = matcher.DefaultParams.VerticalWeight
	}
	if c.Matcher.HorizontalWeight == 0 {
		c.Matcher.HorizontalWeight = matcher.DefaultParams.HorizontalWeight
	}

	if c.History.Retention == 0 {
		c.History.Retention = history.DefaultRetention
	}
	if c.History.Trend.Window == 0 {
		c.History.Trend.Window = calculator.DefaultTrendParams.Window
	}
	if c.History.Trend.Threshold == 0 {
		c.History.Trend.Threshold = calculator.DefaultTrendParams.Threshold
	}

	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 */10 * * * *"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 21 * * *"
	}
	if c.Schedule.ReportTop == 0 {
		c.Schedule.ReportTop = 10
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = filepath.Join(c.Data.Dir, "lootledger.db")
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = "127.0.0.1:8080"
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Analyzer.MinConfidence < 0 || c.Analyzer.MinConfidence > 1 {
		return fmt.Errorf("analyzer.min_confidence must be within [0, 1]")
	}
	if c.Extractor.MinPrice < 0 || c.Extractor.MinPrice > c.Extractor.MaxPrice {
		return fmt.Errorf("extractor price band [%d, %d] is invalid", c.Extractor.MinPrice, c.Extractor.MaxPrice)
	}
	if c.Matcher.MaxVertical < 0 || c.Matcher.MaxHorizontal < 0 {
		return fmt.Errorf("matcher distances must not be negative")
	}
	if c.Matcher.VerticalWeight < 0 || c.Matcher.HorizontalWeight < 0 {
		return fmt.Errorf("matcher weights must not be negative")
	}
	if c.History.Retention <= c.History.Trend.Window {
		return fmt.Errorf("history.retention (%d) must exceed history.trend_window (%d)", c.History.Retention, c.History.Trend.Window)
	}
	if c.History.Trend.Threshold < 0 {
		return fmt.Errorf("history.trend_threshold must not be negative")
	}
	if c.OCR.Level != "line" && c.OCR.Level != "word" {
		return fmt.Errorf("ocr.level must be \"line\" or \"word\", got %q", c.OCR.Level)
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.ScanCron); err != nil {
		return fmt.Errorf("schedule.scan_cron: %w", err)
	}
	if _, err := parser.Parse(c.Schedule.ReportCron); err != nil {
		return fmt.Errorf("schedule.report_cron: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether Telegram credentials are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// DataPath resolves a data file name against the data directory.
func (c *Config) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

func (c *Config) CatalogPath() string       { return c.DataPath(c.Data.Catalog) }
func (c *Config) HistoryPath() string       { return c.DataPath(c.Data.History) }
func (c *Config) CurrentPricesPath() string { return c.DataPath(c.Data.CurrentPrices) }
func (c *Config) UnknownPath() string       { return c.DataPath(c.Data.Unknown) }
func (c *Config) PendingPath() string       { return c.DataPath(c.Data.Pending) }
func (c *Config) ProcessedPath() string     { return c.DataPath(c.Data.Processed) }
