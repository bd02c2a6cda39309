package main

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"LootLedger/internal/analyzer"
	"LootLedger/internal/catalog"
	"LootLedger/internal/classifier"
	"LootLedger/internal/collector"
	"LootLedger/internal/config"
	"LootLedger/internal/extractor"
	"LootLedger/internal/history"
	"LootLedger/internal/importer"
	"LootLedger/internal/matcher"
	"LootLedger/internal/ocr"
	"LootLedger/internal/recorder"
	"LootLedger/internal/unknown"
)

var cfgPath string

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}

	rootCmd := &cobra.Command{
		Use:           "lootledger",
		Short:         "Extract item prices from market screenshots and track them over time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "config file path")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(promoteCmd())
	rootCmd.AddCommand(rebuildCatalogCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[FATAL] %v", err)
		os.Exit(1)
	}
}

// app holds the loaded stores and the wiring shared by every command.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	unknown  *unknown.Ledger
	history  *history.Store
	recorder recorder.Recorder
}

// loadApp reads config and every persisted store. A corrupt data file aborts the command.
func loadApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}
	ledger, err := unknown.Load(cfg.UnknownPath())
	if err != nil {
		return nil, err
	}
	store, err := history.Load(cfg.HistoryPath(), cfg.History.Retention, cfg.History.Trend)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}

	return &app{cfg: cfg, catalog: cat, unknown: ledger, history: store, recorder: rec}, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}

func (a *app) analyzer() *analyzer.Analyzer {
	an := analyzer.New(a.catalog, a.unknown, a.history)
	an.Options = a.cfg.Analyzer
	an.Extractor = extractor.New(a.cfg.Extractor.MinPrice, a.cfg.Extractor.MaxPrice)
	an.Matcher = matcher.New(a.cfg.Matcher)
	an.Classifier = classifier.New()
	return an
}

func (a *app) collector() (*collector.Collector, error) {
	rec := ocr.NewTesseract(a.cfg.OCR)
	log.Printf("[INFO] OCR engine: %s", rec.Name())
	c := collector.NewCollector(a.analyzer(), rec, a.recorder, collector.Paths{
		History:       a.cfg.HistoryPath(),
		CurrentPrices: a.cfg.CurrentPricesPath(),
		Unknown:       a.cfg.UnknownPath(),
		Pending:       a.cfg.PendingPath(),
		Processed:     a.cfg.ProcessedPath(),
	})
	c.Extensions = a.cfg.Screenshots.Extensions
	if err := c.LoadProcessed(); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) importer() *importer.Importer {
	im := importer.New(a.catalog, a.unknown, a.history, a.cfg.CatalogPath(), a.cfg.UnknownPath())
	im.Recorder = a.recorder
	return im
}

var htmlTags = strings.NewReplacer("<b>", "", "</b>", "")

// plain turns a Telegram HTML message into console text.
func plain(msg string) string {
	return html.UnescapeString(htmlTags.Replace(msg))
}
