package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"LootLedger/internal/collector"
	"LootLedger/internal/history"
	"LootLedger/internal/notifier"
)

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron          *cron.Cron
	Collector     *collector.Collector
	Notifier      notifier.Notifier
	ScreenshotDir string
	ReportTop     int
	Ctx           context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, n notifier.Notifier, screenshotDir string, reportTop int) *Scheduler {
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds()),
		Collector:     col,
		Notifier:      n,
		ScreenshotDir: screenshotDir,
		ReportTop:     reportTop,
		Ctx:           ctx,
	}
}

// RegisterAll registers the folder scan and the price report tasks.
func (s *Scheduler) RegisterAll(scanCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	report, err := s.scan()
	if err != nil {
		log.Printf("[ERROR] scheduled scan: %v", err)
		s.trySend(fmt.Sprintf("❌ 截图扫描失败: %v", err))
		return
	}
	if report.Observations > 0 || report.Unknown > 0 {
		s.trySend(notifier.FormatBatchReport(report.Summary()))
	}
}

func (s *Scheduler) scan() (*collector.BatchReport, error) {
	log.Printf("[INFO] scanning %s", s.ScreenshotDir)
	report, err := s.Collector.RunBatch(s.ScreenshotDir)
	if err != nil {
		return nil, err
	}
	if report.Images == 0 {
		return report, nil
	}
	if err := s.Collector.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return report, nil
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running price report")
	s.trySend(s.topPrices(s.ReportTop))
}

func (s *Scheduler) topPrices(n int) string {
	sorted := history.SortByLatest(s.Collector.Analyzer.CurrentAggregates())
	return notifier.FormatTopPrices(sorted, n)
}

// HandleCommand answers a chat command.
func (s *Scheduler) HandleCommand(_ context.Context, cmd notifier.Command) string {
	switch cmd.Kind {
	case notifier.CommandTop:
		n := s.ReportTop
		if cmd.Limit > 0 {
			n = cmd.Limit
		}
		return s.topPrices(n)
	case notifier.CommandPrice:
		if cmd.Item == "" {
			return "用法: /price 物品名称"
		}
		return s.itemPrice(cmd.Item)
	case notifier.CommandUnknown:
		return notifier.FormatUnknownItems(s.Collector.Analyzer.Unknown.Entries(), 30)
	case notifier.CommandScan:
		report, err := s.scan()
		if err != nil {
			return fmt.Sprintf("❌ 截图扫描失败: %v", err)
		}
		return notifier.FormatBatchReport(report.Summary())
	default:
		return helpText
	}
}

const helpText = "可用命令:\n• /top [N] 价格排行\n• /price 物品名称\n• /unknown 未知物品\n• /scan 立即扫描截图"

// itemPrice resolves name exactly in the price history, falling back to the catalog's
// canonical spelling for partial names.
func (s *Scheduler) itemPrice(name string) string {
	a := s.Collector.Analyzer
	if agg, ok := a.History.Aggregate(name); ok {
		return notifier.FormatItemPrice(agg)
	}
	if e, ok := a.Catalog.Lookup(name); ok {
		if agg, ok := a.History.Aggregate(e.Name); ok {
			return notifier.FormatItemPrice(agg)
		}
		return fmt.Sprintf("📖 %s 暂无价格记录，图鉴估值 %d 币 (%s)", e.Name, e.Value, e.Rarity)
	}
	return fmt.Sprintf("没有找到 %s 的价格记录", name)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
