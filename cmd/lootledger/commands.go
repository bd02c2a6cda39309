package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"LootLedger/internal/api"
	"LootLedger/internal/catalog"
	"LootLedger/internal/collector"
	"LootLedger/internal/history"
	"LootLedger/internal/importer"
	"LootLedger/internal/notifier"
	"LootLedger/internal/report"
	"LootLedger/internal/scheduler"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func dirArg(a *app, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Screenshots.Dir
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [dir]",
		Short: "Analyze every screenshot in a folder once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			col, err := a.collector()
			if err != nil {
				return err
			}
			rep, err := col.RunBatch(dirArg(a, args))
			if err != nil {
				return err
			}
			if err := col.Flush(); err != nil {
				return err
			}

			fmt.Println(plain(notifier.FormatBatchReport(rep.Summary())))
			for _, s := range rep.Skipped {
				fmt.Printf("  跳过 %s: %s\n", s.Path, s.Reason)
			}
			if a.unknown.Len() > 0 {
				fmt.Printf("有 %d 个未知物品，请编辑 %s 后运行 import\n", a.unknown.Len(), a.cfg.PendingPath())
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Analyze screenshots as they are saved into a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext()
			defer stop()

			col, err := a.collector()
			if err != nil {
				return err
			}
			w := collector.NewWatcher(col, dirArg(a, args))
			w.OnBatch = func(r *collector.BatchReport) {
				fmt.Println(plain(notifier.FormatBatchReport(r.Summary())))
			}
			return w.Run(ctx)
		},
	}
}

func runCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler, Telegram bot and HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext()
			defer stop()

			var n notifier.Notifier = notifier.LogNotifier{}
			var tn *notifier.TelegramNotifier
			if a.cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
				n = tn
			} else {
				log.Println("[WARN] Telegram not configured, reports go to the log")
			}

			col, err := a.collector()
			if err != nil {
				return err
			}
			sched := scheduler.NewScheduler(ctx, col, n, a.cfg.Screenshots.Dir, a.cfg.Schedule.ReportTop)
			if err := sched.RegisterAll(a.cfg.Schedule.ScanCron, a.cfg.Schedule.ReportCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return api.Serve(ctx, a.cfg.HTTP.Listen, api.NewRouter(a.catalog, a.unknown, a.history))
			})
			if tn != nil {
				g.Go(func() error {
					tn.StartPolling(ctx, sched.HandleCommand)
					return nil
				})
				log.Println("[INFO] Telegram polling started")
			}
			if watch {
				g.Go(func() error {
					return collector.NewWatcher(col, a.cfg.Screenshots.Dir).Run(ctx)
				})
			}

			if os.Getenv("RUN_ON_START") == "true" {
				log.Println("[INFO] RUN_ON_START enabled, scanning now")
				go sched.RunScanNow()
			}

			log.Println("[INFO] LootLedger is running. Press Ctrl+C to stop.")
			err = g.Wait()
			log.Println("[INFO] LootLedger stopped")
			return err
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "also analyze screenshots as soon as they appear")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the price data over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signalContext()
			defer stop()
			return api.Serve(ctx, a.cfg.HTTP.Listen, api.NewRouter(a.catalog, a.unknown, a.history))
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [pending-file]",
		Short: "Add hand-filled pending items to the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			path := a.cfg.PendingPath()
			if len(args) > 0 {
				path = args[0]
			}
			items, skipped, err := catalog.ReadPendingFile(path)
			if err != nil {
				return err
			}
			for _, s := range skipped {
				fmt.Printf("  第 %d 行跳过 (%s): %s\n", s.Line, s.Reason, s.Text)
			}
			res, err := a.importer().ImportPending(items)
			if err != nil {
				return err
			}
			printResult("导入", res)
			return nil
		},
	}
}

func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Promote unknown items into the catalog and clear the unknown list",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.importer().PromoteUnknown()
			if err != nil {
				return err
			}
			printResult("自动导入", res)
			return nil
		},
	}
}

func rebuildCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-catalog",
		Short: "Write catalog entries for every item with price history",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.importer().FromHistory()
			if err != nil {
				return err
			}
			printResult("从价格历史生成", res)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var top int
	var unknownItems bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the most expensive items",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sorted := history.SortByLatest(a.history.SnapshotAll())
			fmt.Println(plain(notifier.FormatTopPrices(sorted, top)))
			if unknownItems {
				fmt.Println(plain(notifier.FormatUnknownItems(a.unknown.Entries(), 0)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of items to show (0 for all)")
	cmd.Flags().BoolVar(&unknownItems, "unknown", false, "also list unknown items")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export current prices and unknown items to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sorted := history.SortByLatest(a.history.SnapshotAll())
			return report.ExportXLSX(args[0], sorted, a.unknown.Entries())
		},
	}
}

func printResult(label string, res *importer.Result) {
	fmt.Printf("%s完成: 新增 %d, 更新 %d, 跳过 %d\n", label, len(res.Added), len(res.Updated), len(res.Skipped))
	for _, e := range res.Added {
		fmt.Printf("  + %-24s %8d 币 [%s] %s\n", e.Name, e.Value, e.Rarity, e.Category)
	}
	for _, e := range res.Updated {
		fmt.Printf("  ~ %-24s %8d 币 [%s] %s\n", e.Name, e.Value, e.Rarity, e.Category)
	}
	for _, s := range res.Skipped {
		fmt.Printf("  - %-24s %s\n", s.Name, s.Reason)
	}
}
