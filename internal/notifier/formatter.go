package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"LootLedger/internal/model"
)

var trendSymbols = map[model.Trend]string{
	model.TrendRising:  "📈",
	model.TrendFalling: "📉",
	model.TrendStable:  "➡️",
	model.TrendUnknown: "❓",
}

// TrendSymbol returns the emoji shown next to a price for trend t.
func TrendSymbol(t model.Trend) string {
	if s, ok := trendSymbols[t]; ok {
		return s
	}
	return trendSymbols[model.TrendUnknown]
}

func coins(n int) string {
	return humanize.Comma(int64(n)) + " 币"
}

// FormatTopPrices lists the n most expensive items, sorted by latest price.
func FormatTopPrices(sorted []model.PriceAggregate, n int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>价格排行</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))
	if len(sorted) == 0 {
		b.WriteString("暂无价格数据")
		return b.String()
	}
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	for i, a := range sorted {
		b.WriteString(fmt.Sprintf("%2d. <b>%s</b> %s %s\n", i+1, html.EscapeString(a.Name), coins(a.Latest), TrendSymbol(a.Trend)))
		b.WriteString(fmt.Sprintf("    最低 %s | 最高 %s | 平均 %s | 样本 %d\n",
			humanize.Comma(int64(a.Min)), humanize.Comma(int64(a.Max)), humanize.Comma(int64(a.Avg)), a.SampleCount))
	}
	return b.String()
}

// FormatItemPrice formats the full statistics of one item.
func FormatItemPrice(a model.PriceAggregate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💰 <b>%s</b> %s\n\n", html.EscapeString(a.Name), TrendSymbol(a.Trend)))
	b.WriteString(fmt.Sprintf("当前: %s\n", coins(a.Latest)))
	b.WriteString(fmt.Sprintf("最低: %s\n", coins(a.Min)))
	b.WriteString(fmt.Sprintf("最高: %s\n", coins(a.Max)))
	b.WriteString(fmt.Sprintf("平均: %s\n", coins(a.Avg)))
	b.WriteString(fmt.Sprintf("样本: %d 次\n", a.SampleCount))
	b.WriteString(fmt.Sprintf("更新: %s\n", a.LastUpdate))
	return b.String()
}

// BatchSummary is the subset of a batch report worth telling the operator about.
type BatchSummary struct {
	Images       int
	Observations int
	Unknown      int
	Skipped      int
	Duration     time.Duration
}

// FormatBatchReport formats the outcome of one screenshot batch.
func FormatBatchReport(s BatchSummary) string {
	var b strings.Builder
	b.WriteString("📸 <b>截图分析完成</b>\n\n")
	b.WriteString(fmt.Sprintf("截图: %d 张", s.Images))
	if s.Skipped > 0 {
		b.WriteString(fmt.Sprintf(" (跳过 %d)", s.Skipped))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("价格记录: %d 条\n", s.Observations))
	b.WriteString(fmt.Sprintf("未知物品: %d 个\n", s.Unknown))
	b.WriteString(fmt.Sprintf("耗时: %s\n", s.Duration.Round(time.Millisecond)))
	return b.String()
}

// FormatUnknownItems lists unknown item sightings in the given order.
func FormatUnknownItems(entries []model.UnknownItemEntry, n int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❔ <b>未知物品</b> (%d)\n\n", len(entries)))
	if len(entries) == 0 {
		b.WriteString("没有待确认的物品 ✅")
		return b.String()
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("• %s ×%d (%.0f%%)\n", html.EscapeString(e.Name), e.Count, e.Confidence*100))
	}
	return b.String()
}
