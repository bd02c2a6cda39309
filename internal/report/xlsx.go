package report

import (
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"LootLedger/internal/model"
	"LootLedger/internal/notifier"
)

const (
	PricesSheet  = "当前价格"
	UnknownSheet = "未知物品"
)

var (
	priceHeader   = []any{"物品", "当前价格", "最低", "最高", "平均", "趋势", "样本数", "更新时间"}
	unknownHeader = []any{"名称", "最高置信度", "出现次数"}
)

// ExportXLSX writes the current prices (already sorted) and the unknown items to a workbook at path.
func ExportXLSX(path string, prices []model.PriceAggregate, unknown []model.UnknownItemEntry) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[WARN] close workbook: %v", err)
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", PricesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := make([][]any, 0, len(prices))
	for _, a := range prices {
		rows = append(rows, []any{
			a.Name, a.Latest, a.Min, a.Max, a.Avg,
			notifier.TrendSymbol(a.Trend) + " " + string(a.Trend),
			a.SampleCount, a.LastUpdate,
		})
	}
	if err := writeSheet(f, PricesSheet, priceHeader, rows, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(UnknownSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", UnknownSheet, err)
	}
	rows = rows[:0]
	for _, u := range unknown {
		rows = append(rows, []any{u.Name, u.Confidence, u.Count})
	}
	if err := writeSheet(f, UnknownSheet, unknownHeader, rows, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	log.Printf("[INFO] exported %d prices and %d unknown items to %s", len(prices), len(unknown), path)
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
