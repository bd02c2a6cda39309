package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"LootLedger/internal/model"
)

// Placeholder marks a pending field the operator has not filled in yet.
const Placeholder = "_____"

// PendingItem is a filled-in line of the pending import file.
type PendingItem struct {
	Name   string
	Price  int
	Rarity model.Rarity
}

// SkippedLine is a data line that was not imported.
type SkippedLine struct {
	Line   int
	Text   string
	Reason string
}

// ParsePending reads the line-oriented pending format: "name | price | rarity".
// Comments (#) and blank lines are ignored; lines still holding the placeholder are
// skipped, as are lines with a bad price or rarity. Only I/O errors are returned.
func ParsePending(r io.Reader) ([]PendingItem, []SkippedLine, error) {
	var items []PendingItem
	var skipped []SkippedLine

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		skip := func(reason string) {
			skipped = append(skipped, SkippedLine{Line: lineNo, Text: line, Reason: reason})
		}

		parts := strings.Split(line, "|")
		if len(parts) != 3 {
			skip("expected 3 fields")
			continue
		}
		name := strings.TrimSpace(parts[0])
		priceText := strings.TrimSpace(parts[1])
		rarityText := strings.TrimSpace(parts[2])

		if unfilled(priceText, rarityText) {
			skip("not filled in")
			continue
		}
		if name == "" {
			skip("empty name")
			continue
		}
		price, err := strconv.Atoi(strings.ReplaceAll(priceText, ",", ""))
		if err != nil || price < 0 {
			skip(fmt.Sprintf("bad price %q", priceText))
			continue
		}
		rarity, ok := model.ParseRarity(strings.ToLower(rarityText))
		if !ok {
			skip(fmt.Sprintf("bad rarity %q", rarityText))
			continue
		}
		items = append(items, PendingItem{Name: name, Price: price, Rarity: rarity})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read pending items: %w", err)
	}
	return items, skipped, nil
}

func unfilled(price, rarity string) bool {
	return strings.Contains(price, "_") || strings.Contains(rarity, "_")
}

// WritePending writes a pending template for names, one placeholder line each.
func WritePending(w io.Writer, names []string) error {
	return writePending(w, nil, names)
}

// writePending writes the header, then the operator's filled lines as they were,
// then a placeholder line for every name.
func writePending(w io.Writer, filled, names []string) error {
	var b strings.Builder
	b.WriteString("# 待添加的物品配置\n")
	b.WriteString("# 格式：物品名称 | 价格 | 稀有度\n")
	b.WriteString("# 稀有度选项：common, uncommon, rare, epic, legendary\n")
	b.WriteString("# 示例：新武器X | 50000 | rare\n\n")
	for _, line := range filled {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, name := range names {
		fmt.Fprintf(&b, "%s | %s | %s\n", name, Placeholder, Placeholder)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WritePendingFile writes the pending template to path, replacing any previous one.
func WritePendingFile(path string, names []string) error {
	return writePendingFile(path, nil, names)
}

// RefreshPendingFile rewrites the pending file at path for names without losing
// the operator's work: lines already filled in are kept verbatim until their name
// is in the catalog, and names they cover get no placeholder. Placeholder lines for
// names no longer listed are dropped.
func (c *Catalog) RefreshPendingFile(path string, names []string) error {
	filled, covered, err := filledLines(path)
	if err != nil {
		return err
	}
	var keep []string
	for _, fl := range filled {
		if !c.Has(fl.name) {
			keep = append(keep, fl.text)
		}
	}
	var fresh []string
	for _, name := range names {
		if !covered[name] && !c.Has(name) {
			fresh = append(fresh, name)
		}
	}
	if len(keep) == 0 && len(fresh) == 0 {
		return nil
	}
	return writePendingFile(path, keep, fresh)
}

type filledLine struct {
	name string
	text string
}

// filledLines returns the data lines of an existing pending file that no longer
// hold a placeholder, plus the set of names they cover. A missing file has none.
func filledLines(path string) ([]filledLine, map[string]bool, error) {
	covered := make(map[string]bool)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, covered, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open pending file: %w", err)
	}
	defer f.Close()

	var lines []filledLine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) == 3 && unfilled(strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])) {
			continue
		}
		name := strings.TrimSpace(parts[0])
		covered[name] = true
		lines = append(lines, filledLine{name: name, text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read pending file: %w", err)
	}
	return lines, covered, nil
}

func writePendingFile(path string, filled, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	if err := writePending(f, filled, names); err != nil {
		f.Close()
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadPendingFile parses the pending file at path.
func ReadPendingFile(path string) ([]PendingItem, []SkippedLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pending file: %w", err)
	}
	defer f.Close()
	return ParsePending(f)
}
