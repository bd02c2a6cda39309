package importer

import (
	"strings"

	"LootLedger/internal/model"
)

// valueTiers estimate an item's worth from its name when no price was ever observed.
var valueTiers = []struct {
	Value    int
	Keywords []string
}{
	{150000, []string{"精英", "稀有", "传说", "史诗", "黄金", "特种", "KC17", "K416", "M7", "HK", "SCAR-H"}},
	{80000, []string{"战术", "重型", "夜视", "防暴", "突击", "M4A1", "AK", "AUG", "AS Val"}},
	{30000, []string{"训练", "基础", "标准", "轻型", "QBZ", "SG552", "G3", "CAR-15"}},
}

// DefaultEstimate is the value of a name matching no tier.
const DefaultEstimate = 50000

// EstimateValue returns the value of the first tier with a keyword contained in name.
func EstimateValue(name string) int {
	for _, t := range valueTiers {
		for _, kw := range t.Keywords {
			if strings.Contains(name, kw) {
				return t.Value
			}
		}
	}
	return DefaultEstimate
}

type rarityTier struct {
	MinPrice int
	Rarity   model.Rarity
}

// promoteRarity grades promoted unknown items.
var promoteRarity = []rarityTier{
	{150000, model.RarityEpic},
	{80000, model.RarityRare},
	{40000, model.RarityUncommon},
}

// historyRarity grades items rebuilt from price history by their average price.
var historyRarity = []rarityTier{
	{180000, model.RarityEpic},
	{100000, model.RarityRare},
	{50000, model.RarityUncommon},
}

func mapRarity(tiers []rarityTier, price int) model.Rarity {
	for _, t := range tiers {
		if price >= t.MinPrice {
			return t.Rarity
		}
	}
	return model.RarityCommon
}

// genericWords are UI labels and category names that look like items but never are.
var genericWords = map[string]bool{
	"装备": true, "武器": true, "头盔": true, "护甲": true, "背包": true,
	"交易行": true, "仓库": true, "特勤处": true, "开始游戏": true,
	"FIRST": true, "AID": true, "HELP": true, "EXIT": true,
	"确定": true, "取消": true, "返回": true, "关闭": true,
}
