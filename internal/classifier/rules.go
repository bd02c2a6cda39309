package classifier

import "LootLedger/internal/model"

// Rule tags every name containing one of Keywords with Category.
type Rule struct {
	Category model.Category
	Keywords []string
}

// DefaultRules is the item vocabulary. Order matters for DetectCategory: the first matching rule wins.
var DefaultRules = []Rule{
	{model.CategoryWeapon, []string{"步枪", "突击", "战斗", "狙击", "手枪", "霰弹", "冲锋", "机枪", "榴弹", "火箭", "匕首", "刀", "剑"}},
	{model.CategoryArmor, []string{"头盔", "护甲", "背心", "防弹"}},
	{model.CategoryEquipment, []string{"背包", "护目镜", "战术", "装备", "腰带", "手套", "靴子"}},
	{model.CategoryMaterial, []string{"砖", "板", "金属", "芯片", "零件", "电路", "材料", "合金", "晶体", "药剂", "文件", "情报"}},
}
