package model

// Rarity is the in-game rarity tier of an item.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityUnknown   Rarity = "unknown"
)

// ParseRarity maps a string to a known Rarity.
func ParseRarity(s string) (Rarity, bool) {
	switch r := Rarity(s); r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary, RarityUnknown:
		return r, true
	}
	return RarityUnknown, false
}

// Category is the coarse item class.
type Category string

const (
	CategoryWeapon    Category = "weapon"
	CategoryArmor     Category = "armor"
	CategoryEquipment Category = "equipment"
	CategoryMaterial  Category = "material"
	CategoryUnknown   Category = "unknown"
)

// CatalogEntry is a known item. The optional fields are filled by import tools.
type CatalogEntry struct {
	Name         string   `json:"name"`
	Value        int      `json:"value"`
	Rarity       Rarity   `json:"rarity"`
	Category     Category `json:"category"`
	AvgValue     int      `json:"avg_value,omitempty"`
	MinValue     int      `json:"min_value,omitempty"`
	MaxValue     int      `json:"max_value,omitempty"`
	PriceSamples int      `json:"price_samples,omitempty"`
	AutoImported bool     `json:"auto_imported,omitempty"`
	ImportTime   string   `json:"import_time,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	LastUpdate   string   `json:"last_update,omitempty"`
}

// CatalogFile is the on-disk list form of the catalog.
type CatalogFile struct {
	Version    string         `json:"version,omitempty"`
	LastUpdate string         `json:"last_update,omitempty"`
	Items      []CatalogEntry `json:"items"`
}
