package core

// The category taxonomy is a fixed, ordered, closed vocabulary. Both
// expenses and budget entries draw from it; the store does not enforce
// membership, callers coerce unknown values to FallbackCategory first.

var categories = []string{
	"食費", "外食費", "日用品", "交通費", "家賃",
	"通信費(Wi-Fi)", "通信費(携帯)", "ナッシュ", "Netflix", "Google One",
	"電気", "ガス", "水道", "電話代",
	"娯楽・趣味", "美容・衣類", "交際費", "医療費", "特別費", "その他",
}

const (
	// FallbackCategory absorbs anything outside the taxonomy.
	FallbackCategory = "その他"

	// DefaultCategory preselects the entry form.
	DefaultCategory = "食費"
)

// Categories returns the taxonomy in display order. The caller gets a
// copy and may not mutate the vocabulary.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsValidCategory reports membership in the taxonomy.
func IsValidCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// NormalizeCategory coerces unknown categories to FallbackCategory.
func NormalizeCategory(name string) string {
	if IsValidCategory(name) {
		return name
	}
	return FallbackCategory
}
