package search

import "mmDiagnosis/domain"

const maxBroadQueries = 5

var categoryQueries = map[domain.CategoryID][]string{
	domain.CategoryLowLoft:     {"低め 枕", "薄型 枕"},
	domain.CategoryMidLoft:     {"枕 標準 高さ"},
	domain.CategoryHighLoft:    {"高め 枕"},
	domain.CategorySideContour: {"横向き寝 枕"},
	domain.CategoryBackContour: {"仰向け 枕 首 フィット"},
	domain.CategoryAdjustable:  {"高さ調整 枕"},
	domain.CategoryCooling:     {"冷感 枕", "通気性 枕"},
	domain.CategoryFirmSupport: {"高反発 枕"},
	domain.CategorySoftPlush:   {"ふわふわ 枕", "羽毛 枕"},
	domain.CategoryNaturalFill: {"そば殻 枕"},
}

var broadQueries = map[domain.CategoryID]string{
	domain.CategoryLowLoft:     "低い 枕",
	domain.CategoryMidLoft:     "枕 人気",
	domain.CategoryHighLoft:    "高い 枕",
	domain.CategorySideContour: "横向き 枕",
	domain.CategoryBackContour: "首 枕",
	domain.CategoryAdjustable:  "調整 枕",
	domain.CategoryCooling:     "ひんやり 枕",
	domain.CategoryFirmSupport: "硬め 枕",
	domain.CategorySoftPlush:   "柔らかい 枕",
	domain.CategoryNaturalFill: "天然素材 枕",
}

// genericQueries is the fixed pool appended on keyword relaxation.
var genericQueries = []string{"枕", "快眠 枕", "まくら"}

// KeywordsFor derives marketplace queries for categories, in category order,
// without duplicates.
func KeywordsFor(categories []domain.CategoryID) []string {
	var out []string
	for _, c := range categories {
		out = append(out, categoryQueries[c]...)
	}
	return uniqueStrings(out)
}

// BroadKeywords is the looser query set: one broad term for each of the
// leading categories followed by the whole generic pool.
func BroadKeywords(categories []domain.CategoryID) []string {
	out := make([]string, 0, maxBroadQueries)
	for _, c := range categories {
		if len(out) == maxBroadQueries-len(genericQueries) {
			break
		}
		if q, ok := broadQueries[c]; ok {
			out = append(out, q)
		}
	}
	return uniqueStrings(append(out, genericQueries...))
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
