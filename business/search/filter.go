package search

import (
	"strings"

	"mmDiagnosis/domain"
)

// ItemFilter decides whether a listing may be shown at all.
type ItemFilter interface {
	Allow(item domain.SearchItem) bool
}

// ItemFilterFunc adapts a plain function to ItemFilter.
type ItemFilterFunc func(item domain.SearchItem) bool

func (f ItemFilterFunc) Allow(item domain.SearchItem) bool { return f(item) }

var (
	furusatoKeywords  = []string{"ふるさと納税", "返礼品", "furusato"}
	accessoryKeywords = []string{"枕カバー", "ピローケース", "pillow case", "pillowcase", "カバーのみ"}
	bodyKeyword       = "本体"
)

// FurusatoFilter drops hometown-tax rebate listings, which are donations
// rather than purchases.
var FurusatoFilter ItemFilter = ItemFilterFunc(func(item domain.SearchItem) bool {
	title := strings.ToLower(item.Title)
	u := strings.ToLower(item.URL)
	for _, k := range furusatoKeywords {
		if strings.Contains(title, k) || strings.Contains(u, k) {
			return false
		}
	}
	return true
})

// AccessoryFilter drops cover-only listings unless the title says the
// pillow itself is included.
var AccessoryFilter ItemFilter = ItemFilterFunc(func(item domain.SearchItem) bool {
	title := strings.ToLower(item.Title)
	if strings.Contains(title, bodyKeyword) {
		return true
	}
	for _, k := range accessoryKeywords {
		if strings.Contains(title, k) {
			return false
		}
	}
	return true
})

// ImageFilter drops listings without a picture.
var ImageFilter ItemFilter = ItemFilterFunc(func(item domain.SearchItem) bool {
	return strings.TrimSpace(item.Image) != ""
})

// PriceFilter keeps items whose known price falls inside band. Items without
// a price are dropped while a band is active. A nil band allows everything.
func PriceFilter(band *domain.BudgetBand) ItemFilter {
	return ItemFilterFunc(func(item domain.SearchItem) bool {
		if band == nil {
			return true
		}
		return item.HasPrice() && band.Contains(item.Price)
	})
}

// ApplyFilters returns the items every filter allows, in input order.
func ApplyFilters(items []domain.SearchItem, filters ...ItemFilter) []domain.SearchItem {
	out := make([]domain.SearchItem, 0, len(items))
next:
	for _, it := range items {
		for _, f := range filters {
			if !f.Allow(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}
