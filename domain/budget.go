package domain

// BudgetBand is a contiguous price range in yen. Min is inclusive, Max is
// exclusive; a nil Max means the band is open-ended.
type BudgetBand struct {
	ID  string `json:"id" yaml:"id"`
	Min int    `json:"min" yaml:"min"`
	Max *int   `json:"max" yaml:"max"`
}

// Contains reports whether price falls inside the band.
func (b BudgetBand) Contains(price int) bool {
	if price < b.Min {
		return false
	}
	return b.Max == nil || price < *b.Max
}

// Bounds returns the inclusive price range usable as marketplace filters.
// maxPrice is 0 for an open-ended band.
func (b BudgetBand) Bounds() (minPrice, maxPrice int) {
	if b.Max == nil {
		return b.Min, 0
	}
	return b.Min, *b.Max - 1
}
