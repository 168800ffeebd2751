package domain

// CategoryID identifies a pillow archetype the diagnosis scores and recommends.
// The set is closed; declaration order is the tie-break order for equal scores.
type CategoryID string

const (
	CategoryLowLoft     CategoryID = "low-loft"
	CategoryMidLoft     CategoryID = "mid-loft"
	CategoryHighLoft    CategoryID = "high-loft"
	CategorySideContour CategoryID = "side-contour"
	CategoryBackContour CategoryID = "back-contour"
	CategoryAdjustable  CategoryID = "adjustable"
	CategoryCooling     CategoryID = "cooling"
	CategoryFirmSupport CategoryID = "firm-support"
	CategorySoftPlush   CategoryID = "soft-plush"
	CategoryNaturalFill CategoryID = "natural-fill"
)

var allCategories = []CategoryID{
	CategoryLowLoft,
	CategoryMidLoft,
	CategoryHighLoft,
	CategorySideContour,
	CategoryBackContour,
	CategoryAdjustable,
	CategoryCooling,
	CategoryFirmSupport,
	CategorySoftPlush,
	CategoryNaturalFill,
}

var categoryLabels = map[CategoryID]string{
	CategoryLowLoft:     "low-loft pillow",
	CategoryMidLoft:     "mid-loft pillow",
	CategoryHighLoft:    "high-loft pillow",
	CategorySideContour: "side-sleeper contour pillow",
	CategoryBackContour: "back-sleeper contour pillow",
	CategoryAdjustable:  "height-adjustable pillow",
	CategoryCooling:     "cooling pillow",
	CategoryFirmSupport: "firm-support pillow",
	CategorySoftPlush:   "soft plush pillow",
	CategoryNaturalFill: "natural-fill pillow",
}

// AllCategories returns every category in declaration order.
func AllCategories() []CategoryID {
	out := make([]CategoryID, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c belongs to the closed category set.
func (c CategoryID) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Index is the declaration position of c, or -1 when unknown.
func (c CategoryID) Index() int {
	for i, id := range allCategories {
		if id == c {
			return i
		}
	}
	return -1
}

// Label is a human readable name used in summaries.
func (c CategoryID) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}
