package domain

// Mall identifies a marketplace a listing came from.
type Mall string

const (
	MallRakuten Mall = "rakuten"
	MallYahoo   Mall = "yahoo"
)

// SearchItem is one marketplace listing. Items are treated as values:
// transformations return a modified copy. Image and Shop are empty when the
// marketplace did not provide them, and Price is 0 when unknown.
type SearchItem struct {
	ID          string `json:"id"`
	Mall        Mall   `json:"mall"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	Price       int    `json:"price,omitempty"`
	Shop        string `json:"shop,omitempty"`
}

// HasPrice reports whether the marketplace gave a usable price.
func (i SearchItem) HasPrice() bool {
	return i.Price > 0
}

// Profile is the normalized user profile the product ranker matches against.
type Profile struct {
	Postures []string    `json:"postures"`
	Concerns []string    `json:"concerns"`
	Material string      `json:"material,omitempty"`
	Budget   *BudgetBand `json:"budget,omitempty"`
}

type RankedItem struct {
	Item          SearchItem `json:"item"`
	PostureMatch  int        `json:"posture_match"`
	ConcernMatch  int        `json:"concern_match"`
	MaterialMatch bool       `json:"material_match"`
	Why           []string   `json:"why"`
}

type RankedProducts struct {
	Primary   []RankedItem `json:"primary"`
	Secondary []RankedItem `json:"secondary"`
}
