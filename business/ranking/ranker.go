package ranking

import (
	"fmt"
	"sort"
	"strings"

	"mmDiagnosis/domain"
)

const (
	defaultPrimarySize   = 3
	defaultSecondarySize = 3
)

type Config struct {
	PrimarySize   int
	SecondarySize int
}

func DefaultConfig() Config {
	return Config{
		PrimarySize:   defaultPrimarySize,
		SecondarySize: defaultSecondarySize,
	}
}

// Ranker orders marketplace items against a user profile. It keeps no
// state between calls.
type Ranker struct {
	cfg Config
}

func NewRanker(cfg Config) *Ranker {
	if cfg.PrimarySize <= 0 {
		cfg.PrimarySize = defaultPrimarySize
	}
	if cfg.SecondarySize < 0 {
		cfg.SecondarySize = defaultSecondarySize
	}
	return &Ranker{cfg: cfg}
}

// attributes inferred from an item's free text
type attributes struct {
	postures  map[string]bool
	concerns  map[string]bool
	materials map[string]bool
}

func infer(item domain.SearchItem) attributes {
	text := strings.ToLower(item.Title + " " + item.Description)
	a := attributes{
		postures:  map[string]bool{},
		concerns:  map[string]bool{},
		materials: map[string]bool{},
	}
	for k, kws := range postureKeywords {
		a.postures[k] = containsAny(text, kws)
	}
	for k, kws := range concernKeywords {
		a.concerns[k] = containsAny(text, kws)
	}
	for k, kws := range materialKeywords {
		a.materials[k] = containsAny(text, kws)
	}
	return a
}

func itemKey(item domain.SearchItem) string {
	if item.ID != "" {
		return string(item.Mall) + ":" + item.ID
	}
	return string(item.Mall) + ":" + item.URL
}

// Rank scores every item and splits them into a primary group and a
// diversified secondary group. Ordering is posture matches, then concern
// matches, then material match, then price ascending with unknown prices
// last; remaining ties keep input order.
func (r *Ranker) Rank(items []domain.SearchItem, profile domain.Profile) domain.RankedProducts {
	out := domain.RankedProducts{
		Primary:   []domain.RankedItem{},
		Secondary: []domain.RankedItem{},
	}
	if len(items) == 0 {
		return out
	}

	memo := make(map[string]attributes, len(items))
	ranked := make([]domain.RankedItem, 0, len(items))
	for _, item := range items {
		key := itemKey(item)
		attrs, ok := memo[key]
		if !ok {
			attrs = infer(item)
			memo[key] = attrs
		}
		ranked = append(ranked, match(item, attrs, profile))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	n := r.cfg.PrimarySize
	if n > len(ranked) {
		n = len(ranked)
	}
	out.Primary = append(out.Primary, ranked[:n]...)

	top := ranked[0]
	for _, cand := range ranked[n:] {
		if len(out.Secondary) >= r.cfg.SecondarySize {
			break
		}
		if cand.PostureMatch < top.PostureMatch {
			continue
		}
		if diversifies(top, cand) {
			out.Secondary = append(out.Secondary, cand)
		}
	}

	return out
}

func match(item domain.SearchItem, attrs attributes, p domain.Profile) domain.RankedItem {
	ri := domain.RankedItem{Item: item, Why: []string{}}

	for _, posture := range p.Postures {
		if attrs.postures[posture] {
			ri.PostureMatch++
			ri.Why = append(ri.Why, "suits "+label(postureLabels, posture))
		}
	}
	for _, c := range p.Concerns {
		if attrs.concerns[c] {
			ri.ConcernMatch++
			ri.Why = append(ri.Why, "helps with "+label(concernLabels, c))
		}
	}
	if p.Material != "" && attrs.materials[p.Material] {
		ri.MaterialMatch = true
		ri.Why = append(ri.Why, "made with "+strings.ReplaceAll(p.Material, "_", " "))
	}
	if p.Budget != nil && item.HasPrice() && p.Budget.Contains(item.Price) {
		ri.Why = append(ri.Why, fmt.Sprintf("within the %s budget", p.Budget.ID))
	}

	return ri
}

func less(a, b domain.RankedItem) bool {
	if a.PostureMatch != b.PostureMatch {
		return a.PostureMatch > b.PostureMatch
	}
	if a.ConcernMatch != b.ConcernMatch {
		return a.ConcernMatch > b.ConcernMatch
	}
	if a.MaterialMatch != b.MaterialMatch {
		return a.MaterialMatch
	}
	ap, bp := a.Item.HasPrice(), b.Item.HasPrice()
	if ap != bp {
		return ap
	}
	return ap && a.Item.Price < b.Item.Price
}

func diversifies(top, cand domain.RankedItem) bool {
	return cand.ConcernMatch != top.ConcernMatch ||
		cand.MaterialMatch != top.MaterialMatch ||
		cand.Item.Mall != top.Item.Mall ||
		cand.Item.Shop != top.Item.Shop
}
