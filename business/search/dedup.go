package search

import (
	"net/url"
	"strings"

	"mmDiagnosis/domain"
)

// CanonicalURL strips the query string and fragment, lowercases the host
// and drops a trailing slash.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
		return strings.TrimSuffix(raw, "/")
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}

// DedupKey identifies a listing within its marketplace: the item id when
// present, otherwise the canonical URL.
func DedupKey(item domain.SearchItem) string {
	if id := strings.TrimSpace(item.ID); id != "" {
		return string(item.Mall) + "|id|" + id
	}
	return string(item.Mall) + "|url|" + CanonicalURL(item.URL)
}

// Dedup collapses listings with the same key, keeping the one with the
// lower nonzero price at the position of the first occurrence. Kept items
// are copies with a canonical URL.
func Dedup(items []domain.SearchItem) []domain.SearchItem {
	index := make(map[string]int, len(items))
	out := make([]domain.SearchItem, 0, len(items))

	for _, it := range items {
		it.URL = CanonicalURL(it.URL)
		key := DedupKey(it)

		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, it)
			continue
		}
		if cheaper(it, out[i]) {
			out[i] = it
		}
	}

	return out
}

func cheaper(cand, kept domain.SearchItem) bool {
	if !cand.HasPrice() {
		return false
	}
	return !kept.HasPrice() || cand.Price < kept.Price
}
