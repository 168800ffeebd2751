package marketplace

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"

	"github.com/goccy/go-json"
)

const (
	RakutenDefaultURL = "https://app.rakuten.co.jp/services/api/IchibaItem/Search/20220601"
	rakutenMaxHits    = 30
)

type rakutenResponse struct {
	Items []rakutenItem `json:"Items"`
	Error string        `json:"error"`
}

type rakutenItem struct {
	ItemCode        string   `json:"itemCode"`
	ItemName        string   `json:"itemName"`
	ItemCaption     string   `json:"itemCaption"`
	ItemURL         string   `json:"itemUrl"`
	ItemPrice       int      `json:"itemPrice"`
	ShopName        string   `json:"shopName"`
	MediumImageURLs []string `json:"mediumImageUrls"`
}

// Rakuten searches Rakuten Ichiba through the Item Search API
// (formatVersion 2).
type Rakuten struct {
	*client
}

func NewRakuten(cfg Config) *Rakuten {
	if cfg.BaseURL == "" {
		cfg.BaseURL = RakutenDefaultURL
	}
	return &Rakuten{client: newClient(domain.MallRakuten, cfg)}
}

func (r *Rakuten) Name() domain.Mall { return domain.MallRakuten }

func (r *Rakuten) Search(ctx context.Context, q search.Query) ([]domain.SearchItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	params := url.Values{}
	params.Set("applicationId", r.cfg.AppID)
	params.Set("format", "json")
	params.Set("formatVersion", "2")
	params.Set("keyword", q.Keywords)
	params.Set("hits", strconv.Itoa(clampHits(q.Hits, rakutenMaxHits)))
	if r.cfg.AffiliateID != "" {
		params.Set("affiliateId", r.cfg.AffiliateID)
	}
	if q.MinPrice > 0 {
		params.Set("minPrice", strconv.Itoa(q.MinPrice))
	}
	if q.MaxPrice > 0 {
		params.Set("maxPrice", strconv.Itoa(q.MaxPrice))
	}

	body, err := r.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("rakuten search %q: %w", q.Keywords, err)
	}

	var resp rakutenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("failed to decode rakuten response: %w", err)}
	}
	if resp.Error != "" {
		return nil, &FatalError{Err: fmt.Errorf("rakuten error: %s", resp.Error)}
	}

	items := make([]domain.SearchItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ItemURL == "" && it.ItemCode == "" {
			continue
		}
		item := domain.SearchItem{
			ID:          it.ItemCode,
			Mall:        domain.MallRakuten,
			Title:       strings.TrimSpace(it.ItemName),
			Description: it.ItemCaption,
			URL:         it.ItemURL,
			Price:       it.ItemPrice,
			Shop:        it.ShopName,
		}
		if len(it.MediumImageURLs) > 0 {
			item.Image = rakutenImage(it.MediumImageURLs[0])
		}
		items = append(items, item)
	}

	return items, nil
}

// rakutenImage drops the thumbnail size suffix so the full image is used.
func rakutenImage(u string) string {
	if i := strings.Index(u, "?_ex="); i >= 0 {
		return u[:i]
	}
	return u
}

func clampHits(n, limit int) int {
	if n <= 0 || n > limit {
		return limit
	}
	return n
}

var _ search.Marketplace = (*Rakuten)(nil)
