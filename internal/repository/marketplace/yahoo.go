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
	YahooDefaultURL = "https://shopping.yahooapis.jp/ShoppingWebService/V3/itemSearch"
	yahooMaxHits    = 50
)

type yahooResponse struct {
	Hits []yahooHit `json:"hits"`
}

type yahooHit struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Price       int    `json:"price"`
	Image       struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
	} `json:"image"`
	Seller struct {
		Name string `json:"name"`
	} `json:"seller"`
}

// Yahoo searches Yahoo! Shopping through the V3 itemSearch API.
type Yahoo struct {
	*client
}

func NewYahoo(cfg Config) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = YahooDefaultURL
	}
	return &Yahoo{client: newClient(domain.MallYahoo, cfg)}
}

func (y *Yahoo) Name() domain.Mall { return domain.MallYahoo }

func (y *Yahoo) Search(ctx context.Context, q search.Query) ([]domain.SearchItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	params := url.Values{}
	params.Set("appid", y.cfg.AppID)
	params.Set("query", q.Keywords)
	params.Set("results", strconv.Itoa(clampHits(q.Hits, yahooMaxHits)))
	params.Set("in_stock", "true")
	if y.cfg.AffiliateID != "" {
		params.Set("affiliate_type", "vc")
		params.Set("affiliate_id", y.cfg.AffiliateID)
	}
	if q.MinPrice > 0 {
		params.Set("price_from", strconv.Itoa(q.MinPrice))
	}
	if q.MaxPrice > 0 {
		params.Set("price_to", strconv.Itoa(q.MaxPrice))
	}

	body, err := y.get(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", q.Keywords, err)
	}

	var resp yahooResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("failed to decode yahoo response: %w", err)}
	}

	items := make([]domain.SearchItem, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		if h.URL == "" && h.Code == "" {
			continue
		}
		image := h.Image.Medium
		if image == "" {
			image = h.Image.Small
		}
		items = append(items, domain.SearchItem{
			ID:          h.Code,
			Mall:        domain.MallYahoo,
			Title:       strings.TrimSpace(h.Name),
			Description: h.Description,
			URL:         h.URL,
			Image:       image,
			Price:       h.Price,
			Shop:        h.Seller.Name,
		})
	}

	return items, nil
}

var _ search.Marketplace = (*Yahoo)(nil)
